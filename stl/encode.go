package stl

import (
	"encoding/binary"
	"math"
	"os"

	"github.com/carbon3d/draco/mesh"
)

// EncodeMeshAccessor is the narrow read surface the encoder needs from a
// mesh container.
type EncodeMeshAccessor interface {
	FindAttribute(sem mesh.Semantic) (id int, ok bool)
	Attribute(id int) *mesh.Attribute
	NumFaces() int
	Face(i int) mesh.Face
}

// headerPreamble is written into the first 80 bytes of every encoded file.
// The binary STL format does not prescribe header content; this module
// stamps its own name and pads or truncates to exactly 80 bytes.
const headerPreamble = "Binary STL generated by github.com/carbon3d/draco"

// Encoder serializes a mesh as binary STL.
type Encoder struct{}

// EncodeToFile encodes mesh to a binary STL file at path.
func (e *Encoder) EncodeToFile(m EncodeMeshAccessor, path string) error {
	buf, err := e.EncodeToBuffer(m)
	if err != nil {
		return err
	}
	return os.WriteFile(path, buf, 0o644)
}

// EncodeToBuffer encodes mesh as binary STL bytes. It fails if the mesh has
// no position attribute, has zero points, or has more faces than fit in a
// uint32.
func (e *Encoder) EncodeToBuffer(m EncodeMeshAccessor) ([]byte, error) {
	posID, ok := m.FindAttribute(mesh.Position)
	if !ok {
		return nil, ioError("mesh has no position attribute")
	}
	pos := m.Attribute(posID)
	if pos.NumValues() == 0 {
		return nil, ioError("mesh position attribute has no points")
	}

	numFaces := m.NumFaces()
	if uint64(numFaces) > math.MaxUint32 {
		return nil, countOverflowError()
	}

	normID, hasNormal := m.FindAttribute(mesh.Normal)
	var norm *mesh.Attribute
	if hasNormal {
		norm = m.Attribute(normID)
		if norm.NumValues() == 0 {
			hasNormal = false
		}
	}

	buf := make([]byte, 84+50*numFaces)
	var header [80]byte
	copy(header[:], headerPreamble)
	copy(buf[0:80], header[:])
	binary.LittleEndian.PutUint32(buf[80:84], uint32(numFaces))

	off := 84
	for i := 0; i < numFaces; i++ {
		face := m.Face(i)
		v0 := pos.GetMapped(face[0])
		v1 := pos.GetMapped(face[1])
		v2 := pos.GetMapped(face[2])

		var normal mesh.Vector3
		if hasNormal {
			normal = norm.GetMapped(face[0])
		} else {
			// Synthesis formula fixes the winding convention interpreted on
			// decode; keep bit-identical to it.
			normal = v2.Sub(v1).Cross(v0.Sub(v1)).Normalize()
		}

		putVector3(buf[off:], normal)
		putVector3(buf[off+12:], v0)
		putVector3(buf[off+24:], v1)
		putVector3(buf[off+36:], v2)
		binary.LittleEndian.PutUint16(buf[off+48:], 0)
		off += 50
	}
	return buf, nil
}

func putVector3(b []byte, v mesh.Vector3) {
	binary.LittleEndian.PutUint32(b[0:4], math.Float32bits(v.X))
	binary.LittleEndian.PutUint32(b[4:8], math.Float32bits(v.Y))
	binary.LittleEndian.PutUint32(b[8:12], math.Float32bits(v.Z))
}
