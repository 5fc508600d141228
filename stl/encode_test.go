package stl

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/carbon3d/draco/mesh"
)

// encodedNormal reads the normal of facet i from a binary STL buffer.
func encodedNormal(buf []byte, i int) mesh.Vector3 {
	off := 84 + 50*i
	f := func(k int) float32 {
		return math.Float32frombits(binary.LittleEndian.Uint32(buf[off+4*k:]))
	}
	return mesh.Vector3{X: f(0), Y: f(1), Z: f(2)}
}

func triangleMesh(v0, v1, v2 mesh.Vector3) *mesh.Mesh {
	m := mesh.New()
	m.SetNumPoints(3)
	posID := m.AddAttribute(mesh.NewAttribute(mesh.Position, 3, mesh.Vertex, 3))
	pos := m.Attribute(posID)
	pos.SetValue(0, v0)
	pos.SetValue(1, v1)
	pos.SetValue(2, v2)
	m.SetFace(0, mesh.Face{0, 1, 2})
	return m
}

func TestEncodeSynthesizesNormal(t *testing.T) {
	m := triangleMesh(mesh.Vector3{0, 0, 0}, mesh.Vector3{1, 0, 0}, mesh.Vector3{0, 1, 0})
	enc := Encoder{}
	buf, err := enc.EncodeToBuffer(m)
	if err != nil {
		t.Fatalf("EncodeToBuffer: %v", err)
	}
	if len(buf) != 84+50 {
		t.Fatalf("len(buf) = %d, want %d", len(buf), 84+50)
	}

	// With no normal attribute the encoder synthesizes one; for this
	// counter-clockwise triangle in the XY plane it is +Z.
	if got := encodedNormal(buf, 0); got != (mesh.Vector3{0, 0, 1}) {
		t.Errorf("synthesized normal = %v, want {0 0 1}", got)
	}

	// Round-trip through the decoder and confirm the face survives.
	back := mesh.New()
	dec := Decoder{}
	if err := dec.DecodeFromBuffer(buf, back); err != nil {
		t.Fatalf("DecodeFromBuffer: %v", err)
	}
	if back.NumFaces() != 1 {
		t.Fatalf("NumFaces() = %d, want 1", back.NumFaces())
	}
}

func TestEncodeNoPositionAttributeFails(t *testing.T) {
	m := mesh.New()
	enc := Encoder{}
	if _, err := enc.EncodeToBuffer(m); err == nil {
		t.Fatal("expected error encoding a mesh with no position attribute")
	}
}

func TestEncodeDecodeFaceCountPreserving(t *testing.T) {
	m := mesh.New()
	m.SetNumPoints(6)
	posID := m.AddAttribute(mesh.NewAttribute(mesh.Position, 3, mesh.Vertex, 6))
	pos := m.Attribute(posID)
	corners := []mesh.Vector3{
		{0, 0, 0}, {1, 0, 0}, {0, 1, 0},
		{1, 1, 1}, {2, 1, 1}, {1, 2, 1},
	}
	for i, v := range corners {
		pos.SetValue(i, v)
	}
	m.SetFace(0, mesh.Face{0, 1, 2})
	m.SetFace(1, mesh.Face{3, 4, 5})

	enc := Encoder{}
	buf, err := enc.EncodeToBuffer(m)
	if err != nil {
		t.Fatalf("EncodeToBuffer: %v", err)
	}

	back := mesh.New()
	dec := Decoder{}
	if err := dec.DecodeFromBuffer(buf, back); err != nil {
		t.Fatalf("DecodeFromBuffer: %v", err)
	}
	if back.NumFaces() != m.NumFaces() {
		t.Errorf("face count not preserved: got %d, want %d", back.NumFaces(), m.NumFaces())
	}
}

func TestEncodeUsesExplicitNormal(t *testing.T) {
	m := triangleMesh(mesh.Vector3{0, 0, 0}, mesh.Vector3{1, 0, 0}, mesh.Vector3{0, 1, 0})
	normID := m.AddAttribute(mesh.NewAttribute(mesh.Normal, 3, mesh.FaceElement, 1))
	m.Attribute(normID).SetValue(0, mesh.Vector3{0, 0, -1})
	m.InstallFaceIndexMap(normID)

	enc := Encoder{}
	buf, err := enc.EncodeToBuffer(m)
	if err != nil {
		t.Fatalf("EncodeToBuffer: %v", err)
	}
	// The synthesized normal for this triangle would be +Z, so -Z in the
	// output shows the explicit attribute was written.
	if got := encodedNormal(buf, 0); got != (mesh.Vector3{0, 0, -1}) {
		t.Errorf("encoded normal = %v, want {0 0 -1}", got)
	}

	back := mesh.New()
	dec := Decoder{}
	if err := dec.DecodeFromBuffer(buf, back); err != nil {
		t.Fatalf("DecodeFromBuffer: %v", err)
	}
	// The decoder does not carry normals into the mesh, so the round trip
	// only confirms the face survives.
	if back.NumFaces() != 1 {
		t.Fatalf("NumFaces() = %d, want 1", back.NumFaces())
	}
}
