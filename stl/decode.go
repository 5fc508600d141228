// Package stl implements STL (stereolithography) decoding and encoding:
// auto-detecting ASCII or binary input, tolerating malformed facets, and
// serializing a mesh back to binary STL with synthesized face normals when
// none are present.
package stl

import (
	"os"
	"strconv"

	"go.uber.org/zap"

	"github.com/carbon3d/draco/mesh"
)

// MeshAccessor is the narrow surface a mesh container must expose for the
// decoder to populate it. mesh.Mesh satisfies this interface; any other
// container with the same methods is a drop-in replacement.
type MeshAccessor interface {
	AddAttribute(a mesh.Attribute) int
	Attribute(id int) *mesh.Attribute
	SetNumPoints(n int)
	SetFace(i int, f mesh.Face)
}

// Deduplicator is an optional capability: if a mesh container implements it,
// the decoder runs value then point-id deduplication after populating the
// mesh, per the STL decode algorithm.
type Deduplicator interface {
	DeduplicateAttributeValues()
	DeduplicatePointIDs()
}

// Decoder decodes STL byte streams into a MeshAccessor. The zero value is
// ready to use; Logger may be set to receive warn-level diagnostics about
// recoverable anomalies (ASCII→binary fallback, a later ASCII solid that
// fails to parse, declared vs. actual binary face counts). ForceBinary skips the ASCII probe entirely, for callers that
// already know the input is binary.
type Decoder struct {
	Logger      *zap.Logger
	ForceBinary bool
}

func (d *Decoder) logger() *zap.Logger {
	if d.Logger == nil {
		return zap.NewNop()
	}
	return d.Logger
}

// DecodeFromFile reads path whole and decodes it into outMesh.
func (d *Decoder) DecodeFromFile(path string, outMesh MeshAccessor) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return ioError("%v", err)
	}
	if len(data) == 0 {
		return ioError("STL file has invalid header.")
	}
	return d.DecodeFromBuffer(data, outMesh)
}

// DecodeFromBuffer decodes the STL data in buf into outMesh.
func (d *Decoder) DecodeFromBuffer(buf []byte, outMesh MeshAccessor) error {
	r := NewByteReader(buf)

	quads, err := d.decodeFacets(r)
	if err != nil {
		return err
	}

	numFaces := len(quads) / 4
	posID := outMesh.AddAttribute(mesh.NewAttribute(mesh.Position, 3, mesh.Vertex, numFaces*3))
	outMesh.SetNumPoints(numFaces * 3)
	pos := outMesh.Attribute(posID)

	for i := 0; i < numFaces; i++ {
		// quads[4*i] holds the facet normal, which is not carried into the
		// decoded mesh.
		v0, v1, v2 := quads[4*i+1], quads[4*i+2], quads[4*i+3]

		v0, v1, v2, err := sanitizeFace(v0, v1, v2)
		if err != nil {
			return err
		}

		start := 3 * i
		pos.SetValue(start, v0)
		pos.SetValue(start+1, v1)
		pos.SetValue(start+2, v2)
		outMesh.SetFace(i, mesh.Face{start, start + 1, start + 2})
	}

	if dedup, ok := outMesh.(Deduplicator); ok {
		dedup.DeduplicateAttributeValues()
		dedup.DeduplicatePointIDs()
	}
	return nil
}

// decodeFacets runs the probe/ASCII/binary/multi-solid/fallback state
// machine and returns the flat [normal, v0, v1, v2, normal, v0, v1, v2, ...]
// quad list, in input order.
func (d *Decoder) decodeFacets(r *ByteReader) ([]mesh.Vector3, error) {
	probe, err := probeFormat(r, d.ForceBinary)
	if err != nil {
		return nil, err
	}
	if probe.isBinary {
		return d.decodeBinaryFacets(r, probe.binaryFaces)
	}
	return d.decodeASCIIFacets(r)
}

func (d *Decoder) decodeBinaryFacets(r *ByteReader, numFaces uint32) ([]mesh.Vector3, error) {
	if avail := r.Remaining(); avail != 50*int(numFaces) {
		d.logger().Warn("stl: declared binary face count does not match the bytes available",
			zap.Uint32("declared_faces", numFaces), zap.Int("available_bytes", avail))
	}
	quads := make([]mesh.Vector3, 0, 4*int(numFaces))
	for i := uint32(0); i < numFaces; i++ {
		normal, v0, v1, v2, err := parseBinaryFace(r)
		if err != nil {
			return nil, err
		}
		quads = append(quads, normal, v0, v1, v2)
	}
	return quads, nil
}

// decodeASCIIFacets parses facets from the current solid until end-of-solid,
// then tries to probe a further solid in the same stream. If the first solid
// fails to parse, fall back to binary entirely; if a later solid fails, stop
// and keep what was already collected.
func (d *Decoder) decodeASCIIFacets(r *ByteReader) ([]mesh.Vector3, error) {
	var quads []mesh.Vector3
	isFirstSolid := true

	for {
		for {
			normal, v0, v1, v2, endOfSolid, err := parseASCIIFace(r)
			if err != nil {
				if isFirstSolid {
					d.logger().Warn("stl: first solid failed to parse as ASCII, falling back to binary",
						zap.Error(err))
					return d.restartAsBinary(r)
				}
				d.logger().Warn("stl: later solid failed to parse, keeping faces collected so far",
					zap.Error(err))
				return quads, nil
			}
			if endOfSolid {
				break
			}
			quads = append(quads, normal, v0, v1, v2)
		}

		if r.Remaining() < 5 {
			return quads, nil
		}
		probe, err := probeFormat(r, false)
		if err != nil || probe.isBinary {
			return quads, nil
		}
		isFirstSolid = false
	}
}

func (d *Decoder) restartAsBinary(r *ByteReader) ([]mesh.Vector3, error) {
	probe, err := probeFormat(r, true)
	if err != nil {
		return nil, err
	}
	return d.decodeBinaryFacets(r, probe.binaryFaces)
}

// parseBinaryFace reads one 50-byte binary STL facet record: 12
// little-endian float32 (normal, v0, v1, v2) followed by a 2-byte attribute
// count, which is discarded.
func parseBinaryFace(r *ByteReader) (normal, v0, v1, v2 mesh.Vector3, err error) {
	facetErr := ioError("Incomplete STL facet description.")
	var vec [12]float32
	if !r.DecodeFloat32s(vec[:]) {
		return mesh.Vector3{}, mesh.Vector3{}, mesh.Vector3{}, mesh.Vector3{}, facetErr
	}
	r.Advance(2)
	normal = mesh.Vector3{X: vec[0], Y: vec[1], Z: vec[2]}
	v0 = mesh.Vector3{X: vec[3], Y: vec[4], Z: vec[5]}
	v1 = mesh.Vector3{X: vec[6], Y: vec[7], Z: vec[8]}
	v2 = mesh.Vector3{X: vec[9], Y: vec[10], Z: vec[11]}
	return normal, v0, v1, v2, nil
}

// parseASCIIFace parses one "facet normal ... outer loop vertex ... vertex
// ... vertex ... endloop endfacet" block. If the first token read is
// "endsolid", it reports endOfSolid = true and no error.
func parseASCIIFace(r *ByteReader) (normal, v0, v1, v2 mesh.Vector3, endOfSolid bool, err error) {
	facetErr := ioError("Invalid STL facet description.")

	tok, ok := r.ParseToken()
	if !ok {
		return mesh.Vector3{}, mesh.Vector3{}, mesh.Vector3{}, mesh.Vector3{}, false, facetErr
	}
	if tok == "endsolid" {
		return mesh.Vector3{}, mesh.Vector3{}, mesh.Vector3{}, mesh.Vector3{}, true, nil
	}
	if tok != "facet" {
		return mesh.Vector3{}, mesh.Vector3{}, mesh.Vector3{}, mesh.Vector3{}, false, facetErr
	}
	if !expectToken(r, "normal") {
		return mesh.Vector3{}, mesh.Vector3{}, mesh.Vector3{}, mesh.Vector3{}, false, facetErr
	}
	if normal, err = parseVector3(r); err != nil {
		return mesh.Vector3{}, mesh.Vector3{}, mesh.Vector3{}, mesh.Vector3{}, false, err
	}
	if !expectToken(r, "outer") || !expectToken(r, "loop") {
		return mesh.Vector3{}, mesh.Vector3{}, mesh.Vector3{}, mesh.Vector3{}, false, facetErr
	}
	if !expectToken(r, "vertex") {
		return mesh.Vector3{}, mesh.Vector3{}, mesh.Vector3{}, mesh.Vector3{}, false, facetErr
	}
	if v0, err = parseVector3(r); err != nil {
		return mesh.Vector3{}, mesh.Vector3{}, mesh.Vector3{}, mesh.Vector3{}, false, err
	}
	if !expectToken(r, "vertex") {
		return mesh.Vector3{}, mesh.Vector3{}, mesh.Vector3{}, mesh.Vector3{}, false, facetErr
	}
	if v1, err = parseVector3(r); err != nil {
		return mesh.Vector3{}, mesh.Vector3{}, mesh.Vector3{}, mesh.Vector3{}, false, err
	}
	if !expectToken(r, "vertex") {
		return mesh.Vector3{}, mesh.Vector3{}, mesh.Vector3{}, mesh.Vector3{}, false, facetErr
	}
	if v2, err = parseVector3(r); err != nil {
		return mesh.Vector3{}, mesh.Vector3{}, mesh.Vector3{}, mesh.Vector3{}, false, err
	}
	if !expectToken(r, "endloop") || !expectToken(r, "endfacet") {
		return mesh.Vector3{}, mesh.Vector3{}, mesh.Vector3{}, mesh.Vector3{}, false, facetErr
	}
	return normal, v0, v1, v2, false, nil
}

func expectToken(r *ByteReader, want string) bool {
	tok, ok := r.ParseToken()
	return ok && tok == want
}

func parseVector3(r *ByteReader) (mesh.Vector3, error) {
	var v mesh.Vector3
	floatErr := ioError("Invalid float in STL facet description.")

	xs, ok := r.ParseToken()
	if !ok {
		return v, floatErr
	}
	x, err := strconv.ParseFloat(xs, 32)
	if err != nil {
		return v, floatErr
	}
	ys, ok := r.ParseToken()
	if !ok {
		return v, floatErr
	}
	y, err := strconv.ParseFloat(ys, 32)
	if err != nil {
		return v, floatErr
	}
	zs, ok := r.ParseToken()
	if !ok {
		return v, floatErr
	}
	z, err := strconv.ParseFloat(zs, 32)
	if err != nil {
		return v, floatErr
	}
	return mesh.Vector3{X: float32(x), Y: float32(y), Z: float32(z)}, nil
}

// sanitizeFace enforces that a decoded face has no NaN or infinite vertex
// components: if every vertex is non-finite, it returns AllVerticesNonFinite;
// otherwise each non-finite vertex is overwritten with the first finite
// vertex among v0, v1, v2 in that order. Normals are intentionally never
// sanitized here, since downstream uses triangle winding, not the explicit
// normal.
func sanitizeFace(v0, v1, v2 mesh.Vector3) (mesh.Vector3, mesh.Vector3, mesh.Vector3, error) {
	f0, f1, f2 := v0.Finite(), v1.Finite(), v2.Finite()
	if f0 && f1 && f2 {
		return v0, v1, v2, nil
	}
	if !f0 && !f1 && !f2 {
		return mesh.Vector3{}, mesh.Vector3{}, mesh.Vector3{}, allVerticesNonFiniteError()
	}
	var finiteVert mesh.Vector3
	switch {
	case f0:
		finiteVert = v0
	case f1:
		finiteVert = v1
	case f2:
		finiteVert = v2
	}
	if !f0 {
		v0 = finiteVert
	}
	if !f1 {
		v1 = finiteVert
	}
	if !f2 {
		v2 = finiteVert
	}
	return v0, v1, v2, nil
}
