// Package mesh provides a concrete triangle-mesh container: a numbered set of
// attributes (position, normal, color, texture coordinate, generic) plus a
// face table mapping face index to a triple of point indices.
//
// The decode/encode/quantize packages in this module depend only on the
// narrow capability interfaces they declare (see stl.MeshAccessor and
// quant.MeshAccessor); Mesh satisfies both structurally. Any other container
// exposing the same methods is a drop-in replacement.
package mesh

import (
	"encoding/binary"
	"math"
)

// Semantic is the meaning of an attribute's values.
type Semantic int

const (
	Position Semantic = iota
	Normal
	Color
	TexCoord
	Generic
)

// ElementType selects whether an attribute's values are addressed per
// vertex (point index), per corner, or per face.
type ElementType int

const (
	Vertex ElementType = iota
	Corner
	FaceElement
)

// Attribute holds one numbered channel of mesh data: a flat value buffer of
// Components*NumValues() float32s, addressed either directly by value index
// or, once an index map has been installed (e.g. by dedup), indirectly by
// point/corner/face index.
type Attribute struct {
	Semantic   Semantic
	Components int
	Element    ElementType

	values   []float32
	indexMap []int32 // nil means identity: elemIndex == valueIndex
}

// NewAttribute returns an attribute with numValues zeroed value slots.
func NewAttribute(sem Semantic, components int, elem ElementType, numValues int) Attribute {
	return Attribute{
		Semantic:   sem,
		Components: components,
		Element:    elem,
		values:     make([]float32, components*numValues),
	}
}

// NumValues returns the number of distinct values stored in the attribute.
func (a *Attribute) NumValues() int {
	if a.Components == 0 {
		return 0
	}
	return len(a.values) / a.Components
}

// GetValue returns the value at value index i as a Vector3. Attributes with
// fewer than 3 components leave the remaining fields zero; attributes with
// more than 3 are truncated, since every caller in this module only ever
// stores 3-component position/normal data.
func (a *Attribute) GetValue(i int) Vector3 {
	start := i * a.Components
	var v Vector3
	if a.Components > 0 {
		v.X = a.values[start]
	}
	if a.Components > 1 {
		v.Y = a.values[start+1]
	}
	if a.Components > 2 {
		v.Z = a.values[start+2]
	}
	return v
}

// SetValue overwrites the value at value index i.
func (a *Attribute) SetValue(i int, v Vector3) {
	start := i * a.Components
	if a.Components > 0 {
		a.values[start] = v.X
	}
	if a.Components > 1 {
		a.values[start+1] = v.Y
	}
	if a.Components > 2 {
		a.values[start+2] = v.Z
	}
}

// mappedValueIndex resolves an element index (point, corner, or face
// depending on a.Element) to a value index.
func (a *Attribute) mappedValueIndex(elemIndex int) int {
	if a.indexMap == nil {
		return elemIndex
	}
	return int(a.indexMap[elemIndex])
}

// GetMapped returns the value mapped from the given element index.
func (a *Attribute) GetMapped(elemIndex int) Vector3 {
	return a.GetValue(a.mappedValueIndex(elemIndex))
}

// Face is a triangle's three point indices.
type Face [3]int

// Mesh is a concrete attribute-and-face-table triangle mesh.
type Mesh struct {
	attrs     []Attribute
	faces     []Face
	numPoints int
}

// New returns an empty mesh.
func New() *Mesh {
	return &Mesh{}
}

// AddAttribute appends a new attribute and returns its id.
func (m *Mesh) AddAttribute(a Attribute) int {
	m.attrs = append(m.attrs, a)
	return len(m.attrs) - 1
}

// Attribute returns a pointer to the attribute with the given id.
func (m *Mesh) Attribute(id int) *Attribute {
	return &m.attrs[id]
}

// NumAttributes returns the number of attributes on the mesh.
func (m *Mesh) NumAttributes() int {
	return len(m.attrs)
}

// FindAttribute returns the id of the first attribute with the given
// semantic, if any.
func (m *Mesh) FindAttribute(sem Semantic) (int, bool) {
	for i := range m.attrs {
		if m.attrs[i].Semantic == sem {
			return i, true
		}
	}
	return 0, false
}

// SetNumPoints sets the mesh's point count. Decoders call this once before
// populating the position attribute.
func (m *Mesh) SetNumPoints(n int) {
	m.numPoints = n
}

// NumPoints returns the mesh's point count.
func (m *Mesh) NumPoints() int {
	return m.numPoints
}

// SetFace writes the point-index triple for face i, growing the face table
// as needed.
func (m *Mesh) SetFace(i int, f Face) {
	if i >= len(m.faces) {
		grown := make([]Face, i+1)
		copy(grown, m.faces)
		m.faces = grown
	}
	m.faces[i] = f
}

// Face returns the point-index triple for face i.
func (m *Mesh) Face(i int) Face {
	return m.faces[i]
}

// NumFaces returns the number of faces in the mesh.
func (m *Mesh) NumFaces() int {
	return len(m.faces)
}

// InstallFaceIndexMap builds a point-indexed map for a face-element
// attribute whose values are stored one per face, in face order. This lets
// GetMapped be called with a point index, the way decode/encode call sites
// always do, and still resolve to the correct per-face value.
func (m *Mesh) InstallFaceIndexMap(attrID int) {
	a := &m.attrs[attrID]
	idxMap := make([]int32, m.numPoints)
	for fi, f := range m.faces {
		for _, p := range f {
			idxMap[p] = int32(fi)
		}
	}
	a.indexMap = idxMap
}

// DeduplicateAttributeValues collapses bit-identical values within each
// attribute to a single slot, installing an index map from element index to
// the deduplicated value index.
func (m *Mesh) DeduplicateAttributeValues() {
	for i := range m.attrs {
		dedupeAttributeValues(&m.attrs[i])
	}
}

func dedupeAttributeValues(a *Attribute) {
	n := a.NumValues()
	if n == 0 {
		return
	}
	seen := make(map[string]int32, n)
	newValues := make([]float32, 0, len(a.values))
	remap := make([]int32, n)
	for i := 0; i < n; i++ {
		start := i * a.Components
		key := componentsKey(a.values[start : start+a.Components])
		if existing, ok := seen[key]; ok {
			remap[i] = existing
			continue
		}
		newIdx := int32(len(newValues) / a.Components)
		newValues = append(newValues, a.values[start:start+a.Components]...)
		seen[key] = newIdx
		remap[i] = newIdx
	}
	a.values = newValues
	if a.indexMap == nil {
		a.indexMap = remap
		return
	}
	for i, old := range a.indexMap {
		a.indexMap[i] = remap[old]
	}
}

// DeduplicatePointIDs merges points that map to identical value indices
// across every attribute, shrinking the point count and remapping the face
// table accordingly. It is a no-op if no two points are fully identical.
func (m *Mesh) DeduplicatePointIDs() {
	n := m.numPoints
	if n == 0 {
		return
	}
	seen := make(map[string]int, n)
	remap := make([]int, n)
	next := 0
	for p := 0; p < n; p++ {
		key := pointKey(m.attrs, p)
		if existing, ok := seen[key]; ok {
			remap[p] = existing
			continue
		}
		seen[key] = next
		remap[p] = next
		next++
	}
	if next == n {
		return
	}
	for ai := range m.attrs {
		a := &m.attrs[ai]
		newMap := make([]int32, next)
		for p := 0; p < n; p++ {
			newMap[remap[p]] = int32(a.mappedValueIndex(p))
		}
		a.indexMap = newMap
	}
	for i, f := range m.faces {
		for k := 0; k < 3; k++ {
			f[k] = remap[f[k]]
		}
		m.faces[i] = f
	}
	m.numPoints = next
}

func componentsKey(c []float32) string {
	buf := make([]byte, 4*len(c))
	for i, f := range c {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}

func pointKey(attrs []Attribute, p int) string {
	buf := make([]byte, 4*len(attrs))
	for i, a := range attrs {
		binary.LittleEndian.PutUint32(buf[i*4:], uint32(a.mappedValueIndex(p)))
	}
	return string(buf)
}
