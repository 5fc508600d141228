// Package quant computes fixed-point quantization parameters for a mesh's
// position attribute: the smallest integer bit-width and quantization range
// such that a regular grid of a given spacing is representable.
package quant

import (
	"math"

	"gonum.org/v1/gonum/floats32"

	"github.com/carbon3d/draco/mesh"
)

// MeshAccessor is the narrow read surface the quantizer needs from a mesh
// container.
type MeshAccessor interface {
	FindAttribute(sem mesh.Semantic) (id int, ok bool)
	Attribute(id int) *mesh.Attribute
}

// Params holds the outcome of a quantization pass: a bit-width, a uniform
// range shared by all three axes, and the lattice origin. FillFromMesh is a
// one-shot operation; calling it again on the same Params discards prior
// results.
type Params struct {
	QBits     int
	Range     float32
	MinCorner mesh.Vector3
}

// NewParams returns an uninitialized Params, matching the sentinel values a
// downstream compressor checks via IsSet.
func NewParams() Params {
	return Params{QBits: -1, Range: 0, MinCorner: mesh.Vector3{}}
}

// IsSet reports whether QBits differs from the -1 sentinel that NewParams
// sets, i.e. whether FillFromMesh has populated a Params made by NewParams.
// A zero-value Params reports true.
func (p Params) IsSet() bool {
	return p.QBits != -1
}

// FillFromMesh scans m's position attribute and computes (q_bits, range,
// min_corner) for a uniform grid of spacing gridDelta. It fails if gridDelta
// is negative or the position attribute does not have exactly 3 components.
func (p *Params) FillFromMesh(m MeshAccessor, gridDelta float32) error {
	if gridDelta < 0 {
		return preconditionError("Negative Grid Delta")
	}
	posID, ok := m.FindAttribute(mesh.Position)
	if !ok {
		return preconditionError("The position attribute does not have 3 values.")
	}
	pos := m.Attribute(posID)
	if pos.Components != 3 {
		return preconditionError("The position attribute does not have 3 values.")
	}

	n := pos.NumValues()
	xs := make([]float32, n)
	ys := make([]float32, n)
	zs := make([]float32, n)
	for i := 0; i < n; i++ {
		v := pos.GetValue(i)
		xs[i] = v.X
		ys[i] = v.Y
		zs[i] = v.Z
	}

	minCorner := mesh.Vector3{X: floats32.Min(xs), Y: floats32.Min(ys), Z: floats32.Min(zs)}
	maxCorner := mesh.Vector3{X: floats32.Max(xs), Y: floats32.Max(ys), Z: floats32.Max(zs)}

	rangeVal := largestSpan(minCorner, maxCorner)
	if rangeVal == 0 {
		rangeVal = 1.0
	}

	qBits := int(math.Ceil(math.Log2(float64(rangeVal/gridDelta) + 1)))
	switch {
	case qBits > 30:
		qBits = 30
	case qBits < 1:
		qBits = 1
	default:
		steps := (1 << uint(qBits)) - 1
		rangeVal = gridDelta * float32(steps)
	}

	p.QBits = qBits
	p.Range = rangeVal
	p.MinCorner = minCorner
	return nil
}

func largestSpan(minCorner, maxCorner mesh.Vector3) float32 {
	spanX := maxCorner.X - minCorner.X
	spanY := maxCorner.Y - minCorner.Y
	spanZ := maxCorner.Z - minCorner.Z
	span := spanX
	if spanY > span {
		span = spanY
	}
	if spanZ > span {
		span = spanZ
	}
	return span
}
