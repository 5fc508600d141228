package stl

import (
	"bytes"
	"encoding/binary"
	"math"
	"strings"
	"testing"

	"github.com/carbon3d/draco/mesh"
)

func float32Bytes(f float32) []byte {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], math.Float32bits(f))
	return b[:]
}

// buildBinarySTL builds a minimal binary STL byte stream with the given
// facets, each facet given as [normal, v0, v1, v2].
func buildBinarySTL(facets [][4]mesh.Vector3) []byte {
	var buf bytes.Buffer
	buf.Write(make([]byte, 80))
	var countBuf [4]byte
	binary.LittleEndian.PutUint32(countBuf[:], uint32(len(facets)))
	buf.Write(countBuf[:])
	for _, f := range facets {
		for _, v := range f {
			buf.Write(float32Bytes(v.X))
			buf.Write(float32Bytes(v.Y))
			buf.Write(float32Bytes(v.Z))
		}
		buf.Write([]byte{0, 0})
	}
	return buf.Bytes()
}

func TestDecodeBinaryBasic(t *testing.T) {
	data := buildBinarySTL([][4]mesh.Vector3{
		{{0, 0, 1}, {0, 0, -1}, {0, 2, -1}, {1, 0, -1}},
	})
	m := mesh.New()
	dec := Decoder{}
	if err := dec.DecodeFromBuffer(data, m); err != nil {
		t.Fatalf("DecodeFromBuffer: %v", err)
	}
	if m.NumFaces() != 1 {
		t.Fatalf("NumFaces() = %d, want 1", m.NumFaces())
	}
	posID, ok := m.FindAttribute(mesh.Position)
	if !ok {
		t.Fatal("no position attribute after decode")
	}
	pos := m.Attribute(posID)
	face := m.Face(0)
	want := []mesh.Vector3{{0, 0, -1}, {0, 2, -1}, {1, 0, -1}}
	for i, pIdx := range face {
		if got := pos.GetMapped(pIdx); got != want[i] {
			t.Errorf("vertex %d = %v, want %v", i, got, want[i])
		}
	}
}

func TestDecodeBinaryNaNTolerant(t *testing.T) {
	nan := float32(math.NaN())
	data := buildBinarySTL([][4]mesh.Vector3{
		{{0, 0, 1}, {0, 0, 0}, {nan, nan, nan}, {1, 1, 1}},
	})
	m := mesh.New()
	dec := Decoder{}
	if err := dec.DecodeFromBuffer(data, m); err != nil {
		t.Fatalf("DecodeFromBuffer: %v", err)
	}
	posID, _ := m.FindAttribute(mesh.Position)
	pos := m.Attribute(posID)
	face := m.Face(0)
	v0 := pos.GetMapped(face[0])
	v1 := pos.GetMapped(face[1])
	if v1 != v0 {
		t.Errorf("NaN vertex sanitized to %v, want first finite vertex %v", v1, v0)
	}
}

func TestDecodeBinaryAllNaNFails(t *testing.T) {
	nan := float32(math.NaN())
	data := buildBinarySTL([][4]mesh.Vector3{
		{{0, 0, 1}, {nan, nan, nan}, {nan, nan, nan}, {nan, nan, nan}},
	})
	m := mesh.New()
	dec := Decoder{}
	err := dec.DecodeFromBuffer(data, m)
	if err == nil {
		t.Fatal("expected error decoding an all-NaN facet")
	}
	if !errorsIsAllNonFinite(err) {
		t.Errorf("got error %v, want AllVerticesNonFinite kind", err)
	}
}

func errorsIsAllNonFinite(err error) bool {
	e, ok := err.(*Error)
	return ok && e.Is(ErrAllVerticesNonFinite)
}

func TestDecodeASCIIBasic(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("solid test\n")
	sb.WriteString("facet normal 0 0 1\n")
	sb.WriteString("outer loop\n")
	sb.WriteString("vertex 0 0 0\n")
	sb.WriteString("vertex 1 0 0\n")
	sb.WriteString("vertex 0 1 0\n")
	sb.WriteString("endloop\n")
	sb.WriteString("endfacet\n")
	sb.WriteString("endsolid test\n")

	m := mesh.New()
	dec := Decoder{}
	if err := dec.DecodeFromBuffer([]byte(sb.String()), m); err != nil {
		t.Fatalf("DecodeFromBuffer: %v", err)
	}
	if m.NumFaces() != 1 {
		t.Fatalf("NumFaces() = %d, want 1", m.NumFaces())
	}
}

func TestDecodeASCIILooksLikeBinaryFallsBack(t *testing.T) {
	// A binary STL whose header happens to begin with "solid" but whose
	// following bytes are not valid ASCII tokens must still decode as
	// binary: the probe finds no "facet" token within its lookahead and
	// demotes the file to binary.
	header := make([]byte, 80)
	copy(header, "solid xx01 xx02 xx03 xx04 xx05")
	var buf bytes.Buffer
	buf.Write(header)
	var countBuf [4]byte
	binary.LittleEndian.PutUint32(countBuf[:], 1)
	buf.Write(countBuf[:])
	facet := [4]mesh.Vector3{{0, 0, 1}, {0, 0, 0}, {1, 0, 0}, {0, 1, 0}}
	for _, v := range facet {
		buf.Write(float32Bytes(v.X))
		buf.Write(float32Bytes(v.Y))
		buf.Write(float32Bytes(v.Z))
	}
	buf.Write([]byte{0, 0})

	m := mesh.New()
	dec := Decoder{}
	if err := dec.DecodeFromBuffer(buf.Bytes(), m); err != nil {
		t.Fatalf("DecodeFromBuffer: %v", err)
	}
	if m.NumFaces() != 1 {
		t.Fatalf("NumFaces() = %d, want 1", m.NumFaces())
	}
}

func TestDecodeMultiSolidASCII(t *testing.T) {
	solid := func(name string, n int) string {
		var sb strings.Builder
		sb.WriteString("solid " + name + "\n")
		for i := 0; i < n; i++ {
			sb.WriteString("facet normal 0 0 1\n")
			sb.WriteString("outer loop\n")
			sb.WriteString("vertex 0 0 0\n")
			sb.WriteString("vertex 1 0 0\n")
			sb.WriteString("vertex 0 1 0\n")
			sb.WriteString("endloop\n")
			sb.WriteString("endfacet\n")
		}
		sb.WriteString("endsolid\n")
		return sb.String()
	}
	data := solid("a", 12) + solid("b", 12)

	m := mesh.New()
	dec := Decoder{}
	if err := dec.DecodeFromBuffer([]byte(data), m); err != nil {
		t.Fatalf("DecodeFromBuffer: %v", err)
	}
	if m.NumFaces() != 24 {
		t.Fatalf("NumFaces() = %d, want 24", m.NumFaces())
	}
}

func TestDecodeBinaryDeclaredCountUnderstatesActual(t *testing.T) {
	data := buildBinarySTL([][4]mesh.Vector3{
		{{0, 0, 1}, {0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
		{{0, 0, 1}, {1, 1, 1}, {2, 1, 1}, {1, 2, 1}},
	})
	// Understate the declared count to 1 while both facets remain in the
	// buffer; decode must succeed and report only the declared count.
	binary.LittleEndian.PutUint32(data[80:84], 1)

	m := mesh.New()
	dec := Decoder{}
	if err := dec.DecodeFromBuffer(data, m); err != nil {
		t.Fatalf("DecodeFromBuffer: %v", err)
	}
	if m.NumFaces() != 1 {
		t.Fatalf("NumFaces() = %d, want 1 (declared count)", m.NumFaces())
	}
}

func TestDecodeBinaryDeclaredCountExceedsFileLength(t *testing.T) {
	data := buildBinarySTL([][4]mesh.Vector3{
		{{0, 0, 1}, {0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
	})
	binary.LittleEndian.PutUint32(data[80:84], 5)

	m := mesh.New()
	dec := Decoder{}
	err := dec.DecodeFromBuffer(data, m)
	if err == nil {
		t.Fatal("expected IoError when declared face count exceeds available bytes")
	}
}
