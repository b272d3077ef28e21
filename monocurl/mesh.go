package monocurl

import (
	"fmt"
	"math"
)

// Mesh is renderable geometry. Meshes are immutable once built; operations
// that transform them return new meshes.
type Mesh interface {
	Hash() uint64
	Size() int
	Describe() string
	Points() [][3]float64
	Tag() []float64
}

// PolyMesh is a closed polyline with an optional tag used to group meshes.
type PolyMesh struct {
	points [][3]float64
	tag    []float64
	hash   uint64
}

// NewPolyMesh copies points and tag into a new mesh.
func NewPolyMesh(points [][3]float64, tag []float64) *PolyMesh {
	m := &PolyMesh{
		points: append([][3]float64(nil), points...),
		tag:    append([]float64(nil), tag...),
	}
	h := mixHash(uint64(KindMesh), uint64(len(m.points)))
	for _, p := range m.points {
		for _, c := range p {
			h = mixHash(h, math.Float64bits(c))
		}
	}
	for _, t := range m.tag {
		h = mixHash(h, math.Float64bits(t))
	}
	m.hash = h
	return m
}

func (m *PolyMesh) Hash() uint64         { return m.hash }
func (m *PolyMesh) Size() int            { return 48 + len(m.points)*24 + len(m.tag)*8 }
func (m *PolyMesh) Points() [][3]float64 { return m.points }
func (m *PolyMesh) Tag() []float64       { return m.tag }

func (m *PolyMesh) Describe() string {
	return fmt.Sprintf("%d points", len(m.points))
}

func (m *PolyMesh) transform(fn func(p [3]float64) [3]float64) *PolyMesh {
	out := make([][3]float64, len(m.points))
	for i, p := range m.points {
		out[i] = fn(p)
	}
	return NewPolyMesh(out, m.tag)
}
