package renderer

import (
	gomath "math"
)

// Mesh is interleaved vertex data (x, y, z, u, v) with triangle indices.
type Mesh struct {
	Vertices []float32
	Indices  []uint32
}

// VertexStride is the number of floats per vertex.
const VertexStride = 5

// VertexCount returns the number of vertices.
func (m Mesh) VertexCount() int {
	return len(m.Vertices) / VertexStride
}

// Sphere builds a UV sphere. Longitude runs with u from the -X axis toward
// +Z, matching equirectangular textures whose left edge is the -X meridian;
// v is 0 at the north pole (+Y).
func Sphere(radius float64, widthSegments, heightSegments int) Mesh {
	if widthSegments < 3 {
		widthSegments = 3
	}
	if heightSegments < 2 {
		heightSegments = 2
	}

	cols := widthSegments + 1
	m := Mesh{
		Vertices: make([]float32, 0, cols*(heightSegments+1)*VertexStride),
		Indices:  make([]uint32, 0, widthSegments*heightSegments*6),
	}

	for iy := 0; iy <= heightSegments; iy++ {
		v := float64(iy) / float64(heightSegments)
		theta := v * gomath.Pi
		for ix := 0; ix <= widthSegments; ix++ {
			u := float64(ix) / float64(widthSegments)
			phi := u * 2 * gomath.Pi
			x := -radius * gomath.Cos(phi) * gomath.Sin(theta)
			y := radius * gomath.Cos(theta)
			z := radius * gomath.Sin(phi) * gomath.Sin(theta)
			m.Vertices = append(m.Vertices, float32(x), float32(y), float32(z), float32(u), float32(v))
		}
	}

	// Pole rows collapse to a point, so they only need one triangle per quad.
	for iy := 0; iy < heightSegments; iy++ {
		for ix := 0; ix < widthSegments; ix++ {
			a := uint32(iy*cols + ix + 1)
			b := uint32(iy*cols + ix)
			c := uint32((iy+1)*cols + ix)
			d := uint32((iy+1)*cols + ix + 1)
			if iy != 0 {
				m.Indices = append(m.Indices, a, b, d)
			}
			if iy != heightSegments-1 {
				m.Indices = append(m.Indices, b, c, d)
			}
		}
	}
	return m
}
