package geometry

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Plane builds a width x height grid in the XY plane facing +Z, split into segX x segY quads.
// UVs run from (0, 1) at the top-left corner to (1, 0) at the bottom-right, so v grows with y.
//
// Parameters:
//   - width: extent along X
//   - height: extent along Y
//   - segX: number of quads along X (at least 1)
//   - segY: number of quads along Y (at least 1)
//
// Returns:
//   - Mesh: the plane with normals and tangents
func Plane(width, height float32, segX, segY int) Mesh {
	segX, segY = max(segX, 1), max(segY, 1)
	halfW, halfH := width/2, height/2
	cellW, cellH := width/float32(segX), height/float32(segY)

	m := Mesh{
		Vertices: make([]Vertex, 0, (segX+1)*(segY+1)),
		Indices:  make([]uint32, 0, segX*segY*6),
	}
	for iy := 0; iy <= segY; iy++ {
		y := float32(iy)*cellH - halfH
		for ix := 0; ix <= segX; ix++ {
			x := float32(ix)*cellW - halfW
			m.Vertices = append(m.Vertices, Vertex{
				Position: [3]float32{x, -y, 0},
				Normal:   [3]float32{0, 0, 1},
				UV:       [2]float32{float32(ix) / float32(segX), 1 - float32(iy)/float32(segY)},
				Tangent:  [4]float32{1, 0, 0, 1},
			})
		}
	}
	row := uint32(segX + 1)
	for iy := range uint32(segY) {
		for ix := range uint32(segX) {
			a := ix + row*iy
			b := ix + row*(iy+1)
			c := ix + 1 + row*(iy+1)
			d := ix + 1 + row*iy
			m.Indices = append(m.Indices, a, b, d, b, c, d)
		}
	}
	return m
}

// Cylinder builds a cylinder (or truncated cone) centred on the origin along Y.
// The side wall has radialSegments columns and heightSegments rows; caps are omitted when
// openEnded is set.
//
// Parameters:
//   - radiusTop: radius at y = +height/2
//   - radiusBottom: radius at y = -height/2
//   - height: extent along Y
//   - radialSegments: number of columns around the axis (at least 3)
//   - heightSegments: number of rows along the axis (at least 1)
//   - openEnded: true to leave both ends open
//
// Returns:
//   - Mesh: the cylinder with normals and tangents
func Cylinder(radiusTop, radiusBottom, height float32, radialSegments, heightSegments int, openEnded bool) Mesh {
	radialSegments, heightSegments = max(radialSegments, 3), max(heightSegments, 1)
	halfHeight := height / 2
	slope := (radiusBottom - radiusTop) / height

	var m Mesh
	rows := make([][]uint32, heightSegments+1)
	for y := 0; y <= heightSegments; y++ {
		v := float32(y) / float32(heightSegments)
		radius := v*(radiusBottom-radiusTop) + radiusTop
		for x := 0; x <= radialSegments; x++ {
			u := float32(x) / float32(radialSegments)
			sin, cos := sincos(float64(u) * 2 * math.Pi)
			normal := mgl32.Vec3{sin, slope, cos}.Normalize()
			rows[y] = append(rows[y], uint32(len(m.Vertices)))
			m.Vertices = append(m.Vertices, Vertex{
				Position: [3]float32{radius * sin, -v*height + halfHeight, radius * cos},
				Normal:   [3]float32(normal),
				UV:       [2]float32{u, 1 - v},
			})
		}
	}
	for x := range radialSegments {
		for y := range heightSegments {
			a, b := rows[y][x], rows[y+1][x]
			c, d := rows[y+1][x+1], rows[y][x+1]
			m.Indices = append(m.Indices, a, b, d, b, c, d)
		}
	}

	if !openEnded {
		if radiusTop > 0 {
			m.addCap(radiusTop, halfHeight, radialSegments, true)
		}
		if radiusBottom > 0 {
			m.addCap(radiusBottom, -halfHeight, radialSegments, false)
		}
	}
	m.ComputeTangents()
	return m
}

// addCap appends a disc at height y facing +Y (top) or -Y (bottom).
func (m *Mesh) addCap(radius, y float32, segments int, top bool) {
	sign := float32(-1)
	if top {
		sign = 1
	}
	centerStart := uint32(len(m.Vertices))
	for x := 1; x <= segments; x++ {
		m.Vertices = append(m.Vertices, Vertex{
			Position: [3]float32{0, y, 0},
			Normal:   [3]float32{0, sign, 0},
			UV:       [2]float32{0.5, 0.5},
		})
	}
	ringStart := uint32(len(m.Vertices))
	for x := 0; x <= segments; x++ {
		sin, cos := sincos(float64(x) / float64(segments) * 2 * math.Pi)
		m.Vertices = append(m.Vertices, Vertex{
			Position: [3]float32{radius * sin, y, radius * cos},
			Normal:   [3]float32{0, sign, 0},
			UV:       [2]float32{cos*0.5 + 0.5, sin*0.5*sign + 0.5},
		})
	}
	for x := range uint32(segments) {
		c := centerStart + x
		i := ringStart + x
		if top {
			m.Indices = append(m.Indices, i, i+1, c)
		} else {
			m.Indices = append(m.Indices, i+1, i, c)
		}
	}
}

// icosahedronCorners are the 12 corners of a regular icosahedron before normalization.
var icosahedronCorners = func() [12]mgl32.Vec3 {
	t := float32((1 + math.Sqrt(5)) / 2)
	return [12]mgl32.Vec3{
		{-1, t, 0}, {1, t, 0}, {-1, -t, 0}, {1, -t, 0},
		{0, -1, t}, {0, 1, t}, {0, -1, -t}, {0, 1, -t},
		{t, 0, -1}, {t, 0, 1}, {-t, 0, -1}, {-t, 0, 1},
	}
}()

var icosahedronFaces = [20][3]int{
	{0, 11, 5}, {0, 5, 1}, {0, 1, 7}, {0, 7, 10}, {0, 10, 11},
	{1, 5, 9}, {5, 11, 4}, {11, 10, 2}, {10, 7, 6}, {7, 1, 8},
	{3, 9, 4}, {3, 4, 2}, {3, 2, 6}, {3, 6, 8}, {3, 8, 9},
	{4, 9, 5}, {2, 4, 11}, {6, 2, 10}, {8, 6, 7}, {9, 8, 1},
}

// Icosahedron builds a flat-shaded icosahedron of the given circumradius. Every face owns its three
// vertices so each carries the face normal. UVs come from an equirectangular projection of the
// vertex direction.
//
// Parameters:
//   - radius: distance from the centre to each corner
//
// Returns:
//   - Mesh: 60 vertices, 20 faces
func Icosahedron(radius float32) Mesh {
	m := Mesh{
		Vertices: make([]Vertex, 0, 60),
		Indices:  make([]uint32, 0, 60),
	}
	for _, face := range icosahedronFaces {
		var p [3]mgl32.Vec3
		for k, idx := range face {
			p[k] = icosahedronCorners[idx].Normalize().Mul(radius)
		}
		normal := p[1].Sub(p[0]).Cross(p[2].Sub(p[0])).Normalize()
		for k := range 3 {
			dir := p[k].Normalize()
			u := float32(math.Atan2(float64(dir.Z()), float64(-dir.X())))/(2*math.Pi) + 0.5
			v := float32(math.Asin(float64(mgl32.Clamp(dir.Y(), -1, 1))))/math.Pi + 0.5
			m.Indices = append(m.Indices, uint32(len(m.Vertices)))
			m.Vertices = append(m.Vertices, Vertex{
				Position: [3]float32(p[k]),
				Normal:   [3]float32(normal),
				UV:       [2]float32{u, v},
			})
		}
	}
	m.ComputeTangents()
	return m
}
