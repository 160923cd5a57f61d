package spatial

// Polygon is a closed outline; the last vertex connects back to the first.
type Polygon []Vec2

// Contains reports whether p lies inside the polygon using the nonzero
// winding rule, the default fill rule of a 2D canvas path. A ring squashed
// into a self-intersecting outline still counts its doubly wound parts as
// inside.
func (poly Polygon) Contains(p Vec2) bool {
	n := len(poly)
	if n < 3 {
		return false
	}
	winding := 0
	for i := 0; i < n; i++ {
		a, b := poly[i], poly[(i+1)%n]
		side := (b.X-a.X)*(p.Y-a.Y) - (p.X-a.X)*(b.Y-a.Y)
		switch {
		case a.Y <= p.Y && b.Y > p.Y && side > 0:
			winding++
		case a.Y > p.Y && b.Y <= p.Y && side < 0:
			winding--
		}
	}
	return winding != 0
}

// Centroid returns the mean of the vertices (not the area centroid).
func (poly Polygon) Centroid() Vec2 {
	if len(poly) == 0 {
		return Vec2{}
	}
	var sum Vec2
	for _, v := range poly {
		sum = sum.Add(v)
	}
	return sum.Scale(1 / float64(len(poly)))
}
