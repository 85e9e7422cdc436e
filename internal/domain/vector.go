package domain

import "math"

// Vector3 is a position in world space
type Vector3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Distance returns the euclidean distance between two positions
func (v Vector3) Distance(o Vector3) float64 {
	dx, dy, dz := v.X-o.X, v.Y-o.Y, v.Z-o.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// Within reports whether o lies inside the given radius of v (inclusive)
func (v Vector3) Within(o Vector3, radius float64) bool {
	return v.Distance(o) <= radius
}
