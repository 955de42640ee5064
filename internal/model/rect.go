package model

// Rect is a screen rectangle in physical pixels.
type Rect struct {
	X, Y, Width, Height int
}

// RectFromBounds converts an [x, y, width, height] array to a Rect.
func RectFromBounds(b [4]int) Rect {
	return Rect{X: b[0], Y: b[1], Width: b[2], Height: b[3]}
}

// Bounds returns the rectangle as an [x, y, width, height] array.
func (r Rect) Bounds() [4]int {
	return [4]int{r.X, r.Y, r.Width, r.Height}
}

// Degenerate reports whether the rectangle has no area. Offscreen and
// collapsed elements usually report a zero-sized rectangle.
func (r Rect) Degenerate() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Center returns the geometric center, rounded toward the origin.
func (r Rect) Center() Point {
	return Point{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
}

// Contains reports whether p lies inside the rectangle.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X < r.X+r.Width && p.Y >= r.Y && p.Y < r.Y+r.Height
}

// Intersects checks if two rectangles overlap.
func (r Rect) Intersects(o Rect) bool {
	ax1, ay1, ax2, ay2 := r.X, r.Y, r.X+r.Width, r.Y+r.Height
	bx1, by1, bx2, by2 := o.X, o.Y, o.X+o.Width, o.Y+o.Height
	return ax1 < bx2 && ax2 > bx1 && ay1 < by2 && ay2 > by1
}

// Point is a screen coordinate.
type Point struct {
	X int `yaml:"x" json:"x"`
	Y int `yaml:"y" json:"y"`
}
