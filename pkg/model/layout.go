package model

import "math"

// Node is a simulated particle standing for one category.
//
// X and Y are written only by the simulation tick. Fx and Fy are written only
// by the interaction controller and are nil unless a drag holds the node.
// Vx and Vy are integration state and are not part of any rendered frame.
type Node struct {
	ID     string
	Count  int
	Radius float64
	Color  string
	Icon   string

	X, Y   float64
	Vx, Vy float64
	Fx, Fy *float64
}

// Fixed reports whether a drag currently pins the node.
func (n Node) Fixed() bool {
	return n.Fx != nil && n.Fy != nil
}

// Finite reports whether the node position is a usable number.
func (n Node) Finite() bool {
	return !math.IsNaN(n.X) && !math.IsNaN(n.Y) && !math.IsInf(n.X, 0) && !math.IsInf(n.Y, 0)
}

// Descriptor converts the node to what a render sink receives.
func (n Node) Descriptor(opacity float64) NodeDescriptor {
	return NodeDescriptor{
		ID:      n.ID,
		X:       n.X,
		Y:       n.Y,
		Radius:  n.Radius,
		Color:   n.Color,
		Opacity: opacity,
		Icon:    n.Icon,
		Fixed:   n.Fixed(),
	}
}

// NodeDescriptor is one positioned, styled circle of a network frame.
type NodeDescriptor struct {
	ID      string  `json:"id"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Radius  float64 `json:"radius"`
	Color   string  `json:"color"`
	Opacity float64 `json:"opacity"`
	Icon    string  `json:"icon,omitempty"`
	Fixed   bool    `json:"fixed,omitempty"`
}

// GridCell places one record of the window on the matrix.
type GridCell struct {
	Index            int     `json:"index"`
	Row              int     `json:"row"`
	Col              int     `json:"col"`
	Date             string  `json:"date"`
	DominantCategory string  `json:"dominant_category"`
	Total            int     `json:"total"`
	Intensity        float64 `json:"intensity"`
}

// Rect is a styled rectangle with pixel bounds.
type Rect struct {
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
	Fill    string  `json:"fill"`
	Opacity float64 `json:"fill_opacity"`
}

// Contains reports whether the point lies inside the rectangle.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x < r.X+r.Width && y >= r.Y && y < r.Y+r.Height
}

// Overlaps reports whether two rectangles share any area.
func (r Rect) Overlaps(o Rect) bool {
	return r.X < o.X+o.Width && o.X < r.X+r.Width &&
		r.Y < o.Y+o.Height && o.Y < r.Y+r.Height
}
