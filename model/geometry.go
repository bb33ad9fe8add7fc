package model

import "math"

// Point represents a 2D point in PDF user space.
type Point struct {
	X, Y float64
}

// BBox represents a bounding box. Coordinates follow the PDF convention:
// Y grows upward, so Bottom() < Top().
type BBox struct {
	X      float64 // Left
	Y      float64 // Bottom
	Width  float64
	Height float64
}

// NewBBoxFromPoints creates a bounding box from two opposite corners.
func NewBBoxFromPoints(p1, p2 Point) BBox {
	x := math.Min(p1.X, p2.X)
	y := math.Min(p1.Y, p2.Y)
	return BBox{
		X:      x,
		Y:      y,
		Width:  math.Abs(p2.X - p1.X),
		Height: math.Abs(p2.Y - p1.Y),
	}
}

// Left returns the left edge X coordinate.
func (b BBox) Left() float64 { return b.X }

// Right returns the right edge X coordinate.
func (b BBox) Right() float64 { return b.X + b.Width }

// Bottom returns the bottom edge Y coordinate.
func (b BBox) Bottom() float64 { return b.Y }

// Top returns the top edge Y coordinate.
func (b BBox) Top() float64 { return b.Y + b.Height }

// Center returns the center point.
func (b BBox) Center() Point {
	return Point{X: b.X + b.Width/2, Y: b.Y + b.Height/2}
}

// IsEmpty reports whether the box has zero area.
func (b BBox) IsEmpty() bool {
	return b.Width <= 0 || b.Height <= 0
}

// Intersects reports whether two bounding boxes overlap.
func (b BBox) Intersects(other BBox) bool {
	return !(b.Right() < other.Left() ||
		b.Left() > other.Right() ||
		b.Top() < other.Bottom() ||
		b.Bottom() > other.Top())
}

// Union returns the smallest box containing both boxes.
func (b BBox) Union(other BBox) BBox {
	x := math.Min(b.Left(), other.Left())
	y := math.Min(b.Bottom(), other.Bottom())
	right := math.Max(b.Right(), other.Right())
	top := math.Max(b.Top(), other.Top())
	return BBox{X: x, Y: y, Width: right - x, Height: top - y}
}

// TextFragment is a positioned run of text on a page.
type TextFragment struct {
	Text     string
	BBox     BBox
	FontSize float64
}

// TextLine is a full line of page text assembled from fragments that share
// a baseline, in left-to-right order.
type TextLine struct {
	Text string
	Y    float64 // Baseline Y coordinate
}

// RulingLine is a graphical line extracted from page drawing operations.
// Thin filled rectangles are treated as ruling lines, which is how most
// PDF producers draw table borders.
type RulingLine struct {
	Start Point
	End   Point

	IsHorizontal bool
	IsVertical   bool
}

// Length returns the Euclidean length of the line.
func (l RulingLine) Length() float64 {
	dx := l.End.X - l.Start.X
	dy := l.End.Y - l.Start.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// Page holds everything table detection needs from a single PDF page.
type Page struct {
	// Number is the 1-indexed page number.
	Number int

	// Fragments are positioned text runs in content order.
	Fragments []TextFragment

	// Lines are the assembled text lines in top-to-bottom reading order.
	Lines []TextLine

	// Rulings are graphical lines usable as table borders.
	Rulings []RulingLine

	// Text is the plain page text.
	Text string

	// Images holds raw embedded image data for scanned pages, used by the
	// OCR fallback. Empty for born-digital pages.
	Images [][]byte
}
