// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package raster

import (
	"math"

	"github.com/gogpu/glyphatlas/ttf"
)

// Epsilon is the tolerance used for degenerate edges, near-linear curves
// and near-zero tangents.
const Epsilon = 1e-6

// Crossing is one intersection of an edge with a horizontal scanline.
type Crossing struct {
	X float64

	// Winding is +1 where the outline moves down (Y increasing in bitmap
	// space) at the crossing, -1 where it moves up.
	Winding int
}

// Edge is one outline primitive in bitmap space (Y down). The only
// implementations are Line and Quad.
type Edge interface {
	// AppendCrossings appends the crossings of the scanline at y to dst.
	//
	// Every monotonic span of an edge covers the half-open interval
	// [minY, maxY), so a vertex shared by two edges is counted once.
	AppendCrossings(dst []Crossing, y float64) []Crossing

	// YRange returns the vertical extent of the edge.
	YRange() (minY, maxY float64)

	isEdge()
}

// Line is a straight edge from (X0, Y0) to (X1, Y1).
type Line struct {
	X0, Y0, X1, Y1 float64
}

func (Line) isEdge() {}

// Winding returns +1 for a downward edge, -1 for an upward one and 0 for
// a horizontal one.
func (l Line) Winding() int {
	return windingOf(l.Y0, l.Y1)
}

// YRange implements Edge.
func (l Line) YRange() (minY, maxY float64) {
	return math.Min(l.Y0, l.Y1), math.Max(l.Y0, l.Y1)
}

// AppendCrossings implements Edge.
func (l Line) AppendCrossings(dst []Crossing, y float64) []Crossing {
	w := l.Winding()
	if w == 0 {
		return dst
	}
	minY, maxY := l.YRange()
	if y < minY || y >= maxY {
		return dst
	}
	x := l.X0 + (y-l.Y0)*(l.X1-l.X0)/(l.Y1-l.Y0)
	return append(dst, Crossing{X: x, Winding: w})
}

// Quad is a quadratic Bézier edge from (X0, Y0) through control point
// (CX, CY) to (X1, Y1).
type Quad struct {
	X0, Y0 float64
	CX, CY float64
	X1, Y1 float64
}

func (Quad) isEdge() {}

// YRange implements Edge.
func (q Quad) YRange() (minY, maxY float64) {
	minY, maxY = math.Min(q.Y0, q.Y1), math.Max(q.Y0, q.Y1)
	if t, ok := q.extremum(); ok {
		y := q.yAt(t)
		minY, maxY = math.Min(minY, y), math.Max(maxY, y)
	}
	return minY, maxY
}

// Point returns the curve point at parameter t.
func (q Quad) Point(t float64) (x, y float64) {
	return q.xAt(t), q.yAt(t)
}

func (q Quad) xAt(t float64) float64 {
	mt := 1 - t
	return mt*mt*q.X0 + 2*mt*t*q.CX + t*t*q.X1
}

func (q Quad) yAt(t float64) float64 {
	mt := 1 - t
	return mt*mt*q.Y0 + 2*mt*t*q.CY + t*t*q.Y1
}

// coefficients returns a, b with y(t) = a·t² + b·t + Y0.
func (q Quad) coefficients() (a, b float64) {
	return q.Y0 - 2*q.CY + q.Y1, 2 * (q.CY - q.Y0)
}

// extremum returns the parameter of the vertical turning point when it
// lies strictly inside the curve.
func (q Quad) extremum() (float64, bool) {
	a, b := q.coefficients()
	if math.Abs(a) < Epsilon {
		return 0, false
	}
	t := -b / (2 * a)
	return t, t > 0 && t < 1
}

// AppendCrossings implements Edge.
//
// The curve is split at its vertical turning point into at most two
// monotonic spans. Each span yields at most one crossing, whose winding
// follows the local direction dY/dt, so a curve that crosses a scanline
// twice contributes opposite windings.
func (q Quad) AppendCrossings(dst []Crossing, y float64) []Crossing {
	if t, ok := q.extremum(); ok {
		dst = q.appendSpan(dst, y, 0, t)
		return q.appendSpan(dst, y, t, 1)
	}
	return q.appendSpan(dst, y, 0, 1)
}

func (q Quad) appendSpan(dst []Crossing, y, t0, t1 float64) []Crossing {
	y0, y1 := q.yAt(t0), q.yAt(t1)
	w := windingOf(y0, y1)
	if w == 0 {
		return dst
	}
	if y < math.Min(y0, y1) || y >= math.Max(y0, y1) {
		return dst
	}
	t := q.solve(y, t0, t1)
	return append(dst, Crossing{X: q.xAt(t), Winding: w})
}

// solve returns the root of y(t) = y within [t0, t1]. The span is
// monotonic, so exactly one root exists up to rounding.
func (q Quad) solve(y, t0, t1 float64) float64 {
	a, b := q.coefficients()
	c := q.Y0 - y

	if math.Abs(a) < Epsilon {
		// Near-linear in y.
		if math.Abs(b) < Epsilon {
			return t0
		}
		return clamp(-c/b, t0, t1)
	}

	disc := b*b - 4*a*c
	if disc < 0 {
		// Rounding near the turning point.
		disc = 0
	}
	sq := math.Sqrt(disc)

	// Numerically stable pair of roots.
	var r1, r2 float64
	if b >= 0 {
		qq := -0.5 * (b + sq)
		r1, r2 = qq/a, safeDiv(c, qq, qq/a)
	} else {
		qq := -0.5 * (b - sq)
		r1, r2 = qq/a, safeDiv(c, qq, qq/a)
	}

	if outside(r1, t0, t1) <= outside(r2, t0, t1) {
		return clamp(r1, t0, t1)
	}
	return clamp(r2, t0, t1)
}

// outside returns how far t lies outside [t0, t1].
func outside(t, t0, t1 float64) float64 {
	return math.Max(0, math.Max(t0-t, t-t1))
}

func safeDiv(n, d, fallback float64) float64 {
	if d == 0 {
		return fallback
	}
	return n / d
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func windingOf(y0, y1 float64) int {
	switch {
	case y1-y0 >= Epsilon:
		return 1
	case y0-y1 >= Epsilon:
		return -1
	default:
		return 0
	}
}

// Transform maps font units (Y up) to bitmap space (Y down):
//
//	x' = x*Scale + OffsetX
//	y' = OffsetY - y*Scale
type Transform struct {
	Scale   float64
	OffsetX float64
	OffsetY float64
}

func (m Transform) apply(p ttf.Point) point {
	return point{
		x: float64(p.X)*m.Scale + m.OffsetX,
		y: m.OffsetY - float64(p.Y)*m.Scale,
	}
}

type point struct {
	x, y float64
}

func midpoint(a, b point) point {
	return point{(a.x + b.x) / 2, (a.y + b.y) / 2}
}

// BuildEdges converts the contours of g into bitmap-space edges.
//
// On-curve to on-curve runs become lines, on/off/on runs become quadratic
// curves, and two consecutive off-curve points get an implied on-curve
// midpoint. Every contour is closed back to its start. Zero-length lines
// and collapsed curves are dropped.
func BuildEdges(g *ttf.Glyph, m Transform) []Edge {
	edges := make([]Edge, 0, g.NumPoints())
	for i := 0; i < g.NumContours(); i++ {
		edges = appendContour(edges, g.Contour(i), m)
	}
	return edges
}

func appendContour(edges []Edge, pts []ttf.Point, m Transform) []Edge {
	n := len(pts)
	if n == 0 {
		return edges
	}

	// Start at the first on-curve point, or at the implied midpoint
	// between the last and first points when every point is off-curve.
	first := -1
	for i, p := range pts {
		if p.OnCurve {
			first = i
			break
		}
	}
	var start point
	var order []int
	if first >= 0 {
		start = m.apply(pts[first])
		for j := 1; j < n; j++ {
			order = append(order, (first+j)%n)
		}
	} else {
		start = midpoint(m.apply(pts[n-1]), m.apply(pts[0]))
		for j := 0; j < n; j++ {
			order = append(order, j)
		}
	}

	cur := start
	var ctrl point
	haveCtrl := false
	for _, idx := range order {
		p := m.apply(pts[idx])
		if pts[idx].OnCurve {
			if haveCtrl {
				edges = appendQuad(edges, cur, ctrl, p)
			} else {
				edges = appendLine(edges, cur, p)
			}
			cur, haveCtrl = p, false
			continue
		}
		if haveCtrl {
			mid := midpoint(ctrl, p)
			edges = appendQuad(edges, cur, ctrl, mid)
			cur = mid
		}
		ctrl, haveCtrl = p, true
	}

	if haveCtrl {
		return appendQuad(edges, cur, ctrl, start)
	}
	return appendLine(edges, cur, start)
}

func appendLine(edges []Edge, a, b point) []Edge {
	if a == b {
		return edges
	}
	return append(edges, Line{X0: a.x, Y0: a.y, X1: b.x, Y1: b.y})
}

func appendQuad(edges []Edge, a, c, b point) []Edge {
	if a == c && c == b {
		return edges
	}
	return append(edges, Quad{X0: a.x, Y0: a.y, CX: c.x, CY: c.y, X1: b.x, Y1: b.y})
}
