package datastructure

import (
	"math"
)

const (
	EPS = 1e-6
)

type Point struct {
	x, y float64
}

func NewPoint(x, y float64) *Point {
	return &Point{x, y}
}

func (p *Point) GetX() float64 {
	return p.x
}

func (p *Point) GetY() float64 {
	return p.y
}

// equal operator
func Eq(a, b float64) bool {
	return math.Abs(a-b) <= EPS
}

// less than operator
func Lt(a, b float64) bool {
	return a+EPS < b
}

// greater than or equal than operator
func Ge(a, b float64) bool {
	return Le(b, a)
}

func Gt(a, b float64) bool {
	return Lt(b, a)
}

// less than or equal operator
func Le(a, b float64) bool {
	return a <= b+EPS
}

func (p *Point) add(p2 *Point) {
	p.x += p2.x
	p.y += p2.y
}

func (p *Point) sub(p2 *Point) {
	p.x -= p2.x
	p.y -= p2.y
}

func (p *Point) multConst(q float64) {
	p.x *= q
	p.y *= q
}

type Vector struct {
	x, y float64
}

func NewVector(x, y float64) *Vector {
	return &Vector{x, y}
}

func toVec(a, b *Point) *Vector {
	return NewVector(b.x-a.x, b.y-a.y)
}

// cross product of two vectors a and b
func cross(a, b *Vector) float64 {
	return a.x*b.y - a.y*b.x
}

func dir(p, q, r *Point) int {

	if math.Abs(p.GetX()-q.GetX()) < EPS && math.Abs(p.GetY()-q.GetY()) < EPS {
		return 0
	}

	if math.Abs(p.GetX()-r.GetX()) < EPS && math.Abs(p.GetY()-r.GetY()) < EPS {
		return 0
	}

	if math.Abs(q.GetX()-r.GetX()) < EPS && math.Abs(q.GetY()-r.GetY()) < EPS {
		return 0
	}

	x := cross(toVec(p, r), toVec(p, q))
	if math.Abs(x) < EPS {
		return 0
	}

	if x > 0 {
		return 1
	}
	return -1
}

// returns true if point r is on the same line as the line pq
func collinear(p, q, r *Point) bool {
	return dir(p, q, r) == 0
}

// onSegment. r collinear with (a,b) and inside its bounding box.
func onSegment(r, a, b *Point) bool {
	return collinear(a, b, r) &&
		Le(math.Min(a.x, b.x), r.x) && Le(r.x, math.Max(a.x, b.x)) &&
		Le(math.Min(a.y, b.y), r.y) && Le(r.y, math.Max(a.y, b.y))
}

// intersectionPoint of the crossing line segments (ab) and (pq)
func intersectionPoint(a, b, p, q *Point) *Point {

	denom := cross(toVec(q, p), toVec(a, b))

	bb := *b
	cp := cross(toVec(q, p), toVec(a, p)) / denom
	bb.sub(a)
	bb.multConst(cp)
	aa := *a
	aa.add(&bb)
	return &aa
}

// check wether line segments (ab) and (pq) intersect in exactly one point
func intersect(a, b, p, q *Point) bool {

	if dir(a, b, p) == 0 {
		return false
	}
	if dir(a, b, q) == 0 {
		return false
	}

	if dir(p, q, a) == 0 {
		return false
	}
	if dir(p, q, b) == 0 {
		return false
	}

	if dir(a, b, p) == dir(a, b, q) {
		return false
	}
	if dir(p, q, a) == dir(p, q, b) {
		return false
	}

	return true
}

// SegmentsIntersect. true when segments (ab) and (pq) share at least one point,
// touching and collinear overlap included.
func SegmentsIntersect(a, b, p, q *Point) bool {
	d1 := dir(p, q, a)
	d2 := dir(p, q, b)
	d3 := dir(a, b, p)
	d4 := dir(a, b, q)

	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}

	if d1 == 0 && onSegment(a, p, q) {
		return true
	}
	if d2 == 0 && onSegment(b, p, q) {
		return true
	}
	if d3 == 0 && onSegment(p, a, b) {
		return true
	}
	if d4 == 0 && onSegment(q, a, b) {
		return true
	}
	return false
}

// InsidePolygon. point-in-polygon by ray casting, boundary counts as inside.
func InsidePolygon(p *Point, polygon []*Point) bool {
	n := len(polygon)
	if n < 3 {
		return false
	}

	inside := false
	j := n - 1
	for i := 0; i < n; i++ {
		a, b := polygon[i], polygon[j]
		if onSegment(p, a, b) {
			return true
		}
		if (a.y > p.y) != (b.y > p.y) {
			xCross := a.x + (p.y-a.y)/(b.y-a.y)*(b.x-a.x)
			if p.x < xCross {
				inside = !inside
			}
		}
		j = i
	}
	return inside
}

// SegmentIntersectsPolygon. true when segment (ab) crosses the polygon boundary or
// lies (partly) inside it.
func SegmentIntersectsPolygon(a, b *Point, polygon []*Point) bool {
	if InsidePolygon(a, polygon) || InsidePolygon(b, polygon) {
		return true
	}

	j := len(polygon) - 1
	for i := 0; i < len(polygon); i++ {
		if SegmentsIntersect(a, b, polygon[j], polygon[i]) {
			return true
		}
		j = i
	}
	return false
}

// CirclePolygon. approximate a circle with a numPoints-gon, counterclockwise.
func CirclePolygon(center *Point, radius float64, numPoints int) []*Point {
	polygon := make([]*Point, 0, numPoints)
	for i := 0; i < numPoints; i++ {
		theta := 2 * math.Pi * float64(i) / float64(numPoints)
		polygon = append(polygon,
			NewPoint(center.x+radius*math.Cos(theta), center.y+radius*math.Sin(theta)))
	}
	return polygon
}
