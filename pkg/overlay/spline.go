package overlay

import "github.com/sudorandom/situation-map/pkg/geo"

// splineSteps is the number of samples per cubic segment.
const splineSteps = 8

// basisSpline samples the uniform cubic B-spline through control points as
// a polyline. The curve starts at the first point and ends at the last; two
// points give a straight segment.
func basisSpline(ctrl []geo.Point) []geo.Point {
	switch len(ctrl) {
	case 0:
		return nil
	case 1, 2:
		return append([]geo.Point(nil), ctrl...)
	}

	out := []geo.Point{ctrl[0]}
	pen := geo.Point{X: (5*ctrl[0].X + ctrl[1].X) / 6, Y: (5*ctrl[0].Y + ctrl[1].Y) / 6}
	out = append(out, pen)

	segment := func(p0, p1, p geo.Point) {
		c1 := geo.Point{X: (2*p0.X + p1.X) / 3, Y: (2*p0.Y + p1.Y) / 3}
		c2 := geo.Point{X: (p0.X + 2*p1.X) / 3, Y: (p0.Y + 2*p1.Y) / 3}
		end := geo.Point{X: (p0.X + 4*p1.X + p.X) / 6, Y: (p0.Y + 4*p1.Y + p.Y) / 6}
		for i := 1; i <= splineSteps; i++ {
			out = append(out, cubic(pen, c1, c2, end, float64(i)/splineSteps))
		}
		pen = end
	}

	for i := 2; i < len(ctrl); i++ {
		segment(ctrl[i-2], ctrl[i-1], ctrl[i])
	}
	n := len(ctrl)
	segment(ctrl[n-2], ctrl[n-1], ctrl[n-1])
	return append(out, ctrl[n-1])
}

func cubic(p0, p1, p2, p3 geo.Point, t float64) geo.Point {
	mt := 1 - t
	a, b, c, d := mt*mt*mt, 3*mt*mt*t, 3*mt*t*t, t*t*t
	return geo.Point{
		X: a*p0.X + b*p1.X + c*p2.X + d*p3.X,
		Y: a*p0.Y + b*p1.Y + c*p2.Y + d*p3.Y,
	}
}
