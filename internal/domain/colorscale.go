package domain

import (
	"fmt"
	"time"
)

// ColorScale maps timestamps in the active window onto a three-stop
// perceptual gradient (viridis endpoints and midpoint) so long-profile charts
// encode pass recency. The domain is [start, median, end] of the window; a
// cohort gets one color for all of its points.
type ColorScale struct {
	start, mid, end time.Time
	stops           [3]rgb
}

type rgb struct{ r, g, b uint8 }

// viridis 3-stop approximation: dark purple, teal, yellow.
var viridisStops = [3]rgb{
	{68, 1, 84},
	{33, 145, 140},
	{253, 231, 37},
}

// NewColorScale builds a scale over the window. The middle stop sits at the
// window midpoint.
func NewColorScale(start, end time.Time) ColorScale {
	if end.Before(start) {
		start, end = end, start
	}
	return ColorScale{
		start: start,
		mid:   start.Add(end.Sub(start) / 2),
		end:   end,
		stops: viridisStops,
	}
}

// ColorFor clamps the timestamp into the window and interpolates along the
// gradient, returning a CSS rgb() value.
func (s ColorScale) ColorFor(t time.Time) string {
	var c rgb
	switch {
	case !t.After(s.start):
		c = s.stops[0]
	case !t.Before(s.end):
		c = s.stops[2]
	case t.Before(s.mid):
		c = lerp(s.stops[0], s.stops[1], fraction(s.start, s.mid, t))
	default:
		c = lerp(s.stops[1], s.stops[2], fraction(s.mid, s.end, t))
	}
	return fmt.Sprintf("rgb(%d,%d,%d)", c.r, c.g, c.b)
}

func fraction(lo, hi, t time.Time) float64 {
	span := hi.Sub(lo)
	if span <= 0 {
		return 0
	}
	return float64(t.Sub(lo)) / float64(span)
}

func lerp(a, b rgb, f float64) rgb {
	return rgb{
		r: uint8(float64(a.r) + f*(float64(b.r)-float64(a.r))),
		g: uint8(float64(a.g) + f*(float64(b.g)-float64(a.g))),
		b: uint8(float64(a.b) + f*(float64(b.b)-float64(a.b))),
	}
}
