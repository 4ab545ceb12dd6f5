// Package simplify reduces polygon rings to a bounded number of vertices and
// rounds coordinates to a fixed number of decimals.
package simplify

import (
	"math"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
)

// MinRingPoints is the smallest usable per-ring maximum: a closed triangle.
const MinRingPoints = 4

// Options controls decimation and rounding.
type Options struct {
	Precision     int
	MaxRingPoints int
}

// DefaultOptions rounds to 3 decimals (about 100 m) and keeps at most 50
// points per ring.
var DefaultOptions = Options{Precision: 3, MaxRingPoints: 50}

// Validate rejects options no ring can be simplified with.
func (o Options) Validate() error {
	if o.Precision < 0 || o.Precision > 10 {
		return eris.Errorf("simplify: precision %d out of range [0, 10]", o.Precision)
	}
	if o.MaxRingPoints < MinRingPoints {
		return eris.Errorf("simplify: max ring points %d below %d", o.MaxRingPoints, MinRingPoints)
	}
	return nil
}

// Round rounds v to precision decimals, halves away from zero.
func Round(v float64, precision int) float64 {
	f := math.Pow(10, float64(precision))
	return math.Round(v*f) / f
}

// Ring returns a rounded copy of ring holding at most o.MaxRingPoints points.
// Longer rings are sampled at evenly spaced indexes of the input and closed
// with a copy of the first sample. Shorter rings keep every point and are
// closed if they were not. o must be valid.
func Ring(ring []geom.Coord, o Options) []geom.Coord {
	n := len(ring)
	limit := o.MaxRingPoints

	if n <= limit {
		out := make([]geom.Coord, 0, n+1)
		for _, c := range ring {
			out = append(out, roundCoord(c, o.Precision))
		}
		return closeRing(out, limit)
	}

	step := float64(n-1) / float64(limit-1)
	out := make([]geom.Coord, 0, limit)
	for i := 0; i < limit-1; i++ {
		idx := int(math.Round(float64(i) * step))
		out = append(out, roundCoord(ring[idx], o.Precision))
	}
	return append(out, out[0].Clone())
}

// Geometry simplifies every ring of a polygon or multipolygon. Other
// geometry types are an error.
func Geometry(g geom.T, o Options) (geom.T, error) {
	if err := o.Validate(); err != nil {
		return nil, err
	}

	switch t := g.(type) {
	case *geom.Polygon:
		p, err := geom.NewPolygon(t.Layout()).SetCoords(polygon(t.Coords(), o))
		if err != nil {
			return nil, eris.Wrap(err, "simplify: polygon")
		}
		return p, nil
	case *geom.MultiPolygon:
		src := t.Coords()
		polys := make([][][]geom.Coord, 0, len(src))
		for _, p := range src {
			polys = append(polys, polygon(p, o))
		}
		mp, err := geom.NewMultiPolygon(t.Layout()).SetCoords(polys)
		if err != nil {
			return nil, eris.Wrap(err, "simplify: multipolygon")
		}
		return mp, nil
	default:
		return nil, eris.Errorf("simplify: unsupported geometry %T", g)
	}
}

func polygon(rings [][]geom.Coord, o Options) [][]geom.Coord {
	out := make([][]geom.Coord, 0, len(rings))
	for _, r := range rings {
		out = append(out, Ring(r, o))
	}
	return out
}

func roundCoord(c geom.Coord, precision int) geom.Coord {
	out := make(geom.Coord, len(c))
	for i, v := range c {
		out[i] = Round(v, precision)
	}
	return out
}

// closeRing makes the last point equal the first, appending when there is
// room under limit and overwriting the last point otherwise.
func closeRing(ring []geom.Coord, limit int) []geom.Coord {
	if len(ring) < 2 || ring[0].Equal(geom.XY, ring[len(ring)-1]) {
		return ring
	}
	if len(ring) < limit {
		return append(ring, ring[0].Clone())
	}
	ring[len(ring)-1] = ring[0].Clone()
	return ring
}
