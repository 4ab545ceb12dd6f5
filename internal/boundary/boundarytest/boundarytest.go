// Package boundarytest writes small polygon shapefiles for tests.
package boundarytest

import (
	"os"
	"strings"
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/stretchr/testify/require"
)

// Feature is one polygon record. Values line up with the fields passed to
// Write; a nil value leaves the DBF cell blank.
type Feature struct {
	Rings  [][]shp.Point
	Values []any
}

// Square returns a closed clockwise ring, the shell orientation of the
// shapefile format, with its lower-left corner at (x, y).
func Square(x, y, size float64) []shp.Point {
	return []shp.Point{
		{X: x, Y: y},
		{X: x, Y: y + size},
		{X: x + size, Y: y + size},
		{X: x + size, Y: y},
		{X: x, Y: y},
	}
}

// Hole returns a closed counter-clockwise ring.
func Hole(x, y, size float64) []shp.Point {
	sq := Square(x, y, size)
	out := make([]shp.Point, len(sq))
	for i := range sq {
		out[i] = sq[len(sq)-1-i]
	}
	return out
}

// Circle approximates a clockwise ring with n distinct vertices plus the
// closing vertex.
func Circle(cx, cy, r float64, n int) []shp.Point {
	pts := make([]shp.Point, 0, n+1)
	for i := 0; i < n; i++ {
		// Walk the unit square perimeter clockwise; exact roundness is irrelevant.
		t := float64(i) / float64(n) * 4
		var x, y float64
		switch {
		case t < 1:
			x, y = -1, -1+2*t
		case t < 2:
			x, y = -1+2*(t-1), 1
		case t < 3:
			x, y = 1, 1-2*(t-2)
		default:
			x, y = 1-2*(t-3), -1
		}
		pts = append(pts, shp.Point{X: cx + r*x, Y: cy + r*y})
	}
	return append(pts, pts[0])
}

// Write creates path (.shp, .shx and .dbf) holding the given features.
func Write(t testing.TB, path string, fields []shp.Field, features []Feature) {
	t.Helper()
	require.True(t, strings.HasSuffix(path, ".shp"), "path must end in .shp")

	w, err := shp.Create(path, shp.POLYGON)
	require.NoError(t, err)
	require.NoError(t, w.SetFields(fields))

	for _, f := range features {
		poly := shp.Polygon(*shp.NewPolyLine(f.Rings))
		row := int(w.Write(&poly))
		for i, v := range f.Values {
			if v == nil {
				continue
			}
			require.NoError(t, w.WriteAttribute(row, i, v))
		}
	}
	w.Close()

	// The writer names the table "<base>dbf"; readers expect "<base>.dbf".
	base := strings.TrimSuffix(path, ".shp")
	require.NoError(t, os.Rename(base+"dbf", base+".dbf"))
}

// ZCTAFields is the single key field of a 2020 ZCTA product.
func ZCTAFields() []shp.Field {
	return []shp.Field{shp.StringField("ZCTA5CE20", 5)}
}
