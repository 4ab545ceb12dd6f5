package boundary

import (
	"github.com/jonas-p/go-shp"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/xy"
	"go.uber.org/zap"
)

// assemble turns shapefile polygon parts into a polygon or multipolygon.
// Clockwise rings are shells; counter-clockwise rings are holes attached to
// the first shell that contains their first vertex. A hole with no shell
// becomes a polygon of its own.
func assemble(parts []int32, points []shp.Point) geom.T {
	rings := splitParts(parts, points)
	if len(rings) == 0 {
		return nil
	}

	var (
		polys  [][][]geom.Coord
		shells [][]float64
		holes  [][]geom.Coord
	)
	for _, r := range rings {
		flat := flatCoords(r)
		if xy.SignedArea(geom.XY, flat) >= 0 {
			polys = append(polys, [][]geom.Coord{r})
			shells = append(shells, flat)
			continue
		}
		holes = append(holes, r)
	}

	for _, h := range holes {
		placed := false
		for i, shell := range shells {
			if xy.IsPointInRing(geom.XY, h[0], shell) {
				polys[i] = append(polys[i], h)
				placed = true
				break
			}
		}
		if !placed {
			polys = append(polys, [][]geom.Coord{h})
		}
	}

	if len(polys) == 1 {
		p, err := geom.NewPolygon(geom.XY).SetCoords(polys[0])
		if err != nil {
			zap.L().Debug("boundary: malformed polygon", zap.Error(err))
			return nil
		}
		return p
	}
	mp, err := geom.NewMultiPolygon(geom.XY).SetCoords(polys)
	if err != nil {
		zap.L().Debug("boundary: malformed multipolygon", zap.Error(err))
		return nil
	}
	return mp
}

// splitParts slices the point array at the part offsets. Empty or
// out-of-range parts are dropped.
func splitParts(parts []int32, points []shp.Point) [][]geom.Coord {
	n := int32(len(points))
	rings := make([][]geom.Coord, 0, len(parts))
	for i, start := range parts {
		end := n
		if i+1 < len(parts) {
			end = parts[i+1]
		}
		if start < 0 || end > n || start >= end {
			continue
		}
		ring := make([]geom.Coord, 0, end-start)
		for _, p := range points[start:end] {
			ring = append(ring, geom.Coord{p.X, p.Y})
		}
		rings = append(rings, ring)
	}
	return rings
}

// flatCoords converts a ring to the flat coordinate layout go-geom uses.
func flatCoords(coords []geom.Coord) []float64 {
	flat := make([]float64, 0, len(coords)*2)
	for _, c := range coords {
		flat = append(flat, c[0], c[1])
	}
	return flat
}
