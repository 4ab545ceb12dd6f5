// Package boundary reads ZCTA boundary polygons from ESRI shapefiles and
// resolves each record to its area key.
package boundary

import (
	"github.com/twpayne/go-geom"
)

// Attribute is one DBF field of a boundary record. Value is a string, or a
// float64 for numeric DBF fields.
type Attribute struct {
	Name  string
	Value any
}

// Attributes keeps DBF field order. Blank values are not present.
type Attributes []Attribute

// Get returns the value of the first attribute named exactly name.
func (a Attributes) Get(name string) (any, bool) {
	for _, attr := range a {
		if attr.Name == name {
			return attr.Value, true
		}
	}
	return nil, false
}

// Record is one shapefile feature. Geometry is a *geom.Polygon, a
// *geom.MultiPolygon, or nil for null and non-polygon shapes.
type Record struct {
	Attributes Attributes
	Geometry   geom.T
}
