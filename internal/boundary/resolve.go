package boundary

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/sells-group/occupancy-map/internal/model"
)

// KnownKeyFields are the DBF fields that carry the area key in TIGER/Line
// ZCTA products, most recent vintage first.
var KnownKeyFields = []string{"ZCTA5CE20", "GEOID20", "ZCTA5CE10", "GEOID10", "ZCTA5CE", "GEOID"}

var keyFieldPattern = regexp.MustCompile(`(?i)(zcta|geoid)`)

// ResolveKey finds the area key of a boundary record. The first known key
// field with a value wins; failing that, the first attribute whose name
// mentions zcta or geoid. The key is normalized to five digits.
func ResolveKey(attrs Attributes) (string, bool) {
	for _, name := range KnownKeyFields {
		v, ok := attrs.Get(name)
		if !ok {
			continue
		}
		if s, ok := keyText(v); ok {
			return model.NormalizeAreaKey(s), true
		}
	}
	for _, a := range attrs {
		if !keyFieldPattern.MatchString(a.Name) {
			continue
		}
		if s, ok := keyText(a.Value); ok {
			return model.NormalizeAreaKey(s), true
		}
	}
	return "", false
}

// keyText renders a string or numeric attribute value. Integral numbers have
// no fraction, so 601 becomes "601".
func keyText(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		s := strings.TrimSpace(t)
		return s, s != ""
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return "", false
		}
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case int:
		return strconv.Itoa(t), true
	default:
		return "", false
	}
}
