package choropleth

import (
	"io"

	"github.com/goccy/go-json"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"
)

// flushEvery is the number of features written between flushes.
const flushEvery = 100

// WriteStream writes p as
//
//	{"years":[...],"geojson":{"type":"FeatureCollection","features":[...]}}
//
// one feature at a time. flush, when non-nil, is called after every
// flushEvery features and once at the end. Features that fail to encode are
// skipped; write errors abort.
func WriteStream(w io.Writer, p *Payload, flush func()) error {
	years := p.Years
	if years == nil {
		years = []int{}
	}
	yearsJSON, err := json.Marshal(years)
	if err != nil {
		return eris.Wrap(err, "choropleth: encode years")
	}

	if err := writeAll(w, []byte(`{"years":`), yearsJSON,
		[]byte(`,"geojson":{"type":"FeatureCollection","features":[`)); err != nil {
		return err
	}
	if flush != nil {
		flush()
	}

	written := 0
	for i := range p.Features {
		data, err := encodeFeature(&p.Features[i])
		if err != nil {
			zap.L().Warn("choropleth: skipping unencodable feature",
				zap.String("zcta", p.Features[i].Zcta), zap.Error(err))
			continue
		}
		if written > 0 {
			if err := writeAll(w, []byte(",")); err != nil {
				return err
			}
		}
		if err := writeAll(w, data); err != nil {
			return err
		}
		written++
		if flush != nil && written%flushEvery == 0 {
			flush()
		}
	}

	if err := writeAll(w, []byte(`]}}`)); err != nil {
		return err
	}
	if flush != nil {
		flush()
	}
	return nil
}

func encodeFeature(f *Feature) ([]byte, error) {
	return json.Marshal(&geojson.Feature{
		Geometry:   f.Geometry,
		Properties: f.Properties,
	})
}

func writeAll(w io.Writer, chunks ...[]byte) error {
	for _, c := range chunks {
		if _, err := w.Write(c); err != nil {
			return eris.Wrap(err, "choropleth: write stream")
		}
	}
	return nil
}
