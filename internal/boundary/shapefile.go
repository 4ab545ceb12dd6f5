package boundary

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"

	"github.com/sells-group/occupancy-map/internal/metrics"
	"github.com/sells-group/occupancy-map/internal/model"
)

const sourceName = "boundary"

// Read loads every record of the shapefile at shpPath together with the
// attributes of its paired .dbf. A missing file, a truncated shape stream or
// table, or a shape count that differs from the DBF record count is a
// SourceError.
func Read(ctx context.Context, shpPath string) ([]Record, error) {
	start := time.Now()
	recs, err := read(ctx, shpPath)
	metrics.RecordBuild(sourceName, time.Since(start), err)
	return recs, err
}

func read(ctx context.Context, shpPath string) ([]Record, error) {
	log := zap.L().With(
		zap.String("component", "boundary.reader"),
		zap.String("path", shpPath),
	)

	if !strings.EqualFold(filepath.Ext(shpPath), ".shp") {
		return nil, model.NewSourceError(sourceName, shpPath, eris.New("boundary: not a .shp file"))
	}
	// go-shp derives the DBF name by swapping the last three characters and
	// ignores a missing DBF, so both files are checked up front.
	dbfPath := shpPath[:len(shpPath)-3] + "dbf"
	for _, p := range []string{shpPath, dbfPath} {
		if _, err := os.Stat(p); err != nil {
			return nil, model.NewSourceError(sourceName, p, err)
		}
	}

	reader, err := shp.Open(shpPath)
	if err != nil {
		return nil, model.NewSourceError(sourceName, shpPath, err)
	}
	defer func() { _ = reader.Close() }()

	fields := reader.Fields()
	names := make([]string, len(fields))
	numeric := make([]bool, len(fields))
	for i, f := range fields {
		names[i] = strings.TrimSpace(f.String())
		numeric[i] = f.Fieldtype == 'N' || f.Fieldtype == 'F'
	}
	attrCount := reader.AttributeCount()
	// go-shp ignores short reads on the table, so a cut-off DBF would yield
	// blank or partial values.
	if err := checkTableSize(dbfPath, fields, attrCount); err != nil {
		return nil, model.NewSourceError(sourceName, dbfPath, err)
	}

	var (
		records []Record
		skipped int
	)
	for reader.Next() {
		idx, shape := reader.Shape()
		if idx < 0 || idx >= attrCount {
			return nil, model.NewSourceError(sourceName, dbfPath,
				eris.Errorf("boundary: shape %d has no DBF record (%d records)", idx, attrCount))
		}
		if idx%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, eris.Wrap(err, "boundary: read shapefile")
			}
		}

		attrs := make(Attributes, 0, len(fields))
		for i := range fields {
			val := strings.TrimSpace(strings.Trim(reader.Attribute(i), "\x00"))
			if val == "" {
				continue
			}
			attrs = append(attrs, Attribute{Name: names[i], Value: decodeValue(val, numeric[i])})
		}

		g := shapeGeometry(shape)
		if g == nil {
			skipped++
		}
		records = append(records, Record{Attributes: attrs, Geometry: g})
	}

	if err := reader.Err(); err != nil {
		return nil, model.NewSourceError(sourceName, shpPath, eris.Wrap(err, "boundary: truncated shapefile"))
	}
	if len(records) != attrCount {
		return nil, model.NewSourceError(sourceName, shpPath,
			eris.Errorf("boundary: %d shapes but %d DBF records", len(records), attrCount))
	}

	if skipped > 0 {
		log.Debug("records without polygon geometry", zap.Int("skipped", skipped))
	}
	log.Info("boundary shapefile read",
		zap.Int("records", len(records)),
		zap.Int("fields", len(fields)),
	)
	return records, nil
}

// checkTableSize reports a DBF shorter than its header declares: a 32-byte
// preamble, 32 bytes per field and a terminator, then records of one deletion
// flag byte plus the field widths.
func checkTableSize(dbfPath string, fields []shp.Field, records int) error {
	info, err := os.Stat(dbfPath)
	if err != nil {
		return eris.Wrap(err, "boundary: stat dbf")
	}
	recordLen := int64(1)
	for _, f := range fields {
		recordLen += int64(f.Size)
	}
	want := int64(32+32*len(fields)+1) + int64(records)*recordLen
	if info.Size() < want {
		return eris.Errorf("boundary: truncated dbf: %d bytes, header declares %d records needing %d",
			info.Size(), records, want)
	}
	return nil
}

func decodeValue(val string, numeric bool) any {
	if numeric {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return val
}

func shapeGeometry(shape shp.Shape) geom.T {
	switch s := shape.(type) {
	case *shp.Polygon:
		return assemble(s.Parts, s.Points)
	case *shp.PolygonZ:
		return assemble(s.Parts, s.Points)
	case *shp.PolygonM:
		return assemble(s.Parts, s.Points)
	default:
		return nil
	}
}
