package tabular

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/occupancy-map/internal/model"
)

// Row is one data line of a table. Missing trailing fields read as "".
type Row struct {
	schema *Schema
	fields []string
}

// String returns the trimmed value of a column, or "" if the column or the
// field is absent.
func (r Row) String(name string) string {
	i, ok := r.schema.Index(name)
	if !ok || i >= len(r.fields) {
		return ""
	}
	return strings.TrimSpace(r.fields[i])
}

// Float returns the column value under CoerceFloatOrZero.
func (r Row) Float(name string) float64 {
	return CoerceFloatOrZero(r.String(name))
}

// NonNegative returns the column value under CoerceNonNegativeOrZero.
func (r Row) NonNegative(name string) float64 {
	return CoerceNonNegativeOrZero(r.String(name))
}

// Int returns the column value under CoerceIntOrZero.
func (r Row) Int(name string) int {
	return CoerceIntOrZero(r.String(name))
}

// Table is a parsed header plus its data rows in file order.
type Table struct {
	Schema *Schema
	Rows   []Row
}

// Parse splits text on newlines, takes the first line as the header and splits
// every line on commas. Quoting is not supported: fields must not contain the
// delimiter. Surrounding whitespace of the whole text is ignored, so the row
// count is the number of remaining lines minus one.
func Parse(text string) (*Table, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, eris.New("tabular: empty input")
	}

	lines := strings.Split(text, "\n")
	schema := NewSchema(splitLine(lines[0]))

	rows := make([]Row, 0, len(lines)-1)
	for _, line := range lines[1:] {
		rows = append(rows, Row{schema: schema, fields: splitLine(line)})
	}

	return &Table{Schema: schema, Rows: rows}, nil
}

// ReadFile reads and parses a table from disk. Failing to read the file is a
// SourceError attributed to source.
func ReadFile(source, path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, model.NewSourceError(source, path, err)
	}
	t, err := Parse(string(data))
	if err != nil {
		return nil, model.NewSourceError(source, path, err)
	}
	return t, nil
}

func splitLine(line string) []string {
	return strings.Split(strings.TrimRight(line, "\r"), ",")
}
