package timeseries

import (
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Aggregation says how a definition's columns combine into one value.
type Aggregation string

// Supported aggregations.
const (
	AggregationDirect Aggregation = "direct" // the single declared column
	AggregationSum    Aggregation = "sum"    // sum of all declared columns
)

// Definition describes one selectable feature: where its yearly values live
// and how the client should present them.
type Definition struct {
	ID          string      `yaml:"id" json:"id"`
	Label       string      `yaml:"label" json:"label"`
	Group       string      `yaml:"group" json:"group"`
	CSVFile     string      `yaml:"csv_file" json:"csv_file"`
	Columns     []string    `yaml:"columns" json:"columns"`
	Aggregation Aggregation `yaml:"aggregation" json:"aggregation"`
	Color       string      `yaml:"color" json:"color"`
	Unit        string      `yaml:"unit" json:"unit"`
}

// DefaultDefinitions returns the built-in feature catalog.
func DefaultDefinitions() []Definition {
	return []Definition{
		{
			ID:          "median_income_25_44",
			Label:       "Median Income (25-44 yr)",
			Group:       "Income",
			CSVFile:     "S1903_Median_Income_zcta_all_years.csv",
			Columns:     []string{"median_income_householder_age_25_44"},
			Aggregation: AggregationDirect,
			Color:       "#4a90d9",
			Unit:        "$",
		},
		{
			ID:      "population_25_44",
			Label:   "Population % (25-44 yr)",
			Group:   "Population",
			CSVFile: "S0101_Population_zcta_all_years.csv",
			Columns: []string{
				"pct_total_age_25_29",
				"pct_total_age_30_34",
				"pct_total_age_35_39",
				"pct_total_age_40_44",
			},
			Aggregation: AggregationSum,
			Color:       "#e5963b",
			Unit:        "%",
		},
		{
			ID:          "commute_under_30",
			Label:       "Commute < 30 min",
			Group:       "Travel Time",
			CSVFile:     "B08303_Travel_time_to_work_zcta_all_years.csv",
			Columns:     []string{"commute_under_30_min"},
			Aggregation: AggregationDirect,
			Color:       "#34b87c",
		},
		{
			ID:          "commute_30_60",
			Label:       "Commute 30-60 min",
			Group:       "Travel Time",
			CSVFile:     "B08303_Travel_time_to_work_zcta_all_years.csv",
			Columns:     []string{"commute_30_to_60_min"},
			Aggregation: AggregationDirect,
			Color:       "#f59e0b",
		},
		{
			ID:          "commute_over_60",
			Label:       "Commute > 60 min",
			Group:       "Travel Time",
			CSVFile:     "B08303_Travel_time_to_work_zcta_all_years.csv",
			Columns:     []string{"commute_over_60_min"},
			Aggregation: AggregationDirect,
			Color:       "#ef4444",
		},
		{
			ID:          "total_units",
			Label:       "Total Housing Units",
			Group:       "Housing",
			CSVFile:     "B25002_occupancy_status_zcta.csv",
			Columns:     []string{"total_units"},
			Aggregation: AggregationDirect,
			Color:       "#6366f1",
		},
		{
			ID:          "occupied_units",
			Label:       "Occupied Units",
			Group:       "Housing",
			CSVFile:     "B25002_occupancy_status_zcta.csv",
			Columns:     []string{"occupied_units"},
			Aggregation: AggregationDirect,
			Color:       "#10b981",
		},
		{
			ID:          "vacant_units",
			Label:       "Vacant Units",
			Group:       "Housing",
			CSVFile:     "B25002_occupancy_status_zcta.csv",
			Columns:     []string{"vacant_units"},
			Aggregation: AggregationDirect,
			Color:       "#f97316",
		},
		{
			ID:          "movers_25_44",
			Label:       "Movers Age 25-44",
			Group:       "Migration",
			CSVFile:     "S0701_Move_in_zcta_all_years.csv",
			Columns:     []string{"total_age_25_34", "total_age_35_44"},
			Aggregation: AggregationSum,
			Color:       "#8b5cf6",
		},
		{
			ID:          "movers_income_75k_plus",
			Label:       "Movers Income ≥ $75K (%)",
			Group:       "Migration",
			CSVFile:     "S0701_Move_in_zcta_all_years.csv",
			Columns:     []string{"pct_income_75k_or_more"},
			Aggregation: AggregationDirect,
			Color:       "#ec4899",
			Unit:        "%",
		},
	}
}

// ValidateDefinitions checks ids are present and unique, files are relative
// paths inside the data directory and aggregations match their columns.
func ValidateDefinitions(defs []Definition) error {
	if len(defs) == 0 {
		return eris.New("timeseries: no feature definitions")
	}
	seen := make(map[string]struct{}, len(defs))
	for i, d := range defs {
		if d.ID == "" {
			return eris.Errorf("timeseries: definition %d has no id", i)
		}
		if _, dup := seen[d.ID]; dup {
			return eris.Errorf("timeseries: duplicate definition id %q", d.ID)
		}
		seen[d.ID] = struct{}{}

		if d.CSVFile == "" || !filepath.IsLocal(d.CSVFile) {
			return eris.Errorf("timeseries: %s: csv_file %q must be a relative path", d.ID, d.CSVFile)
		}
		switch d.Aggregation {
		case AggregationDirect:
			if len(d.Columns) != 1 {
				return eris.Errorf("timeseries: %s: direct aggregation needs exactly one column", d.ID)
			}
		case AggregationSum:
			if len(d.Columns) == 0 {
				return eris.Errorf("timeseries: %s: sum aggregation needs at least one column", d.ID)
			}
		default:
			return eris.Errorf("timeseries: %s: unknown aggregation %q", d.ID, d.Aggregation)
		}
	}
	return nil
}

// LoadDefinitions reads a feature catalog from a YAML file with a top-level
// "features" list.
func LoadDefinitions(path string) ([]Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "timeseries: read definitions %s", path)
	}

	var wrapper struct {
		Features []Definition `yaml:"features"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return nil, eris.Wrap(err, "timeseries: parse definitions")
	}
	if err := ValidateDefinitions(wrapper.Features); err != nil {
		return nil, err
	}
	return wrapper.Features, nil
}
