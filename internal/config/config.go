package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/occupancy-map/internal/simplify"
)

// Config holds the full application configuration.
type Config struct {
	Data     DataConfig     `yaml:"data" mapstructure:"data"`
	Simplify SimplifyConfig `yaml:"simplify" mapstructure:"simplify"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Boundary BoundaryConfig `yaml:"boundary" mapstructure:"boundary"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// DataConfig locates the source files.
type DataConfig struct {
	OccupancyCSV string `yaml:"occupancy_csv" mapstructure:"occupancy_csv"`
	ScorecardCSV string `yaml:"scorecard_csv" mapstructure:"scorecard_csv"`
	BoundarySHP  string `yaml:"boundary_shp" mapstructure:"boundary_shp"`
	FeatureDir   string `yaml:"feature_dir" mapstructure:"feature_dir"`
	FeaturesFile string `yaml:"features_file" mapstructure:"features_file"` // empty = built-in catalog
}

// SimplifyConfig configures ring decimation.
type SimplifyConfig struct {
	Precision     int `yaml:"precision" mapstructure:"precision"`
	MaxRingPoints int `yaml:"max_ring_points" mapstructure:"max_ring_points"`
}

// Options converts the config to simplifier options.
func (s SimplifyConfig) Options() simplify.Options {
	return simplify.Options{Precision: s.Precision, MaxRingPoints: s.MaxRingPoints}
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port               int      `yaml:"port" mapstructure:"port"`
	CORSOrigins        []string `yaml:"cors_origins" mapstructure:"cors_origins"`
	RateLimitPerMinute int      `yaml:"rate_limit_per_minute" mapstructure:"rate_limit_per_minute"`
}

// BoundaryConfig configures the boundary archive download.
type BoundaryConfig struct {
	URL     string `yaml:"url" mapstructure:"url"`
	TempDir string `yaml:"temp_dir" mapstructure:"temp_dir"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("OCCMAP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("data.occupancy_csv", "dataset_extraction/census_data_output/B25002_occupancy_status_zcta.csv")
	v.SetDefault("data.scorecard_csv", "dataset_extraction/census_data_output/builder_scorecard.csv")
	v.SetDefault("data.boundary_shp", "dataset_extraction/zcta_boundaries/tl_2025_us_zcta520.shp")
	v.SetDefault("data.feature_dir", "dataset_extraction/census_data_output")
	v.SetDefault("data.features_file", "")
	v.SetDefault("simplify.precision", simplify.DefaultOptions.Precision)
	v.SetDefault("simplify.max_ring_points", simplify.DefaultOptions.MaxRingPoints)
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("server.rate_limit_per_minute", 600)
	v.SetDefault("boundary.url", "https://www2.census.gov/geo/tiger/TIGER2025/ZCTA520/tl_2025_us_zcta520.zip")
	v.SetDefault("boundary.temp_dir", "dataset_extraction/zcta_boundaries")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings a command needs. mode is one of serve, build,
// series or fetch.
func (c *Config) Validate(mode string) error {
	var missing []string
	need := func(key, val string) {
		if strings.TrimSpace(val) == "" {
			missing = append(missing, key)
		}
	}

	switch mode {
	case "serve", "build":
		need("data.occupancy_csv", c.Data.OccupancyCSV)
		need("data.scorecard_csv", c.Data.ScorecardCSV)
		need("data.boundary_shp", c.Data.BoundarySHP)
		if err := c.Simplify.Options().Validate(); err != nil {
			return eris.Wrap(err, "config: simplify")
		}
		if mode == "serve" {
			need("data.feature_dir", c.Data.FeatureDir)
			if c.Server.Port <= 0 || c.Server.Port > 65535 {
				return eris.Errorf("config: server.port must be > 0 and <= 65535, got %d", c.Server.Port)
			}
			if c.Server.RateLimitPerMinute < 0 {
				return eris.Errorf("config: server.rate_limit_per_minute must be >= 0, got %d", c.Server.RateLimitPerMinute)
			}
		}
	case "series":
		need("data.feature_dir", c.Data.FeatureDir)
	case "fetch":
		need("boundary.url", c.Boundary.URL)
		need("boundary.temp_dir", c.Boundary.TempDir)
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(missing) > 0 {
		return eris.Errorf("config: missing required settings for %s: %s", mode, strings.Join(missing, ", "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
