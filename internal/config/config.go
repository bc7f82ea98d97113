package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/go-playground/validator/v10"
)

// Config holds all settings for one pipeline run, populated from environment variables.
type Config struct {
	// DataYear is the single SAIPE year requested from the census API.
	DataYear      int           `validate:"min=1989,max=2100"`
	CensusAPIURL  string        `validate:"required,url"`
	CensusAPIKey  string
	CensusTimeout time.Duration `validate:"gt=0"`

	HousingPath    string `validate:"required"`
	CrosswalkPath  string `validate:"required"`
	PopulationPath string `validate:"required"`
	RacePath       string `validate:"required"`
	MobilityPath   string `validate:"required"`

	HousingOutputPath  string `validate:"required"`
	RaceOutputPath     string `validate:"required"`
	MobilityOutputPath string `validate:"required"`

	LogLevel        string `validate:"oneof=debug info warn error"`
	LogFormat       string `validate:"oneof=json text"`
	HTTPAddr        string
	ShutdownTimeout time.Duration

	// Optional sinks and metrics push; empty disables.
	PushgatewayURL string   `validate:"omitempty,url"`
	KafkaBrokers   []string `validate:"omitempty,dive,hostname_port"`
	KafkaSinkTopic string   `validate:"required_with=KafkaBrokers"`
	DuckDBPath     string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	year, err := strconv.Atoi(sharedcfg.EnvOrDefault("DATA_YEAR", "2020"))
	if err != nil {
		return nil, errors.New("invalid DATA_YEAR")
	}

	censusTimeout, err := time.ParseDuration(sharedcfg.EnvOrDefault("CENSUS_TIMEOUT", "30s"))
	if err != nil || censusTimeout <= 0 {
		return nil, errors.New("invalid CENSUS_TIMEOUT")
	}

	var brokers []string
	if v := strings.TrimSpace(os.Getenv("KAFKA_BROKERS")); v != "" {
		brokers = sharedcfg.ParseBrokers(v)
	}

	cfg := &Config{
		DataYear:      year,
		CensusAPIURL:  sharedcfg.EnvOrDefault("CENSUS_API_URL", "https://api.census.gov/data/timeseries/poverty/saipe"),
		CensusAPIKey:  os.Getenv("CENSUS_API_KEY"),
		CensusTimeout: censusTimeout,

		HousingPath:    sharedcfg.EnvOrDefault("HOUSING_PATH", "raw/zillow_home_value_index_county.csv"),
		CrosswalkPath:  sharedcfg.EnvOrDefault("CROSSWALK_PATH", "raw/CountyCrossWalk_Zillow.csv"),
		PopulationPath: sharedcfg.EnvOrDefault("POPULATION_PATH", "raw/county_population.csv"),
		RacePath:       sharedcfg.EnvOrDefault("RACE_PATH", "raw/race_by_county.csv"),
		MobilityPath:   sharedcfg.EnvOrDefault("MOBILITY_PATH", "raw/google_mobility_county.csv"),

		HousingOutputPath:  sharedcfg.EnvOrDefault("HOUSING_OUTPUT_PATH", "clean/zhvi_county_inc_pop_clean.csv"),
		RaceOutputPath:     sharedcfg.EnvOrDefault("RACE_OUTPUT_PATH", "clean/race_data_clean.csv"),
		MobilityOutputPath: sharedcfg.EnvOrDefault("MOBILITY_OUTPUT_PATH", "clean/google_mobility_county_clean.csv"),

		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		HTTPAddr:        os.Getenv("HTTP_ADDR"),
		ShutdownTimeout: shutdownTimeout,

		PushgatewayURL: os.Getenv("PUSHGATEWAY_URL"),
		KafkaBrokers:   brokers,
		KafkaSinkTopic: sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "county-housing-indicators"),
		DuckDBPath:     os.Getenv("DUCKDB_PATH"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// KafkaEnabled reports whether merged records should also be published to Kafka.
func (c *Config) KafkaEnabled() bool { return len(c.KafkaBrokers) > 0 }

// DuckDBEnabled reports whether output tables should also be written to DuckDB.
func (c *Config) DuckDBEnabled() bool { return c.DuckDBPath != "" }

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints and reports the first failing field by
// its environment variable name.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return fmt.Errorf("invalid %s: failed %q check", envName(fe.StructField()), fe.Tag())
	}
	return err
}

var envNames = map[string]string{
	"DataYear":           "DATA_YEAR",
	"CensusAPIURL":       "CENSUS_API_URL",
	"CensusTimeout":      "CENSUS_TIMEOUT",
	"HousingPath":        "HOUSING_PATH",
	"CrosswalkPath":      "CROSSWALK_PATH",
	"PopulationPath":     "POPULATION_PATH",
	"RacePath":           "RACE_PATH",
	"MobilityPath":       "MOBILITY_PATH",
	"HousingOutputPath":  "HOUSING_OUTPUT_PATH",
	"RaceOutputPath":     "RACE_OUTPUT_PATH",
	"MobilityOutputPath": "MOBILITY_OUTPUT_PATH",
	"LogLevel":           "LOG_LEVEL",
	"LogFormat":          "LOG_FORMAT",
	"PushgatewayURL":     "PUSHGATEWAY_URL",
	"KafkaBrokers":       "KAFKA_BROKERS",
	"KafkaSinkTopic":     "KAFKA_SINK_TOPIC",
}

func envName(field string) string {
	if n, ok := envNames[field]; ok {
		return n
	}
	return field
}
