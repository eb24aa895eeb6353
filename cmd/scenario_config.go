package cmd

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ScenarioConfig is the YAML scenario file: run-shaping parameters plus the
// scheduled intervention timeline. Zero-valued fields fall back to the
// built-in defaults or CLI flags.
type ScenarioConfig struct {
	Name       string `yaml:"name"`
	StartDate  string `yaml:"start_date"` // YYYY-MM-DD
	Days       int    `yaml:"days"`
	Population int    `yaml:"population"`
	Seed       int64  `yaml:"seed"`

	// AgeBucketCounts optionally replaces the default pyramid with explicit
	// per-bucket agent counts; when set, Population is ignored.
	AgeBucketCounts []int `yaml:"age_bucket_counts"`

	HospitalBeds int64 `yaml:"hospital_beds"`
	ICUUnits     int64 `yaml:"icu_units"`

	Disease *DiseaseOverrides `yaml:"disease"`

	// DailyImports force-infects this many agents every day, modeling
	// travel-borne introductions on top of scheduled import events.
	DailyImports int `yaml:"daily_imports"`

	Interventions []InterventionConfig `yaml:"interventions"`
}

// InterventionConfig is one scheduled event in a scenario file.
type InterventionConfig struct {
	Day   int    `yaml:"day"`
	Name  string `yaml:"name"`
	Value int    `yaml:"value"`
}

// DiseaseOverrides lets a scenario adjust the headline disease parameters
// without restating the full model. Pointer fields so an absent key and an
// explicit zero stay distinguishable.
type DiseaseOverrides struct {
	PInfection             *float64 `yaml:"p_infection"`
	PAsymptomatic          *float64 `yaml:"p_asymptomatic"`
	IncubationMeanDays     *float64 `yaml:"incubation_mean_days"`
	OnsetToRemovedMeanDays *float64 `yaml:"onset_to_removed_mean_days"`
	PWardDeathWithoutBed   *float64 `yaml:"p_ward_death_without_bed"`
}

// loadScenarioConfig parses a scenario YAML file with strict field checking
// so a typo in a key is an error instead of a silently ignored setting.
func loadScenarioConfig(path string) (*ScenarioConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario file: %w", err)
	}
	return parseScenarioConfig(data)
}

func parseScenarioConfig(data []byte) (*ScenarioConfig, error) {
	var cfg ScenarioConfig
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	if cfg.StartDate != "" {
		if _, err := time.Parse("2006-01-02", cfg.StartDate); err != nil {
			return nil, fmt.Errorf("parse scenario start_date: %w", err)
		}
	}
	if cfg.Days < 0 || cfg.Population < 0 || cfg.DailyImports < 0 {
		return nil, fmt.Errorf("scenario days, population and daily_imports must not be negative")
	}
	return &cfg, nil
}

// startDate returns the parsed start date, or the fallback when unset.
func (c *ScenarioConfig) startDate(fallback time.Time) time.Time {
	if c.StartDate == "" {
		return fallback
	}
	d, _ := time.Parse("2006-01-02", c.StartDate)
	return d
}
