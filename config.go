package paceline

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"paceline/series"
)

// Config is the athlete and tool configuration loaded from a YAML file.
// Command-line flags override whatever the file sets.
type Config struct {
	Athlete struct {
		FTPWatts    float64 `yaml:"ftp_watts"`
		ThresholdHR float64 `yaml:"threshold_hr_bpm"`
		WeightKG    float64 `yaml:"weight_kg"`
	} `yaml:"athlete"`
	Elevation struct {
		Endpoint string `yaml:"endpoint"`
		APIKey   string `yaml:"api_key"`
	} `yaml:"elevation"`
	Store struct {
		Path string `yaml:"path"`
	} `yaml:"store"`
	Segmentation struct {
		KeepStopped         bool    `yaml:"keep_stopped"`
		StoppedThresholdMPS float64 `yaml:"stopped_threshold_mps"`
	} `yaml:"segmentation"`
}

// DefaultConfigFile is looked up relative to the working directory when
// --config is not given.
const DefaultConfigFile = "paceline.yml"

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() Config {
	var c Config
	c.Store.Path = "paceline.db"
	c.Segmentation.StoppedThresholdMPS = series.DefaultStoppedThreshold
	return c
}

// LoadConfig reads a YAML configuration file over the defaults. Fields the
// file leaves unset keep their default values.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}
