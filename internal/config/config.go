package config

import (
	"errors"
	"fmt"
	"os"

	"refdiff/internal/detector"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Project struct {
		Root         string `yaml:"root"`
		SourceFolder string `yaml:"source_folder"`
		IncludeTests bool   `yaml:"include_tests"`
		ChangedOnly  bool   `yaml:"changed_only"` // commit mode: only packages touched by the diff
	} `yaml:"project"`
	Thresholds detector.Thresholds `yaml:"thresholds"`
	Storage    struct {
		Path string `yaml:"path"`
	} `yaml:"storage"`
	Report struct {
		Format string `yaml:"format"` // text, markdown or json
	} `yaml:"report"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	var cfg Config
	cfg.Project.Root = "."
	cfg.Thresholds = detector.DefaultThresholds()
	cfg.Storage.Path = "refdiff.db"
	cfg.Report.Format = "text"
	return &cfg
}

func LoadConfig(path string) (*Config, error) {
	// 1. Load .env if exists
	_ = godotenv.Load()

	// 2. Load YAML config over the defaults
	cfg := Default()
	file, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, err
	default:
		if err := yaml.Unmarshal(file, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	// 3. Override with Environment Variables if present
	if db := os.Getenv("REFDIFF_DB"); db != "" {
		cfg.Storage.Path = db
	}
	if folder := os.Getenv("REFDIFF_SOURCE_FOLDER"); folder != "" {
		cfg.Project.SourceFolder = folder
	}

	if err := cfg.Thresholds.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}
