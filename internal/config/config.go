package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultEndcapRoots are the two ECAL endcap sub-structures of the SAND
// detector that geonav scans when no root is given.
var DefaultEndcapRoots = []string{
	"/volWorld_PV_1/rockBox_lv_PV_0/volDetEnclosure_PV_0/volSAND_PV_0/MagIntVol_volume_PV_0/kloe_calo_volume_PV_0/ECAL_endcap_lv_PV_0",
	"/volWorld_PV_1/rockBox_lv_PV_0/volDetEnclosure_PV_0/volSAND_PV_0/MagIntVol_volume_PV_0/kloe_calo_volume_PV_0/ECAL_endcap_lv_PV_1",
}

const (
	DefaultManager   = "EDepSimGeometry"
	DefaultCellWidth = 44.4
	DefaultSeed      = 42
	DefaultDriver    = "sqlite3"
)

type Config struct {
	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
	Geometry struct {
		Manager   string   `yaml:"manager"`
		Roots     []string `yaml:"roots"`
		CellWidth float64  `yaml:"cell_width"` // cell pitch used by `geonav modules`
	} `yaml:"geometry"`
	Datasets struct {
		Seed     int64  `yaml:"seed"`
		Driver   string `yaml:"driver"`
		CheckAll *bool  `yaml:"check_all"`
	} `yaml:"datasets"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	cfg := &Config{}
	cfg.Log.Level = "info"
	cfg.Geometry.Manager = DefaultManager
	cfg.Geometry.Roots = append([]string(nil), DefaultEndcapRoots...)
	cfg.Geometry.CellWidth = DefaultCellWidth
	cfg.Datasets.Seed = DefaultSeed
	cfg.Datasets.Driver = DefaultDriver
	return cfg
}

// LoadConfig layers the YAML file at path, a local .env file and
// DETKIT_* environment variables over the defaults. A missing file is
// not an error.
func LoadConfig(path string) (*Config, error) {
	// 1. Load .env if exists
	_ = godotenv.Load()

	cfg := Default()

	// 2. Load YAML config
	if path != "" {
		file, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("config load failed (%s): %w", path, err)
		default:
			if err := yaml.Unmarshal(file, cfg); err != nil {
				return nil, fmt.Errorf("config parse failed (%s): %w", path, err)
			}
		}
	}

	// 3. Override with Environment Variables if present
	if level := os.Getenv("DETKIT_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	if raw := os.Getenv("DETKIT_SEED"); raw != "" {
		seed, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse DETKIT_SEED: %w", err)
		}
		cfg.Datasets.Seed = seed
	}
	if driver := os.Getenv("DETKIT_DRIVER"); driver != "" {
		cfg.Datasets.Driver = driver
	}

	cfg.normalize()
	return cfg, nil
}

// CheckAll reports whether compare mode verifies every dataset. It
// defaults to true.
func (c *Config) CheckAll() bool {
	return c.Datasets.CheckAll == nil || *c.Datasets.CheckAll
}

func (c *Config) normalize() {
	if strings.TrimSpace(c.Geometry.Manager) == "" {
		c.Geometry.Manager = DefaultManager
	}
	if len(c.Geometry.Roots) == 0 {
		c.Geometry.Roots = append([]string(nil), DefaultEndcapRoots...)
	}
	if c.Geometry.CellWidth <= 0 {
		c.Geometry.CellWidth = DefaultCellWidth
	}
	c.Datasets.Driver = strings.TrimSpace(c.Datasets.Driver)
	if c.Datasets.Driver == "" {
		c.Datasets.Driver = DefaultDriver
	}
}
