package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file read when none is given.
const DefaultPath = "umlpdf.yaml"

type Config struct {
	Report struct {
		Title           string `yaml:"title"`
		Author          string `yaml:"author"`
		Subject         string `yaml:"subject,omitempty"`
		Logo            string `yaml:"logo,omitempty"`
		Output          string `yaml:"output"`
		Format          string `yaml:"format"` // pdf or docx
		TitlePage       bool   `yaml:"title_page"`
		TableOfContents bool   `yaml:"table_of_contents"`
		Diagrams        bool   `yaml:"diagrams"`
	} `yaml:"report"`
	Diagrams struct {
		Images    string  `yaml:"images"`
		Scale     float64 `yaml:"scale"`
		Schematic bool    `yaml:"schematic"` // draw a placeholder when no image exists
	} `yaml:"diagrams"`
	Store struct {
		DB string `yaml:"db"`
	} `yaml:"store"`
	Server struct {
		Addr      string        `yaml:"addr"`
		APIKey    string        `yaml:"api_key,omitempty"`
		Retention time.Duration `yaml:"retention"` // how long finished jobs are kept
		Workdir   string        `yaml:"workdir"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"` // text or json
	} `yaml:"log"`
}

// Default returns the settings used when no config file exists.
func Default() *Config {
	var cfg Config
	cfg.Report.Output = "report.pdf"
	cfg.Report.Format = "pdf"
	cfg.Report.TitlePage = true
	cfg.Report.TableOfContents = true
	cfg.Report.Diagrams = true
	cfg.Diagrams.Scale = 1
	cfg.Diagrams.Schematic = true
	cfg.Store.DB = ".umlpdf/models.db"
	cfg.Server.Addr = ":8080"
	cfg.Server.Retention = time.Hour
	cfg.Server.Workdir = ".umlpdf/exports"
	cfg.Log.Level = "info"
	cfg.Log.Format = "text"
	return &cfg
}

// LoadConfig reads .env, then the YAML file at path over the defaults, then
// UMLPDF_* environment overrides. A missing file is not an error.
func LoadConfig(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		file, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(file, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	strs := map[string]*string{
		"UMLPDF_OUTPUT":  &c.Report.Output,
		"UMLPDF_TITLE":   &c.Report.Title,
		"UMLPDF_AUTHOR":  &c.Report.Author,
		"UMLPDF_LOGO":    &c.Report.Logo,
		"UMLPDF_DB":      &c.Store.DB,
		"UMLPDF_API_KEY": &c.Server.APIKey,
		"UMLPDF_ADDR":    &c.Server.Addr,
		"UMLPDF_IMAGES":  &c.Diagrams.Images,
	}
	for key, dst := range strs {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	if v := os.Getenv("UMLPDF_SCALE"); v != "" {
		scale, err := strconv.ParseFloat(v, 64)
		if err != nil || scale <= 0 {
			return fmt.Errorf("invalid UMLPDF_SCALE %q", v)
		}
		c.Diagrams.Scale = scale
	}
	return nil
}

// Save writes c to path as YAML. The API key is never written.
func (c *Config) Save(path string) error {
	out := *c
	out.Server.APIKey = ""
	data, err := yaml.Marshal(&out)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	return os.WriteFile(path, data, 0644)
}
