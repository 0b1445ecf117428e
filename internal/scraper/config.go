package scraper

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mrintern/server/internal/domain/internships"
	"github.com/mrintern/server/internal/validation"
	"gopkg.in/yaml.v3"
)

// SourceConfig describes one career page to import listings from.
type SourceConfig struct {
	Name     string `yaml:"name"`
	URL      string `yaml:"url"`
	Tier     int    `yaml:"tier"`
	Enabled  bool   `yaml:"enabled"`
	MaxPages int    `yaml:"max_pages"`
	// Company is used when a posting does not name its hiring organization.
	Company string `yaml:"company"`
	// InternshipsOnly drops postings that are neither typed INTERN nor
	// mention "intern" in their title.
	InternshipsOnly bool           `yaml:"internships_only"`
	Defaults        ListingDefault `yaml:"defaults"`
	Selectors       SelectorConfig `yaml:"selectors"`
	Notes           string         `yaml:"notes,omitempty"`
}

// ListingDefault fills fields career pages rarely publish.
type ListingDefault struct {
	Industry       string `yaml:"industry"`
	Season         string `yaml:"season"`
	GraduationYear int    `yaml:"graduation_year"`
	Location       string `yaml:"location"`
}

// SelectorConfig holds CSS selectors for tier 1 (Colly) sources.
type SelectorConfig struct {
	JobList    string `yaml:"job_list"`
	Title      string `yaml:"title"`
	Company    string `yaml:"company"`
	Location   string `yaml:"location"`
	Deadline   string `yaml:"deadline"`
	URL        string `yaml:"url"`
	Pagination string `yaml:"pagination"`
}

// DefaultSourceConfig returns a SourceConfig with defaults applied.
func DefaultSourceConfig() SourceConfig {
	return SourceConfig{
		Enabled:         true,
		Tier:            0,
		MaxPages:        5,
		InternshipsOnly: true,
	}
}

// ValidateConfig reports every problem in cfg, or nil.
func ValidateConfig(cfg SourceConfig) error {
	var errs []string

	if strings.TrimSpace(cfg.Name) == "" {
		errs = append(errs, "name: required")
	}

	if strings.TrimSpace(cfg.URL) == "" {
		errs = append(errs, "url: required")
	} else if err := validation.ValidateURL(cfg.URL, "url"); err != nil {
		errs = append(errs, fmt.Sprintf("url: must be a valid http/https URL, got %q", cfg.URL))
	}

	if cfg.Tier != 0 && cfg.Tier != 1 {
		errs = append(errs, fmt.Sprintf("tier: must be 0 or 1, got %d", cfg.Tier))
	}

	if cfg.Tier == 1 {
		if strings.TrimSpace(cfg.Selectors.JobList) == "" {
			errs = append(errs, "selectors.job_list: required for tier 1")
		}
		if strings.TrimSpace(cfg.Selectors.Title) == "" {
			errs = append(errs, "selectors.title: required for tier 1")
		}
		if strings.TrimSpace(cfg.Selectors.Company) == "" && strings.TrimSpace(cfg.Company) == "" {
			errs = append(errs, "company: required for tier 1 when selectors.company is empty")
		}
	}

	if cfg.Defaults.Industry != "" {
		if _, ok := internships.ParseIndustry(cfg.Defaults.Industry); !ok {
			errs = append(errs, fmt.Sprintf("defaults.industry: unknown industry %q", cfg.Defaults.Industry))
		}
	}

	if y := cfg.Defaults.GraduationYear; y != 0 && (y < 2000 || y > 2100) {
		errs = append(errs, fmt.Sprintf("defaults.graduation_year: out of range, got %d", y))
	}

	if cfg.MaxPages < 0 {
		errs = append(errs, fmt.Sprintf("max_pages: must be > 0, got %d", cfg.MaxPages))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

// LoadSourceConfigs reads every *.yaml file in dir, skipping names that start
// with "_". Invalid files are reported together after the valid ones are
// returned. A missing directory yields no configs and no error.
func LoadSourceConfigs(dir string) ([]SourceConfig, error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return []SourceConfig{}, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading source config dir %s: %w", dir, err)
	}

	var configs []SourceConfig
	var validationErrors []string

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, "_") {
			continue
		}
		if ext := filepath.Ext(name); ext != ".yaml" && ext != ".yml" {
			continue
		}

		filePath := filepath.Join(dir, name)
		cfg, err := loadFile(filePath)
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", filePath, err)
		}

		if err := ValidateConfig(cfg); err != nil {
			validationErrors = append(validationErrors, fmt.Sprintf("%s: %s", filePath, err.Error()))
			continue
		}
		configs = append(configs, cfg)
	}

	if len(validationErrors) > 0 {
		return configs, fmt.Errorf("invalid source configs:\n  %s", strings.Join(validationErrors, "\n  "))
	}
	return configs, nil
}

// LoadSourceConfig reads and validates a single source file.
func LoadSourceConfig(path string) (SourceConfig, error) {
	cfg, err := loadFile(path)
	if err != nil {
		return SourceConfig{}, fmt.Errorf("loading %s: %w", path, err)
	}
	if err := ValidateConfig(cfg); err != nil {
		return SourceConfig{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func loadFile(path string) (SourceConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return SourceConfig{}, err
	}

	cfg := DefaultSourceConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return SourceConfig{}, fmt.Errorf("parsing YAML: %w", err)
	}
	if cfg.MaxPages == 0 {
		cfg.MaxPages = 5
	}
	return cfg, nil
}
