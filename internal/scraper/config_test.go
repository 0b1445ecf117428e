package scraper

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeYAML writes content to dir/fname.
func writeYAML(t *testing.T, dir, fname, content string) string {
	t.Helper()
	path := filepath.Join(dir, fname)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestValidateConfig(t *testing.T) {
	tier0 := SourceConfig{
		Name:     "Acme Careers",
		URL:      "https://careers.acme.test/jobs",
		Tier:     0,
		MaxPages: 5,
		Enabled:  true,
	}
	tier1 := SourceConfig{
		Name:     "Board",
		URL:      "https://board.test/internships",
		Tier:     1,
		MaxPages: 3,
		Enabled:  true,
		Selectors: SelectorConfig{
			JobList: "li.job",
			Title:   "h3",
			Company: ".company",
		},
	}

	tests := []struct {
		name    string
		cfg     SourceConfig
		wantErr string
	}{
		{name: "valid tier 0", cfg: tier0},
		{name: "valid tier 1", cfg: tier1},
		{
			name:    "missing name",
			cfg:     func() SourceConfig { c := tier0; c.Name = "  "; return c }(),
			wantErr: "name: required",
		},
		{
			name:    "missing url",
			cfg:     func() SourceConfig { c := tier0; c.URL = ""; return c }(),
			wantErr: "url: required",
		},
		{
			name:    "ftp url",
			cfg:     func() SourceConfig { c := tier0; c.URL = "ftp://acme.test"; return c }(),
			wantErr: "url: must be a valid http/https URL",
		},
		{
			name:    "bad tier",
			cfg:     func() SourceConfig { c := tier0; c.Tier = 2; return c }(),
			wantErr: "tier: must be 0 or 1",
		},
		{
			name:    "tier 1 without job list",
			cfg:     func() SourceConfig { c := tier1; c.Selectors.JobList = ""; return c }(),
			wantErr: "selectors.job_list: required for tier 1",
		},
		{
			name:    "tier 1 without title selector",
			cfg:     func() SourceConfig { c := tier1; c.Selectors.Title = ""; return c }(),
			wantErr: "selectors.title: required for tier 1",
		},
		{
			name:    "tier 1 without any company",
			cfg:     func() SourceConfig { c := tier1; c.Selectors.Company = ""; return c }(),
			wantErr: "company: required for tier 1",
		},
		{
			name: "tier 1 with fixed company",
			cfg: func() SourceConfig {
				c := tier1
				c.Selectors.Company = ""
				c.Company = "Board Inc"
				return c
			}(),
		},
		{
			name:    "unknown default industry",
			cfg:     func() SourceConfig { c := tier0; c.Defaults.Industry = "Mining"; return c }(),
			wantErr: `defaults.industry: unknown industry "Mining"`,
		},
		{
			name:    "graduation year out of range",
			cfg:     func() SourceConfig { c := tier0; c.Defaults.GraduationYear = 26; return c }(),
			wantErr: "defaults.graduation_year",
		},
		{
			name:    "negative max pages",
			cfg:     func() SourceConfig { c := tier0; c.MaxPages = -1; return c }(),
			wantErr: "max_pages",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateConfig(tc.cfg)
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestValidateConfigCollectsAllErrors(t *testing.T) {
	err := ValidateConfig(SourceConfig{Tier: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name: required")
	assert.Contains(t, err.Error(), "url: required")
	assert.Contains(t, err.Error(), "selectors.job_list")
}

func TestLoadSourceConfigAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := writeYAML(t, dir, "acme.yaml", `
name: Acme Careers
url: https://careers.acme.test/jobs
defaults:
  industry: Tech
  season: Summer 2026
  graduation_year: 2027
`)

	cfg, err := LoadSourceConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "Acme Careers", cfg.Name)
	assert.True(t, cfg.Enabled)
	assert.True(t, cfg.InternshipsOnly)
	assert.Equal(t, 0, cfg.Tier)
	assert.Equal(t, 5, cfg.MaxPages)
	assert.Equal(t, "Tech", cfg.Defaults.Industry)
	assert.Equal(t, 2027, cfg.Defaults.GraduationYear)
}

func TestLoadSourceConfigExplicitFalse(t *testing.T) {
	path := writeYAML(t, t.TempDir(), "off.yaml", `
name: Off
url: https://off.test
enabled: false
internships_only: false
`)
	cfg, err := LoadSourceConfig(path)
	require.NoError(t, err)
	assert.False(t, cfg.Enabled)
	assert.False(t, cfg.InternshipsOnly)
}

func TestLoadSourceConfigInvalid(t *testing.T) {
	path := writeYAML(t, t.TempDir(), "bad.yaml", "name: Bad\n")
	_, err := LoadSourceConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "url: required")
}

func TestLoadSourceConfigMalformedYAML(t *testing.T) {
	path := writeYAML(t, t.TempDir(), "broken.yaml", "name: [unterminated\n")
	_, err := LoadSourceConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing YAML")
}

func TestLoadSourceConfigs(t *testing.T) {
	dir := t.TempDir()
	writeYAML(t, dir, "a.yaml", "name: A\nurl: https://a.test\n")
	writeYAML(t, dir, "b.yml", "name: B\nurl: https://b.test\n")
	writeYAML(t, dir, "_template.yaml", "name: Template\n")
	writeYAML(t, dir, "notes.txt", "ignored")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0o755))

	configs, err := LoadSourceConfigs(dir)
	require.NoError(t, err)
	require.Len(t, configs, 2)
	assert.Equal(t, "A", configs[0].Name)
	assert.Equal(t, "B", configs[1].Name)
}

func TestLoadSourceConfigsReportsInvalidButKeepsValid(t *testing.T) {
	dir := t.TempDir()
	writeYAML(t, dir, "good.yaml", "name: Good\nurl: https://good.test\n")
	writeYAML(t, dir, "bad.yaml", "name: Bad\ntier: 5\nurl: https://bad.test\n")

	configs, err := LoadSourceConfigs(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.yaml")
	require.Len(t, configs, 1)
	assert.Equal(t, "Good", configs[0].Name)
}

func TestLoadSourceConfigsMissingDir(t *testing.T) {
	configs, err := LoadSourceConfigs(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	assert.Empty(t, configs)
}
