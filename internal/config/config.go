package config

import (
	"fmt"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultSite    = "phimeca"
	DefaultWorkers = 10
	DefaultRetries = 2
	DefaultTimeout = 10 * time.Minute
)

// Site describes one execution environment: where scratch directories
// live and where the model's template and executable are found.
type Site struct {
	WorkDir    string   `yaml:"work_dir"`
	Template   string   `yaml:"template"`
	Executable string   `yaml:"executable"`
	Args       []string `yaml:"args"`
}

type Config struct {
	DefaultSite string          `yaml:"default_site"`
	Sites       map[string]Site `yaml:"sites"`
}

func Default() *Config {
	beam := Site{
		WorkDir:    "/tmp",
		Template:   "beam/beam_input_template.xml",
		Executable: "beam",
		Args:       []string{"-x", "beam.xml"},
	}
	tgcc := beam
	tgcc.WorkDir = "/ccc/scratch/otwrapy"

	return &Config{
		DefaultSite: DefaultSite,
		Sites: map[string]Site{
			"phimeca":  beam,
			"poincare": beam,
			"tgcc":     tgcc,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Site resolves a site by name; empty means the configured default.
// Unknown names are configuration errors.
func (c *Config) Site(name string) (Site, error) {
	if name == "" {
		name = c.DefaultSite
	}
	site, ok := c.Sites[name]
	if !ok {
		return Site{}, fmt.Errorf("unknown site %q (valid: %v)", name, c.SiteNames())
	}
	return site, nil
}

func (c *Config) SiteNames() []string {
	names := make([]string, 0, len(c.Sites))
	for name := range c.Sites {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
