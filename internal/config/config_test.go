package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultSites(t *testing.T) {
	cfg := Default()

	for _, name := range []string{"phimeca", "poincare", "tgcc"} {
		site, err := cfg.Site(name)
		if err != nil {
			t.Errorf("site %s: %v", name, err)
			continue
		}
		if site.WorkDir == "" || site.Executable == "" {
			t.Errorf("site %s incomplete: %+v", name, site)
		}
	}

	// Empty name resolves to the default site.
	site, err := cfg.Site("")
	if err != nil {
		t.Fatalf("default site: %v", err)
	}
	if site.WorkDir != "/tmp" {
		t.Errorf("default work dir = %q, want /tmp", site.WorkDir)
	}
}

func TestUnknownSite(t *testing.T) {
	if _, err := Default().Site("cluster42"); err == nil {
		t.Fatal("expected error for unknown site")
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	content := `
default_site: lab
sites:
  lab:
    work_dir: /scratch/lab
    template: models/beam_input_template.xml
    executable: /opt/beam/bin/beam
    args: ["-x", "beam.xml"]
`
	path := filepath.Join(t.TempDir(), "otwrapy.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	site, err := cfg.Site("")
	if err != nil {
		t.Fatalf("site: %v", err)
	}
	if site.WorkDir != "/scratch/lab" {
		t.Errorf("work dir = %q, want /scratch/lab", site.WorkDir)
	}
	if site.Executable != "/opt/beam/bin/beam" {
		t.Errorf("executable = %q", site.Executable)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "otwrapy.yaml")
	cfg := Default()

	if err := Save(path, cfg); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.DefaultSite != cfg.DefaultSite {
		t.Errorf("default site = %q, want %q", loaded.DefaultSite, cfg.DefaultSite)
	}
	if len(loaded.Sites) != len(cfg.Sites) {
		t.Errorf("got %d sites, want %d", len(loaded.Sites), len(cfg.Sites))
	}
}
