package internal

import (
	"os"
	"path/filepath"
	"testing"

	pkgconfig "github.com/sveinbjornt/ensk.is/pkg/config"
)

func TestDefaultConfigValid(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should pass: %v", err)
	}
}

func TestHTTPConfig_PortRange(t *testing.T) {
	cfg := HTTPConfig{Port: 0}
	if err := cfg.Validate(); err == nil {
		t.Fatal("port 0 should fail validation")
	}
	cfg.Port = 70000
	if err := cfg.Validate(); err == nil {
		t.Fatal("port above 65535 should fail validation")
	}
	cfg.Port = 8080
	if err := cfg.Validate(); err != nil {
		t.Fatalf("port 8080 should pass: %v", err)
	}
}

func TestDataConfig_RequiresSourcesDir(t *testing.T) {
	cfg := DataConfig{}
	if err := cfg.Validate(); err == nil {
		t.Fatal("empty sources dir should fail validation")
	}
}

func TestStoreConfig_RequiresPath(t *testing.T) {
	cfg := StoreConfig{}
	if err := cfg.Validate(); err == nil {
		t.Fatal("empty store path should fail validation")
	}
	cfg.Path = "./dict.db"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("store path should pass: %v", err)
	}
}

func TestSearchConfig_Bounds(t *testing.T) {
	cfg := SearchConfig{PageSize: 1000}
	if err := cfg.Validate(); err == nil {
		t.Fatal("oversized page should fail validation")
	}
	cfg = SearchConfig{MinQueryLength: 3, PageSize: 30, SuggestLimit: 10}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("search config should pass: %v", err)
	}
}

func TestConfigLoadFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
app:
  log_level: debug
  http:
    port: 9090
data:
  sources_dir: /srv/dictionary
store:
  path: /srv/dict.db
search:
  min_query_length: 4
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := NewDefaultConfig()
	if err := pkgconfig.Load(path, cfg); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.App.HTTP.Port != 9090 {
		t.Errorf("port = %d, want 9090", cfg.App.HTTP.Port)
	}
	if cfg.Data.SourcesDir != "/srv/dictionary" {
		t.Errorf("sources dir = %q", cfg.Data.SourcesDir)
	}
	if cfg.Search.MinQueryLength != 4 {
		t.Errorf("min query length = %d, want 4", cfg.Search.MinQueryLength)
	}
	// Values the file omits keep their defaults.
	if cfg.Store.ExportsDir != "./static/files" {
		t.Errorf("exports dir = %q", cfg.Store.ExportsDir)
	}
}

func TestConfigLoadEnvExpansion(t *testing.T) {
	t.Setenv("DICT_PORT", "7070")
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
app:
  http:
    port: ${DICT_PORT}
data:
  sources_dir: ./data
store:
  path: ./dict.db
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := NewDefaultConfig()
	if err := pkgconfig.Load(path, cfg); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.App.HTTP.Port != 7070 {
		t.Errorf("port = %d, want 7070", cfg.App.HTTP.Port)
	}
}

func TestConfigLoadRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
app:
  http:
    port: 0
data:
  sources_dir: ./data
store:
  path: ./dict.db
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := NewDefaultConfig()
	if err := pkgconfig.Load(path, cfg); err == nil {
		t.Fatal("invalid port should fail load")
	}
}
