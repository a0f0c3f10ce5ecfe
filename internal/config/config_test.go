package config

import (
	"errors"
	"flag"
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.LogFile != "" {
		t.Errorf("expected empty log file, got %s", cfg.Logging.LogFile)
	}

	if cfg.Parser.StrictTokens {
		t.Error("expected strict tokens to be off by default")
	}
	if cfg.Parser.MaxDocumentMB != 512 {
		t.Errorf("expected max document 512MB, got %d", cfg.Parser.MaxDocumentMB)
	}
	if cfg.MaxDocumentBytes() != 512<<20 {
		t.Errorf("expected %d bytes, got %d", int64(512<<20), cfg.MaxDocumentBytes())
	}

	if cfg.Output.Format != "obj" {
		t.Errorf("expected format 'obj', got %s", cfg.Output.Format)
	}
	if !cfg.Output.Overwrite {
		t.Error("expected overwrite to be on by default")
	}
	if cfg.Output.FloatPrecision != -1 {
		t.Errorf("expected float precision -1, got %d", cfg.Output.FloatPrecision)
	}

	if cfg.Batch.Workers != 0 {
		t.Errorf("expected workers 0, got %d", cfg.Batch.Workers)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected defaults to validate, got %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
logging:
  level: "debug"
  log_file: "convert.log"

parser:
  strict_tokens: true
  max_document_mb: 64

output:
  format: "glb"
  overwrite: false
  float_precision: 6

batch:
  workers: 8
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Logging.Level != "debug" {
		t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.LogFile != "convert.log" {
		t.Errorf("expected log file 'convert.log', got %s", cfg.Logging.LogFile)
	}
	if !cfg.Parser.StrictTokens {
		t.Error("expected strict tokens to be true")
	}
	if cfg.Parser.MaxDocumentMB != 64 {
		t.Errorf("expected max document 64, got %d", cfg.Parser.MaxDocumentMB)
	}
	if cfg.Output.Format != "glb" {
		t.Errorf("expected format 'glb', got %s", cfg.Output.Format)
	}
	if cfg.Output.Overwrite {
		t.Error("expected overwrite to be false")
	}
	if cfg.Output.FloatPrecision != 6 {
		t.Errorf("expected float precision 6, got %d", cfg.Output.FloatPrecision)
	}
	if cfg.Batch.Workers != 8 {
		t.Errorf("expected workers 8, got %d", cfg.Batch.Workers)
	}
}

func TestLoadFromFilePartial(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte("output:\n  format: glb\n"), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Output.Format != "glb" {
		t.Errorf("expected format 'glb', got %s", cfg.Output.Format)
	}
	if !cfg.Output.Overwrite || cfg.Parser.MaxDocumentMB != 512 {
		t.Error("expected unset values to keep their defaults")
	}
}

func TestLoadFromFileInvalid(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "invalid.yaml")

	invalidYAML := `
parser:
  max_document_mb: not a number
  invalid syntax here
`

	if err := os.WriteFile(configPath, []byte(invalidYAML), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err == nil {
		t.Error("expected error loading invalid YAML, got nil")
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	cfg := Default()
	if err := loadFromFile(cfg, "/nonexistent/path/config.yaml"); err == nil {
		t.Error("expected error loading missing file, got nil")
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Parser.MaxDocumentMB = 0
	if err := cfg.Validate(); !errors.Is(err, ErrInvalidDocumentLimit) {
		t.Errorf("expected ErrInvalidDocumentLimit, got %v", err)
	}

	cfg = Default()
	cfg.Batch.Workers = -2
	if err := cfg.Validate(); !errors.Is(err, ErrInvalidWorkers) {
		t.Errorf("expected ErrInvalidWorkers, got %v", err)
	}
}

func TestConfigDir(t *testing.T) {
	dir := ConfigDir()

	if dir == "" {
		t.Error("ConfigDir returned empty string")
	}
	if !filepath.IsAbs(dir) {
		t.Errorf("ConfigDir should return absolute path, got %s", dir)
	}
}

func TestFindConfigFile(t *testing.T) {
	origDir, _ := os.Getwd()
	defer os.Chdir(origDir)

	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	tmpDir := t.TempDir()
	os.Chdir(tmpDir)

	if path := findConfigFile(); path != "" {
		t.Errorf("expected empty path when no config exists, got %s", path)
	}

	configPath := filepath.Join(tmpDir, "gfmdlconv.yaml")
	if err := os.WriteFile(configPath, []byte("batch:\n  workers: 2\n"), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}

	if path := findConfigFile(); path == "" {
		t.Error("expected to find gfmdlconv.yaml in current directory")
	}
}

func TestOverridesApply(t *testing.T) {
	tests := []struct {
		name   string
		args   []string
		verify func(*testing.T, *Config)
	}{
		{
			name: "debug flag",
			args: []string{"-debug"},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Logging.Level != "debug" {
					t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
				}
			},
		},
		{
			name: "quiet flag",
			args: []string{"-quiet"},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Logging.Level != "error" {
					t.Errorf("expected log level 'error', got %s", cfg.Logging.Level)
				}
			},
		},
		{
			name: "strict flag",
			args: []string{"-strict"},
			verify: func(t *testing.T, cfg *Config) {
				if !cfg.Parser.StrictTokens {
					t.Error("expected strict tokens with strict flag")
				}
			},
		},
		{
			name: "format and overwrite flags",
			args: []string{"-f", "glb", "-no-overwrite"},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Output.Format != "glb" {
					t.Errorf("expected format 'glb', got %s", cfg.Output.Format)
				}
				if cfg.Output.Overwrite {
					t.Error("expected overwrite to be disabled")
				}
			},
		},
		{
			name: "workers and log flags",
			args: []string{"-j", "3", "-log", "run.log"},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Batch.Workers != 3 {
					t.Errorf("expected workers 3, got %d", cfg.Batch.Workers)
				}
				if cfg.Logging.LogFile != "run.log" {
					t.Errorf("expected log file run.log, got %s", cfg.Logging.LogFile)
				}
			},
		},
		{
			name: "no flags",
			args: nil,
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Logging.Level != "info" || cfg.Output.Format != "obj" {
					t.Error("expected defaults without flags")
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var o Overrides
			fs := flag.NewFlagSet("test", flag.ContinueOnError)
			o.Register(fs)
			o.RegisterBatch(fs)
			if err := fs.Parse(tt.args); err != nil {
				t.Fatalf("failed to parse flags: %v", err)
			}

			cfg := Default()
			o.apply(cfg)
			tt.verify(t, cfg)
		})
	}
}

func TestLoadPriority(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")

	yamlContent := `
output:
  format: glb
  float_precision: 4
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(&Overrides{ConfigPath: configPath, Format: "obj"})
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	// Format comes from the flag, precision from the file
	if cfg.Output.Format != "obj" {
		t.Errorf("expected format obj from flag, got %s", cfg.Output.Format)
	}
	if cfg.Output.FloatPrecision != 4 {
		t.Errorf("expected precision 4 from file, got %d", cfg.Output.FloatPrecision)
	}
}

func TestLoadRejectsInvalidFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte("batch:\n  workers: -1\n"), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	if _, err := Load(&Overrides{ConfigPath: configPath}); !errors.Is(err, ErrInvalidWorkers) {
		t.Errorf("expected ErrInvalidWorkers, got %v", err)
	}
	if _, err := Load(&Overrides{ConfigPath: "/nonexistent/config.yaml"}); err == nil {
		t.Error("expected error for missing explicit config")
	}
}

func TestSaveTo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := Default()
	cfg.Output.Format = "glb"
	cfg.Batch.Workers = 5
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo failed: %v", err)
	}

	loaded := Default()
	if err := loadFromFile(loaded, path); err != nil {
		t.Fatalf("failed to reload saved config: %v", err)
	}
	if loaded.Output.Format != "glb" || loaded.Batch.Workers != 5 {
		t.Errorf("saved config did not round-trip: %+v", loaded)
	}
}
