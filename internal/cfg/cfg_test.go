package cfg

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"CONFIG_FILE", "MDPOST_OUT_DIR", "MDPOST_DATA_PATH", "MDPOST_TRAINING_URL",
		"MDPOST_WATCH_URL", "MDPOST_MODELS", "MDPOST_STAT_METHODS",
		"MDPOST_VARIANCE_CUTOFF", "MDPOST_COMPAT_SHIFT", "MDPOST_METRICS_PORT",
		"MDPOST_REST_TIMEOUT",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoadFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("MDPOST_DATA_PATH", "/tmp/artifacts")
	t.Setenv("MDPOST_MODELS", "random_forest, GBoost")
	t.Setenv("MDPOST_VARIANCE_CUTOFF", "0.9")
	t.Setenv("MDPOST_METRICS_PORT", "9100")

	s, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if s.DataPath != "/tmp/artifacts" {
		t.Errorf("DataPath = %q", s.DataPath)
	}
	if len(s.Models) != 2 || s.Models[0] != "random_forest" || s.Models[1] != "GBoost" {
		t.Errorf("Models = %v", s.Models)
	}
	if s.VarianceCutoff != 0.9 {
		t.Errorf("VarianceCutoff = %v, want 0.9", s.VarianceCutoff)
	}
	if s.MetricsPort != 9100 {
		t.Errorf("MetricsPort = %d, want 9100", s.MetricsPort)
	}
	if s.OutDir != "post_processing" {
		t.Errorf("OutDir = %q, want default", s.OutDir)
	}
	if s.RESTTimeout != 10*time.Second {
		t.Errorf("RESTTimeout = %v, want default 10s", s.RESTTimeout)
	}
}

func TestLoadRequiresArtifactSource(t *testing.T) {
	clearEnv(t)

	if _, err := Load(); err == nil {
		t.Fatal("Load() accepted a config with neither training URL nor data path")
	}
}

func TestLoadFromYAML(t *testing.T) {
	clearEnv(t)

	config := `
output:
  dir: reports
artifacts:
  dataPath: /var/lib/mdpost
  trainingURL: http://trainer:9000
  restTimeout: 3s
processing:
  models: [random_forest, ada_boost]
  statMethods: [jensen_shannon]
  varianceCutoff: 0.85
  compatShift: true
system:
  metricsPort: 9200
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(config), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_FILE", path)

	s, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if s.OutDir != "reports" {
		t.Errorf("OutDir = %q", s.OutDir)
	}
	if s.TrainingURL != "http://trainer:9000" {
		t.Errorf("TrainingURL = %q", s.TrainingURL)
	}
	if !s.CompatShift {
		t.Error("CompatShift not picked up from YAML")
	}
	if s.VarianceCutoff != 0.85 {
		t.Errorf("VarianceCutoff = %v", s.VarianceCutoff)
	}
	if s.RESTTimeout != 3*time.Second {
		t.Errorf("RESTTimeout = %v", s.RESTTimeout)
	}
}

func TestEnvOverridesYAML(t *testing.T) {
	clearEnv(t)

	config := `
artifacts:
  dataPath: /var/lib/mdpost
processing:
  varianceCutoff: 0.85
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(config), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("MDPOST_VARIANCE_CUTOFF", "0.99")
	t.Setenv("MDPOST_OUT_DIR", "/srv/reports")

	s, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if s.VarianceCutoff != 0.99 {
		t.Errorf("VarianceCutoff = %v, want env override 0.99", s.VarianceCutoff)
	}
	if s.OutDir != "/srv/reports" {
		t.Errorf("OutDir = %q, want env override", s.OutDir)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("MDPOST_DATA_PATH", "/tmp/artifacts")

	t.Setenv("MDPOST_VARIANCE_CUTOFF", "1.5")
	if _, err := Load(); err == nil {
		t.Error("cutoff above 1 accepted")
	}

	t.Setenv("MDPOST_VARIANCE_CUTOFF", "0.95")
	t.Setenv("MDPOST_STAT_METHODS", "chi_squared")
	if _, err := Load(); err == nil {
		t.Error("unknown statistical method accepted")
	}
}
