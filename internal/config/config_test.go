package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadAndValidate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "subreview.yaml")

	os.Setenv("TEST_CLASSIFIER_KEY", "sk-test")
	defer os.Unsetenv("TEST_CLASSIFIER_KEY")

	data := `
listen_addr: ":8080"
review:
  min_investment_amount: 100000
classifier:
  api_key: "${TEST_CLASSIFIER_KEY}"
corpus:
  seed_path: "seeds/suspicious_terms.yaml"
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Classifier.APIKey != "sk-test" {
		t.Fatalf("expected expanded api key, got %q", cfg.Classifier.APIKey)
	}
	if cfg.Review.MinInvestmentAmount != 100000 {
		t.Fatalf("unexpected threshold: %v", cfg.Review.MinInvestmentAmount)
	}
}

func TestValidateMissingFields(t *testing.T) {
	if err := (Config{}).Validate(); err == nil {
		t.Fatalf("expected error")
	}
}

func TestValidateDBRequiresDSN(t *testing.T) {
	cfg := Config{
		ListenAddr: ":8080",
		DB:         DBConfig{Driver: "sqlite"},
		Classifier: ClassifierConfig{APIKey: "sk"},
	}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error")
	}
}

func TestValidateRequiresClassifierKey(t *testing.T) {
	cfg := Config{ListenAddr: ":8080"}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error")
	}
}

func TestValidateRejectsNegativeThreshold(t *testing.T) {
	cfg := Config{
		ListenAddr: ":8080",
		Review:     ReviewConfig{MinInvestmentAmount: -1},
		Classifier: ClassifierConfig{APIKey: "sk"},
	}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("does-not-exist.yaml"); err == nil {
		t.Fatalf("expected error")
	}
}
