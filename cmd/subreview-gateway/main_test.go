package main

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/fundops/subreview/internal/config"
)

func TestNewServer(t *testing.T) {
	cfg := config.Config{
		ListenAddr: "127.0.0.1:9999",
		Classifier: config.ClassifierConfig{APIKey: "sk-test"},
		Auth:       config.AuthConfig{APIToken: "secret"},
	}
	srv, err := newServer(cfg)
	if err != nil {
		t.Fatalf("newServer: %v", err)
	}
	if srv.Addr != cfg.ListenAddr {
		t.Fatalf("expected addr %s, got %s", cfg.ListenAddr, srv.Addr)
	}
	if srv.Handler == nil {
		t.Fatalf("expected handler to be set")
	}
}

func TestNewServerRequiresClassifierKey(t *testing.T) {
	cfg := config.Config{ListenAddr: ":0"}
	if _, err := newServer(cfg); err == nil {
		t.Fatalf("expected error")
	}
}

func TestNewServerSeedsCorpus(t *testing.T) {
	dir := t.TempDir()
	seedPath := filepath.Join(dir, "terms.yaml")
	seed := "keywords:\n  - offshore\n  - gambling\npatterns:\n  - pattern: '\\.{3,}'\n    description: trailing ellipsis\n"
	if err := os.WriteFile(seedPath, []byte(seed), 0o600); err != nil {
		t.Fatalf("write seed: %v", err)
	}

	cfg := config.Config{
		ListenAddr: ":0",
		Corpus:     config.CorpusConfig{SeedPath: seedPath},
		Classifier: config.ClassifierConfig{APIKey: "sk-test"},
	}
	if _, err := newServer(cfg); err != nil {
		t.Fatalf("newServer: %v", err)
	}
}

func TestNewServerUnknownDriver(t *testing.T) {
	cfg := config.Config{
		ListenAddr: ":0",
		DB:         config.DBConfig{Driver: "bolt", DSN: "x"},
		Classifier: config.ClassifierConfig{APIKey: "sk-test"},
	}
	if _, err := newServer(cfg); err == nil {
		t.Fatalf("expected error for unknown driver")
	}
}

func TestRunDefaults(t *testing.T) {
	factory := func(cfg config.Config) (*http.Server, error) {
		if cfg.ListenAddr != ":8080" {
			t.Fatalf("expected default addr, got %s", cfg.ListenAddr)
		}
		return &http.Server{Addr: cfg.ListenAddr}, nil
	}

	listen := func(_ *http.Server) error {
		return http.ErrServerClosed
	}

	getenv := func(string) string { return "" }
	if err := run(nil, getenv, listen, factory); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRunEnvOverrides(t *testing.T) {
	factory := func(cfg config.Config) (*http.Server, error) {
		if cfg.ListenAddr != "127.0.0.1:1234" {
			t.Fatalf("expected env addr, got %s", cfg.ListenAddr)
		}
		if cfg.Auth.APIToken != "tok" {
			t.Fatalf("expected env token, got %q", cfg.Auth.APIToken)
		}
		return &http.Server{Addr: cfg.ListenAddr}, nil
	}

	listen := func(_ *http.Server) error { return http.ErrServerClosed }
	getenv := func(key string) string {
		switch key {
		case "SUBREVIEW_LISTEN_ADDR":
			return "127.0.0.1:1234"
		case "SUBREVIEW_API_TOKEN":
			return "tok"
		}
		return ""
	}

	if err := run(nil, getenv, listen, factory); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRunError(t *testing.T) {
	listenErr := errors.New("listen failed")
	listen := func(_ *http.Server) error {
		return listenErr
	}

	factory := func(cfg config.Config) (*http.Server, error) {
		return &http.Server{Addr: cfg.ListenAddr}, nil
	}

	getenv := func(string) string { return "" }
	if err := run(nil, getenv, listen, factory); err == nil {
		t.Fatalf("expected error")
	}
}

func TestRunLoadsConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "subreview.yaml")
	data := "listen_addr: \":9999\"\nclassifier:\n  api_key: \"sk-test\"\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	factory := func(cfg config.Config) (*http.Server, error) {
		if cfg.ListenAddr != ":9999" {
			t.Fatalf("expected addr from config, got %s", cfg.ListenAddr)
		}
		return &http.Server{Addr: cfg.ListenAddr}, nil
	}

	listen := func(_ *http.Server) error { return http.ErrServerClosed }
	getenv := func(key string) string {
		if key == "SUBREVIEW_CONFIG_PATH" {
			return path
		}
		return ""
	}

	if err := run(nil, getenv, listen, factory); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestFirstNonEmpty(t *testing.T) {
	if got := firstNonEmpty("", "a", "b"); got != "a" {
		t.Fatalf("expected a, got %s", got)
	}
	if got := firstNonEmpty("", ""); got != "" {
		t.Fatalf("expected empty, got %s", got)
	}
}

func TestListenAndServeInvalidAddr(t *testing.T) {
	err := listenAndServe(&http.Server{Addr: "127.0.0.1"})
	if err == nil {
		t.Fatalf("expected error")
	}
}

func TestMainNoError(t *testing.T) {
	oldRun := runFn
	oldFatal := fatalf
	defer func() {
		runFn = oldRun
		fatalf = oldFatal
	}()

	runFn = func(args []string, getenv envFn, listen listenFn, factory serverFactory) error {
		return nil
	}

	called := false
	fatalf = func(string, ...any) {
		called = true
	}

	main()
	if called {
		t.Fatalf("unexpected fatal call")
	}
}

func TestMainError(t *testing.T) {
	oldRun := runFn
	oldFatal := fatalf
	defer func() {
		runFn = oldRun
		fatalf = oldFatal
	}()

	runFn = func(args []string, getenv envFn, listen listenFn, factory serverFactory) error {
		return errors.New("boom")
	}

	called := false
	fatalf = func(string, ...any) {
		called = true
	}

	main()
	if !called {
		t.Fatalf("expected fatal call")
	}
}
