package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/fundops/subreview/internal/api"
	"github.com/fundops/subreview/internal/auth"
	"github.com/fundops/subreview/internal/classify"
	"github.com/fundops/subreview/internal/config"
	"github.com/fundops/subreview/internal/corpus"
	"github.com/fundops/subreview/internal/feedback"
	"github.com/fundops/subreview/internal/review"
	"github.com/fundops/subreview/internal/risk"
	"github.com/fundops/subreview/internal/store"
	"github.com/fundops/subreview/internal/store/pgstore"
	"github.com/fundops/subreview/internal/store/sqlstore"
	"github.com/fundops/subreview/pkg/types"
)

func main() {
	if err := runFn(os.Args[1:], os.Getenv, listenAndServe, newServer); err != nil {
		fatalf("server error: %v", err)
	}
}

var runFn = run
var fatalf = log.Fatalf

func newServer(cfg config.Config) (*http.Server, error) {
	logger, err := zap.NewProduction()
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}

	st, err := openStore(cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	if cfg.Corpus.SeedPath != "" {
		if err := seedCorpus(st, cfg.Corpus.SeedPath, logger); err != nil {
			return nil, fmt.Errorf("seed corpus: %w", err)
		}
	}

	classifier, err := classify.NewClient(classify.ClientOptions{
		BaseURL:    cfg.Classifier.BaseURL,
		APIKey:     cfg.Classifier.APIKey,
		Model:      cfg.Classifier.Model,
		Timeout:    time.Duration(cfg.Classifier.TimeoutSeconds) * time.Second,
		MaxRetries: cfg.Classifier.MaxRetries,
	}, logger)
	if err != nil {
		return nil, err
	}

	h := &api.Handler{
		Auth:       auth.NewTokenAuthenticator(cfg.Auth.APIToken),
		Reviews:    review.NewService(st, risk.NewAnalyzer(classifier, logger), cfg.Review.MinInvestmentAmount, logger),
		Learner:    feedback.NewLearner(classifier, st, logger),
		Store:      st,
		BatchLimit: cfg.Review.BatchConcurrency,
		Log:        logger,
	}
	return &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           api.NewRouter(h),
		ReadHeaderTimeout: 5 * time.Second,
	}, nil
}

func openStore(cfg config.DBConfig) (store.Store, error) {
	switch cfg.Driver {
	case "", "memory":
		return store.NewInMemoryStore(), nil
	case "sqlite":
		s, err := sqlstore.OpenSQLite(cfg.DSN)
		if err != nil {
			return nil, err
		}
		if err := store.Migrate(s.DB(), store.DBSQLite); err != nil {
			return nil, err
		}
		return s, nil
	case "postgres":
		s, err := pgstore.OpenPostgres(cfg.DSN)
		if err != nil {
			return nil, err
		}
		if err := store.Migrate(s.DB(), store.DBPostgres); err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown db driver %q", cfg.Driver)
	}
}

// seedCorpus loads the shipped term list. Seeding is idempotent: terms
// already present keep their original position and created_at.
func seedCorpus(st store.Store, path string, logger *zap.Logger) error {
	seed, err := corpus.LoadSeed(path)
	if err != nil {
		return err
	}

	createdAt := time.Now().UTC().Format(time.RFC3339)
	added := 0
	for _, entry := range seed.Entries(createdAt) {
		ok, err := st.AddTerm(store.TermRecord{
			Term:      entry.Term,
			Kind:      entry.Kind,
			Source:    types.TermSourceSeed,
			CreatedAt: entry.CreatedAt,
		})
		if err != nil {
			return err
		}
		if ok {
			added++
		}
	}
	logger.Info("corpus seeded", zap.String("path", path), zap.Int("added", added))
	return nil
}

type envFn func(string) string
type listenFn func(*http.Server) error
type serverFactory func(cfg config.Config) (*http.Server, error)

func run(args []string, getenv envFn, listen listenFn, factory serverFactory) error {
	fs := flag.NewFlagSet("subreview-gateway", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to subreview config file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfgFile := *configPath
	if cfgFile == "" {
		cfgFile = getenv("SUBREVIEW_CONFIG_PATH")
	}

	var cfg config.Config
	if cfgFile != "" {
		loaded, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	cfg.ListenAddr = firstNonEmpty(getenv("SUBREVIEW_LISTEN_ADDR"), cfg.ListenAddr, ":8080")
	cfg.Auth.APIToken = firstNonEmpty(getenv("SUBREVIEW_API_TOKEN"), cfg.Auth.APIToken)
	cfg.Classifier.APIKey = firstNonEmpty(getenv("SUBREVIEW_CLASSIFIER_API_KEY"), cfg.Classifier.APIKey)
	cfg.Corpus.SeedPath = firstNonEmpty(getenv("SUBREVIEW_SEED_PATH"), cfg.Corpus.SeedPath)

	server, err := factory(cfg)
	if err != nil {
		return err
	}

	log.Printf("subreview-gateway listening on %s", cfg.ListenAddr)
	if err := listen(server); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func listenAndServe(server *http.Server) error {
	return server.ListenAndServe()
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}
