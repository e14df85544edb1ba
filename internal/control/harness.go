package control

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pressly/goose/v3"
	"github.com/sashabaranov/go-openai"
	"gopkg.in/yaml.v2"

	"github.com/havocd/havoc/internal/backoff"
	"github.com/havocd/havoc/internal/catalog"
	"github.com/havocd/havoc/internal/chaos"
	"github.com/havocd/havoc/internal/core/config"
	"github.com/havocd/havoc/internal/core/domain"
	"github.com/havocd/havoc/internal/health"
	"github.com/havocd/havoc/internal/infra/redis"
	"github.com/havocd/havoc/internal/infra/storage"
	"github.com/havocd/havoc/internal/infra/storage/memory"
	"github.com/havocd/havoc/internal/infra/storage/postgres"
	"github.com/havocd/havoc/internal/invoke"
	"github.com/havocd/havoc/internal/playbook"
	"github.com/havocd/havoc/internal/policy"
	"github.com/havocd/havoc/internal/runner"
)

// Harness owns the whole chaos test pipeline: catalog, playbook,
// injection engine, policy, suite runner, and the optional result
// sinks.
type Harness struct {
	cfg          *config.AppConfig
	catalog      *catalog.Catalog
	playbook     *playbook.Store
	suite        *runner.Suite
	runMetrics   *runner.RunMetrics
	repo         storage.ResultRepository
	db           *postgres.DB
	redisClient  *redis.Client
	healthServer *health.Server
	log          *slog.Logger
}

// NewHarness wires all dependencies from validated configuration.
// Configuration problems surface here, before any test runs.
func NewHarness(ctx context.Context, cfg *config.AppConfig) (*Harness, error) {
	log := slog.Default()

	cat, err := catalog.Load(ctx, cfg.Catalog.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	log.Info("Catalog loaded", "source", cfg.Catalog.Source, "operations", cat.Len())

	pb, err := playbook.Load(cfg.Playbook.Path, playbook.Defaults{
		MaxRetries:     cfg.Retry.MaxRetries,
		BackoffSeconds: cfg.Retry.BackoffBaseSeconds,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load playbook: %w", err)
	}
	log.Info("Playbook loaded", "path", cfg.Playbook.Path, "entries", pb.Len())

	engine := chaos.NewEngine(engineConfig(cfg.Chaos))

	var next invoke.Invoker
	if cfg.Suite.PassThrough {
		next = invoke.NewProxyInvoker(cat, cfg.Suite.TestTimeout.Std())
		log.Info("Pass-through transport enabled", "base_url", cat.BaseURL())
	}
	inv := invoke.NewChaosInvoker(engine, cat, pb, cfg.Chaos.FailureRate, next)

	pol := buildPolicy(cfg.Reasoner, log)

	sched := backoff.New(
		cfg.Retry.BackoffBaseSeconds,
		cfg.Retry.BackoffCapSeconds,
		cfg.Retry.BackoffMultiplier,
	)

	rm := runner.NewRunMetrics()
	run := runner.New(inv, pb, pol, sched, cfg.Chaos.Seed, rm)
	suite := runner.NewSuite(run, runner.SuiteConfig{
		Concurrency: cfg.Suite.Concurrency,
		TestTimeout: cfg.Suite.TestTimeout.Std(),
	})

	h := &Harness{
		cfg:          cfg,
		catalog:      cat,
		playbook:     pb,
		suite:        suite,
		runMetrics:   rm,
		repo:         memory.NewResultRepo(),
		healthServer: health.NewServer(cfg.Server.Port),
		log:          log,
	}

	if cfg.Database.URL != "" {
		db, err := postgres.NewDB(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to init db: %w", err)
		}
		if err := goose.SetDialect("postgres"); err != nil {
			return nil, err
		}
		if err := goose.Up(db.DB.DB, "migrations"); err != nil {
			return nil, fmt.Errorf("failed to migrate db: %w", err)
		}
		h.db = db
		h.repo = postgres.NewResultRepo(db)
		log.Info("Using PostgreSQL result storage")
	}

	if cfg.Redis.URL != "" {
		rc, err := redis.NewClient(cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("failed to init redis: %w", err)
		}
		h.redisClient = rc
		log.Info("Rerun queue enabled")
	}

	return h, nil
}

// Run executes the configured suite end to end: load specs, run them,
// write results, persist, queue failures for rerun.
func (h *Harness) Run(ctx context.Context) error {
	specs, err := LoadSpecs(h.cfg.Suite.Specs)
	if err != nil {
		return err
	}
	h.log.Info("Starting suite",
		"name", h.cfg.Suite.Name, "tests", len(specs),
		"failure_rate", h.cfg.Chaos.FailureRate, "seed", h.cfg.Chaos.Seed,
		"concurrency", h.cfg.Suite.Concurrency)

	go func() {
		if err := h.healthServer.Start(); err != nil {
			h.log.Error("Health server failed", "error", err)
		}
	}()

	startedAt := time.Now()
	h.healthServer.SetStatus(health.Status{State: "running", StartedAt: startedAt})

	results, snap := h.suite.Run(ctx, specs)
	finishedAt := time.Now()
	h.healthServer.SetStatus(health.Status{
		State:      "finished",
		StartedAt:  startedAt,
		FinishedAt: finishedAt,
		Summary:    snap,
	})

	if err := h.writeResults(results, snap); err != nil {
		return err
	}
	h.persist(ctx, startedAt, finishedAt, results, snap)
	h.queueFailures(ctx, specs, results)

	return nil
}

// Stop shuts down the harness's long-lived resources.
func (h *Harness) Stop(ctx context.Context) error {
	var firstErr error
	if err := h.healthServer.Stop(ctx); err != nil {
		firstErr = err
	}
	if h.redisClient != nil {
		if err := h.redisClient.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if h.db != nil {
		if err := h.db.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// LoadSpecs reads a test spec file. YAML and JSON are both accepted.
func LoadSpecs(path string) ([]domain.TestSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read test specs: %w", err)
	}

	var specs []domain.TestSpec
	if strings.HasSuffix(path, ".json") {
		err = json.Unmarshal(data, &specs)
	} else {
		err = yaml.Unmarshal(data, &specs)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse test specs: %w", err)
	}
	if len(specs) == 0 {
		return nil, domain.NewConfigurationError("suite.specs", "no tests defined")
	}

	for i := range specs {
		if specs[i].TestID == "" {
			specs[i].TestID = fmt.Sprintf("test_%d", i+1)
		}
	}
	return specs, nil
}

type runReport struct {
	Suite   string              `json:"suite"`
	Metrics runner.Snapshot     `json:"metrics"`
	Results []domain.TestResult `json:"results"`
}

func (h *Harness) writeResults(results []domain.TestResult, snap runner.Snapshot) error {
	report := runReport{Suite: h.cfg.Suite.Name, Metrics: snap, Results: results}

	payload, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode results: %w", err)
	}

	if h.cfg.Suite.Output == "" {
		fmt.Println(string(payload))
		return nil
	}
	if err := os.WriteFile(h.cfg.Suite.Output, payload, 0o644); err != nil {
		return fmt.Errorf("failed to write results: %w", err)
	}
	h.log.Info("Results written", "path", h.cfg.Suite.Output)
	return nil
}

// persist is best-effort: a sink outage must not fail a completed run.
func (h *Harness) persist(ctx context.Context, startedAt, finishedAt time.Time, results []domain.TestResult, snap runner.Snapshot) {
	run := &domain.RunRecord{
		ID:            uuid.New().String(),
		StartedAt:     startedAt,
		FinishedAt:    finishedAt,
		Seed:          h.cfg.Chaos.Seed,
		FailureRate:   h.cfg.Chaos.FailureRate,
		Total:         int(snap.TotalTests),
		Passed:        int(snap.Passed),
		Failed:        int(snap.Failed),
		TotalAttempts: int(snap.TotalAttempts),
	}
	if err := h.repo.SaveRun(ctx, run); err != nil {
		h.log.Warn("Failed to persist run", "error", err)
		return
	}
	for i := range results {
		if err := h.repo.SaveResult(ctx, run.ID, &results[i]); err != nil {
			h.log.Warn("Failed to persist result", "test_id", results[i].TestID, "error", err)
		}
	}
}

func (h *Harness) queueFailures(ctx context.Context, specs []domain.TestSpec, results []domain.TestResult) {
	if h.redisClient == nil {
		return
	}
	for i, res := range results {
		if res.Passed(specs[i]) {
			continue
		}
		if err := h.redisClient.PushFailed(ctx, h.cfg.Suite.Name, res.TestID); err != nil {
			h.log.Warn("Failed to queue test for rerun", "test_id", res.TestID, "error", err)
		}
	}
}

func engineConfig(c config.ChaosConfig) chaos.Config {
	ec := chaos.DefaultConfig()
	if c.DefaultClass != "" {
		ec.DefaultClass = domain.ErrorClass(c.DefaultClass)
	}
	if len(c.ErrorWeights) > 0 {
		ec.Weights = make(map[domain.ErrorClass]float64, len(c.ErrorWeights))
		for class, w := range c.ErrorWeights {
			ec.Weights[domain.ErrorClass(class)] = w
		}
	}
	if c.MinWeight > 0 {
		ec.MinWeight = c.MinWeight
	}
	if c.MockSuccess != nil {
		ec.MockSuccess = *c.MockSuccess
	}
	if c.MockListSize > 0 {
		ec.MockListSize = c.MockListSize
	}
	return ec
}

func buildPolicy(rc config.ReasonerConfig, log *slog.Logger) policy.Policy {
	if !rc.Enabled {
		return policy.NewHeuristic()
	}

	apiKey := rc.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		log.Warn("Reasoner enabled but no API key configured, using heuristic policy")
		return policy.NewHeuristic()
	}

	clientCfg := openai.DefaultConfig(apiKey)
	if rc.BaseURL != "" {
		clientCfg.BaseURL = rc.BaseURL
	}
	client := openai.NewClientWithConfig(clientCfg)
	log.Info("Reasoner policy enabled", "model", rc.Model)
	return policy.NewReasoner(client, rc.PolicyConfig())
}
