package service

import (
	"testing"
	"time"

	"github.com/Adwaitbytes/tokenizee-sub000/internal/clock"
	"github.com/Adwaitbytes/tokenizee-sub000/internal/config"
	"github.com/Adwaitbytes/tokenizee-sub000/internal/repository"
	"github.com/jmoiron/sqlx"
)

// testConfig returns a config with the production pricing defaults but an
// in-memory database, so tests exercise the real curve numbers.
func testConfig() *config.Config {
	return &config.Config{
		Server:  config.ServerConfig{Port: "0", Env: "development"},
		DB:      config.DBConfig{Path: ":memory:", MaxOpenConns: 1},
		Session: config.SessionConfig{Secret: "test-secret", TTL: time.Hour},
		Pricing: config.PricingConfig{BidStepPercent: 5, PerLikeIncrement: 0.001},
		Lock:    config.LockConfig{Window: 24 * time.Hour},
		Drift:   config.DriftConfig{Interval: 10 * time.Second, StepPercent: 0.1},
	}
}

// fixture bundles a fully wired service stack over an in-memory SQLite
// database with a controllable clock.
type fixture struct {
	db     *sqlx.DB
	repo   *repository.LedgerRepository
	ledger *LedgerService
	policy *PolicyService
	engage *EngagementService
	clk    *clock.Fixed
	cfg    *config.Config
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := repository.Open(":memory:")
	if err != nil {
		t.Fatalf("open in-memory db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	cfg := testConfig()
	clk := &clock.Fixed{T: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	repo := repository.NewLedgerRepository(db)

	ledger := NewLedgerService(db, repo, cfg, clk)
	policy := NewPolicyService(db, repo, ledger, cfg, clk)
	engage := NewEngagementService(ledger, cfg)
	ledger.SetLockChecker(policy)

	return &fixture{
		db:     db,
		repo:   repo,
		ledger: ledger,
		policy: policy,
		engage: engage,
		clk:    clk,
		cfg:    cfg,
	}
}
