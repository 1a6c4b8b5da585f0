package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Adwaitbytes/tokenizee-sub000/internal/clock"
	"github.com/Adwaitbytes/tokenizee-sub000/internal/config"
	"github.com/Adwaitbytes/tokenizee-sub000/internal/domain"
	"github.com/Adwaitbytes/tokenizee-sub000/internal/repository"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

// RedemptionRecorder is the metrics interface PolicyService needs.
type RedemptionRecorder interface {
	TokensRedeemed(value decimal.Decimal)
}

// RedemptionBroadcaster is the WS interface PolicyService needs.
type RedemptionBroadcaster interface {
	BroadcastTokensRedeemed(postID, userID string, amount, value decimal.Decimal)
}

// ──────────────────────────────────────────────────────────────────────────────
// PolicyService
// ──────────────────────────────────────────────────────────────────────────────

// PolicyService derives time-based lock state from the transaction log and
// settles redemptions. It never mutates the ledger except through RedeemTokens,
// which appends the single closing reward transaction.
type PolicyService struct {
	db          *sqlx.DB
	repo        *repository.LedgerRepository
	ledger      *LedgerService
	cfg         *config.Config
	clk         clock.Clock
	recorder    RedemptionRecorder
	broadcaster RedemptionBroadcaster
}

// NewPolicyService creates a PolicyService.
func NewPolicyService(
	db *sqlx.DB,
	repo *repository.LedgerRepository,
	ledger *LedgerService,
	cfg *config.Config,
	clk clock.Clock,
) *PolicyService {
	return &PolicyService{
		db:     db,
		repo:   repo,
		ledger: ledger,
		cfg:    cfg,
		clk:    clk,
	}
}

// SetRecorder injects the metrics registry post-construction.
func (s *PolicyService) SetRecorder(r RedemptionRecorder) { s.recorder = r }

// SetBroadcaster injects the WS Hub dependency post-construction.
func (s *PolicyService) SetBroadcaster(b RedemptionBroadcaster) { s.broadcaster = b }

// ──────────────────────────────────────────────────────────────────────────────
// Lock anchor policy
// ──────────────────────────────────────────────────────────────────────────────

// LockAnchor returns the buy transaction that anchors the lock window for a
// holding: the earliest buy after the most recent redemption. This deliberately
// ignores later top-up buys, so repeated small purchases cannot perpetually
// renew the lock; a fresh window only starts once the previous holding has been
// fully redeemed. Returns nil when the user has no unredeemed buy (e.g. the
// holding was entirely credited by transfers), which counts as unlocked.
func LockAnchor(userID string, txs []*domain.Transaction) *time.Time {
	var lastRedemption time.Time
	for _, tx := range txs {
		if tx.Type == domain.TxReward && tx.FromUser == userID && tx.CreatedAt.After(lastRedemption) {
			lastRedemption = tx.CreatedAt
		}
	}

	var anchor *time.Time
	for _, tx := range txs {
		if tx.Type != domain.TxBuy || tx.FromUser != userID {
			continue
		}
		if !tx.CreatedAt.After(lastRedemption) {
			continue
		}
		if anchor == nil || tx.CreatedAt.Before(*anchor) {
			t := tx.CreatedAt
			anchor = &t
		}
	}
	return anchor
}

// ──────────────────────────────────────────────────────────────────────────────
// Lock state reads
// ──────────────────────────────────────────────────────────────────────────────

// AreTokensLocked reports whether the holding is inside its lock window:
// less than the configured window (24h) has elapsed since the anchor buy.
// The boundary is inclusive on the unlock side: exactly window-elapsed means
// unlocked.
func (s *PolicyService) AreTokensLocked(ctx context.Context, postID, userID string) (bool, error) {
	txs, err := s.repo.ListTransactionsByHolding(ctx, postID, userID)
	if err != nil {
		return false, fmt.Errorf("policy_service.AreTokensLocked: %w", err)
	}
	anchor := LockAnchor(userID, txs)
	if anchor == nil {
		return false, nil
	}
	return s.clk.Now().Before(anchor.Add(s.cfg.Lock.Window)), nil
}

// GetUnlockTime returns the instant the holding unlocks (anchor + window).
// ok is false when there is no anchored buy and hence nothing to unlock.
func (s *PolicyService) GetUnlockTime(ctx context.Context, postID, userID string) (time.Time, bool, error) {
	txs, err := s.repo.ListTransactionsByHolding(ctx, postID, userID)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("policy_service.GetUnlockTime: %w", err)
	}
	anchor := LockAnchor(userID, txs)
	if anchor == nil {
		return time.Time{}, false, nil
	}
	return anchor.Add(s.cfg.Lock.Window), true, nil
}

// AreTokensRedeemable reports whether the holding can be converted to a reward
// right now: unlocked and strictly positive.
func (s *PolicyService) AreTokensRedeemable(ctx context.Context, postID, userID string) (bool, error) {
	txs, err := s.repo.ListTransactionsByHolding(ctx, postID, userID)
	if err != nil {
		return false, fmt.Errorf("policy_service.AreTokensRedeemable: %w", err)
	}
	if !domain.HoldingAmount(userID, txs).IsPositive() {
		return false, nil
	}
	if anchor := LockAnchor(userID, txs); anchor != nil {
		if s.clk.Now().Before(anchor.Add(s.cfg.Lock.Window)) {
			return false, nil
		}
	}
	return true, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// RedeemTokens
// ──────────────────────────────────────────────────────────────────────────────

// RedeemTokens converts the whole holding into a credited reward at the
// current price. It appends exactly one reward transaction that closes the
// holding (the from-side disposal zeroes it out) and returns the redemption
// value amount × price. A non-redeemable holding returns decimal.Zero with a
// typed sentinel and appends nothing — the locked/empty outcome is a result,
// not a failure.
func (s *PolicyService) RedeemTokens(ctx context.Context, postID, userID string) (decimal.Decimal, error) {
	txs, err := s.repo.ListTransactionsByHolding(ctx, postID, userID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("policy_service.RedeemTokens: %w", err)
	}

	holding := domain.HoldingAmount(userID, txs)
	if !holding.IsPositive() {
		return decimal.Zero, domain.ErrNothingToRedeem
	}
	if anchor := LockAnchor(userID, txs); anchor != nil {
		if s.clk.Now().Before(anchor.Add(s.cfg.Lock.Window)) {
			return decimal.Zero, domain.ErrTokensLocked
		}
	}

	price, err := s.ledger.GetCurrentPrice(ctx, postID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("policy_service.RedeemTokens: %w", err)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("policy_service.RedeemTokens: begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	txn := &domain.Transaction{
		ID:        uuid.New(),
		PostID:    postID,
		FromUser:  userID,
		ToUser:    nil,
		Amount:    holding,
		Price:     price,
		Type:      domain.TxReward,
		CreatedAt: s.clk.Now(),
	}
	if err = s.repo.CreateTransaction(ctx, tx, txn); err != nil {
		return decimal.Zero, fmt.Errorf("policy_service.RedeemTokens: create transaction: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return decimal.Zero, fmt.Errorf("policy_service.RedeemTokens: commit: %w", err)
	}

	value := txn.Value()
	if s.recorder != nil {
		s.recorder.TokensRedeemed(value)
	}
	if s.broadcaster != nil {
		s.broadcaster.BroadcastTokensRedeemed(postID, userID, holding, value)
	}
	return value, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Portfolio
// ──────────────────────────────────────────────────────────────────────────────

// Portfolio assembles the user's holdings with lock state and mark-to-market
// value for the portfolio view. Lock state is evaluated lazily per read;
// there is no scheduled unlock callback.
func (s *PolicyService) Portfolio(ctx context.Context, userID string) ([]domain.PortfolioEntry, error) {
	holdings, err := s.ledger.GetUserTokens(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("policy_service.Portfolio: %w", err)
	}

	entries := make([]domain.PortfolioEntry, 0, len(holdings))
	for _, h := range holdings {
		price, err := s.ledger.GetCurrentPrice(ctx, h.PostID)
		if err != nil {
			return nil, fmt.Errorf("policy_service.Portfolio: price for %s: %w", h.PostID, err)
		}
		locked, err := s.AreTokensLocked(ctx, h.PostID, userID)
		if err != nil {
			return nil, fmt.Errorf("policy_service.Portfolio: lock for %s: %w", h.PostID, err)
		}
		entry := domain.PortfolioEntry{
			PostID:       h.PostID,
			Amount:       h.Amount,
			CurrentPrice: price,
			Value:        h.Amount.Mul(price).Round(domain.PriceScale),
			Locked:       locked,
		}
		if unlockAt, ok, err := s.GetUnlockTime(ctx, h.PostID, userID); err == nil && ok {
			entry.UnlockAt = &unlockAt
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
