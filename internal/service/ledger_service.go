package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Adwaitbytes/tokenizee-sub000/internal/clock"
	"github.com/Adwaitbytes/tokenizee-sub000/internal/config"
	"github.com/Adwaitbytes/tokenizee-sub000/internal/domain"
	"github.com/Adwaitbytes/tokenizee-sub000/internal/repository"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

// ──────────────────────────────────────────────────────────────────────────────
// Interfaces injected into LedgerService to avoid import cycles
// ──────────────────────────────────────────────────────────────────────────────

// LockChecker is the minimal interface LedgerService needs from PolicyService
// to gate sells on the lock window.
type LockChecker interface {
	AreTokensLocked(ctx context.Context, postID, userID string) (bool, error)
}

// Broadcaster is the minimal interface LedgerService needs from the WS hub.
type Broadcaster interface {
	BroadcastPriceUpdate(postID string, price decimal.Decimal)
	BroadcastBidPlaced(postID, userID string, amount, newPrice decimal.Decimal)
}

// Recorder is the minimal interface the service layer needs from the metrics
// registry. Implemented by metrics.Registry; nil-safe via the setter pattern.
type Recorder interface {
	BidPlaced(amount decimal.Decimal)
	TokensSold(amount decimal.Decimal)
}

// ──────────────────────────────────────────────────────────────────────────────
// LedgerService
// ──────────────────────────────────────────────────────────────────────────────

// LedgerService is the source of truth for prices, bids, and the transaction
// log. All monetary derivations are pure functions over the log; every
// state-changing operation appends exactly one transaction and commits
// atomically in a single SQLite transaction.
type LedgerService struct {
	db          *sqlx.DB
	repo        *repository.LedgerRepository
	cfg         *config.Config
	clk         clock.Clock
	bidStep     decimal.Decimal
	locker      LockChecker // injected after PolicyService is built
	broadcaster Broadcaster // injected after WS Hub is built
	recorder    Recorder    // injected after metrics registry is built
}

// NewLedgerService creates a LedgerService.
func NewLedgerService(
	db *sqlx.DB,
	repo *repository.LedgerRepository,
	cfg *config.Config,
	clk clock.Clock,
) *LedgerService {
	return &LedgerService{
		db:      db,
		repo:    repo,
		cfg:     cfg,
		clk:     clk,
		bidStep: decimal.NewFromFloat(cfg.Pricing.BidStepPercent),
	}
}

// SetLockChecker injects the PolicyService dependency post-construction.
func (s *LedgerService) SetLockChecker(lc LockChecker) { s.locker = lc }

// SetBroadcaster injects the WS Hub dependency post-construction.
func (s *LedgerService) SetBroadcaster(b Broadcaster) { s.broadcaster = b }

// SetRecorder injects the metrics registry post-construction.
func (s *LedgerService) SetRecorder(r Recorder) { s.recorder = r }

// ──────────────────────────────────────────────────────────────────────────────
// Price reads
// ──────────────────────────────────────────────────────────────────────────────

// GetCurrentPrice returns the stored quote for a post, or DefaultPrice (0.01)
// when the post has never been bid on or seeded. A missing price row is the
// default, never an error.
func (s *LedgerService) GetCurrentPrice(ctx context.Context, postID string) (decimal.Decimal, error) {
	p, err := s.repo.GetPrice(ctx, postID)
	if err != nil {
		if errors.Is(err, repository.ErrPriceNotFound) {
			return domain.DefaultPrice, nil
		}
		return decimal.Zero, fmt.Errorf("ledger_service.GetCurrentPrice: %w", err)
	}
	return p.CurrentPrice, nil
}

// getPriceOrDefault loads the price row, synthesising a default row in memory
// when none exists yet.
func (s *LedgerService) getPriceOrDefault(ctx context.Context, postID string) (*domain.PostPrice, error) {
	p, err := s.repo.GetPrice(ctx, postID)
	if err != nil {
		if errors.Is(err, repository.ErrPriceNotFound) {
			return &domain.PostPrice{
				PostID:       postID,
				BasePrice:    domain.DefaultPrice,
				CurrentPrice: domain.DefaultPrice,
			}, nil
		}
		return nil, err
	}
	return p, nil
}

// NextBidPrice quotes what the bid curve would yield for the next committed
// state: base × (1 + step% × bidCount). Pure read; calling it repeatedly
// without an intervening bid returns the same value.
func (s *LedgerService) NextBidPrice(ctx context.Context, postID string) (decimal.Decimal, error) {
	p, err := s.getPriceOrDefault(ctx, postID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("ledger_service.NextBidPrice: %w", err)
	}
	n, err := s.repo.CountBids(ctx, postID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("ledger_service.NextBidPrice: %w", err)
	}
	return domain.BidCurvePrice(p.BasePrice, s.bidStep, n), nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Price writes
// ──────────────────────────────────────────────────────────────────────────────

// SetInitialPrice seeds (or reseeds) both the base and current price of a post.
// Used by the engagement coupling to impose a like-driven floor. Rejects
// negative prices with ErrInvalidPrice.
func (s *LedgerService) SetInitialPrice(ctx context.Context, postID string, price decimal.Decimal) error {
	if price.IsNegative() {
		return domain.ErrInvalidPrice
	}
	price = price.Round(domain.PriceScale)
	row := &domain.PostPrice{
		PostID:       postID,
		BasePrice:    price,
		CurrentPrice: price,
		UpdatedAt:    s.clk.Now(),
	}
	if err := s.repo.UpsertPrice(ctx, nil, row); err != nil {
		return fmt.Errorf("ledger_service.SetInitialPrice: %w", err)
	}
	return nil
}

// IncreasePrice grows the current price by percent, compounding on the stored
// quote. The base price is untouched, so the next bid recomputes from the
// curve and overwrites the drifted quote — last writer wins, matching the
// accepted coupling between drift and bids.
func (s *LedgerService) IncreasePrice(ctx context.Context, postID string, percent decimal.Decimal) (decimal.Decimal, error) {
	if percent.IsNegative() {
		return decimal.Zero, domain.ErrInvalidPrice
	}
	p, err := s.getPriceOrDefault(ctx, postID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("ledger_service.IncreasePrice: %w", err)
	}
	p.CurrentPrice = domain.ApplyPercent(p.CurrentPrice, percent)
	p.UpdatedAt = s.clk.Now()
	if err := s.repo.UpsertPrice(ctx, nil, p); err != nil {
		return decimal.Zero, fmt.Errorf("ledger_service.IncreasePrice: %w", err)
	}
	if s.broadcaster != nil {
		s.broadcaster.BroadcastPriceUpdate(postID, p.CurrentPrice)
	}
	return p.CurrentPrice, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// PlaceBid
// ──────────────────────────────────────────────────────────────────────────────

// PlaceBid records a bid at the currently quoted price and moves the quote one
// step up the bid curve, all in a single atomic transaction:
//
//  1. read current price p
//  2. append the Bid record
//  3. append a buy Transaction at p against the implicit pool (to_user NULL)
//  4. store base × (1 + step% × newBidCount) as the new quote
//
// Amounts below one token are rejected with ErrInvalidBidAmount.
func (s *LedgerService) PlaceBid(ctx context.Context, req domain.PlaceBidRequest) (*domain.BidReceipt, error) {
	if req.Amount.LessThan(decimal.NewFromInt(1)) {
		return nil, domain.ErrInvalidBidAmount
	}

	price, err := s.getPriceOrDefault(ctx, req.PostID)
	if err != nil {
		return nil, fmt.Errorf("ledger_service.PlaceBid: get price: %w", err)
	}
	bidCount, err := s.repo.CountBids(ctx, req.PostID)
	if err != nil {
		return nil, fmt.Errorf("ledger_service.PlaceBid: count bids: %w", err)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("ledger_service.PlaceBid: begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := s.clk.Now()
	bid := &domain.Bid{
		ID:        uuid.New(),
		PostID:    req.PostID,
		UserID:    req.UserID,
		BidAmount: req.Amount,
		PlacedAt:  now,
	}
	if err = s.repo.CreateBid(ctx, tx, bid); err != nil {
		return nil, fmt.Errorf("ledger_service.PlaceBid: create bid: %w", err)
	}

	txn := &domain.Transaction{
		ID:        uuid.New(),
		PostID:    req.PostID,
		FromUser:  req.UserID,
		ToUser:    nil, // buy draws from the implicit liquidity pool
		Amount:    req.Amount,
		Price:     price.CurrentPrice,
		Type:      domain.TxBuy,
		CreatedAt: now,
	}
	if err = s.repo.CreateTransaction(ctx, tx, txn); err != nil {
		return nil, fmt.Errorf("ledger_service.PlaceBid: create transaction: %w", err)
	}

	newPrice := domain.BidCurvePrice(price.BasePrice, s.bidStep, bidCount+1)
	price.CurrentPrice = newPrice
	price.UpdatedAt = now
	if err = s.repo.UpsertPrice(ctx, tx, price); err != nil {
		return nil, fmt.Errorf("ledger_service.PlaceBid: upsert price: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("ledger_service.PlaceBid: commit: %w", err)
	}

	if s.recorder != nil {
		s.recorder.BidPlaced(req.Amount)
	}
	if s.broadcaster != nil {
		s.broadcaster.BroadcastBidPlaced(req.PostID, req.UserID, req.Amount, newPrice)
	}

	return &domain.BidReceipt{
		Bid:         bid,
		Transaction: txn,
		PriceAtBid:  txn.Price,
		NewPrice:    newPrice,
	}, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// SellTokens
// ──────────────────────────────────────────────────────────────────────────────

// SellTokens disposes part of an unlocked holding back to the pool at the
// current price and returns the proceeds. Appends exactly one sell
// transaction; the quote is unchanged (only bids and drift move the price).
func (s *LedgerService) SellTokens(ctx context.Context, postID, userID string, amount decimal.Decimal) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, domain.ErrInvalidSellAmount
	}

	if s.locker != nil {
		locked, err := s.locker.AreTokensLocked(ctx, postID, userID)
		if err != nil {
			return decimal.Zero, fmt.Errorf("ledger_service.SellTokens: lock check: %w", err)
		}
		if locked {
			return decimal.Zero, domain.ErrTokensLocked
		}
	}

	txs, err := s.repo.ListTransactionsByHolding(ctx, postID, userID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("ledger_service.SellTokens: load holding: %w", err)
	}
	holding := domain.HoldingAmount(userID, txs)
	if amount.GreaterThan(holding) {
		return decimal.Zero, domain.ErrInsufficientTokens
	}

	price, err := s.GetCurrentPrice(ctx, postID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("ledger_service.SellTokens: %w", err)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("ledger_service.SellTokens: begin tx: %w", err)
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
		Amount:    amount,
		Price:     price,
		Type:      domain.TxSell,
		CreatedAt: s.clk.Now(),
	}
	if err = s.repo.CreateTransaction(ctx, tx, txn); err != nil {
		return decimal.Zero, fmt.Errorf("ledger_service.SellTokens: create transaction: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return decimal.Zero, fmt.Errorf("ledger_service.SellTokens: commit: %w", err)
	}

	if s.recorder != nil {
		s.recorder.TokensSold(amount)
	}
	return txn.Value(), nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Reads over the log
// ──────────────────────────────────────────────────────────────────────────────

// GetBidsForPost returns all bids for a post in insertion order. Callers sort
// by time if they need a different order.
func (s *LedgerService) GetBidsForPost(ctx context.Context, postID string) ([]*domain.Bid, error) {
	bids, err := s.repo.ListBidsByPost(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("ledger_service.GetBidsForPost: %w", err)
	}
	return bids, nil
}

// GetUserTokens derives the user's holdings from the transaction log, one
// entry per distinct post touched. Amounts are reported as-is — no floor at
// zero — so auditing tools can spot an inconsistent sequence.
func (s *LedgerService) GetUserTokens(ctx context.Context, userID string) ([]domain.Holding, error) {
	txs, err := s.repo.ListTransactionsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("ledger_service.GetUserTokens: %w", err)
	}
	return domain.HoldingsByPost(userID, txs), nil
}

// GetUserTransactions returns every transaction naming the user as sender or
// recipient, in insertion order.
func (s *LedgerService) GetUserTransactions(ctx context.Context, userID string) ([]*domain.Transaction, error) {
	txs, err := s.repo.ListTransactionsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("ledger_service.GetUserTransactions: %w", err)
	}
	return txs, nil
}
