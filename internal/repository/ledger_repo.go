package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Adwaitbytes/tokenizee-sub000/internal/domain"
	"github.com/jmoiron/sqlx"
)

// ErrPriceNotFound is returned when a post has no price-table row yet.
// Callers must treat this as the default quote, not a failure.
var ErrPriceNotFound = errors.New("no price row for post")

// LedgerRepository handles all database operations for bids, transactions,
// and the per-post price table.
type LedgerRepository struct {
	db *sqlx.DB
}

// NewLedgerRepository creates a new LedgerRepository.
func NewLedgerRepository(db *sqlx.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// ──────────────────────────────────────────────────────────────────────────────
// Bids
// ──────────────────────────────────────────────────────────────────────────────

// CreateBid appends a bid record inside an existing transaction.
func (r *LedgerRepository) CreateBid(ctx context.Context, tx *sqlx.Tx, b *domain.Bid) error {
	query := `
		INSERT INTO bids
			(id, post_id, user_id, bid_amount, placed_at)
		VALUES
			(:id, :post_id, :user_id, :bid_amount, :placed_at)`
	if _, err := tx.NamedExecContext(ctx, query, b); err != nil {
		return fmt.Errorf("ledger_repo.CreateBid: %w", err)
	}
	return nil
}

// CountBids returns the number of bids ever placed on a post.
func (r *LedgerRepository) CountBids(ctx context.Context, postID string) (int64, error) {
	var n int64
	err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM bids WHERE post_id = ?`, postID)
	if err != nil {
		return 0, fmt.Errorf("ledger_repo.CountBids: %w", err)
	}
	return n, nil
}

// ListBidsByPost returns all bids for a post in insertion order.
func (r *LedgerRepository) ListBidsByPost(ctx context.Context, postID string) ([]*domain.Bid, error) {
	var bids []*domain.Bid
	err := r.db.SelectContext(ctx, &bids,
		`SELECT * FROM bids WHERE post_id = ? ORDER BY rowid ASC`, postID)
	if err != nil {
		return nil, fmt.Errorf("ledger_repo.ListBidsByPost: %w", err)
	}
	return bids, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Transactions — append-only
// ──────────────────────────────────────────────────────────────────────────────

// CreateTransaction appends a transaction record inside an existing DB
// transaction. There is intentionally no update or delete counterpart.
func (r *LedgerRepository) CreateTransaction(ctx context.Context, tx *sqlx.Tx, t *domain.Transaction) error {
	query := `
		INSERT INTO transactions
			(id, post_id, from_user, to_user, amount, price, type, created_at)
		VALUES
			(:id, :post_id, :from_user, :to_user, :amount, :price, :type, :created_at)`
	if _, err := tx.NamedExecContext(ctx, query, t); err != nil {
		return fmt.Errorf("ledger_repo.CreateTransaction: %w", err)
	}
	return nil
}

// ListTransactionsByUser returns every transaction where the user is sender or
// recipient, in insertion order.
func (r *LedgerRepository) ListTransactionsByUser(ctx context.Context, userID string) ([]*domain.Transaction, error) {
	var txs []*domain.Transaction
	err := r.db.SelectContext(ctx, &txs,
		`SELECT * FROM transactions WHERE from_user = ? OR to_user = ? ORDER BY rowid ASC`,
		userID, userID)
	if err != nil {
		return nil, fmt.Errorf("ledger_repo.ListTransactionsByUser: %w", err)
	}
	return txs, nil
}

// ListTransactionsByHolding returns the user's transactions on one post, in
// insertion order. Holdings and lock state are derived from this slice.
func (r *LedgerRepository) ListTransactionsByHolding(ctx context.Context, postID, userID string) ([]*domain.Transaction, error) {
	var txs []*domain.Transaction
	err := r.db.SelectContext(ctx, &txs,
		`SELECT * FROM transactions
		 WHERE post_id = ? AND (from_user = ? OR to_user = ?)
		 ORDER BY rowid ASC`,
		postID, userID, userID)
	if err != nil {
		return nil, fmt.Errorf("ledger_repo.ListTransactionsByHolding: %w", err)
	}
	return txs, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Price table
// ──────────────────────────────────────────────────────────────────────────────

// GetPrice fetches the price-table row for a post. Returns ErrPriceNotFound
// when the post was never bid on or seeded.
func (r *LedgerRepository) GetPrice(ctx context.Context, postID string) (*domain.PostPrice, error) {
	var p domain.PostPrice
	err := r.db.GetContext(ctx, &p, `SELECT * FROM post_prices WHERE post_id = ?`, postID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPriceNotFound
		}
		return nil, fmt.Errorf("ledger_repo.GetPrice: %w", err)
	}
	return &p, nil
}

// UpsertPrice writes the full price row, creating it on first touch.
func (r *LedgerRepository) UpsertPrice(ctx context.Context, tx *sqlx.Tx, p *domain.PostPrice) error {
	query := `
		INSERT INTO post_prices (post_id, base_price, current_price, updated_at)
		VALUES (:post_id, :base_price, :current_price, :updated_at)
		ON CONFLICT(post_id) DO UPDATE SET
			base_price    = excluded.base_price,
			current_price = excluded.current_price,
			updated_at    = excluded.updated_at`
	var err error
	if tx != nil {
		_, err = tx.NamedExecContext(ctx, query, p)
	} else {
		_, err = r.db.NamedExecContext(ctx, query, p)
	}
	if err != nil {
		return fmt.Errorf("ledger_repo.UpsertPrice: %w", err)
	}
	return nil
}
