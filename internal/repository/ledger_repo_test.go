package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Adwaitbytes/tokenizee-sub000/internal/domain"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

func newTestRepo(t *testing.T) (*LedgerRepository, *sqlx.DB) {
	t.Helper()
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open in-memory db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewLedgerRepository(db), db
}

func inTx(t *testing.T, db *sqlx.DB, fn func(tx *sqlx.Tx) error) {
	t.Helper()
	tx, err := db.Beginx()
	if err != nil {
		t.Fatalf("begin tx: %v", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		t.Fatalf("tx body: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	_, db := newTestRepo(t)
	// Open already migrated; a second run must not fail.
	if err := Migrate(db); err != nil {
		t.Fatalf("second Migrate: %v", err)
	}
}

func TestBids_RoundTrip(t *testing.T) {
	repo, db := newTestRepo(t)
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	for i, user := range []string{"wallet-alice", "wallet-bob"} {
		bid := &domain.Bid{
			ID:        uuid.New(),
			PostID:    "p1",
			UserID:    user,
			BidAmount: decimal.NewFromInt(int64(i + 1)),
			PlacedAt:  now.Add(time.Duration(i) * time.Minute),
		}
		inTx(t, db, func(tx *sqlx.Tx) error { return repo.CreateBid(ctx, tx, bid) })
	}

	n, err := repo.CountBids(ctx, "p1")
	if err != nil {
		t.Fatalf("CountBids: %v", err)
	}
	if n != 2 {
		t.Errorf("count = %d, want 2", n)
	}

	bids, err := repo.ListBidsByPost(ctx, "p1")
	if err != nil {
		t.Fatalf("ListBidsByPost: %v", err)
	}
	if len(bids) != 2 {
		t.Fatalf("len = %d, want 2", len(bids))
	}
	if bids[0].UserID != "wallet-alice" || bids[1].UserID != "wallet-bob" {
		t.Errorf("insertion order not preserved: %s, %s", bids[0].UserID, bids[1].UserID)
	}
	if !bids[1].BidAmount.Equal(decimal.NewFromInt(2)) {
		t.Errorf("amount round trip = %s, want 2", bids[1].BidAmount)
	}

	if n, _ := repo.CountBids(ctx, "other-post"); n != 0 {
		t.Errorf("count for untouched post = %d, want 0", n)
	}
}

func TestTransactions_ListByUserCoversBothSides(t *testing.T) {
	repo, db := newTestRepo(t)
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	alice := "wallet-alice"

	mk := func(from string, to *string, typ domain.TxType) *domain.Transaction {
		return &domain.Transaction{
			ID:        uuid.New(),
			PostID:    "p1",
			FromUser:  from,
			ToUser:    to,
			Amount:    decimal.NewFromInt(1),
			Price:     decimal.RequireFromString("0.01"),
			Type:      typ,
			CreatedAt: now,
		}
	}

	inTx(t, db, func(tx *sqlx.Tx) error {
		if err := repo.CreateTransaction(ctx, tx, mk(alice, nil, domain.TxBuy)); err != nil {
			return err
		}
		if err := repo.CreateTransaction(ctx, tx, mk("wallet-bob", &alice, domain.TxBuy)); err != nil {
			return err
		}
		return repo.CreateTransaction(ctx, tx, mk("wallet-bob", nil, domain.TxSell))
	})

	txs, err := repo.ListTransactionsByUser(ctx, alice)
	if err != nil {
		t.Fatalf("ListTransactionsByUser: %v", err)
	}
	if len(txs) != 2 {
		t.Fatalf("len = %d, want 2 (one as sender, one as recipient)", len(txs))
	}

	byHolding, err := repo.ListTransactionsByHolding(ctx, "p1", alice)
	if err != nil {
		t.Fatalf("ListTransactionsByHolding: %v", err)
	}
	if len(byHolding) != 2 {
		t.Errorf("holding slice len = %d, want 2", len(byHolding))
	}
}

func TestTransactions_RejectsUnknownType(t *testing.T) {
	repo, db := newTestRepo(t)
	ctx := context.Background()

	bad := &domain.Transaction{
		ID:        uuid.New(),
		PostID:    "p1",
		FromUser:  "wallet-alice",
		Amount:    decimal.NewFromInt(1),
		Price:     decimal.RequireFromString("0.01"),
		Type:      domain.TxType("refund"),
		CreatedAt: time.Now().UTC(),
	}

	tx, err := db.Beginx()
	if err != nil {
		t.Fatalf("begin tx: %v", err)
	}
	defer tx.Rollback()

	if err := repo.CreateTransaction(ctx, tx, bad); err == nil {
		t.Fatal("CHECK constraint should reject unknown transaction type")
	}
}

func TestPrice_NotFoundThenUpsert(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	if _, err := repo.GetPrice(ctx, "p1"); !errors.Is(err, ErrPriceNotFound) {
		t.Fatalf("err = %v, want ErrPriceNotFound", err)
	}

	row := &domain.PostPrice{
		PostID:       "p1",
		BasePrice:    decimal.RequireFromString("0.01"),
		CurrentPrice: decimal.RequireFromString("0.01"),
		UpdatedAt:    time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	if err := repo.UpsertPrice(ctx, nil, row); err != nil {
		t.Fatalf("insert: %v", err)
	}

	row.CurrentPrice = decimal.RequireFromString("0.0105")
	if err := repo.UpsertPrice(ctx, nil, row); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err := repo.GetPrice(ctx, "p1")
	if err != nil {
		t.Fatalf("GetPrice: %v", err)
	}
	if !got.CurrentPrice.Equal(decimal.RequireFromString("0.0105")) {
		t.Errorf("current = %s, want 0.0105", got.CurrentPrice)
	}
	if !got.BasePrice.Equal(decimal.RequireFromString("0.01")) {
		t.Errorf("base = %s, want 0.01 untouched", got.BasePrice)
	}
}
