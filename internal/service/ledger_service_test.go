package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Adwaitbytes/tokenizee-sub000/internal/domain"
	"github.com/shopspring/decimal"
)

func TestGetCurrentPrice_DefaultForUnbidPost(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	price, err := f.ledger.GetCurrentPrice(ctx, "post-never-touched")
	if err != nil {
		t.Fatalf("GetCurrentPrice: %v", err)
	}
	if !price.Equal(domain.DefaultPrice) {
		t.Errorf("unbid post price = %s, want 0.01", price)
	}
}

func TestPlaceBid_WorkedExample(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.ledger.PlaceBid(ctx, domain.PlaceBidRequest{
		PostID: "p1", UserID: "wallet-alice", Amount: decimal.NewFromInt(2),
	})
	if err != nil {
		t.Fatalf("first bid: %v", err)
	}
	if want := decimal.RequireFromString("0.01"); !first.PriceAtBid.Equal(want) {
		t.Errorf("first bid transacted at %s, want %s", first.PriceAtBid, want)
	}
	if want := decimal.RequireFromString("0.0105"); !first.NewPrice.Equal(want) {
		t.Errorf("price after first bid = %s, want %s", first.NewPrice, want)
	}

	second, err := f.ledger.PlaceBid(ctx, domain.PlaceBidRequest{
		PostID: "p1", UserID: "wallet-bob", Amount: decimal.NewFromInt(1),
	})
	if err != nil {
		t.Fatalf("second bid: %v", err)
	}
	if want := decimal.RequireFromString("0.0105"); !second.PriceAtBid.Equal(want) {
		t.Errorf("second bid transacted at %s, want %s", second.PriceAtBid, want)
	}
	if want := decimal.RequireFromString("0.011"); !second.NewPrice.Equal(want) {
		t.Errorf("price after second bid = %s, want %s", second.NewPrice, want)
	}

	stored, err := f.ledger.GetCurrentPrice(ctx, "p1")
	if err != nil {
		t.Fatalf("GetCurrentPrice: %v", err)
	}
	if !stored.Equal(second.NewPrice) {
		t.Errorf("stored price %s disagrees with receipt %s", stored, second.NewPrice)
	}
}

func TestPlaceBid_AppendsExactlyOneBidAndOneBuy(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.ledger.PlaceBid(ctx, domain.PlaceBidRequest{
		PostID: "p1", UserID: "wallet-alice", Amount: decimal.NewFromInt(3),
	}); err != nil {
		t.Fatalf("PlaceBid: %v", err)
	}

	bids, err := f.ledger.GetBidsForPost(ctx, "p1")
	if err != nil {
		t.Fatalf("GetBidsForPost: %v", err)
	}
	if len(bids) != 1 {
		t.Fatalf("bid count = %d, want 1", len(bids))
	}
	if bids[0].UserID != "wallet-alice" || !bids[0].BidAmount.Equal(decimal.NewFromInt(3)) {
		t.Errorf("bid record = %s/%s, want wallet-alice/3", bids[0].UserID, bids[0].BidAmount)
	}

	txs, err := f.ledger.GetUserTransactions(ctx, "wallet-alice")
	if err != nil {
		t.Fatalf("GetUserTransactions: %v", err)
	}
	if len(txs) != 1 {
		t.Fatalf("transaction count = %d, want 1", len(txs))
	}
	if txs[0].Type != domain.TxBuy {
		t.Errorf("transaction type = %s, want buy", txs[0].Type)
	}
	if txs[0].ToUser != nil {
		t.Errorf("buy should draw from the pool (nil recipient), got %v", *txs[0].ToUser)
	}
	if !txs[0].Price.Equal(domain.DefaultPrice) {
		t.Errorf("buy price = %s, want the pre-bid quote 0.01", txs[0].Price)
	}
}

func TestPlaceBid_RejectsSubUnitAmount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.ledger.PlaceBid(ctx, domain.PlaceBidRequest{
		PostID: "p1", UserID: "wallet-alice", Amount: decimal.RequireFromString("0.5"),
	})
	if !errors.Is(err, domain.ErrInvalidBidAmount) {
		t.Fatalf("err = %v, want ErrInvalidBidAmount", err)
	}
	if !domain.IsValidation(err) {
		t.Errorf("ErrInvalidBidAmount should satisfy IsValidation")
	}

	// nothing appended
	bids, _ := f.ledger.GetBidsForPost(ctx, "p1")
	if len(bids) != 0 {
		t.Errorf("rejected bid left %d bid rows", len(bids))
	}
	price, _ := f.ledger.GetCurrentPrice(ctx, "p1")
	if !price.Equal(domain.DefaultPrice) {
		t.Errorf("rejected bid moved the price to %s", price)
	}
}

func TestSellTokens_RejectedWhileLocked(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.ledger.PlaceBid(ctx, domain.PlaceBidRequest{
		PostID: "p1", UserID: "wallet-alice", Amount: decimal.NewFromInt(5),
	}); err != nil {
		t.Fatalf("PlaceBid: %v", err)
	}

	f.clk.Advance(23 * time.Hour) // still inside the window

	_, err := f.ledger.SellTokens(ctx, "p1", "wallet-alice", decimal.NewFromInt(1))
	if !errors.Is(err, domain.ErrTokensLocked) {
		t.Fatalf("err = %v, want ErrTokensLocked", err)
	}
	if !domain.IsConflict(err) {
		t.Errorf("ErrTokensLocked should satisfy IsConflict")
	}
}

func TestSellTokens_AfterUnlock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.ledger.PlaceBid(ctx, domain.PlaceBidRequest{
		PostID: "p1", UserID: "wallet-alice", Amount: decimal.NewFromInt(5),
	}); err != nil {
		t.Fatalf("PlaceBid: %v", err)
	}
	f.clk.Advance(f.cfg.Lock.Window)

	proceeds, err := f.ledger.SellTokens(ctx, "p1", "wallet-alice", decimal.NewFromInt(2))
	if err != nil {
		t.Fatalf("SellTokens: %v", err)
	}
	// price after one bid is 0.0105; 2 × 0.0105 = 0.021
	if want := decimal.RequireFromString("0.021"); !proceeds.Equal(want) {
		t.Errorf("proceeds = %s, want %s", proceeds, want)
	}

	holdings, err := f.ledger.GetUserTokens(ctx, "wallet-alice")
	if err != nil {
		t.Fatalf("GetUserTokens: %v", err)
	}
	if len(holdings) != 1 || !holdings[0].Amount.Equal(decimal.NewFromInt(3)) {
		t.Errorf("holding after partial sell = %+v, want 3 on p1", holdings)
	}

	// quote untouched: only bids and drift move the price
	price, _ := f.ledger.GetCurrentPrice(ctx, "p1")
	if want := decimal.RequireFromString("0.0105"); !price.Equal(want) {
		t.Errorf("sell moved the price to %s", price)
	}
}

func TestSellTokens_InsufficientHolding(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.ledger.PlaceBid(ctx, domain.PlaceBidRequest{
		PostID: "p1", UserID: "wallet-alice", Amount: decimal.NewFromInt(2),
	}); err != nil {
		t.Fatalf("PlaceBid: %v", err)
	}
	f.clk.Advance(f.cfg.Lock.Window)

	_, err := f.ledger.SellTokens(ctx, "p1", "wallet-alice", decimal.NewFromInt(10))
	if !errors.Is(err, domain.ErrInsufficientTokens) {
		t.Fatalf("err = %v, want ErrInsufficientTokens", err)
	}
}

func TestSellTokens_RejectsNonPositiveAmount(t *testing.T) {
	f := newFixture(t)

	_, err := f.ledger.SellTokens(context.Background(), "p1", "wallet-alice", decimal.Zero)
	if !errors.Is(err, domain.ErrInvalidSellAmount) {
		t.Fatalf("err = %v, want ErrInvalidSellAmount", err)
	}
}

func TestIncreasePrice_DriftCompoundsCurrentOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if err := f.ledger.SetInitialPrice(ctx, "p1", decimal.NewFromInt(1)); err != nil {
		t.Fatalf("SetInitialPrice: %v", err)
	}

	got, err := f.ledger.IncreasePrice(ctx, "p1", decimal.RequireFromString("0.1"))
	if err != nil {
		t.Fatalf("IncreasePrice: %v", err)
	}
	if want := decimal.RequireFromString("1.001"); !got.Equal(want) {
		t.Errorf("one drift tick at 1.0 = %s, want %s", got, want)
	}

	// the bid curve stays anchored on the base, so a bid overwrites drift
	receipt, err := f.ledger.PlaceBid(ctx, domain.PlaceBidRequest{
		PostID: "p1", UserID: "wallet-alice", Amount: decimal.NewFromInt(1),
	})
	if err != nil {
		t.Fatalf("PlaceBid: %v", err)
	}
	if want := decimal.RequireFromString("1.001"); !receipt.PriceAtBid.Equal(want) {
		t.Errorf("bid transacted at %s, want the drifted quote %s", receipt.PriceAtBid, want)
	}
	if want := decimal.RequireFromString("1.05"); !receipt.NewPrice.Equal(want) {
		t.Errorf("post-bid quote = %s, want curve value %s", receipt.NewPrice, want)
	}
}

func TestIncreasePrice_RejectsNegativePercent(t *testing.T) {
	f := newFixture(t)

	_, err := f.ledger.IncreasePrice(context.Background(), "p1", decimal.NewFromInt(-1))
	if !errors.Is(err, domain.ErrInvalidPrice) {
		t.Fatalf("err = %v, want ErrInvalidPrice", err)
	}
}

func TestNextBidPrice_PureRead(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.ledger.PlaceBid(ctx, domain.PlaceBidRequest{
		PostID: "p1", UserID: "wallet-alice", Amount: decimal.NewFromInt(1),
	}); err != nil {
		t.Fatalf("PlaceBid: %v", err)
	}

	a, err := f.ledger.NextBidPrice(ctx, "p1")
	if err != nil {
		t.Fatalf("NextBidPrice: %v", err)
	}
	b, err := f.ledger.NextBidPrice(ctx, "p1")
	if err != nil {
		t.Fatalf("NextBidPrice: %v", err)
	}
	if !a.Equal(b) {
		t.Errorf("repeated quote without a bid changed: %s then %s", a, b)
	}
	if want := decimal.RequireFromString("0.0105"); !a.Equal(want) {
		t.Errorf("quote after one bid = %s, want %s", a, want)
	}
}

func TestGetUserTokens_AggregatesAcrossPosts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, postID := range []string{"p1", "p2", "p1"} {
		if _, err := f.ledger.PlaceBid(ctx, domain.PlaceBidRequest{
			PostID: postID, UserID: "wallet-alice", Amount: decimal.NewFromInt(2),
		}); err != nil {
			t.Fatalf("PlaceBid %s: %v", postID, err)
		}
	}

	holdings, err := f.ledger.GetUserTokens(ctx, "wallet-alice")
	if err != nil {
		t.Fatalf("GetUserTokens: %v", err)
	}
	if len(holdings) != 2 {
		t.Fatalf("holding count = %d, want 2", len(holdings))
	}
	if holdings[0].PostID != "p1" || !holdings[0].Amount.Equal(decimal.NewFromInt(4)) {
		t.Errorf("p1 holding = %+v, want 4", holdings[0])
	}
	if holdings[1].PostID != "p2" || !holdings[1].Amount.Equal(decimal.NewFromInt(2)) {
		t.Errorf("p2 holding = %+v, want 2", holdings[1])
	}
}
