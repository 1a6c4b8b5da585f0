package domain_test

import (
	"testing"
	"time"

	"github.com/Adwaitbytes/tokenizee-sub000/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ── Bid curve ─────────────────────────────────────────────────────────────────

func TestBidCurvePrice_NoBids(t *testing.T) {
	got := domain.BidCurvePrice(domain.DefaultPrice, domain.DefaultBidStepPercent, 0)
	if !got.Equal(domain.DefaultPrice) {
		t.Errorf("BidCurvePrice(0.01, 5%%, 0) = %s, want 0.01", got)
	}
}

// The worked example: 0.01 base, first bid quotes 0.0105, second 0.011.
// Growth is anchored on the original base, not the latest quote.
func TestBidCurvePrice_WorkedExample(t *testing.T) {
	base := domain.DefaultPrice
	step := domain.DefaultBidStepPercent

	first := domain.BidCurvePrice(base, step, 1)
	if want := decimal.RequireFromString("0.0105"); !first.Equal(want) {
		t.Errorf("after 1 bid: %s, want %s", first, want)
	}

	second := domain.BidCurvePrice(base, step, 2)
	if want := decimal.RequireFromString("0.011"); !second.Equal(want) {
		t.Errorf("after 2 bids: %s, want %s", second, want)
	}
}

func TestBidCurvePrice_Deterministic(t *testing.T) {
	base := decimal.RequireFromString("0.06")
	a := domain.BidCurvePrice(base, domain.DefaultBidStepPercent, 7)
	b := domain.BidCurvePrice(base, domain.DefaultBidStepPercent, 7)
	if !a.Equal(b) {
		t.Errorf("same inputs gave %s and %s", a, b)
	}
}

func TestBidCurvePrice_RoundsToFourDecimals(t *testing.T) {
	base := decimal.RequireFromString("0.0333")
	got := domain.BidCurvePrice(base, domain.DefaultBidStepPercent, 3)
	if got.Exponent() < -4 {
		t.Errorf("price %s has more than 4 decimal places", got)
	}
}

// ── Engagement floor ──────────────────────────────────────────────────────────

func TestEngagementFloor(t *testing.T) {
	cases := []struct {
		likes int64
		want  string
	}{
		{0, "0.01"},
		{1, "0.011"},
		{50, "0.06"},
		{1000, "1.01"},
	}
	for _, tc := range cases {
		got := domain.EngagementFloor(domain.DefaultPerLikeIncrement, tc.likes)
		if !got.Equal(decimal.RequireFromString(tc.want)) {
			t.Errorf("EngagementFloor(%d) = %s, want %s", tc.likes, got, tc.want)
		}
	}
}

// ── Drift step ────────────────────────────────────────────────────────────────

func TestApplyPercent_DriftStep(t *testing.T) {
	price := decimal.NewFromInt(1)
	got := domain.ApplyPercent(price, decimal.RequireFromString("0.1"))
	if want := decimal.RequireFromString("1.001"); !got.Equal(want) {
		t.Errorf("ApplyPercent(1.0, 0.1) = %s, want %s", got, want)
	}
}

func TestApplyPercent_Compounds(t *testing.T) {
	price := decimal.NewFromInt(100)
	step := decimal.RequireFromString("0.1")
	price = domain.ApplyPercent(price, step) // 100.1
	price = domain.ApplyPercent(price, step) // 100.2001
	if want := decimal.RequireFromString("100.2001"); !price.Equal(want) {
		t.Errorf("two drift steps on 100 = %s, want %s", price, want)
	}
}

// ── Holding arithmetic ────────────────────────────────────────────────────────

func tx(postID, from string, to *string, amount string, typ domain.TxType, at time.Time) *domain.Transaction {
	return &domain.Transaction{
		ID:        uuid.New(),
		PostID:    postID,
		FromUser:  from,
		ToUser:    to,
		Amount:    decimal.RequireFromString(amount),
		Price:     domain.DefaultPrice,
		Type:      typ,
		CreatedAt: at,
	}
}

func TestHoldingAmount_SignedSum(t *testing.T) {
	now := time.Now()
	u := "wallet-u1"
	other := "wallet-u2"
	txs := []*domain.Transaction{
		tx("p1", u, nil, "2", domain.TxBuy, now),
		tx("p1", u, nil, "1", domain.TxBuy, now),
		tx("p1", u, nil, "1", domain.TxSell, now),
		tx("p1", other, &u, "3", domain.TxBuy, now), // credited as recipient
		tx("p1", other, nil, "9", domain.TxBuy, now),
	}
	got := domain.HoldingAmount(u, txs)
	if want := decimal.NewFromInt(5); !got.Equal(want) {
		t.Errorf("holding = %s, want %s (2+1−1+3)", got, want)
	}
}

func TestHoldingAmount_RewardClosesHolding(t *testing.T) {
	now := time.Now()
	u := "wallet-u1"
	txs := []*domain.Transaction{
		tx("p1", u, nil, "4", domain.TxBuy, now),
		tx("p1", u, nil, "4", domain.TxReward, now.Add(time.Hour)),
	}
	if got := domain.HoldingAmount(u, txs); !got.IsZero() {
		t.Errorf("holding after redemption = %s, want 0", got)
	}
}

func TestHoldingsByPost_GroupsAndPreservesOrder(t *testing.T) {
	now := time.Now()
	u := "wallet-u1"
	txs := []*domain.Transaction{
		tx("p2", u, nil, "1", domain.TxBuy, now),
		tx("p1", u, nil, "2", domain.TxBuy, now),
		tx("p2", u, nil, "1", domain.TxBuy, now),
	}
	holdings := domain.HoldingsByPost(u, txs)
	if len(holdings) != 2 {
		t.Fatalf("expected 2 holdings, got %d", len(holdings))
	}
	if holdings[0].PostID != "p2" || !holdings[0].Amount.Equal(decimal.NewFromInt(2)) {
		t.Errorf("first holding = %s/%s, want p2/2", holdings[0].PostID, holdings[0].Amount)
	}
	if holdings[1].PostID != "p1" || !holdings[1].Amount.Equal(decimal.NewFromInt(2)) {
		t.Errorf("second holding = %s/%s, want p1/2", holdings[1].PostID, holdings[1].Amount)
	}
}

// A sell the user never had the balance for is reported as-is, not floored —
// the log stays auditable.
func TestHoldingAmount_NegativeReportedAsIs(t *testing.T) {
	now := time.Now()
	u := "wallet-u1"
	txs := []*domain.Transaction{
		tx("p1", u, nil, "3", domain.TxSell, now),
	}
	if got := domain.HoldingAmount(u, txs); !got.Equal(decimal.NewFromInt(-3)) {
		t.Errorf("holding = %s, want -3", got)
	}
}
