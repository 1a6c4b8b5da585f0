package domain

import "github.com/shopspring/decimal"

// ──────────────────────────────────────────────────────────────────────────────
// Pricing constants
// ──────────────────────────────────────────────────────────────────────────────

// PriceScale is the decimal resolution of every price and monetary value.
const PriceScale = 4

// DefaultPrice is quoted for any post with no price-table row (0.01).
var DefaultPrice = decimal.New(1, -2)

// DefaultBidStepPercent is the per-bid growth applied on the bid curve (5 %).
var DefaultBidStepPercent = decimal.NewFromInt(5)

// DefaultPerLikeIncrement is the engagement floor contribution of one like (0.001).
var DefaultPerLikeIncrement = decimal.New(1, -3)

var one = decimal.NewFromInt(1)

var hundred = decimal.NewFromInt(100)

// ──────────────────────────────────────────────────────────────────────────────
// Pure price formation functions
// ──────────────────────────────────────────────────────────────────────────────

// BidCurvePrice quotes the post price after bidCount bids:
//
//	base × (1 + stepPercent/100 × bidCount)
//
// Growth is anchored on the seeded base price, not the latest quote, so the
// curve is linear in bid count rather than compounding per bid. Deterministic
// for a given base and count; callers may recompute it freely as a read.
func BidCurvePrice(base, stepPercent decimal.Decimal, bidCount int64) decimal.Decimal {
	growth := stepPercent.Div(hundred).Mul(decimal.NewFromInt(bidCount))
	return base.Mul(one.Add(growth)).Round(PriceScale)
}

// EngagementFloor translates a post's like count into its price floor:
//
//	0.01 + likeCount × perLike
func EngagementFloor(perLike decimal.Decimal, likeCount int64) decimal.Decimal {
	return DefaultPrice.Add(perLike.Mul(decimal.NewFromInt(likeCount))).Round(PriceScale)
}

// ApplyPercent grows price by percent (e.g. 0.1 for the drift step):
//
//	price × (1 + percent/100)
func ApplyPercent(price, percent decimal.Decimal) decimal.Decimal {
	return price.Mul(one.Add(percent.Div(hundred))).Round(PriceScale)
}
