// Package domain defines the core business entities and types for the
// Tokenizee post-token ledger: bids, the append-only transaction log, and
// the per-post price table.
package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ──────────────────────────────────────────────────────────────────────────────
// Types & constants
// ──────────────────────────────────────────────────────────────────────────────

// TxType classifies a ledger transaction.
type TxType string

const (
	// TxBuy records a bid: the user acquires tokens from the implicit pool.
	TxBuy TxType = "buy"
	// TxSell records a user selling tokens back to the pool at current price.
	TxSell TxType = "sell"
	// TxReward records a redemption: the holding is converted into a credited
	// reward at current price and removed from the user's outstanding tokens.
	TxReward TxType = "reward"
)

// IsValid returns true if the transaction type is recognised.
func (t TxType) IsValid() bool {
	return t == TxBuy || t == TxSell || t == TxReward
}

// ──────────────────────────────────────────────────────────────────────────────
// Bid
// ──────────────────────────────────────────────────────────────────────────────

// Bid is a single token purchase action on a post. Bids are immutable once
// created; the ledger only ever appends them.
type Bid struct {
	ID        uuid.UUID       `json:"id"         db:"id"`
	PostID    string          `json:"post_id"    db:"post_id"`
	UserID    string          `json:"user_id"    db:"user_id"`
	BidAmount decimal.Decimal `json:"bid_amount" db:"bid_amount"`
	PlacedAt  time.Time       `json:"placed_at"  db:"placed_at"`
}

// ──────────────────────────────────────────────────────────────────────────────
// Transaction
// ──────────────────────────────────────────────────────────────────────────────

// Transaction is one entry in the append-only audit log. Every state-changing
// ledger operation appends exactly one Transaction. A nil ToUser denotes a
// counterparty-less transfer against the implicit liquidity pool.
type Transaction struct {
	ID        uuid.UUID       `json:"id"         db:"id"`
	PostID    string          `json:"post_id"    db:"post_id"`
	FromUser  string          `json:"from_user"  db:"from_user"`
	ToUser    *string         `json:"to_user"    db:"to_user"`
	Amount    decimal.Decimal `json:"amount"     db:"amount"`
	Price     decimal.Decimal `json:"price"      db:"price"`
	Type      TxType          `json:"type"       db:"type"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
}

// Value returns the monetary value of the transaction (amount × price).
func (t *Transaction) Value() decimal.Decimal {
	return t.Amount.Mul(t.Price).Round(PriceScale)
}

// ──────────────────────────────────────────────────────────────────────────────
// PostPrice
// ──────────────────────────────────────────────────────────────────────────────

// PostPrice is the price-table row for a single post. BasePrice is the seeded
// floor the bid curve grows from; CurrentPrice is what the next buyer pays.
// Posts that were never bid on or seeded have no row and quote DefaultPrice.
type PostPrice struct {
	PostID       string          `json:"post_id"       db:"post_id"`
	BasePrice    decimal.Decimal `json:"base_price"    db:"base_price"`
	CurrentPrice decimal.Decimal `json:"current_price" db:"current_price"`
	UpdatedAt    time.Time       `json:"updated_at"    db:"updated_at"`
}

// ──────────────────────────────────────────────────────────────────────────────
// Holding — derived, never stored
// ──────────────────────────────────────────────────────────────────────────────

// Holding is a user's net token balance for one post, recomputed from the
// transaction log on every read. Amounts are reported as-is; a correct
// operation sequence never drives them negative.
type Holding struct {
	PostID string          `json:"post_id"`
	Amount decimal.Decimal `json:"amount"`
}

// NetAmount returns the signed contribution of tx to userID's holding:
//
//	+amount  buy from the user (acquisition)
//	−amount  sell or reward from the user (disposal / redemption close-out)
//	+amount  any transaction crediting the user as ToUser
//
// A transaction naming the user on both sides contributes both terms.
func NetAmount(userID string, tx *Transaction) decimal.Decimal {
	net := decimal.Zero
	if tx.FromUser == userID {
		switch tx.Type {
		case TxBuy:
			net = net.Add(tx.Amount)
		case TxSell, TxReward:
			net = net.Sub(tx.Amount)
		}
	}
	if tx.ToUser != nil && *tx.ToUser == userID {
		net = net.Add(tx.Amount)
	}
	return net
}

// HoldingAmount folds NetAmount over the transactions of a single post.
func HoldingAmount(userID string, txs []*Transaction) decimal.Decimal {
	total := decimal.Zero
	for _, tx := range txs {
		total = total.Add(NetAmount(userID, tx))
	}
	return total
}

// HoldingsByPost groups a user's transactions by post and derives one Holding
// per distinct post the user has touched, zero or negative amounts included.
// Posts appear in first-touch order.
func HoldingsByPost(userID string, txs []*Transaction) []Holding {
	amounts := make(map[string]decimal.Decimal)
	var order []string
	for _, tx := range txs {
		if _, seen := amounts[tx.PostID]; !seen {
			amounts[tx.PostID] = decimal.Zero
			order = append(order, tx.PostID)
		}
		amounts[tx.PostID] = amounts[tx.PostID].Add(NetAmount(userID, tx))
	}
	holdings := make([]Holding, 0, len(order))
	for _, postID := range order {
		holdings = append(holdings, Holding{PostID: postID, Amount: amounts[postID]})
	}
	return holdings
}

// ──────────────────────────────────────────────────────────────────────────────
// Request / response value objects
// ──────────────────────────────────────────────────────────────────────────────

// PlaceBidRequest carries the validated inputs for placing a bid.
type PlaceBidRequest struct {
	PostID string
	UserID string
	Amount decimal.Decimal
}

// BidReceipt is returned after a successful bid: the appended records plus
// the price the bid executed at and the recomputed quote.
type BidReceipt struct {
	Bid         *Bid            `json:"bid"`
	Transaction *Transaction    `json:"transaction"`
	PriceAtBid  decimal.Decimal `json:"price_at_bid"`
	NewPrice    decimal.Decimal `json:"new_price"`
}

// PortfolioEntry is the API view of one holding with its lock state and
// mark-to-market value.
type PortfolioEntry struct {
	PostID       string          `json:"post_id"`
	Amount       decimal.Decimal `json:"amount"`
	CurrentPrice decimal.Decimal `json:"current_price"`
	Value        decimal.Decimal `json:"value"`
	Locked       bool            `json:"locked"`
	UnlockAt     *time.Time      `json:"unlock_at,omitempty"`
}
