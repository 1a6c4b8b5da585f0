// Package ws holds WebSocket message types and the Hub implementation.
// messages.go defines all message structs pushed to connected feed clients so
// open bidding views can re-render on ledger state changes.
package ws

import (
	"time"

	"github.com/shopspring/decimal"
)

// MsgType identifies the kind of WS message so clients can switch on it.
type MsgType string

const (
	MsgTypePriceUpdate    MsgType = "price_update"
	MsgTypeBidPlaced      MsgType = "bid_placed"
	MsgTypeTokensRedeemed MsgType = "tokens_redeemed"
	MsgTypeError          MsgType = "error"
)

// PriceUpdateMessage carries a post's new quote after a drift tick or any
// other price write.
type PriceUpdateMessage struct {
	Type      MsgType         `json:"type"`
	PostID    string          `json:"post_id"`
	Price     decimal.Decimal `json:"price"`
	Timestamp time.Time       `json:"timestamp"`
}

// BidPlacedMessage notifies all clients that a bid moved the quote up the
// curve, so portfolio values and quoted prices refresh everywhere.
type BidPlacedMessage struct {
	Type      MsgType         `json:"type"`
	PostID    string          `json:"post_id"`
	UserID    string          `json:"user_id"`
	Amount    decimal.Decimal `json:"amount"`
	NewPrice  decimal.Decimal `json:"new_price"`
	Timestamp time.Time       `json:"timestamp"`
}

// TokensRedeemedMessage announces a settled redemption.
type TokensRedeemedMessage struct {
	Type      MsgType         `json:"type"`
	PostID    string          `json:"post_id"`
	UserID    string          `json:"user_id"`
	Amount    decimal.Decimal `json:"amount"`
	Value     decimal.Decimal `json:"value"`
	Timestamp time.Time       `json:"timestamp"`
}

// ErrorMessage is sent to a single client on a per-connection failure.
type ErrorMessage struct {
	Type    MsgType `json:"type"`
	Code    string  `json:"code"`
	Message string  `json:"message"`
}
