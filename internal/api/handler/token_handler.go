package handler

import (
	"errors"
	"net/http"

	"github.com/Adwaitbytes/tokenizee-sub000/internal/api/middleware"
	"github.com/Adwaitbytes/tokenizee-sub000/internal/domain"
	"github.com/Adwaitbytes/tokenizee-sub000/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// TokenHandler serves price quotes, bid placement, sells, redemptions, and
// the portfolio views.
type TokenHandler struct {
	ledgerSvc *service.LedgerService
	policySvc *service.PolicyService
}

// NewTokenHandler creates a TokenHandler.
func NewTokenHandler(ledgerSvc *service.LedgerService, policySvc *service.PolicyService) *TokenHandler {
	return &TokenHandler{ledgerSvc: ledgerSvc, policySvc: policySvc}
}

// ──────────────────────────────────────────────────────────────────────────────
// Public reads
// ──────────────────────────────────────────────────────────────────────────────

// GetPrice godoc
// GET /api/posts/:id/price
func (h *TokenHandler) GetPrice(c *gin.Context) {
	postID := c.Param("id")

	price, err := h.ledgerSvc.GetCurrentPrice(c.Request.Context(), postID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "could not fetch price")
		return
	}
	next, err := h.ledgerSvc.NextBidPrice(c.Request.Context(), postID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "could not fetch price")
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{
		"post_id":        postID,
		"current_price":  price,
		"next_bid_price": next,
	})
}

// GetBids godoc
// GET /api/posts/:id/bids
func (h *TokenHandler) GetBids(c *gin.Context) {
	postID := c.Param("id")

	bids, err := h.ledgerSvc.GetBidsForPost(c.Request.Context(), postID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "could not fetch bids")
		return
	}
	respondList(c, bids, len(bids))
}

// ──────────────────────────────────────────────────────────────────────────────
// Authenticated operations
// ──────────────────────────────────────────────────────────────────────────────

// PlaceBid godoc
// POST /api/posts/:id/bids [session]
// Body: {"amount":"2"}
func (h *TokenHandler) PlaceBid(c *gin.Context) {
	wallet := middleware.GetWallet(c)
	postID := c.Param("id")

	var body struct {
		Amount string `json:"amount" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, http.StatusBadRequest, "ERR_VALIDATION", err.Error())
		return
	}

	amount, err := decimal.NewFromString(body.Amount)
	if err != nil {
		respondError(c, http.StatusBadRequest, "ERR_INVALID_AMOUNT", "amount must be a decimal string")
		return
	}

	receipt, err := h.ledgerSvc.PlaceBid(c.Request.Context(), domain.PlaceBidRequest{
		PostID: postID,
		UserID: wallet,
		Amount: amount,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidBidAmount):
			respondError(c, http.StatusBadRequest, "ERR_BID_TOO_SMALL", err.Error())
		default:
			respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "could not place bid")
		}
		return
	}
	respondSuccess(c, http.StatusCreated, receipt)
}

// SellTokens godoc
// POST /api/posts/:id/sell [session]
// Body: {"amount":"1"}
func (h *TokenHandler) SellTokens(c *gin.Context) {
	wallet := middleware.GetWallet(c)
	postID := c.Param("id")

	var body struct {
		Amount string `json:"amount" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, http.StatusBadRequest, "ERR_VALIDATION", err.Error())
		return
	}

	amount, err := decimal.NewFromString(body.Amount)
	if err != nil {
		respondError(c, http.StatusBadRequest, "ERR_INVALID_AMOUNT", "amount must be a decimal string")
		return
	}

	proceeds, err := h.ledgerSvc.SellTokens(c.Request.Context(), postID, wallet, amount)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidSellAmount):
			respondError(c, http.StatusBadRequest, "ERR_INVALID_AMOUNT", err.Error())
		case errors.Is(err, domain.ErrTokensLocked):
			respondError(c, http.StatusConflict, "ERR_TOKENS_LOCKED", err.Error())
		case errors.Is(err, domain.ErrInsufficientTokens):
			respondError(c, http.StatusConflict, "ERR_INSUFFICIENT_TOKENS", err.Error())
		default:
			respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "could not sell tokens")
		}
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{
		"post_id":  postID,
		"amount":   amount,
		"proceeds": proceeds,
	})
}

// RedeemTokens godoc
// POST /api/posts/:id/redeem [session]
//
// Converts the whole holding into a reward at current price. A locked or
// empty holding yields a zero value with a conflict code — the ledger treats
// that as a predictable outcome, not a server failure.
func (h *TokenHandler) RedeemTokens(c *gin.Context) {
	wallet := middleware.GetWallet(c)
	postID := c.Param("id")

	value, err := h.policySvc.RedeemTokens(c.Request.Context(), postID, wallet)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrTokensLocked):
			respondError(c, http.StatusConflict, "ERR_TOKENS_LOCKED", err.Error())
		case errors.Is(err, domain.ErrNothingToRedeem):
			respondError(c, http.StatusConflict, "ERR_NOTHING_TO_REDEEM", err.Error())
		default:
			respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "could not redeem tokens")
		}
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{
		"post_id": postID,
		"value":   value,
	})
}

// ──────────────────────────────────────────────────────────────────────────────
// Portfolio
// ──────────────────────────────────────────────────────────────────────────────

// GetPortfolio godoc
// GET /api/portfolio [session]
func (h *TokenHandler) GetPortfolio(c *gin.Context) {
	wallet := middleware.GetWallet(c)

	entries, err := h.policySvc.Portfolio(c.Request.Context(), wallet)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "could not fetch portfolio")
		return
	}
	respondList(c, entries, len(entries))
}

// GetTransactions godoc
// GET /api/portfolio/transactions [session]
func (h *TokenHandler) GetTransactions(c *gin.Context) {
	wallet := middleware.GetWallet(c)

	txs, err := h.ledgerSvc.GetUserTransactions(c.Request.Context(), wallet)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "could not fetch transactions")
		return
	}
	respondList(c, txs, len(txs))
}
