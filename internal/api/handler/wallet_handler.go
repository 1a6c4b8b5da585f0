package handler

import (
	"errors"
	"net/http"

	"github.com/Adwaitbytes/tokenizee-sub000/internal/domain"
	"github.com/Adwaitbytes/tokenizee-sub000/internal/service"
	"github.com/gin-gonic/gin"
)

// WalletHandler serves the wallet connect endpoint.
type WalletHandler struct {
	walletSvc *service.WalletService
}

// NewWalletHandler creates a WalletHandler.
func NewWalletHandler(walletSvc *service.WalletService) *WalletHandler {
	return &WalletHandler{walletSvc: walletSvc}
}

// Connect godoc
// POST /api/wallet/connect
// Body: {"address":"abc123..."}
//
// Issues a bearer session token for the wallet. Ownership is not challenged —
// this stands in for the mocked wallet-connect flow. Disconnecting is done
// client-side by dropping the token.
func (h *WalletHandler) Connect(c *gin.Context) {
	var body struct {
		Address string `json:"address" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, http.StatusBadRequest, "ERR_VALIDATION", err.Error())
		return
	}

	resp, err := h.walletSvc.Connect(body.Address)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidWalletAddress) {
			respondError(c, http.StatusBadRequest, "ERR_INVALID_ADDRESS", err.Error())
			return
		}
		respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "could not connect wallet")
		return
	}
	respondSuccess(c, http.StatusOK, resp)
}
