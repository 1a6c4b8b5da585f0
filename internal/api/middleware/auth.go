package middleware

import (
	"net/http"
	"strings"

	"github.com/Adwaitbytes/tokenizee-sub000/internal/domain"
	"github.com/Adwaitbytes/tokenizee-sub000/internal/service"
	"github.com/gin-gonic/gin"
)

// CtxWallet is the gin.Context key for the authenticated wallet address.
const CtxWallet = "wallet"

// ──────────────────────────────────────────────────────────────────────────────
// SessionMiddleware
// ──────────────────────────────────────────────────────────────────────────────

// SessionMiddleware validates the Bearer session token in the Authorization
// header. On success it stores the wallet address (string) in the gin context.
// A disconnected wallet simply stops sending the token; there is no ledger-
// level account closure.
func SessionMiddleware(walletSvc *service.WalletService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": domain.ErrUnauthorized.Error(),
			})
			return
		}

		tokenString := strings.TrimPrefix(header, "Bearer ")
		wallet, err := walletSvc.ParseSessionToken(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": err.Error(),
			})
			return
		}

		c.Set(CtxWallet, wallet)
		c.Next()
	}
}

// GetWallet retrieves the authenticated wallet address from the gin context.
// Returns "" if the middleware was not applied or the value is missing.
func GetWallet(c *gin.Context) string {
	v, exists := c.Get(CtxWallet)
	if !exists {
		return ""
	}
	wallet, _ := v.(string)
	return wallet
}
