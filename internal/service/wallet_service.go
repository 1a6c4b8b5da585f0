package service

import (
	"fmt"
	"regexp"
	"time"

	"github.com/Adwaitbytes/tokenizee-sub000/internal/config"
	"github.com/Adwaitbytes/tokenizee-sub000/internal/domain"
	"github.com/golang-jwt/jwt/v5"
)

// ──────────────────────────────────────────────────────────────────────────────
// Claims
// ──────────────────────────────────────────────────────────────────────────────

// SessionClaims extends jwt.RegisteredClaims with the wallet session fields.
// Subject carries the wallet address.
type SessionClaims struct {
	jwt.RegisteredClaims
	TokenType string `json:"type"` // always "session"
}

// walletAddressRe matches base64url-shaped wallet addresses. Arweave addresses
// are 43 characters, but the connect flow accepts any plausible opaque id.
var walletAddressRe = regexp.MustCompile(`^[A-Za-z0-9_-]{8,64}$`)

// ──────────────────────────────────────────────────────────────────────────────
// WalletService
// ──────────────────────────────────────────────────────────────────────────────

// WalletService is the identity collaborator: it turns a wallet address into a
// bearer session token and parses tokens back into addresses. The ledger
// treats the address as an opaque string identity; disconnecting is a
// client-side concern (drop the token) and never closes an account.
type WalletService struct {
	cfg *config.Config
}

// NewWalletService creates a WalletService.
func NewWalletService(cfg *config.Config) *WalletService {
	return &WalletService{cfg: cfg}
}

// ConnectResponse is returned on a successful wallet connect.
type ConnectResponse struct {
	Address   string    `json:"address"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Connect validates the address shape and issues a signed session token.
// There is no signature challenge: wallet ownership is assumed, matching the
// mocked connect flow this service stands in for.
func (s *WalletService) Connect(address string) (*ConnectResponse, error) {
	if !walletAddressRe.MatchString(address) {
		return nil, domain.ErrInvalidWalletAddress
	}

	now := time.Now().UTC()
	expires := now.Add(s.cfg.Session.TTL)
	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   address,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
		TokenType: "session",
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.Session.Secret))
	if err != nil {
		return nil, fmt.Errorf("wallet_service.Connect: sign: %w", err)
	}

	return &ConnectResponse{
		Address:   address,
		Token:     signed,
		ExpiresAt: expires,
	}, nil
}

// ParseSessionToken validates a bearer token and returns the wallet address it
// was issued for.
func (s *WalletService) ParseSessionToken(tokenString string) (string, error) {
	var claims SessionClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(s.cfg.Session.Secret), nil
	})
	if err != nil {
		if claims.ExpiresAt != nil && claims.ExpiresAt.Before(time.Now()) {
			return "", domain.ErrTokenExpired
		}
		return "", domain.ErrTokenInvalid
	}
	if !token.Valid || claims.TokenType != "session" || claims.Subject == "" {
		return "", domain.ErrTokenInvalid
	}
	return claims.Subject, nil
}
