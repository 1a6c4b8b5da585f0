package service

import (
	"context"
	"fmt"

	"github.com/Adwaitbytes/tokenizee-sub000/internal/config"
	"github.com/Adwaitbytes/tokenizee-sub000/internal/domain"
	"github.com/shopspring/decimal"
)

// EngagementService couples reaction counts to the price table: likes on a
// post raise its floor price. The coupling is last-writer-wins against bid
// history — a floor update reseeds the curve and a later bid recomputes from
// the new base. That ordering dependence is an accepted simplification of the
// token economy, kept as-is rather than silently replaced.
type EngagementService struct {
	ledger  *LedgerService
	perLike decimal.Decimal
}

// NewEngagementService creates an EngagementService.
func NewEngagementService(ledger *LedgerService, cfg *config.Config) *EngagementService {
	return &EngagementService{
		ledger:  ledger,
		perLike: decimal.NewFromFloat(cfg.Pricing.PerLikeIncrement),
	}
}

// ApplyLikes recomputes the engagement floor (0.01 + likes × perLike) and
// reseeds the post price when either the stored quote still equals the raw
// default or the post has any likes at all. Negative like counts are rejected.
// Returns the price now in effect for the post.
func (s *EngagementService) ApplyLikes(ctx context.Context, postID string, likeCount int64) (decimal.Decimal, error) {
	if likeCount < 0 {
		return decimal.Zero, domain.ErrInvalidPrice
	}

	current, err := s.ledger.GetCurrentPrice(ctx, postID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("engagement_service.ApplyLikes: %w", err)
	}

	if !current.Equal(domain.DefaultPrice) && likeCount == 0 {
		return current, nil
	}

	floor := domain.EngagementFloor(s.perLike, likeCount)
	if err := s.ledger.SetInitialPrice(ctx, postID, floor); err != nil {
		return decimal.Zero, fmt.Errorf("engagement_service.ApplyLikes: %w", err)
	}
	return floor, nil
}
