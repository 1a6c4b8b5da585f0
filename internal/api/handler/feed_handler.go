package handler

import (
	"errors"
	"net/http"

	"github.com/Adwaitbytes/tokenizee-sub000/internal/domain"
	"github.com/Adwaitbytes/tokenizee-sub000/internal/scheduler"
	"github.com/Adwaitbytes/tokenizee-sub000/internal/service"
	"github.com/gin-gonic/gin"
)

// FeedHandler serves the feed-side couplings: engagement (likes → price
// floor) and view lifecycle (open/close → drift timer refcount).
type FeedHandler struct {
	engagementSvc *service.EngagementService
	drift         *scheduler.Drift
}

// NewFeedHandler creates a FeedHandler.
func NewFeedHandler(engagementSvc *service.EngagementService, drift *scheduler.Drift) *FeedHandler {
	return &FeedHandler{engagementSvc: engagementSvc, drift: drift}
}

// ApplyLikes godoc
// POST /api/posts/:id/likes
// Body: {"like_count": 50}
//
// Reaction webhook from the feed: reseeds the post's price floor from its
// like count.
func (h *FeedHandler) ApplyLikes(c *gin.Context) {
	postID := c.Param("id")

	var body struct {
		LikeCount int64 `json:"like_count"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, http.StatusBadRequest, "ERR_VALIDATION", err.Error())
		return
	}
	likeCount := parseLikeCount(c, body.LikeCount)

	price, err := h.engagementSvc.ApplyLikes(c.Request.Context(), postID, likeCount)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidPrice) {
			respondError(c, http.StatusBadRequest, "ERR_INVALID_LIKE_COUNT", "like count must not be negative")
			return
		}
		respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "could not apply engagement")
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{
		"post_id": postID,
		"price":   price,
	})
}

// OpenView godoc
// POST /api/posts/:id/view
//
// Registers an open bidding view; the first view starts the post's shared
// drift timer.
func (h *FeedHandler) OpenView(c *gin.Context) {
	postID := c.Param("id")
	h.drift.Open(postID)
	respondSuccess(c, http.StatusOK, gin.H{"post_id": postID, "viewing": true})
}

// CloseView godoc
// DELETE /api/posts/:id/view
//
// Unregisters a bidding view; the timer stops when the last view closes.
func (h *FeedHandler) CloseView(c *gin.Context) {
	postID := c.Param("id")
	h.drift.Close(postID)
	respondSuccess(c, http.StatusOK, gin.H{"post_id": postID, "viewing": false})
}
