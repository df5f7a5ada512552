package server

import (
	"context"

	"github.com/bwmarrin/snowflake"
	subscriptiondomain "github.com/clinicamia/miapass/internal/subscription/domain"
	"github.com/gin-gonic/gin"
)

func (s *Server) CreateSubscription(c *gin.Context) {
	var req subscriptiondomain.CreateSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequestError(c)
		return
	}

	subscription, err := s.subscriptionSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondData(c, subscription)
}

func (s *Server) GetSubscription(c *gin.Context) {
	id, err := snowflake.ParseString(c.Param("id"))
	if err != nil {
		invalidIDError(c)
		return
	}

	subscription, err := s.subscriptionSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondData(c, subscription)
}

func (s *Server) ListSubscriptions(c *gin.Context) {
	var filter subscriptiondomain.ListFilter
	if raw := c.Query("status"); raw != "" {
		status := subscriptiondomain.Status(raw)
		filter.Status = &status
	}
	if raw := c.Query("vendor_id"); raw != "" {
		id, err := snowflake.ParseString(raw)
		if err != nil {
			invalidIDError(c)
			return
		}
		filter.VendorID = &id
	}
	if raw := c.Query("subscriber_id"); raw != "" {
		id, err := snowflake.ParseString(raw)
		if err != nil {
			invalidIDError(c)
			return
		}
		filter.SubscriberID = &id
	}

	subscriptions, err := s.subscriptionSvc.List(c.Request.Context(), filter)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondData(c, subscriptions)
}

type voidSubscriptionRequest struct {
	Reason string `json:"reason"`
}

func (s *Server) CancelSubscription(c *gin.Context) {
	s.voidSubscription(c, s.subscriptionSvc.Cancel)
}

func (s *Server) AnnulSubscription(c *gin.Context) {
	s.voidSubscription(c, s.subscriptionSvc.Annul)
}

func (s *Server) RefundSubscription(c *gin.Context) {
	s.voidSubscription(c, s.subscriptionSvc.Refund)
}

func (s *Server) voidSubscription(c *gin.Context, transition func(ctx context.Context, id snowflake.ID, reason string) (subscriptiondomain.Subscription, error)) {
	id, err := snowflake.ParseString(c.Param("id"))
	if err != nil {
		invalidIDError(c)
		return
	}

	var req voidSubscriptionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			invalidRequestError(c)
			return
		}
	}

	subscription, err := transition(c.Request.Context(), id, req.Reason)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondData(c, subscription)
}

// LiquidateSubscription re-runs the commission engine for a subscription,
// the out-of-band retry path for swallowed liquidation failures.
func (s *Server) LiquidateSubscription(c *gin.Context) {
	id, err := snowflake.ParseString(c.Param("id"))
	if err != nil {
		invalidIDError(c)
		return
	}

	commissions, err := s.engine.Liquidate(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondData(c, commissions)
}
