package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/clinicamia/miapass/internal/apperrors"
	"gorm.io/gorm"
)

var (
	ErrSubscriptionNotFound = apperrors.NotFound("subscription_not_found")
	ErrAlreadySubscribed    = apperrors.Conflict("subscriber_already_subscribed_to_plan")
	ErrTerminalState        = apperrors.InvalidState("subscription_already_terminal")
	ErrInvalidSubscription  = apperrors.Validation("invalid_subscription")
)

type ListFilter struct {
	Status       *Status
	VendorID     *snowflake.ID
	SubscriberID *snowflake.ID
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, subscription *Subscription) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Subscription, error)
	FindByIDForUpdate(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Subscription, error)

	// FindBySubscriberAndPlan returns a subscription of the subscriber to
	// the plan in one of the given states, nil when none exists.
	FindBySubscriberAndPlan(ctx context.Context, db *gorm.DB, subscriberID, planID snowflake.ID, states []string) (*Subscription, error)

	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]Subscription, error)
	CountByStatus(ctx context.Context, db *gorm.DB) (map[Status]int64, error)
	UpdateLifecycle(ctx context.Context, db *gorm.DB, subscription *Subscription) error
}

type CreateSubscriptionRequest struct {
	PlanID        snowflake.ID `json:"plan_id"`
	SubscriberID  snowflake.ID `json:"subscriber_id"`
	PaymentMethod string       `json:"payment_method"`
	CouponCode    string       `json:"coupon_code,omitempty"`
	VendorCode    string       `json:"vendor_code,omitempty"`
	Channel       string       `json:"channel,omitempty"`
}

// Service is the subscription state machine. Create is the only entry
// transition; Cancel, Annul and Refund are the terminal ones, each valid
// only from ACTIVE and each reversing the subscription's commissions
// before returning.
type Service interface {
	Create(ctx context.Context, req CreateSubscriptionRequest) (Subscription, error)
	Cancel(ctx context.Context, id snowflake.ID, reason string) (Subscription, error)
	Annul(ctx context.Context, id snowflake.ID, reason string) (Subscription, error)
	Refund(ctx context.Context, id snowflake.ID, reason string) (Subscription, error)
	Get(ctx context.Context, id snowflake.ID) (Subscription, error)
	List(ctx context.Context, filter ListFilter) ([]Subscription, error)
}
