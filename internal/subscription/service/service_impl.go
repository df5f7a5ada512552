package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/clinicamia/miapass/internal/clock"
	commissiondomain "github.com/clinicamia/miapass/internal/commission/domain"
	coupondomain "github.com/clinicamia/miapass/internal/coupon/domain"
	"github.com/clinicamia/miapass/internal/events"
	"github.com/clinicamia/miapass/internal/metrics"
	plandomain "github.com/clinicamia/miapass/internal/plan/domain"
	subscriptiondomain "github.com/clinicamia/miapass/internal/subscription/domain"
	vendordomain "github.com/clinicamia/miapass/internal/vendors/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	genID  *snowflake.Node
	clock  clock.Clock
	repo   subscriptiondomain.Repository
	policy commissiondomain.Policy

	planSvc    plandomain.Service
	couponSvc  coupondomain.Service
	couponRepo coupondomain.Repository
	vendorRepo vendordomain.Repository
	engine     commissiondomain.Engine
}

type ServiceParam struct {
	fx.In

	DB     *gorm.DB
	Log    *zap.Logger
	GenID  *snowflake.Node
	Clock  clock.Clock
	Repo   subscriptiondomain.Repository
	Policy commissiondomain.Policy

	PlanSvc    plandomain.Service
	CouponSvc  coupondomain.Service
	CouponRepo coupondomain.Repository
	VendorRepo vendordomain.Repository
	Engine     commissiondomain.Engine
}

func NewService(p ServiceParam) subscriptiondomain.Service {
	return &Service{
		db:  p.DB,
		log: p.Log.Named("subscription.service"),

		genID:  p.GenID,
		clock:  p.Clock,
		repo:   p.Repo,
		policy: p.Policy,

		planSvc:    p.PlanSvc,
		couponSvc:  p.CouponSvc,
		couponRepo: p.CouponRepo,
		vendorRepo: p.VendorRepo,
		engine:     p.Engine,
	}
}

func (s *Service) Create(ctx context.Context, req subscriptiondomain.CreateSubscriptionRequest) (subscriptiondomain.Subscription, error) {
	if req.PlanID == 0 || req.SubscriberID == 0 {
		return subscriptiondomain.Subscription{}, subscriptiondomain.ErrInvalidSubscription
	}

	plan, err := s.planSvc.GetActive(ctx, req.PlanID)
	if err != nil {
		return subscriptiondomain.Subscription{}, err
	}

	existing, err := s.repo.FindBySubscriberAndPlan(ctx, s.db, req.SubscriberID, req.PlanID, s.policy.ActiveStates)
	if err != nil {
		return subscriptiondomain.Subscription{}, err
	}
	if existing != nil {
		return subscriptiondomain.Subscription{}, subscriptiondomain.ErrAlreadySubscribed
	}

	// Vendor resolution is best-effort: an unknown code still sells, it
	// just earns nobody a commission.
	var vendorID *snowflake.ID
	vendorCode := strings.TrimSpace(req.VendorCode)
	if vendorCode != "" {
		vendor, err := s.vendorRepo.FindByReferralCode(ctx, s.db, vendorCode)
		if err != nil {
			s.log.Warn("vendor lookup failed, selling without attribution",
				zap.String("vendor_code", vendorCode), zap.Error(err))
		} else if vendor != nil {
			vendorID = &vendor.ID
		}
	}

	finalPrice := plan.Price
	var coupon *coupondomain.Coupon
	if code := strings.TrimSpace(req.CouponCode); code != "" {
		validated, err := s.couponSvc.Validate(ctx, code, plan.ID)
		if err != nil {
			return subscriptiondomain.Subscription{}, err
		}
		coupon = &validated
		finalPrice = validated.Apply(finalPrice)
	}

	now := s.clock.Now(ctx)
	channel := strings.TrimSpace(req.Channel)
	if channel == "" {
		channel = subscriptiondomain.ChannelInPerson
	}

	subscription := subscriptiondomain.Subscription{
		ID:             s.genID.Generate(),
		PlanID:         plan.ID,
		SubscriberID:   req.SubscriberID,
		VendorID:       vendorID,
		VendorCode:     vendorCode,
		Channel:        channel,
		PaymentMethod:  req.PaymentMethod,
		StartAt:        now,
		EndAt:          now.AddDate(0, plan.DurationMonths, 0),
		Status:         subscriptiondomain.StatusActive,
		AmountPaid:     finalPrice,
		CommissionBase: s.policy.CommissionBase,
		CommissionVAT:  s.policy.CommissionVAT,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if coupon != nil {
			consumed, err := s.couponRepo.IncrementUsage(ctx, tx, coupon.ID)
			if err != nil {
				return err
			}
			if !consumed {
				// Lost the race for the last remaining use.
				return coupondomain.ErrCouponExhausted
			}
		}
		if err := s.repo.Insert(ctx, tx, &subscription); err != nil {
			return err
		}
		return events.Emit(ctx, tx, s.genID.Generate(), events.EventSubscriptionCreated, map[string]any{
			"subscription_id": subscription.ID.String(),
			"plan_id":         plan.ID.String(),
			"subscriber_id":   req.SubscriberID.String(),
			"channel":         channel,
			"amount_paid":     finalPrice.String(),
		}, now)
	}); err != nil {
		if err == gorm.ErrDuplicatedKey {
			return subscriptiondomain.Subscription{}, subscriptiondomain.ErrAlreadySubscribed
		}
		return subscriptiondomain.Subscription{}, err
	}

	metrics.SubscriptionsCreated.Inc()

	// Commission failures never fail the sale. Liquidate is idempotent and
	// can be rerun out of band.
	if _, err := s.engine.Liquidate(ctx, subscription.ID); err != nil {
		s.log.Error("commission liquidation failed, sale stands",
			zap.String("subscription_id", subscription.ID.String()),
			zap.Error(err))
	}

	return subscription, nil
}

func (s *Service) Cancel(ctx context.Context, id snowflake.ID, reason string) (subscriptiondomain.Subscription, error) {
	if reason == "" {
		reason = "subscription cancelled"
	}
	return s.void(ctx, id, subscriptiondomain.StatusCancelled, reason, events.EventSubscriptionCancelled)
}

func (s *Service) Annul(ctx context.Context, id snowflake.ID, reason string) (subscriptiondomain.Subscription, error) {
	if reason == "" {
		reason = "subscription annulled"
	}
	return s.void(ctx, id, subscriptiondomain.StatusAnnulled, reason, events.EventSubscriptionAnnulled)
}

func (s *Service) Refund(ctx context.Context, id snowflake.ID, reason string) (subscriptiondomain.Subscription, error) {
	if reason == "" {
		reason = "payment refunded"
	}
	return s.void(ctx, id, subscriptiondomain.StatusRefunded, reason, events.EventSubscriptionRefunded)
}

// void applies a terminal transition. The state change and the commission
// reversal share one transaction, so a reversal failure rolls the transition
// back and the subscription is never left terminal with live commissions.
func (s *Service) void(ctx context.Context, id snowflake.ID, target subscriptiondomain.Status, reason, eventType string) (subscriptiondomain.Subscription, error) {
	var subscription subscriptiondomain.Subscription

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		found, err := s.repo.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if found == nil {
			return subscriptiondomain.ErrSubscriptionNotFound
		}
		if !found.Status.CanTransitionTo(target) {
			return subscriptiondomain.ErrTerminalState
		}

		now := s.clock.Now(ctx)
		found.Status = target
		found.VoidReason = reason
		found.VoidedAt = &now
		found.UpdatedAt = now

		if err := s.repo.UpdateLifecycle(ctx, tx, found); err != nil {
			return err
		}
		if _, err := s.engine.Reverse(ctx, tx, found.ID, reason); err != nil {
			return err
		}
		if err := events.Emit(ctx, tx, s.genID.Generate(), eventType, map[string]any{
			"subscription_id": found.ID.String(),
			"reason":          reason,
		}, now); err != nil {
			return err
		}

		subscription = *found
		return nil
	})
	if err != nil {
		return subscriptiondomain.Subscription{}, err
	}

	metrics.SubscriptionsVoided.WithLabelValues(string(target)).Inc()
	return subscription, nil
}

func (s *Service) Get(ctx context.Context, id snowflake.ID) (subscriptiondomain.Subscription, error) {
	subscription, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return subscriptiondomain.Subscription{}, err
	}
	if subscription == nil {
		return subscriptiondomain.Subscription{}, subscriptiondomain.ErrSubscriptionNotFound
	}
	return *subscription, nil
}

func (s *Service) List(ctx context.Context, filter subscriptiondomain.ListFilter) ([]subscriptiondomain.Subscription, error) {
	return s.repo.List(ctx, s.db, filter)
}
