package service

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/clinicamia/miapass/internal/clock"
	commissiondomain "github.com/clinicamia/miapass/internal/commission/domain"
	"github.com/clinicamia/miapass/internal/metrics"
	subscriptiondomain "github.com/clinicamia/miapass/internal/subscription/domain"
	vendordomain "github.com/clinicamia/miapass/internal/vendors/domain"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	vendorLockPrefix = "miapass:liquidation:vendor:"
	vendorLockTTL    = 30 * time.Second
)

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	redis *goredis.Client

	genID  *snowflake.Node
	clock  clock.Clock
	policy commissiondomain.Policy

	repo             commissiondomain.Repository
	subscriptionRepo subscriptiondomain.Repository
	vendorRepo       vendordomain.Repository
	vendorSvc        vendordomain.Service
}

type ServiceParam struct {
	fx.In

	DB     *gorm.DB
	Log    *zap.Logger
	Redis  *goredis.Client `optional:"true"`
	GenID  *snowflake.Node
	Clock  clock.Clock
	Policy commissiondomain.Policy

	Repo             commissiondomain.Repository
	SubscriptionRepo subscriptiondomain.Repository
	VendorRepo       vendordomain.Repository
	VendorSvc        vendordomain.Service
}

func NewService(p ServiceParam) commissiondomain.Engine {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("commission.service"),
		redis: p.Redis,

		genID:  p.GenID,
		clock:  p.Clock,
		policy: p.Policy,

		repo:             p.Repo,
		subscriptionRepo: p.SubscriptionRepo,
		vendorRepo:       p.VendorRepo,
		vendorSvc:        p.VendorSvc,
	}
}

func (s *Service) Liquidate(ctx context.Context, subscriptionID snowflake.ID) ([]commissiondomain.Commission, error) {
	subscription, err := s.subscriptionRepo.FindByID(ctx, s.db, subscriptionID)
	if err != nil {
		return nil, err
	}
	if subscription == nil {
		return nil, commissiondomain.ErrSubscriptionNotFound
	}
	if subscription.Status != subscriptiondomain.StatusActive {
		s.log.Info("subscription not liquidatable, skipping",
			zap.String("subscription_id", subscriptionID.String()),
			zap.String("status", string(subscription.Status)))
		return nil, nil
	}

	liquidated, err := s.repo.CountLiquidated(ctx, s.db, subscriptionID)
	if err != nil {
		return nil, err
	}
	if liquidated > 0 {
		return nil, nil
	}

	// The tier count is read-then-decide, so concurrent sales by the same
	// vendor can both land on the under-threshold rate. The per-vendor
	// lock serializes that window when redis is available.
	if subscription.VendorID != nil {
		unlock, err := s.lockVendor(ctx, *subscription.VendorID)
		if err != nil {
			return nil, err
		}
		if unlock != nil {
			defer unlock()
		}
	}

	// Upline, director and community manager are plain reads; resolve
	// them before the write transaction opens.
	var upline vendordomain.Upline
	if subscription.VendorID != nil {
		upline, err = s.vendorSvc.GetUpline(ctx, *subscription.VendorID)
		if err != nil {
			return nil, err
		}
	}
	director, err := s.vendorRepo.FindByHierarchyRole(ctx, s.db, vendordomain.RoleDirector)
	if err != nil {
		return nil, err
	}
	var manager *vendordomain.Vendor
	if subscription.Channel == s.policy.SocialChannel {
		manager, err = s.vendorRepo.FindByHierarchyRole(ctx, s.db, vendordomain.RoleCommunityManager)
		if err != nil {
			return nil, err
		}
	}

	var commissions []commissiondomain.Commission
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Recheck under the transaction so a concurrent liquidation of
		// the same subscription cannot double-pay.
		liquidated, err := s.repo.CountLiquidated(ctx, tx, subscriptionID)
		if err != nil {
			return err
		}
		if liquidated > 0 {
			commissions = nil
			return nil
		}

		commissions, err = s.compute(ctx, tx, subscription, upline, director, manager)
		if err != nil {
			return err
		}
		return s.repo.InsertBatch(ctx, tx, commissions)
	})
	if err != nil {
		return nil, err
	}

	metrics.CommissionsLiquidated.Add(float64(len(commissions)))
	s.log.Info("subscription liquidated",
		zap.String("subscription_id", subscriptionID.String()),
		zap.Int("commissions", len(commissions)))
	return commissions, nil
}

// compute builds the commission batch for an active subscription. Every
// award uses the subscription's frozen commission base, not the plan's
// current price.
func (s *Service) compute(ctx context.Context, tx *gorm.DB, subscription *subscriptiondomain.Subscription, upline vendordomain.Upline, director, manager *vendordomain.Vendor) ([]commissiondomain.Commission, error) {
	now := s.clock.Now(ctx)
	base := subscription.CommissionBase
	var commissions []commissiondomain.Commission

	award := func(vendorID snowflake.ID, role commissiondomain.Role, rate, amount decimal.Decimal) {
		commissions = append(commissions, commissiondomain.Commission{
			ID:             s.genID.Generate(),
			SubscriptionID: subscription.ID,
			VendorID:       vendorID,
			Role:           role,
			Base:           base,
			Rate:           rate,
			Amount:         amount,
			Status:         commissiondomain.StatusPending,
			CreatedAt:      now,
			UpdatedAt:      now,
		})
	}

	if subscription.VendorID != nil {
		vendorID := *subscription.VendorID

		monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		sales, err := s.repo.CountVendorMonthlySales(ctx, tx, vendorID, s.policy.ActiveStates, monthStart, now)
		if err != nil {
			return nil, err
		}
		_, rate := s.policy.TierRate(sales)
		award(vendorID, commissiondomain.RoleSeller, rate, base.Mul(rate))

		if upline.Parent != nil {
			award(upline.Parent.ID, commissiondomain.RoleReferrerL1, decimal.Zero, s.policy.ReferralL1Amount)
		}
		if upline.Grandparent != nil {
			award(upline.Grandparent.ID, commissiondomain.RoleReferrerL2, decimal.Zero, s.policy.ReferralL2Amount)
		}
	}

	// The director earns on every liquidated sale, attributed or not.
	if director != nil {
		award(director.ID, commissiondomain.RoleDirectorTotal, s.policy.DirectorTotalRate, base.Mul(s.policy.DirectorTotalRate))
	}

	if subscription.Channel == s.policy.SocialChannel {
		if director != nil {
			award(director.ID, commissiondomain.RoleDirectorSocial, s.policy.DirectorSocialRate, base.Mul(s.policy.DirectorSocialRate))
		}
		if manager != nil {
			award(manager.ID, commissiondomain.RoleCommunityManager, s.policy.CommunityManagerRate, base.Mul(s.policy.CommunityManagerRate))
		}
	}

	return commissions, nil
}

// lockVendor takes the per-vendor liquidation lock. Returns a nil unlock
// func when redis is not configured; the caller then runs unlocked.
func (s *Service) lockVendor(ctx context.Context, vendorID snowflake.ID) (func(), error) {
	if s.redis == nil {
		return nil, nil
	}

	key := vendorLockPrefix + vendorID.String()
	deadline := time.Now().Add(vendorLockTTL)
	for {
		acquired, err := s.redis.SetNX(ctx, key, "1", vendorLockTTL).Result()
		if err != nil {
			return nil, err
		}
		if acquired {
			break
		}
		if time.Now().After(deadline) {
			return nil, commissiondomain.ErrLiquidationLocked
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(50 * time.Millisecond):
		}
	}

	return func() {
		if err := s.redis.Del(context.Background(), key).Err(); err != nil {
			s.log.Warn("failed to release vendor liquidation lock",
				zap.String("key", key), zap.Error(err))
		}
	}, nil
}

func (s *Service) Reverse(ctx context.Context, db *gorm.DB, subscriptionID snowflake.ID, reason string) ([]commissiondomain.Commission, error) {
	reversible, err := s.repo.ListReversible(ctx, db, subscriptionID)
	if err != nil {
		return nil, err
	}
	if len(reversible) == 0 {
		return nil, nil
	}

	now := s.clock.Now(ctx)
	ids := make([]snowflake.ID, 0, len(reversible))
	for i := range reversible {
		ids = append(ids, reversible[i].ID)
		reversible[i].Status = commissiondomain.StatusReversed
		reversible[i].ReversalReason = reason
		reversible[i].ReversedAt = &now
		reversible[i].UpdatedAt = now
	}
	if err := s.repo.MarkReversed(ctx, db, ids, reason, now); err != nil {
		return nil, err
	}

	metrics.CommissionsReversed.Add(float64(len(reversible)))
	s.log.Info("commissions reversed",
		zap.String("subscription_id", subscriptionID.String()),
		zap.Int("count", len(reversible)),
		zap.String("reason", reason))
	return reversible, nil
}

func (s *Service) GetVendorStanding(ctx context.Context, vendorID snowflake.ID) (commissiondomain.VendorStanding, error) {
	vendor, err := s.vendorRepo.FindByID(ctx, s.db, vendorID)
	if err != nil {
		return commissiondomain.VendorStanding{}, err
	}
	if vendor == nil {
		return commissiondomain.VendorStanding{}, vendordomain.ErrVendorNotFound
	}

	now := s.clock.Now(ctx)
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	sales, err := s.repo.CountVendorMonthlySales(ctx, s.db, vendorID, s.policy.ActiveStates, monthStart, now)
	if err != nil {
		return commissiondomain.VendorStanding{}, err
	}

	network, err := s.vendorSvc.GetNetwork(ctx, vendorID)
	if err != nil {
		return commissiondomain.VendorStanding{}, err
	}

	tier, rate := s.policy.TierRate(sales)
	return commissiondomain.VendorStanding{
		VendorID:         vendorID,
		MonthToDateSales: sales,
		MonthlyThreshold: s.policy.MonthlyThreshold,
		Tier:             tier,
		CurrentRate:      rate,
		Network:          network,
	}, nil
}

// GetOverview aggregates the whole book for the back office dashboard.
func (s *Service) GetOverview(ctx context.Context) (commissiondomain.Overview, error) {
	counts, err := s.subscriptionRepo.CountByStatus(ctx, s.db)
	if err != nil {
		return commissiondomain.Overview{}, err
	}

	overview := commissiondomain.Overview{
		ActiveSubscriptions: counts[subscriptiondomain.StatusActive],
	}
	for _, n := range counts {
		overview.TotalSubscriptions += n
	}
	overview.VoidedSubscriptions = overview.TotalSubscriptions - overview.ActiveSubscriptions

	amounts, err := s.repo.ListAmounts(ctx, s.db)
	if err != nil {
		return commissiondomain.Overview{}, err
	}
	overview.TotalCommissions = int64(len(amounts))
	for _, a := range amounts {
		switch a.Status {
		case commissiondomain.StatusPending:
			overview.PendingAmount = overview.PendingAmount.Add(a.Amount)
		case commissiondomain.StatusSettled:
			overview.SettledAmount = overview.SettledAmount.Add(a.Amount)
		case commissiondomain.StatusPaid:
			overview.PaidAmount = overview.PaidAmount.Add(a.Amount)
		case commissiondomain.StatusReversed:
			overview.ReversedAmount = overview.ReversedAmount.Add(a.Amount)
		}
	}
	return overview, nil
}

func (s *Service) GetVendorCommissions(ctx context.Context, vendorID snowflake.ID) (commissiondomain.VendorCommissions, error) {
	vendor, err := s.vendorRepo.FindByID(ctx, s.db, vendorID)
	if err != nil {
		return commissiondomain.VendorCommissions{}, err
	}
	if vendor == nil {
		return commissiondomain.VendorCommissions{}, vendordomain.ErrVendorNotFound
	}

	commissions, err := s.repo.ListByVendor(ctx, s.db, vendorID)
	if err != nil {
		return commissiondomain.VendorCommissions{}, err
	}

	result := commissiondomain.VendorCommissions{
		VendorID:    vendorID,
		Commissions: commissions,
	}
	for _, c := range commissions {
		switch c.Status {
		case commissiondomain.StatusPending:
			result.TotalPending = result.TotalPending.Add(c.Amount)
		case commissiondomain.StatusSettled:
			result.TotalSettled = result.TotalSettled.Add(c.Amount)
		case commissiondomain.StatusPaid:
			result.TotalPaid = result.TotalPaid.Add(c.Amount)
		case commissiondomain.StatusReversed:
			result.TotalReversed = result.TotalReversed.Add(c.Amount)
		}
	}
	return result, nil
}
