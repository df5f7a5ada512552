package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/clinicamia/miapass/internal/clock"
	coupondomain "github.com/clinicamia/miapass/internal/coupon/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	genID *snowflake.Node
	clock clock.Clock
	repo  coupondomain.Repository
}

type ServiceParam struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  coupondomain.Repository
}

func NewService(p ServiceParam) coupondomain.Service {
	return &Service{
		db:  p.DB,
		log: p.Log.Named("coupon.service"),

		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req coupondomain.CreateCouponRequest) (coupondomain.Coupon, error) {
	code := strings.TrimSpace(req.Code)
	if code == "" || req.MaxUses <= 0 || req.DiscountValue.IsNegative() || !req.EndsAt.After(req.StartsAt) {
		return coupondomain.Coupon{}, coupondomain.ErrInvalidCoupon
	}
	switch req.DiscountType {
	case coupondomain.DiscountPercentage, coupondomain.DiscountFixed:
	default:
		return coupondomain.Coupon{}, coupondomain.ErrInvalidCoupon
	}

	existing, err := s.repo.FindByCode(ctx, s.db, code)
	if err != nil {
		return coupondomain.Coupon{}, err
	}
	if existing != nil {
		return coupondomain.Coupon{}, coupondomain.ErrCouponCodeTaken
	}

	now := s.clock.Now(ctx)
	coupon := coupondomain.Coupon{
		ID:            s.genID.Generate(),
		Code:          code,
		Description:   req.Description,
		DiscountType:  req.DiscountType,
		DiscountValue: req.DiscountValue,
		StartsAt:      req.StartsAt,
		EndsAt:        req.EndsAt,
		MaxUses:       req.MaxUses,
		Active:        true,
		CreatedAt:     now,
		UpdatedAt:     now,
		PlanIDs:       req.PlanIDs,
	}

	if err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.repo.Insert(ctx, tx, &coupon)
	}); err != nil {
		if err == gorm.ErrDuplicatedKey {
			return coupondomain.Coupon{}, coupondomain.ErrCouponCodeTaken
		}
		return coupondomain.Coupon{}, err
	}
	return coupon, nil
}

func (s *Service) Get(ctx context.Context, id snowflake.ID) (coupondomain.Coupon, error) {
	coupon, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return coupondomain.Coupon{}, err
	}
	if coupon == nil {
		return coupondomain.Coupon{}, coupondomain.ErrCouponNotFound
	}
	return *coupon, nil
}

func (s *Service) List(ctx context.Context) ([]coupondomain.Coupon, error) {
	return s.repo.List(ctx, s.db)
}

func (s *Service) Update(ctx context.Context, id snowflake.ID, req coupondomain.UpdateCouponRequest) (coupondomain.Coupon, error) {
	coupon, err := s.Get(ctx, id)
	if err != nil {
		return coupondomain.Coupon{}, err
	}

	if req.Code != nil {
		code := strings.TrimSpace(*req.Code)
		if code == "" {
			return coupondomain.Coupon{}, coupondomain.ErrInvalidCoupon
		}
		if code != coupon.Code {
			existing, err := s.repo.FindByCode(ctx, s.db, code)
			if err != nil {
				return coupondomain.Coupon{}, err
			}
			if existing != nil {
				return coupondomain.Coupon{}, coupondomain.ErrCouponCodeTaken
			}
			coupon.Code = code
		}
	}
	if req.Description != nil {
		coupon.Description = *req.Description
	}
	if req.DiscountType != nil {
		switch *req.DiscountType {
		case coupondomain.DiscountPercentage, coupondomain.DiscountFixed:
			coupon.DiscountType = *req.DiscountType
		default:
			return coupondomain.Coupon{}, coupondomain.ErrInvalidCoupon
		}
	}
	if req.DiscountValue != nil {
		if req.DiscountValue.IsNegative() {
			return coupondomain.Coupon{}, coupondomain.ErrInvalidCoupon
		}
		coupon.DiscountValue = *req.DiscountValue
	}
	if req.StartsAt != nil {
		coupon.StartsAt = *req.StartsAt
	}
	if req.EndsAt != nil {
		coupon.EndsAt = *req.EndsAt
	}
	if !coupon.EndsAt.After(coupon.StartsAt) {
		return coupondomain.Coupon{}, coupondomain.ErrInvalidCoupon
	}
	if req.MaxUses != nil {
		if *req.MaxUses <= 0 {
			return coupondomain.Coupon{}, coupondomain.ErrInvalidCoupon
		}
		coupon.MaxUses = *req.MaxUses
	}
	coupon.UpdatedAt = s.clock.Now(ctx)

	if err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Update(ctx, tx, &coupon); err != nil {
			return err
		}
		if req.PlanIDs != nil {
			coupon.PlanIDs = req.PlanIDs
			return s.repo.ReplacePlans(ctx, tx, coupon.ID, req.PlanIDs)
		}
		return nil
	}); err != nil {
		return coupondomain.Coupon{}, err
	}
	return coupon, nil
}

func (s *Service) Toggle(ctx context.Context, id snowflake.ID) (coupondomain.Coupon, error) {
	coupon, err := s.Get(ctx, id)
	if err != nil {
		return coupondomain.Coupon{}, err
	}

	coupon.Active = !coupon.Active
	coupon.UpdatedAt = s.clock.Now(ctx)

	if err := s.repo.Update(ctx, s.db, &coupon); err != nil {
		return coupondomain.Coupon{}, err
	}
	return coupon, nil
}

func (s *Service) Delete(ctx context.Context, id snowflake.ID) error {
	coupon, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if coupon.Uses > 0 {
		return coupondomain.ErrCouponInUse
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.repo.Delete(ctx, tx, coupon.ID)
	})
}

func (s *Service) Validate(ctx context.Context, code string, planID snowflake.ID) (coupondomain.Coupon, error) {
	coupon, err := s.repo.FindByCode(ctx, s.db, strings.TrimSpace(code))
	if err != nil {
		return coupondomain.Coupon{}, err
	}
	if coupon == nil {
		return coupondomain.Coupon{}, coupondomain.ErrCouponNotFound
	}
	if !coupon.Active {
		return coupondomain.Coupon{}, coupondomain.ErrCouponInactive
	}

	now := s.clock.Now(ctx)
	if now.Before(coupon.StartsAt) {
		return coupondomain.Coupon{}, coupondomain.ErrCouponNotYetValid
	}
	if now.After(coupon.EndsAt) {
		return coupondomain.Coupon{}, coupondomain.ErrCouponExpired
	}
	if coupon.Uses >= coupon.MaxUses {
		return coupondomain.Coupon{}, coupondomain.ErrCouponExhausted
	}
	if !coupon.AppliesTo(planID) {
		return coupondomain.Coupon{}, coupondomain.ErrCouponNotApplicable
	}

	return *coupon, nil
}
