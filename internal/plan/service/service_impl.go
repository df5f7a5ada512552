package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/clinicamia/miapass/internal/clock"
	plandomain "github.com/clinicamia/miapass/internal/plan/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	genID *snowflake.Node
	clock clock.Clock
	repo  plandomain.Repository
}

type ServiceParam struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  plandomain.Repository
}

func NewService(p ServiceParam) plandomain.Service {
	return &Service{
		db:  p.DB,
		log: p.Log.Named("plan.service"),

		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req plandomain.CreatePlanRequest) (plandomain.Plan, error) {
	if strings.TrimSpace(req.Name) == "" || req.DurationMonths <= 0 || req.Price.IsNegative() {
		return plandomain.Plan{}, plandomain.ErrInvalidPlan
	}

	now := s.clock.Now(ctx)
	plan := plandomain.Plan{
		ID:             s.genID.Generate(),
		Name:           strings.TrimSpace(req.Name),
		Description:    req.Description,
		Price:          req.Price,
		DurationMonths: req.DurationMonths,
		Color:          req.Color,
		Icon:           req.Icon,
		Benefits:       req.Benefits,
		Discounts:      req.Discounts,
		Featured:       req.Featured,
		Active:         true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.repo.Insert(ctx, s.db, &plan); err != nil {
		return plandomain.Plan{}, err
	}
	return plan, nil
}

func (s *Service) Get(ctx context.Context, id snowflake.ID) (plandomain.Plan, error) {
	plan, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return plandomain.Plan{}, err
	}
	if plan == nil {
		return plandomain.Plan{}, plandomain.ErrPlanNotFound
	}
	return *plan, nil
}

func (s *Service) GetActive(ctx context.Context, id snowflake.ID) (plandomain.Plan, error) {
	plan, err := s.Get(ctx, id)
	if err != nil {
		return plandomain.Plan{}, err
	}
	if !plan.Active {
		return plandomain.Plan{}, plandomain.ErrPlanInactive
	}
	return plan, nil
}

func (s *Service) List(ctx context.Context, activeOnly *bool) ([]plandomain.Plan, error) {
	return s.repo.List(ctx, s.db, activeOnly)
}

func (s *Service) Update(ctx context.Context, id snowflake.ID, req plandomain.UpdatePlanRequest) (plandomain.Plan, error) {
	plan, err := s.Get(ctx, id)
	if err != nil {
		return plandomain.Plan{}, err
	}

	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return plandomain.Plan{}, plandomain.ErrInvalidPlan
		}
		plan.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		plan.Description = *req.Description
	}
	if req.Price != nil {
		if req.Price.IsNegative() {
			return plandomain.Plan{}, plandomain.ErrInvalidPlan
		}
		plan.Price = *req.Price
	}
	if req.DurationMonths != nil {
		if *req.DurationMonths <= 0 {
			return plandomain.Plan{}, plandomain.ErrInvalidPlan
		}
		plan.DurationMonths = *req.DurationMonths
	}
	if req.Color != nil {
		plan.Color = *req.Color
	}
	if req.Icon != nil {
		plan.Icon = *req.Icon
	}
	if req.Benefits != nil {
		plan.Benefits = req.Benefits
	}
	if req.Discounts != nil {
		plan.Discounts = req.Discounts
	}
	if req.Featured != nil {
		plan.Featured = *req.Featured
	}
	plan.UpdatedAt = s.clock.Now(ctx)

	if err := s.repo.Update(ctx, s.db, &plan); err != nil {
		return plandomain.Plan{}, err
	}
	return plan, nil
}

func (s *Service) Toggle(ctx context.Context, id snowflake.ID) (plandomain.Plan, error) {
	plan, err := s.Get(ctx, id)
	if err != nil {
		return plandomain.Plan{}, err
	}

	plan.Active = !plan.Active
	plan.UpdatedAt = s.clock.Now(ctx)

	if err := s.repo.Update(ctx, s.db, &plan); err != nil {
		return plandomain.Plan{}, err
	}
	return plan, nil
}
