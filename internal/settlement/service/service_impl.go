package service

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/clinicamia/miapass/internal/clock"
	"github.com/clinicamia/miapass/internal/events"
	"github.com/clinicamia/miapass/internal/metrics"
	settlementdomain "github.com/clinicamia/miapass/internal/settlement/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	genID *snowflake.Node
	clock clock.Clock
	repo  settlementdomain.Repository
}

type ServiceParam struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  settlementdomain.Repository
}

func NewService(p ServiceParam) settlementdomain.Service {
	return &Service{
		db:  p.DB,
		log: p.Log.Named("settlement.service"),

		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) Generate(ctx context.Context, period string, preparedBy snowflake.ID) (settlementdomain.Settlement, error) {
	from, err := time.Parse("2006-01", period)
	if err != nil {
		return settlementdomain.Settlement{}, settlementdomain.ErrInvalidPeriod
	}
	to := from.AddDate(0, 1, 0)

	var settlement settlementdomain.Settlement
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		pending, err := s.repo.ListPendingInPeriod(ctx, tx, from, to)
		if err != nil {
			return err
		}
		if len(pending) == 0 {
			return settlementdomain.ErrEmptySettlement
		}

		total := decimal.Zero
		ids := make([]snowflake.ID, 0, len(pending))
		for _, c := range pending {
			total = total.Add(c.Amount)
			ids = append(ids, c.ID)
		}

		now := s.clock.Now(ctx)
		settlement = settlementdomain.Settlement{
			ID:         s.genID.Generate(),
			Period:     period,
			Total:      total,
			PreparedBy: preparedBy,
			Status:     settlementdomain.StatusClosed,
			CutAt:      now,
			CreatedAt:  now,
		}
		if err := s.repo.Insert(ctx, tx, &settlement); err != nil {
			return err
		}
		if err := s.repo.AssignSettlement(ctx, tx, ids, settlement.ID, now); err != nil {
			return err
		}
		return events.Emit(ctx, tx, s.genID.Generate(), events.EventSettlementGenerated, map[string]any{
			"settlement_id": settlement.ID.String(),
			"period":        period,
			"total":         total.String(),
			"commissions":   len(ids),
		}, now)
	})
	if err != nil {
		return settlementdomain.Settlement{}, err
	}

	metrics.SettlementsGenerated.Inc()
	s.log.Info("settlement generated",
		zap.String("period", period),
		zap.String("settlement_id", settlement.ID.String()),
		zap.String("total", settlement.Total.String()))
	return settlement, nil
}

func (s *Service) Get(ctx context.Context, id snowflake.ID) (settlementdomain.Settlement, error) {
	settlement, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return settlementdomain.Settlement{}, err
	}
	if settlement == nil {
		return settlementdomain.Settlement{}, settlementdomain.ErrSettlementNotFound
	}
	return *settlement, nil
}

func (s *Service) List(ctx context.Context) ([]settlementdomain.Settlement, error) {
	return s.repo.List(ctx, s.db)
}

func (s *Service) PayoutHistory(ctx context.Context, vendorID snowflake.ID) ([]settlementdomain.VendorPayout, error) {
	return s.repo.ListVendorPayouts(ctx, s.db, vendorID)
}
