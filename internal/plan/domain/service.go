package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/clinicamia/miapass/internal/apperrors"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	ErrPlanNotFound = apperrors.NotFound("plan_not_found")
	ErrPlanInactive = apperrors.InvalidState("plan_inactive")
	ErrInvalidPlan  = apperrors.Validation("invalid_plan")
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, plan *Plan) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Plan, error)
	List(ctx context.Context, db *gorm.DB, activeOnly *bool) ([]Plan, error)
	Update(ctx context.Context, db *gorm.DB, plan *Plan) error
}

type CreatePlanRequest struct {
	Name           string          `json:"name"`
	Description    string          `json:"description"`
	Price          decimal.Decimal `json:"price"`
	DurationMonths int             `json:"duration_months"`
	Color          string          `json:"color"`
	Icon           string          `json:"icon"`
	Benefits       datatypes.JSON  `json:"benefits"`
	Discounts      datatypes.JSON  `json:"discounts"`
	Featured       bool            `json:"featured"`
}

type UpdatePlanRequest struct {
	Name           *string          `json:"name"`
	Description    *string          `json:"description"`
	Price          *decimal.Decimal `json:"price"`
	DurationMonths *int             `json:"duration_months"`
	Color          *string          `json:"color"`
	Icon           *string          `json:"icon"`
	Benefits       datatypes.JSON   `json:"benefits"`
	Discounts      datatypes.JSON   `json:"discounts"`
	Featured       *bool            `json:"featured"`
}

type Service interface {
	Create(ctx context.Context, req CreatePlanRequest) (Plan, error)
	Get(ctx context.Context, id snowflake.ID) (Plan, error)

	// GetActive returns the plan only when it exists and is sellable.
	GetActive(ctx context.Context, id snowflake.ID) (Plan, error)

	List(ctx context.Context, activeOnly *bool) ([]Plan, error)
	Update(ctx context.Context, id snowflake.ID, req UpdatePlanRequest) (Plan, error)
	Toggle(ctx context.Context, id snowflake.ID) (Plan, error)
}
