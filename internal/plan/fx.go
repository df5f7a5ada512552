package plan

import (
	"github.com/clinicamia/miapass/internal/plan/repository"
	"github.com/clinicamia/miapass/internal/plan/service"
	"go.uber.org/fx"
)

var Module = fx.Module("plan.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
