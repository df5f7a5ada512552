package settlement

import (
	"github.com/clinicamia/miapass/internal/settlement/repository"
	"github.com/clinicamia/miapass/internal/settlement/service"
	"go.uber.org/fx"
)

var Module = fx.Module("settlement.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
