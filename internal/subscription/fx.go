package subscription

import (
	"github.com/clinicamia/miapass/internal/subscription/repository"
	"github.com/clinicamia/miapass/internal/subscription/service"
	"go.uber.org/fx"
)

var Module = fx.Module("subscription.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
