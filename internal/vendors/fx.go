package vendors

import (
	"github.com/clinicamia/miapass/internal/vendors/repository"
	"github.com/clinicamia/miapass/internal/vendors/service"
	"go.uber.org/fx"
)

var Module = fx.Module("vendor.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
