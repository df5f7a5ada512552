package coupon

import (
	"github.com/clinicamia/miapass/internal/coupon/repository"
	"github.com/clinicamia/miapass/internal/coupon/service"
	"go.uber.org/fx"
)

var Module = fx.Module("coupon.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
