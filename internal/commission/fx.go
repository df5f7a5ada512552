package commission

import (
	"github.com/clinicamia/miapass/internal/commission/domain"
	"github.com/clinicamia/miapass/internal/commission/repository"
	"github.com/clinicamia/miapass/internal/commission/service"
	"github.com/clinicamia/miapass/internal/config"
	"go.uber.org/fx"
)

var Module = fx.Module("commission.service",
	fx.Provide(func(cfg config.Config) (domain.Policy, error) {
		return domain.PolicyFromConfig(cfg.Commission)
	}),
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
