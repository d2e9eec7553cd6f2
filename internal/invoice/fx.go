package invoice

import (
	"github.com/smallbiznis/warehouse/internal/invoice/render"
	"github.com/smallbiznis/warehouse/internal/invoice/repository"
	"github.com/smallbiznis/warehouse/internal/invoice/service"
	"go.uber.org/fx"
)

var Module = fx.Module("invoice.service",
	fx.Provide(repository.Provide),
	fx.Provide(render.NewRenderer),
	fx.Provide(service.NewService),
	fx.Provide(service.NewDocumentRenderer),
)
