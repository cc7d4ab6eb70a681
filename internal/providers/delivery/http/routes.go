package http

import (
	"github.com/labstack/echo/v4"

	"github.com/shortforge/short-video-pipeline/internal/providers"
)

func MapProviderRoutes(providerGroup *echo.Group, h providers.Handler) {
	providerGroup.POST("", h.CreateProvider())
	providerGroup.GET("", h.ListProviders())
	providerGroup.GET("/bindings", h.ListBindings())
	providerGroup.PUT("/bindings", h.BindStage())
	providerGroup.GET("/:provider_id", h.GetProviderByID())
	providerGroup.PUT("/:provider_id", h.ReplaceProvider())
	providerGroup.DELETE("/:provider_id", h.DeleteProvider())
	providerGroup.POST("/:provider_id/test", h.TestProvider())
}
