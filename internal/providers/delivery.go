package providers

import "github.com/labstack/echo/v4"

type Handler interface {
	CreateProvider() echo.HandlerFunc
	ListProviders() echo.HandlerFunc
	GetProviderByID() echo.HandlerFunc
	ReplaceProvider() echo.HandlerFunc
	DeleteProvider() echo.HandlerFunc
	TestProvider() echo.HandlerFunc
	BindStage() echo.HandlerFunc
	ListBindings() echo.HandlerFunc
}
