package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/shortforge/short-video-pipeline/internal/models"
	"github.com/shortforge/short-video-pipeline/internal/providers"
	"github.com/shortforge/short-video-pipeline/pkg/httpErrors"
	"github.com/shortforge/short-video-pipeline/pkg/logger"
	"github.com/shortforge/short-video-pipeline/pkg/utils"
)

type providerHandler struct {
	providerUC providers.UseCase
	logger     logger.Logger
}

func NewProviderHandler(providerUC providers.UseCase, log logger.Logger) providers.Handler {
	return &providerHandler{providerUC: providerUC, logger: log}
}

func (h *providerHandler) CreateProvider() echo.HandlerFunc {
	return func(c echo.Context) error {
		input := &models.ProviderUpsertInput{}
		if err := c.Bind(input); err != nil {
			return c.JSON(httpErrors.ErrorResponse(httpErrors.NewBadRequestError("invalid request payload")))
		}
		rec, err := h.providerUC.CreateProvider(c.Request().Context(), input)
		if err != nil {
			h.logger.Errorf("CreateProvider: %v, requestID: %s", err, utils.GetRequestID(c))
			return c.JSON(httpErrors.ErrorResponse(err))
		}
		return c.JSON(http.StatusCreated, rec)
	}
}

func (h *providerHandler) ListProviders() echo.HandlerFunc {
	return func(c echo.Context) error {
		pq, err := utils.GetPaginationFromCtx(c)
		if err != nil {
			return c.JSON(httpErrors.ErrorResponse(httpErrors.NewBadRequestError(err.Error())))
		}
		providerType := models.ProviderType(c.QueryParam("type"))
		if providerType != "" && !providerType.Valid() {
			return c.JSON(httpErrors.ErrorResponse(httpErrors.NewBadRequestError("unknown provider type")))
		}
		list, err := h.providerUC.ListProviders(c.Request().Context(), providerType, pq)
		if err != nil {
			h.logger.Errorf("ListProviders: %v, requestID: %s", err, utils.GetRequestID(c))
			return c.JSON(httpErrors.ErrorResponse(err))
		}
		return c.JSON(http.StatusOK, list)
	}
}

func (h *providerHandler) GetProviderByID() echo.HandlerFunc {
	return func(c echo.Context) error {
		rec, err := h.providerUC.GetProvider(c.Request().Context(), c.Param("provider_id"))
		if err != nil {
			return c.JSON(providerErrorResponse(err))
		}
		return c.JSON(http.StatusOK, rec)
	}
}

func (h *providerHandler) ReplaceProvider() echo.HandlerFunc {
	return func(c echo.Context) error {
		input := &models.ProviderUpsertInput{}
		if err := c.Bind(input); err != nil {
			return c.JSON(httpErrors.ErrorResponse(httpErrors.NewBadRequestError("invalid request payload")))
		}
		rec, err := h.providerUC.ReplaceProvider(c.Request().Context(), c.Param("provider_id"), input)
		if err != nil {
			h.logger.Errorf("ReplaceProvider: %v, requestID: %s", err, utils.GetRequestID(c))
			return c.JSON(providerErrorResponse(err))
		}
		return c.JSON(http.StatusOK, rec)
	}
}

func (h *providerHandler) DeleteProvider() echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := h.providerUC.DeleteProvider(c.Request().Context(), c.Param("provider_id")); err != nil {
			return c.JSON(providerErrorResponse(err))
		}
		return c.NoContent(http.StatusNoContent)
	}
}

func (h *providerHandler) TestProvider() echo.HandlerFunc {
	return func(c echo.Context) error {
		res, err := h.providerUC.TestProvider(c.Request().Context(), c.Param("provider_id"))
		if err != nil {
			return c.JSON(providerErrorResponse(err))
		}
		return c.JSON(http.StatusOK, res)
	}
}

func (h *providerHandler) BindStage() echo.HandlerFunc {
	return func(c echo.Context) error {
		binding := &models.StageBinding{}
		if err := c.Bind(binding); err != nil {
			return c.JSON(httpErrors.ErrorResponse(httpErrors.NewBadRequestError("invalid request payload")))
		}
		if err := h.providerUC.BindStage(c.Request().Context(), binding); err != nil {
			h.logger.Errorf("BindStage: %v, requestID: %s", err, utils.GetRequestID(c))
			return c.JSON(providerErrorResponse(err))
		}
		return c.JSON(http.StatusOK, binding)
	}
}

func (h *providerHandler) ListBindings() echo.HandlerFunc {
	return func(c echo.Context) error {
		bindings, err := h.providerUC.ListBindings(c.Request().Context())
		if err != nil {
			return c.JSON(httpErrors.ErrorResponse(err))
		}
		if bindings == nil {
			bindings = []*models.StageBinding{}
		}
		return c.JSON(http.StatusOK, bindings)
	}
}

func providerErrorResponse(err error) (int, interface{}) {
	if err == providers.ErrProviderNotFound {
		return httpErrors.ErrorResponse(httpErrors.NewNotFoundError(err.Error()))
	}
	return httpErrors.ErrorResponse(err)
}
