package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"lumpiah/internal/core/id"
	"lumpiah/internal/core/types"
	"lumpiah/internal/domain/forecast"
	"lumpiah/internal/infrastructure/http/v1/dto"
)

// WeightConfigService reads and writes branch forecast configurations.
type WeightConfigService interface {
	GetWeightConfig(ctx context.Context, branchID id.ID) (forecast.WeightConfig, error)
	UpdateWeightConfig(ctx context.Context, cfg forecast.WeightConfig) (forecast.WeightConfig, error)
}

// SingleForecaster computes one product forecast without persisting it.
type SingleForecaster interface {
	Forecast(ctx context.Context, branchID id.ID, day types.Day, productID id.ID) (forecast.Result, error)
}

// ForecastHandler serves weight configuration and forecast previews.
type ForecastHandler struct {
	*BaseHandler
	configs    WeightConfigService
	forecaster SingleForecaster
}

// NewForecastHandler creates a forecast handler.
func NewForecastHandler(base *BaseHandler, configs WeightConfigService, forecaster SingleForecaster) *ForecastHandler {
	return &ForecastHandler{BaseHandler: base, configs: configs, forecaster: forecaster}
}

// GetConfig returns the branch configuration, or the defaults.
// GET /forecast/config/:branchId
func (h *ForecastHandler) GetConfig(c *gin.Context) {
	branchID, ok := h.pathBranch(c)
	if !ok {
		return
	}
	cfg, err := h.configs.GetWeightConfig(c.Request.Context(), branchID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, cfg)
}

// UpdateConfig replaces the branch configuration.
// PUT /forecast/config/:branchId
func (h *ForecastHandler) UpdateConfig(c *gin.Context) {
	branchID, ok := h.pathBranch(c)
	if !ok {
		return
	}
	var req dto.WeightConfigRequest
	if !h.BindJSON(c, &req) {
		return
	}

	cfg, err := h.configs.UpdateWeightConfig(c.Request.Context(), req.ToConfig(branchID))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, cfg)
}

// Preview computes a forecast for one product without storing a plan.
// GET /forecast/preview?branchId=&productId=&date=
func (h *ForecastHandler) Preview(c *gin.Context) {
	var q dto.PreviewQuery
	if !h.BindQuery(c, &q) {
		return
	}
	day, err := dto.ParseDay("date", q.Date)
	if err != nil {
		h.Error(c, err)
		return
	}
	productID, err := dto.ParseID("productId", q.ProductID)
	if err != nil {
		h.Error(c, err)
		return
	}
	branchID, ok := h.ResolveBranch(c, q.BranchID, false)
	if !ok {
		return
	}

	res, err := h.forecaster.Forecast(c.Request.Context(), *branchID, day, productID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.PreviewResponse{
		BranchID:       branchID.String(),
		ProductID:      productID.String(),
		Date:           day,
		RecommendedQty: res.Qty,
		CalculationLog: res.Log,
		Calculation:    res.Calculation,
	})
}

func (h *ForecastHandler) pathBranch(c *gin.Context) (id.ID, bool) {
	branchID, ok := h.ResolveBranch(c, c.Param("branchId"), false)
	if !ok {
		return id.ID{}, false
	}
	return *branchID, true
}
