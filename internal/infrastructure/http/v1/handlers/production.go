package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"lumpiah/internal/core/apperror"
	"lumpiah/internal/core/id"
	"lumpiah/internal/core/types"
	"lumpiah/internal/domain/production"
	"lumpiah/internal/infrastructure/export"
	"lumpiah/internal/infrastructure/http/v1/dto"
	"lumpiah/internal/infrastructure/storage/postgres"
)

// ProductionService is what the production endpoints call.
type ProductionService interface {
	EnsurePlans(ctx context.Context, branchID id.ID, day types.Day, allowFutureInit bool) ([]production.PlanView, error)
	SubmitRealization(ctx context.Context, userID string, planID id.ID, in production.RealizationInput) (*production.PlanView, error)
	GetPlan(ctx context.Context, planID id.ID) (*production.PlanView, error)
	GetCalculation(ctx context.Context, planID id.ID) (*production.PlanCalculation, error)
	GetAccuracy(ctx context.Context, branchID *id.ID, day types.Day) (*production.AccuracyReport, error)
}

// HistoryReader reads the audit trail.
type HistoryReader interface {
	GetEntityHistory(ctx context.Context, entityType string, entityID id.ID, limit int) ([]postgres.AuditEntry, error)
}

const defaultHistoryLimit = 50

// ProductionHandler serves plans, realizations and accuracy reports.
type ProductionHandler struct {
	*BaseHandler
	service ProductionService
	history HistoryReader
}

// NewProductionHandler creates a production handler. history may be nil.
func NewProductionHandler(base *BaseHandler, service ProductionService, history HistoryReader) *ProductionHandler {
	return &ProductionHandler{BaseHandler: base, service: service, history: history}
}

// GetPlans returns the plans of a branch and day, generating missing ones.
// GET /production/plans?branchId=&date=&init=
func (h *ProductionHandler) GetPlans(c *gin.Context) {
	var q dto.PlansQuery
	if !h.BindQuery(c, &q) {
		return
	}
	day, err := dto.ParseDay("date", q.Date)
	if err != nil {
		h.Error(c, err)
		return
	}
	branchID, ok := h.ResolveBranch(c, q.BranchID, false)
	if !ok {
		return
	}

	views, err := h.service.EnsurePlans(c.Request.Context(), *branchID, day, q.Init)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.PlansResponse{BranchID: branchID.String(), Date: day, Plans: views})
}

// SubmitRealization records actual production for a plan.
// PUT /production/plans/:planId/realization
func (h *ProductionHandler) SubmitRealization(c *gin.Context) {
	planID, ok := h.PathID(c, "planId")
	if !ok {
		return
	}
	var req dto.RealizationRequest
	if !h.BindJSON(c, &req) {
		return
	}
	if !h.authorizePlan(c, planID) {
		return
	}

	view, err := h.service.SubmitRealization(c.Request.Context(), h.GetUserID(c), planID, req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, view)
}

// GetPlan returns one plan.
// GET /production/plans/:planId
func (h *ProductionHandler) GetPlan(c *gin.Context) {
	planID, ok := h.PathID(c, "planId")
	if !ok {
		return
	}
	view, err := h.service.GetPlan(c.Request.Context(), planID)
	if err != nil {
		h.Error(c, err)
		return
	}
	if !h.inScope(c, view) {
		return
	}
	h.OK(c, view)
}

// GetCalculation returns the forecast breakdown behind a plan.
// GET /production/plans/:planId/calculation
func (h *ProductionHandler) GetCalculation(c *gin.Context) {
	planID, ok := h.PathID(c, "planId")
	if !ok {
		return
	}
	if !h.authorizePlan(c, planID) {
		return
	}
	calc, err := h.service.GetCalculation(c.Request.Context(), planID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, calc)
}

// GetHistory returns the realization audit trail of a plan, newest first.
// GET /production/plans/:planId/history
func (h *ProductionHandler) GetHistory(c *gin.Context) {
	if h.history == nil {
		h.Error(c, apperror.NewNotFound("history", c.Param("planId")))
		return
	}
	planID, ok := h.PathID(c, "planId")
	if !ok {
		return
	}
	var q dto.HistoryQuery
	if !h.BindQuery(c, &q) {
		return
	}
	if q.Limit == 0 {
		q.Limit = defaultHistoryLimit
	}
	if !h.authorizePlan(c, planID) {
		return
	}

	entries, err := h.history.GetEntityHistory(c.Request.Context(), postgres.EntityProductionPlan, planID, q.Limit)
	if err != nil {
		h.Error(c, err)
		return
	}
	if entries == nil {
		entries = []postgres.AuditEntry{}
	}
	h.OK(c, dto.DataResponse[[]postgres.AuditEntry]{Data: entries})
}

// GetAccuracy compares plans, production and sales for a day.
// GET /production/accuracy?branchId=&date=
func (h *ProductionHandler) GetAccuracy(c *gin.Context) {
	report, ok := h.accuracy(c)
	if !ok {
		return
	}
	h.OK(c, report)
}

// ExportAccuracy streams the accuracy report as an XLSX workbook.
// GET /production/accuracy/export?branchId=&date=
func (h *ProductionHandler) ExportAccuracy(c *gin.Context) {
	report, ok := h.accuracy(c)
	if !ok {
		return
	}

	c.Header("Content-Type", export.ContentTypeXLSX)
	c.Header("Content-Disposition", `attachment; filename="`+export.AccuracyFilename(report)+`"`)
	if err := export.WriteAccuracyXLSX(c.Writer, report); err != nil {
		h.Error(c, apperror.NewInternal(err))
	}
}

func (h *ProductionHandler) accuracy(c *gin.Context) (*production.AccuracyReport, bool) {
	var q dto.AccuracyQuery
	if !h.BindQuery(c, &q) {
		return nil, false
	}
	day, err := dto.ParseDay("date", q.Date)
	if err != nil {
		h.Error(c, err)
		return nil, false
	}
	branchID, ok := h.ResolveBranch(c, q.BranchID, true)
	if !ok {
		return nil, false
	}

	report, err := h.service.GetAccuracy(c.Request.Context(), branchID, day)
	if err != nil {
		h.Error(c, err)
		return nil, false
	}
	return report, true
}

// authorizePlan loads the plan to check it belongs to the caller's branch.
func (h *ProductionHandler) authorizePlan(c *gin.Context, planID id.ID) bool {
	view, err := h.service.GetPlan(c.Request.Context(), planID)
	if err != nil {
		h.Error(c, err)
		return false
	}
	return h.inScope(c, view)
}

func (h *ProductionHandler) inScope(c *gin.Context, view *production.PlanView) bool {
	_, ok := h.ResolveBranch(c, view.BranchID.String(), true)
	return ok
}
