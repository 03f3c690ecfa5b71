package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"lumpiah/internal/core/apperror"
	appctx "lumpiah/internal/core/context"
	"lumpiah/internal/core/id"
	"lumpiah/internal/infrastructure/http/v1/dto"
)

// BaseHandler provides common handler utilities.
type BaseHandler struct{}

// NewBaseHandler creates a new base handler.
func NewBaseHandler() *BaseHandler {
	return &BaseHandler{}
}

// BindJSON binds and validates JSON request body.
func (h *BaseHandler) BindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		h.Error(c, apperror.NewValidation("invalid request body").WithDetail("error", err.Error()))
		return false
	}
	return true
}

// BindQuery binds and validates query parameters.
func (h *BaseHandler) BindQuery(c *gin.Context, obj any) bool {
	if err := c.ShouldBindQuery(obj); err != nil {
		h.Error(c, apperror.NewValidation("invalid query parameters").WithDetail("error", err.Error()))
		return false
	}
	return true
}

// Error registers err on the Gin context and aborts the request.
// The JSON body is produced by middleware.ErrorHandler.
func (h *BaseHandler) Error(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// ParseIntQuery parses integer query parameter with default value.
func (h *BaseHandler) ParseIntQuery(c *gin.Context, key string, defaultVal int) int {
	val := c.Query(key)
	if val == "" {
		return defaultVal
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return parsed
}

// PathID parses a UUID path parameter.
func (h *BaseHandler) PathID(c *gin.Context, param string) (id.ID, bool) {
	v, err := dto.ParseID(param, c.Param(param))
	if err != nil {
		h.Error(c, err)
		return id.ID{}, false
	}
	return v, true
}

// GetUserID extracts user ID from request context.
func (h *BaseHandler) GetUserID(c *gin.Context) string {
	return appctx.GetUserID(c.Request.Context())
}

// ResolveBranch applies the caller's branch scope to a requested branch.
// Operators bound to a branch get it by default and may not ask for another one.
// A nil result means "all branches" and is only returned when allowAll is set.
func (h *BaseHandler) ResolveBranch(c *gin.Context, requested string, allowAll bool) (*id.ID, bool) {
	branchID, err := dto.ParseOptionalID("branchId", requested)
	if err != nil {
		h.Error(c, err)
		return nil, false
	}

	user := appctx.GetUser(c.Request.Context())
	if user != nil && !user.IsAdmin && user.BranchID != "" {
		home, err := id.Parse(user.BranchID)
		if err != nil {
			h.Error(c, apperror.NewForbidden("token carries an invalid branch"))
			return nil, false
		}
		if branchID != nil && *branchID != home {
			h.Error(c, apperror.NewForbidden("branch is outside of the caller's scope").
				WithDetail("branchId", branchID.String()))
			return nil, false
		}
		return &home, true
	}

	if branchID == nil && !allowAll {
		h.Error(c, apperror.NewValidation("branchId is required"))
		return nil, false
	}
	return branchID, true
}

// OK sends 200 response with data.
func (h *BaseHandler) OK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, data)
}
