// Package dto provides Data Transfer Objects for API requests/responses.
package dto

import (
	"lumpiah/internal/core/apperror"
	"lumpiah/internal/core/id"
	"lumpiah/internal/core/types"
)

// DataResponse wraps a payload.
type DataResponse[T any] struct {
	Data T `json:"data"`
}

// ErrorResponse for error details.
type ErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// ParseID parses a path or query id, naming the parameter in the validation error.
func ParseID(param, value string) (id.ID, error) {
	v, err := id.Parse(value)
	if err != nil || id.IsNil(v) {
		return id.ID{}, apperror.NewValidation(param + " must be a UUID").WithDetail(param, value)
	}
	return v, nil
}

// ParseOptionalID parses an id that may be empty.
func ParseOptionalID(param, value string) (*id.ID, error) {
	if value == "" {
		return nil, nil
	}
	v, err := ParseID(param, value)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// ParseDay parses a YYYY-MM-DD calendar day.
func ParseDay(param, value string) (types.Day, error) {
	d, err := types.ParseDay(value)
	if err != nil {
		return types.Day{}, apperror.NewValidation(param + " must be a YYYY-MM-DD date").WithDetail(param, value)
	}
	return d, nil
}
