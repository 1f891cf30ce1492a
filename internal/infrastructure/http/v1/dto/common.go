// Package dto provides data transfer objects for the HTTP API.
// Responses reuse the JSON shape of the domain types; requests are bound
// and validated here.
package dto

import (
	"revengepos/internal/core/apperror"
	"revengepos/internal/core/entity"
	"revengepos/internal/core/id"
)

// ListResponse wraps list results with pagination.
type ListResponse struct {
	Items      any   `json:"items"`
	TotalCount int64 `json:"totalCount"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
}

// ItemsResponse wraps an unpaginated list.
type ItemsResponse struct {
	Items any `json:"items"`
}

// IDResponse for create operations.
type IDResponse struct {
	ID string `json:"id"`
}

// NewIDResponse creates ID response.
func NewIDResponse(i id.ID) IDResponse {
	return IDResponse{ID: i.String()}
}

// SuccessResponse for operations without data.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// SetLifecycleRequest moves a catalog row to another lifecycle state.
type SetLifecycleRequest struct {
	Lifecycle string `json:"lifecycle" binding:"required,lifecycle"`
}

// Value returns the parsed lifecycle.
func (r SetLifecycleRequest) Value() entity.Lifecycle {
	return entity.Lifecycle(r.Lifecycle)
}

// ParseID parses an id field of a request body.
func ParseID(field, raw string) (id.ID, error) {
	v, err := id.Parse(raw)
	if err != nil {
		return id.ID{}, apperror.NewValidation("invalid id format").WithDetail("field", field)
	}
	return v, nil
}

// ParseOptionalID parses an optional id; empty means nil.
func ParseOptionalID(field string, raw *string) (*id.ID, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	v, err := ParseID(field, *raw)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
