package plan

import "errors"

// Domain errors for the plan catalog.
var (
	ErrPlanNotFound   = errors.New("plan not found")
	ErrInvalidCatalog = errors.New("invalid plan catalog")
)
