package usage

import "errors"

// Domain errors for usage metering and the audit log.
var (
	ErrQuotaExceeded     = errors.New("quota exceeded for period")
	ErrCounterNotFound   = errors.New("usage counter not found")
	ErrInvalidAmount     = errors.New("amount must be positive")
	ErrAuditWriteFailure = errors.New("audit log write failed")
)
