package interview

import "errors"

var (
	ErrSessionNotFound      = errors.New("interview session not found")
	ErrSessionFinished      = errors.New("interview session already finished")
	ErrInvalidConfig        = errors.New("invalid interview configuration")
	ErrAccountInactive      = errors.New("account is not active")
	ErrGeneratorUnavailable = errors.New("interview generator unavailable")
)
