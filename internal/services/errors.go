package services

import "errors"

var (
	ErrForbidden         = errors.New("forbidden")
	ErrInvalidInput      = errors.New("invalid input")
	ErrClientNotTracked  = errors.New("client is not tracked")
	ErrSessionNotFound   = errors.New("wizard session not found")
	ErrOnboardingPending = errors.New("onboarding must be completed first")
	ErrPreferencesLocked = errors.New("preference updates are not allowed for this client")
)
