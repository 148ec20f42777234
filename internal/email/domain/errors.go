package domain

import "errors"

var (
	// ErrProviderUnavailable covers any transport failure or non-success
	// status from the Gmail API.
	ErrProviderUnavailable = errors.New("mail provider unavailable")

	// ErrHistoryExpired is returned when the history endpoint answers 404:
	// the server pruned history older than the start cursor.
	ErrHistoryExpired = errors.New("history id expired")

	ErrAccountNotFound = errors.New("account not found")
	ErrSessionNotFound = errors.New("no active session for account")
	ErrEmailNotFound   = errors.New("email not found")
)
