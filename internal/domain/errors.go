package domain

import "errors"

var (
	ErrMissingFields      = errors.New("all fields (vatin, firstName, lastName) are required")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrTicketLimitReached = errors.New("ticket limit per vatin reached")
	ErrTicketNotFound     = errors.New("ticket not found")
)
