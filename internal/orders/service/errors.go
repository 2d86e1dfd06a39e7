package service

import "errors"

var (
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
	ErrInvalidOutcome     = errors.New("invalid payment outcome")
	ErrOrderNotFound      = errors.New("order not found")
)
