package utils

import "errors"

// Common application errors used across services.
var (
	ErrEmptyResponse    = errors.New("EMPTY_GATEWAY_RESPONSE")
	ErrOrderNotFound    = errors.New("ORDER_NOT_FOUND")
	ErrPaymentNotFound  = errors.New("PAYMENT_NOT_FOUND")
	ErrQuoteNotFound    = errors.New("QUOTE_NOT_FOUND")
	ErrOrderPersistence = errors.New("ORDER_PERSISTENCE_FAILED")
)
