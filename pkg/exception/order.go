package exception

import "errors"

var (
	ErrOrderRateLimited  = errors.New("order: rate limited")
	ErrOrderRejected     = errors.New("order: rejected")
	ErrOrderNotFound     = errors.New("order: not found")
	ErrOrderSideOccupied = errors.New("order: side already has a working order")
	ErrOrderUnknown      = errors.New("order: unknown order id")
	ErrOrderInvalidState = errors.New("order: invalid state transition")
	ErrOrderRiskRejected = errors.New("order: denied by risk check")
)
