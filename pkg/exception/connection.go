package exception

import "errors"

var (
	ErrConnection      = errors.New("gateway: connection failed")
	ErrConnectionClose = errors.New("gateway: connection closed")
	ErrNotConnected    = errors.New("gateway: not connected")
)
