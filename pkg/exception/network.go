package exception

import "errors"

var (
	ErrNetwork = errors.New("network: request failed")
)
