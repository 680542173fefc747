package exception

import "errors"

var (
	ErrConfiguration         = errors.New("config: invalid configuration")
	ErrConfigUnknownStrategy = errors.New("config: unknown strategy")
	ErrConfigUnknownWallet   = errors.New("config: unknown wallet")
)
