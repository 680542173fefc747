package exception

import "errors"

var (
	ErrMarketDataInvalidRequest = errors.New("market data: invalid request")
	ErrMarketDataUnknownMarket  = errors.New("market data: unknown market")
	ErrMarketDataNoSnapshot     = errors.New("market data: no snapshot yet")
)
