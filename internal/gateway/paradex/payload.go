package paradex

import (
	"strconv"

	"github.com/yanun0323/decimal"
)

type authRequest struct {
	Account string `json:"account"`
}

type authResponse struct {
	JwtToken string `json:"jwt_token"`
}

type apiError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type placeOrderRequest struct {
	Market string `json:"market"`
	Side   string `json:"side"`
	Type   string `json:"type"`
	Size   string `json:"size"`
	Price  string `json:"price"`
}

type placeOrderResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type wsRequest struct {
	Method string `json:"method"`
	Params struct {
		Channel string `json:"channel"`
	} `json:"params"`
	ID int64 `json:"id"`
}

type wsResponse struct {
	ID     int64     `json:"id"`
	Error  *apiError `json:"error"`
	Params struct {
		Channel string `json:"channel"`
	} `json:"params"`
}

type bookMessage struct {
	Params struct {
		Channel string `json:"channel"`
		Data    struct {
			Market    string               `json:"market"`
			Bids      [][2]decimal.Decimal `json:"bids"` // [0]price [1]size
			Asks      [][2]decimal.Decimal `json:"asks"`
			Timestamp int64                `json:"last_updated_at"`
		} `json:"data"`
	} `json:"params"`
}

type fillMessage struct {
	Params struct {
		Channel string `json:"channel"`
		Data    struct {
			ID        string          `json:"id"`
			Account   string          `json:"account"`
			Market    string          `json:"market"`
			OrderID   string          `json:"order_id"`
			Side      string          `json:"side"`
			Price     decimal.Decimal `json:"price"`
			Size      decimal.Decimal `json:"size"`
			CreatedAt int64           `json:"created_at"`
		} `json:"data"`
	} `json:"params"`
}

type orderMessage struct {
	Params struct {
		Channel string `json:"channel"`
		Data    struct {
			ID        string `json:"id"`
			Account   string `json:"account"`
			Market    string `json:"market"`
			Side      string `json:"side"`
			Status    string `json:"status"`
			UpdatedAt int64  `json:"last_updated_at"`
		} `json:"data"`
	} `json:"params"`
}

func toFloat(d decimal.Decimal) float64 {
	f, err := strconv.ParseFloat(d.String(), 64)
	if err != nil {
		return 0
	}
	return f
}

func formatAmount(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
