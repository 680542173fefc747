package paradex

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"main/internal/gateway"
	"main/internal/model"
	"main/internal/model/enum"

	"github.com/yanun0323/errors"
	"github.com/yanun0323/pkg/sys"
	"github.com/yanun0323/pkg/ws"
)

var _subscribeID atomic.Int64

func (c *Client) subscribeChannel(ctx context.Context, channel string) error {
	id := _subscribeID.Add(1)
	appendIntoRegister := true
	if err := c.wss.SendAndWait(ctx, ws.Sidecar{
		Sender: func(ctx context.Context, ws *ws.WebSocket) error {
			var payload wsRequest
			payload.Method = "subscribe"
			payload.Params.Channel = channel
			payload.ID = id

			if err := ws.WriteJSON(payload); err != nil {
				return errors.Wrap(err, "write subscribe payload").With("channel", channel)
			}

			return nil
		},
		Waiter: func(ctx context.Context, m ws.Message) (bool, error) {
			resp, ok := ws.ReadMessage[wsResponse](m)
			if !ok || resp.ID != id {
				return false, nil
			}

			if resp.Error != nil {
				return false, errors.Errorf("subscribe %s, err: %s", channel, resp.Error.Message)
			}
			return true, nil
		},
	}, appendIntoRegister); err != nil {
		return errors.Wrap(err, "send and wait")
	}

	return nil
}

// SubscribeBook streams order book snapshots for one market. The handler runs
// on the feed goroutine and must not block.
func (c *Client) SubscribeBook(ctx context.Context, market string, handler func(model.Book)) (func(), error) {
	channel := fmt.Sprintf("order_book.%s.snapshot@15@100ms", market)
	if err := c.subscribeChannel(ctx, channel); err != nil {
		return nil, err
	}

	ch, cancel := c.wss.Subscribe()

	go func() {
		defer cancel()
		for {
			select {
			case <-sys.Shutdown():
				return
			case <-ctx.Done():
				return
			case m, ok := <-ch:
				if !ok {
					return
				}

				resp, ok := ws.ReadMessage[bookMessage](m)
				if !ok || resp.Params.Channel != channel {
					continue
				}

				handler(toBook(resp))
			}
		}
	}()

	return cancel, nil
}

// ObserveExec streams fills and terminal order updates for every
// authenticated wallet through one handler.
func (c *Client) ObserveExec(ctx context.Context, handler func(gateway.ExecEvent)) (func(), error) {
	c.mu.RLock()
	accounts := make([]string, 0, len(c.sessions))
	for _, sess := range c.sessions {
		accounts = append(accounts, sess.account)
	}
	c.mu.RUnlock()

	for _, account := range accounts {
		if err := c.subscribeChannel(ctx, "fills."+account); err != nil {
			return nil, err
		}
		if err := c.subscribeChannel(ctx, "orders."+account); err != nil {
			return nil, err
		}
	}

	ch, cancel := c.wss.Subscribe()

	go func() {
		defer cancel()
		for {
			select {
			case <-sys.Shutdown():
				return
			case <-ctx.Done():
				return
			case m, ok := <-ch:
				if !ok {
					return
				}

				if event, ok := c.parseExec(m); ok {
					handler(event)
				}
			}
		}
	}()

	return cancel, nil
}

func (c *Client) parseExec(m ws.Message) (gateway.ExecEvent, bool) {
	if resp, ok := ws.ReadMessage[fillMessage](m); ok &&
		strings.HasPrefix(resp.Params.Channel, "fills.") {
		data := resp.Params.Data
		return gateway.ExecEvent{
			Type:    enum.ExecTypeFill,
			Wallet:  c.walletOf(data.Account),
			Market:  data.Market,
			OrderID: data.OrderID,
			FillID:  data.ID,
			Side:    parseSide(data.Side),
			Price:   toFloat(data.Price),
			Size:    toFloat(data.Size),
			At:      time.UnixMilli(data.CreatedAt),
		}, true
	}

	if resp, ok := ws.ReadMessage[orderMessage](m); ok &&
		strings.HasPrefix(resp.Params.Channel, "orders.") {
		data := resp.Params.Data
		execType, terminal := parseOrderStatus(data.Status)
		if !terminal {
			return gateway.ExecEvent{}, false
		}
		return gateway.ExecEvent{
			Type:    execType,
			Wallet:  c.walletOf(data.Account),
			Market:  data.Market,
			OrderID: data.ID,
			Side:    parseSide(data.Side),
			At:      time.UnixMilli(data.UpdatedAt),
		}, true
	}

	return gateway.ExecEvent{}, false
}

func toBook(msg bookMessage) model.Book {
	data := msg.Params.Data
	book := model.Book{
		Market:    data.Market,
		Bids:      make([]model.Level, 0, len(data.Bids)),
		Asks:      make([]model.Level, 0, len(data.Asks)),
		UpdatedAt: time.UnixMilli(data.Timestamp),
	}
	for _, level := range data.Bids {
		book.Bids = append(book.Bids, model.Level{Price: toFloat(level[0]), Size: toFloat(level[1])})
	}
	for _, level := range data.Asks {
		book.Asks = append(book.Asks, model.Level{Price: toFloat(level[0]), Size: toFloat(level[1])})
	}
	return book
}

func parseSide(s string) enum.OrderSide {
	if strings.EqualFold(s, "SELL") {
		return enum.OrderSideSell
	}
	return enum.OrderSideBuy
}

// parseOrderStatus maps a venue order status onto a terminal exec type.
// Working statuses report false; fills arrive on their own channel.
func parseOrderStatus(status string) (enum.ExecType, bool) {
	switch strings.ToUpper(status) {
	case "CANCELED", "CANCELLED":
		return enum.ExecTypeCancel, true
	case "REJECTED":
		return enum.ExecTypeReject, true
	default:
		return enum.ExecType(0), false
	}
}
