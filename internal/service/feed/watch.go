package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"FinTrack/internal/domain/models"

	"github.com/gorilla/websocket"
)

// Watch connects to a feed endpoint and calls fn for every event until ctx
// is cancelled, the server closes the stream, or fn returns an error.
func Watch(ctx context.Context, url string, fn func(models.TransactionEventJSON) error) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("feed dial: %w", err)
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	for {
		_, b, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("feed read: %w", err)
		}
		var ev models.TransactionEventJSON
		if err := json.Unmarshal(b, &ev); err != nil {
			// ignore frames that are not events
			continue
		}
		if err := fn(ev); err != nil {
			if errors.Is(err, ErrStop) {
				return nil
			}
			return err
		}
	}
}

// ErrStop may be returned by a Watch callback to end the stream cleanly.
var ErrStop = errors.New("stop watching")
