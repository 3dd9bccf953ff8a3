package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"FinTrack/internal/domain/models"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFeedServer(t *testing.T, h *Hub) (*httptest.Server, string) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = h.ServeWS(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func sampleEvent(typ string) models.TransactionEvent {
	return models.TransactionEvent{
		Type: typ,
		Transaction: models.Transaction{
			ID:     uuid.New(),
			Amount: decimal.RequireFromString("-4.20"),
			Date:   time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC),
		},
		OccurredAt: time.Date(2025, 6, 1, 9, 0, 1, 0, time.UTC),
	}
}

func TestHubBroadcastsToClients(t *testing.T) {
	h := NewHub()
	_, url := newFeedServer(t, h)

	var conns []*websocket.Conn
	for i := 0; i < 2; i++ {
		conn, _, err := websocket.DefaultDialer.Dial(url, nil)
		require.NoError(t, err)
		defer conn.Close()
		conns = append(conns, conn)
	}
	require.Eventually(t, func() bool { return h.Clients() == 2 }, 2*time.Second, 10*time.Millisecond)

	ev := sampleEvent(models.EventTransactionCreated)
	require.NoError(t, h.Publish(context.Background(), ev))

	for _, conn := range conns {
		_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var got models.TransactionEventJSON
		require.NoError(t, conn.ReadJSON(&got))
		assert.Equal(t, models.EventTransactionCreated, got.Type)
		assert.Equal(t, ev.Transaction.ID, got.Transaction.ID)
		assert.True(t, got.Transaction.Amount.Equal(ev.Transaction.Amount))
	}
}

func TestHubCloseDisconnectsAndRejects(t *testing.T) {
	h := NewHub()
	_, url := newFeedServer(t, h)

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return h.Clients() == 1 }, 2*time.Second, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.Run(ctx) }()
	cancel()
	require.NoError(t, <-done)

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err = conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)
	assert.Zero(t, h.Clients())

	_, _, err = websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		// the upgrade itself is refused, so the dial fails with a bad handshake
		t.Fatal("expected dial to a closed hub to fail")
	}
}

func TestHubDropsSlowClient(t *testing.T) {
	h := NewHub(WithSendBuffer(1))
	c := &client{send: make(chan []byte, 1)}
	require.True(t, h.register(c))

	ctx := context.Background()
	require.NoError(t, h.Publish(ctx, sampleEvent(models.EventTransactionCreated)))
	assert.Equal(t, 1, h.Clients())
	require.NoError(t, h.Publish(ctx, sampleEvent(models.EventTransactionUpdated)))
	assert.Zero(t, h.Clients())

	_, ok := <-c.send
	assert.True(t, ok, "buffered message is still delivered")
	_, ok = <-c.send
	assert.False(t, ok, "send channel is closed after the drop")
}

func TestCheckOrigin(t *testing.T) {
	h := NewHub(WithAllowedOrigins([]string{"https://app.example"}))
	r := httptest.NewRequest(http.MethodGet, "/api/feed", nil)
	r.Header.Set("Origin", "https://evil.example")
	assert.False(t, h.checkOrigin(r))
	r.Header.Set("Origin", "https://app.example")
	assert.True(t, h.checkOrigin(r))

	open := NewHub(WithAllowedOrigins([]string{"*"}))
	assert.True(t, open.checkOrigin(r))
}

func TestWatchReceivesEvents(t *testing.T) {
	h := NewHub()
	_, url := newFeedServer(t, h)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	got := make(chan models.TransactionEventJSON, 1)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, url, func(ev models.TransactionEventJSON) error {
			got <- ev
			return ErrStop
		})
	}()
	require.Eventually(t, func() bool { return h.Clients() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, h.Publish(ctx, sampleEvent(models.EventTransactionDeleted)))
	select {
	case ev := <-got:
		assert.Equal(t, models.EventTransactionDeleted, ev.Type)
	case <-ctx.Done():
		t.Fatal("no event received")
	}
	assert.NoError(t, <-done)
}
