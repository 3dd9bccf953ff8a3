package di

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"FinTrack/internal/domain/models"
	domsvc "FinTrack/internal/domain/service"
	internalrepo "FinTrack/internal/repository"
	"FinTrack/internal/service/feed"
	"FinTrack/internal/usecase"
	"FinTrack/pkg/cache"
	"FinTrack/pkg/config"
	applogger "FinTrack/pkg/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProvideTransactionStore(t *testing.T) {
	dir := t.TempDir()
	cases := []struct {
		typ  string
		path string
		want interface{}
	}{
		{"memory", "", &internalrepo.MemoryStore{}},
		{"json", filepath.Join(dir, "tx.json"), &internalrepo.JSONStore{}},
		{"sqlite", filepath.Join(dir, "tx.json"), &internalrepo.SQLStore{}},
	}
	for _, tc := range cases {
		t.Run(tc.typ, func(t *testing.T) {
			cfg := config.Default()
			cfg.Store.Type = tc.typ
			cfg.Store.Path = tc.path

			store, err := ProvideTransactionStore(cfg, applogger.Nop())
			require.NoError(t, err)
			defer store.Close()
			assert.IsType(t, tc.want, store)
			assert.NoError(t, store.Health(context.Background()))
		})
	}
}

func TestSQLitePath(t *testing.T) {
	assert.Equal(t, "data/transactions.db", sqlitePath("data/transactions.json"))
	assert.Equal(t, "data/fin.sqlite", sqlitePath("data/fin.sqlite"))
}

func TestProvideCache(t *testing.T) {
	cfg := config.Default()

	cfg.Cache.Type = "none"
	c, err := ProvideCache(cfg)
	require.NoError(t, err)
	assert.Nil(t, c)

	cfg.Cache.Type = "memory"
	c, err = ProvideCache(cfg)
	require.NoError(t, err)
	defer c.Close()
	assert.IsType(t, &cache.MemoryCache{}, c)
}

func TestProvideEventPublisher(t *testing.T) {
	cfg := config.Default()

	pub := ProvideEventPublisher(cfg, nil, nil, nil)
	assert.IsType(t, internalrepo.NoopPublisher{}, pub)

	hub := feed.NewHub()
	pub = ProvideEventPublisher(cfg, nil, nil, hub)
	fan, ok := pub.(internalrepo.FanoutPublisher)
	require.True(t, ok)
	assert.Len(t, fan, 1)
	assert.NoError(t, pub.Publish(context.Background(), models.TransactionEvent{Type: models.EventTransactionCreated}))
}

func TestProvideFeedHubDisabled(t *testing.T) {
	cfg := config.Default()
	cfg.Feed.Enabled = false
	assert.Nil(t, ProvideFeedHub(cfg, applogger.Nop()))
}

func TestProvideHTTPServerServesSummaries(t *testing.T) {
	cfg := config.Default()
	cfg.RateLimit.Enabled = true
	cfg.RateLimit.RPS = 1
	cfg.RateLimit.Burst = 5

	l := applogger.Nop()
	clock := domsvc.FixedClock{T: time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)}
	store := internalrepo.NewMemoryStore()
	store.Seed([]models.Transaction{
		{ID: uuid.New(), Amount: decimal.NewFromInt(40), Date: time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)},
	})
	reg := ProvideRegistry()
	m := ProvideMetrics(reg)
	summaries := ProvideSummaryUseCase(cfg, store, clock, nil, m, l)
	txs := ProvideTransactionsUseCase(store, ProvideEventPublisher(cfg, nil, nil, nil), summaries, clock, l)
	router := ProvideRouter(cfg, l, clock, summaries, txs, nil)
	srv := ProvideHTTPServer(cfg, l, router, store, reg)

	rec := httptest.NewRecorder()
	srv.Echo().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/summary/total?period=thisweek&groupBy=week", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"period":"2024-W10"`)

	rec = httptest.NewRecorder()
	srv.Echo().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "fintrack_summary_queries_total")
}

func TestProvideIngestConsumerDisabled(t *testing.T) {
	cfg := config.Default()
	c, err := ProvideIngestConsumer(cfg, &usecase.TransactionsUseCase{}, domsvc.SystemClock{}, nil, applogger.Nop(), ProvideRegistry())
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestProvideApp(t *testing.T) {
	cfg := config.Default()
	cfg.Log.Output = "stderr"
	app, err := InitializeApp(cfg)
	require.NoError(t, err)
	require.NotNil(t, app)
}
