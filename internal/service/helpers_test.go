package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/curepoint/pharmacy/internal/repo"
	"github.com/curepoint/pharmacy/internal/session"
	"github.com/curepoint/pharmacy/internal/testdb"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type publishedEvent struct {
	Topic string
	Key   string
	Event map[string]any
}

type fakePublisher struct {
	mu     sync.Mutex
	events []publishedEvent
	err    error
}

func (p *fakePublisher) PublishEvent(_ context.Context, topic, key string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{Topic: topic, Key: key, Event: event.(map[string]any)})
	return p.err
}

func (p *fakePublisher) Events() []publishedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]publishedEvent(nil), p.events...)
}

type testEnv struct {
	DB      *gorm.DB
	Repo    *repo.GormRepo
	Events  *fakePublisher
	Carts   *CartService
	Orders  *OrderService
	Sales   *SalesService
	Catalog *CatalogService
	Account *AccountService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gdb := testdb.Open(t)
	r := &repo.GormRepo{DB: gdb}
	events := &fakePublisher{}
	carts := &CartService{Repo: r}

	return &testEnv{
		DB:     gdb,
		Repo:   r,
		Events: events,
		Carts:  carts,
		Orders: &OrderService{
			Repo:             r,
			Carts:            carts,
			Events:           events,
			OnlineBranchID:   1,
			OnlineEmployeeID: 153398,
		},
		Sales:   &SalesService{Repo: r, Events: events},
		Catalog: &CatalogService{Repo: r, Events: events},
		Account: &AccountService{Repo: r},
	}
}

func newSession(t *testing.T) *session.Session {
	t.Helper()
	store := session.NewStore([]byte("0123456789abcdef0123456789abcdef"), false)
	c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	sess, err := store.Get(c)
	require.NoError(t, err)
	return sess
}
