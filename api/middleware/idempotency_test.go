package middleware

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

type fakeStore struct {
	data map[string]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: make(map[string]string)}
}

func (f *fakeStore) Get(_ context.Context, key string) (string, error) {
	if v, ok := f.data[key]; ok {
		return v, nil
	}
	return "", redis.Nil
}

func (f *fakeStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if _, ok := f.data[key]; ok {
		return false, nil
	}
	str, _ := value.(string)
	f.data[key] = str
	return true, nil
}

func (f *fakeStore) IdempotencyKey(scope, id string) string {
	return fmt.Sprintf("fake:%s:%s", scope, id)
}

func (f *fakeStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.data, key)
	}
	return nil
}

func TestRouteGuardSelection(t *testing.T) {
	tests := []struct {
		name    string
		method  string
		path    string
		guarded bool
	}{
		{"payments", http.MethodPost, "/api/v1/payments", true},
		{"adjustments", http.MethodPost, "/api/v1/adjustments", true},
		{"contracts", http.MethodPost, "/api/v1/contracts", true},
		{"contracts trailing slash", http.MethodPost, "/api/v1/contracts/", true},
		{"payments get", http.MethodGet, "/api/v1/payments", false},
		{"customers", http.MethodPost, "/api/v1/customers", false},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(tt.method, tt.path, nil)
		if got := routeGuarded(tt.method, requestPath(req)); got != tt.guarded {
			t.Fatalf("%s: expected guarded=%v got %v", tt.name, tt.guarded, got)
		}
	}
}

func TestIdempotencyMiddlewareRequiresHeader(t *testing.T) {
	store := newFakeStore()
	mw := Idempotency(store, 0, nil)
	handlerCalled := false
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
		w.WriteHeader(http.StatusCreated)
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments", strings.NewReader(`{"amount_toman":"4000000"}`))
	resp := httptest.NewRecorder()
	mw(handler).ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	if handlerCalled {
		t.Fatal("handler should not run without an idempotency key")
	}
}

func TestIdempotencyMiddlewareReplaysStoredResponse(t *testing.T) {
	store := newFakeStore()
	mw := Idempotency(store, 0, nil)
	var calls int
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"data":{"id":"e1"}}`))
	})

	body := `{"contract_id":"c1","amount_toman":"4000000"}`

	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments", strings.NewReader(body))
	req.Header.Set("Idempotency-Key", "pay-1")
	resp := httptest.NewRecorder()
	mw(handler).ServeHTTP(resp, req)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected first response 201 got %d", resp.Code)
	}

	replay := httptest.NewRequest(http.MethodPost, "/api/v1/payments", strings.NewReader(body))
	replay.Header.Set("Idempotency-Key", "pay-1")
	resp2 := httptest.NewRecorder()
	mw(handler).ServeHTTP(resp2, replay)

	if calls != 1 {
		t.Fatalf("handler should run once, ran %d times", calls)
	}
	if resp2.Code != http.StatusCreated {
		t.Fatalf("expected replayed 201 got %d", resp2.Code)
	}
	if resp2.Body.String() != resp.Body.String() {
		t.Fatalf("replayed body mismatch: %s vs %s", resp2.Body.String(), resp.Body.String())
	}
}

func TestIdempotencyMiddlewareRejectsKeyReuseWithNewBody(t *testing.T) {
	store := newFakeStore()
	mw := Idempotency(store, 0, nil)
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})

	first := httptest.NewRequest(http.MethodPost, "/api/v1/payments", strings.NewReader(`{"amount_toman":"4000000"}`))
	first.Header.Set("Idempotency-Key", "pay-2")
	mw(handler).ServeHTTP(httptest.NewRecorder(), first)

	second := httptest.NewRequest(http.MethodPost, "/api/v1/payments", strings.NewReader(`{"amount_toman":"9000000"}`))
	second.Header.Set("Idempotency-Key", "pay-2")
	resp := httptest.NewRecorder()
	mw(handler).ServeHTTP(resp, second)

	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", resp.Code)
	}
}

func TestIdempotencyMiddlewareIgnoresUnguardedRoutes(t *testing.T) {
	store := newFakeStore()
	mw := Idempotency(store, 0, nil)
	var calls int
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	})

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/prices/current", nil)
		mw(handler).ServeHTTP(httptest.NewRecorder(), req)
	}
	if calls != 2 {
		t.Fatalf("unguarded routes must always reach the handler, got %d calls", calls)
	}
}
