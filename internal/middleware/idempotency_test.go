package middleware

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledgerd/internal/repository"
)

type memIdempotencyRepo struct {
	records map[string]*repository.IdempotencyRecord
	getErr  error
}

func newMemIdempotencyRepo() *memIdempotencyRepo {
	return &memIdempotencyRepo{records: make(map[string]*repository.IdempotencyRecord)}
}

func (m *memIdempotencyRepo) Get(_ context.Context, key string) (*repository.IdempotencyRecord, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.records[key], nil
}

func (m *memIdempotencyRepo) Set(_ context.Context, rec *repository.IdempotencyRecord) error {
	m.records[rec.Key] = rec
	return nil
}

func idempotentHandler(t *testing.T, repo *memIdempotencyRepo, calls *int) http.Handler {
	t.Helper()
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		fmt.Fprintf(w, `{"call": %d}`, *calls)
	})
	return Idempotency(repo)(inner)
}

func TestIdempotency_FirstCallPassesThroughAndStores(t *testing.T) {
	repo := newMemIdempotencyRepo()
	calls := 0
	h := idempotentHandler(t, repo, &calls)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/transactions/deposit", strings.NewReader(`{"amount":"10.00"}`))
	req.Header.Set("Idempotency-Key", "key-1")
	rr := httptest.NewRecorder()

	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, 1, calls)
	assert.Empty(t, rr.Header().Get("X-Idempotent-Replayed"))

	stored, ok := repo.records["key-1"]
	require.True(t, ok)
	assert.Equal(t, http.StatusCreated, stored.StatusCode)
	assert.Equal(t, `{"call": 1}`, string(stored.ResponseBody))
	assert.True(t, stored.ExpiresAt.After(stored.CreatedAt))
}

func TestIdempotency_ReplaySkipsHandler(t *testing.T) {
	repo := newMemIdempotencyRepo()
	calls := 0
	h := idempotentHandler(t, repo, &calls)

	body := `{"amount":"10.00"}`
	for i := range 3 {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/transactions/deposit", strings.NewReader(body))
		req.Header.Set("Idempotency-Key", "key-1")
		rr := httptest.NewRecorder()

		h.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusCreated, rr.Code)
		assert.Equal(t, `{"call": 1}`, rr.Body.String())
		if i == 0 {
			assert.Empty(t, rr.Header().Get("X-Idempotent-Replayed"))
		} else {
			assert.Equal(t, "true", rr.Header().Get("X-Idempotent-Replayed"))
		}
	}

	assert.Equal(t, 1, calls, "handler must run exactly once per key")
}

func TestIdempotency_KeyReuseWithDifferentBody(t *testing.T) {
	repo := newMemIdempotencyRepo()
	calls := 0
	h := idempotentHandler(t, repo, &calls)

	first := httptest.NewRequest(http.MethodPost, "/api/v1/transactions/deposit", strings.NewReader(`{"amount":"10.00"}`))
	first.Header.Set("Idempotency-Key", "key-1")
	h.ServeHTTP(httptest.NewRecorder(), first)

	second := httptest.NewRequest(http.MethodPost, "/api/v1/transactions/deposit", strings.NewReader(`{"amount":"99.00"}`))
	second.Header.Set("Idempotency-Key", "key-1")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, second)

	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Contains(t, rr.Body.String(), "IDEMPOTENCY_CONFLICT")
	assert.Equal(t, 1, calls)
}

func TestIdempotency_MissingKeyRejected(t *testing.T) {
	repo := newMemIdempotencyRepo()
	calls := 0
	h := idempotentHandler(t, repo, &calls)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/transactions/deposit", strings.NewReader(`{}`))
	rr := httptest.NewRecorder()

	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "MISSING_IDEMPOTENCY_KEY")
	assert.Equal(t, 0, calls)
}

func TestIdempotency_GetPassesThrough(t *testing.T) {
	repo := newMemIdempotencyRepo()
	calls := 0
	h := idempotentHandler(t, repo, &calls)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/transactions/42", nil)
	rr := httptest.NewRecorder()

	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, 1, calls)
	assert.Empty(t, repo.records, "reads are never recorded")
}

func TestIdempotency_LookupFailure(t *testing.T) {
	repo := newMemIdempotencyRepo()
	repo.getErr = fmt.Errorf("connection refused")
	calls := 0
	h := idempotentHandler(t, repo, &calls)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/transactions/deposit", strings.NewReader(`{}`))
	req.Header.Set("Idempotency-Key", "key-1")
	rr := httptest.NewRecorder()

	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, 0, calls)
}
