package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/youthmultiply/welcoming-college/internal/models"
	"github.com/youthmultiply/welcoming-college/pkg/config"
	appErrors "github.com/youthmultiply/welcoming-college/pkg/errors"
	"github.com/youthmultiply/welcoming-college/pkg/middleware/requestid"
)

type recordedObserver struct {
	mu    sync.Mutex
	calls []string
}

func (o *recordedObserver) ObserveBackendRequest(operation string, status int, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls = append(o.calls, fmt.Sprintf("%s:%d", operation, status))
}

func newTestClient(t *testing.T, h http.HandlerFunc) (*Client, *recordedObserver) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	obs := &recordedObserver{}
	return NewClient(config.BackendConfig{BaseURL: srv.URL, Timeout: 5 * time.Second}, nil, obs, nil), obs
}

func pageBody(page, totalPages, size int) map[string]interface{} {
	participants := make([]map[string]interface{}, size)
	for i := range participants {
		participants[i] = map[string]interface{}{"name": fmt.Sprintf("p%d-%d", page, i), "angkatan": 2020}
	}
	return map[string]interface{}{
		"data": map[string]interface{}{
			"participants": participants,
			"pagination":   map[string]interface{}{"total_pages": totalPages},
		},
	}
}

func TestListAllWalksEveryPage(t *testing.T) {
	var (
		mu    sync.Mutex
		pages []string
	)
	client, obs := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/participants", r.URL.Path)
		assert.Equal(t, "100", r.URL.Query().Get("limit"))
		assert.Equal(t, "Bearer abc", r.Header.Get("Authorization"))
		mu.Lock()
		pages = append(pages, r.URL.Query().Get("page"))
		mu.Unlock()
		sizes := map[string]int{"1": 100, "2": 100, "3": 37}
		page := r.URL.Query().Get("page")
		var n int
		fmt.Sscanf(page, "%d", &n)
		_ = json.NewEncoder(w).Encode(pageBody(n, 3, sizes[page]))
	})

	records, err := client.ListAll(context.Background(), "abc")
	require.NoError(t, err)
	assert.Len(t, records, 237)
	assert.Equal(t, []string{"1", "2", "3"}, pages)
	assert.Equal(t, "p1-0", records[0]["name"])
	assert.Equal(t, json.Number("2020"), records[0]["angkatan"])
	assert.Len(t, obs.calls, 3)
}

func TestListAllDefaultsToSinglePage(t *testing.T) {
	calls := 0
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Empty(t, r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"data":{"participants":[{"name":"A"}]}}`))
	})

	records, err := client.ListAll(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, records, 1)
	assert.Equal(t, 1, calls)
}

func TestListAllAbortsOnFailingPage(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "2" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message":"token expired"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(pageBody(1, 3, 100))
	})

	records, err := client.ListAll(context.Background(), "abc")
	require.Error(t, err)
	assert.Nil(t, records)
	assert.True(t, errors.Is(err, appErrors.ErrBackendRejected))
	appErr := appErrors.FromError(err)
	assert.Equal(t, http.StatusUnauthorized, appErr.Status)
	assert.Equal(t, "token expired", appErr.Message)
	statusErr, ok := AsStatusError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, statusErr.StatusCode)
}

func TestListPageRejectsMalformedBody(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":`))
	})

	_, err := client.ListPage(context.Background(), "", 1, 10)
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrBackendUnavailable))
	_, ok := AsStatusError(err)
	assert.False(t, ok)
}

func TestListPageAcceptsStringTotalPages(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Equal(t, "10", r.URL.Query().Get("limit"))
		_, _ = w.Write([]byte(`{"data":{"participants":[],"pagination":{"total_pages":"4"}}}`))
	})

	page, err := client.ListPage(context.Background(), "", 2, 10)
	require.NoError(t, err)
	assert.Equal(t, 4, page.TotalPages)
	assert.NotNil(t, page.Participants)
	assert.Empty(t, page.Participants)
}

func TestTransportFailureIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	client := NewClient(config.BackendConfig{BaseURL: url}, nil, nil, nil)
	_, err := client.ListAll(context.Background(), "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrBackendUnavailable))
}

func TestRegisterPostsPayload(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "req-1", r.Header.Get(requestid.Header))
		var payload map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "Budi", payload["name"])
		assert.Equal(t, "2001-02-03", payload["birth_date"])
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"message":"OK","event":{"name":"Welcoming","date":"2025-08-01","location":"Aula"}}`))
	})

	ctx := requestid.WithValue(context.Background(), "req-1")
	result, err := client.Register(ctx, models.RegistrationPayload{Name: "Budi", BirthDate: "2001-02-03"})
	require.NoError(t, err)
	assert.Equal(t, "OK", result.Message)
	require.NotNil(t, result.Event)
	assert.Equal(t, "Aula", result.Event.Location)
}

func TestRegisterRejection(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"message":"Nomor HP sudah terdaftar"}`))
	})

	_, err := client.Register(context.Background(), models.RegistrationPayload{})
	require.Error(t, err)
	statusErr, ok := AsStatusError(err)
	require.True(t, ok)
	assert.Equal(t, "Nomor HP sudah terdaftar", statusErr.Message)
	assert.Equal(t, http.StatusUnprocessableEntity, statusErr.StatusCode)
}

func TestRejectionWithoutBodyUsesBadGateway(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := client.Register(context.Background(), models.RegistrationPayload{})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, http.StatusBadGateway, appErr.Status)
	statusErr, ok := AsStatusError(err)
	require.True(t, ok)
	assert.Empty(t, statusErr.Message)
}
