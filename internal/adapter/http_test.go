// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/delivery-sync/internal/config"
	"github.com/MKhiriev/delivery-sync/internal/logger"
	"github.com/MKhiriev/delivery-sync/internal/utils"
	"github.com/MKhiriev/delivery-sync/models"
)

const (
	testHashKey = "testhashkey"
	testToken   = "device.jwt.token"
)

func newTestAdapter(t *testing.T, serverURL string) ServerAdapter {
	t.Helper()

	a, err := NewHTTPServerAdapter(
		config.ClientAdapter{HTTPAddress: serverURL, RequestTimeout: 2 * time.Second, ProbeTimeout: time.Second, Token: testToken},
		config.ClientApp{HashKey: testHashKey},
		logger.Nop(),
	)
	require.NoError(t, err)
	return a
}

func testBatch() models.BatchRequest {
	at := time.Date(2026, 3, 1, 6, 0, 0, 0, time.UTC)
	return models.NewBatchRequest([]models.SyncableRecord{{
		ClientID:   "6f1c1f1e-8d3a-4c52-9a0a-1d5b7e9c2a11",
		Payload:    models.DeliveryPayload{FarmerCode: "F-1", StationID: "S-1", DeliveryDate: "2026-03-01", QuantityLiters: 10, QualityGrade: models.GradeA, Source: models.SourceMobile},
		CapturedAt: at,
		UpdatedAt:  at,
	}})
}

// ── SubmitBatch ──

func TestSubmitBatch_Success(t *testing.T) {
	batch := testBatch()
	serverID := "0195a8b2-0000-7000-8000-000000000001"

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/sync/batch", r.URL.Path)
		assert.Equal(t, "Bearer "+testToken, r.Header.Get("Authorization"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)

		var req struct {
			Records json.RawMessage `json:"records"`
			Length  int             `json:"length"`
		}
		require.NoError(t, json.Unmarshal(body, &req))
		assert.Equal(t, 1, req.Length)
		assert.True(t, utils.NewHasher(testHashKey).Verify(req.Records, r.Header.Get(HashHeader)))

		var resp models.BatchResponse
		resp.Add(models.Outcome{ClientID: batch.Records[0].ClientID, Status: models.OutcomeCreated, ServerID: &serverID})
		_, _ = utils.WriteJSON(w, resp, http.StatusOK)
	}))
	defer srv.Close()

	got, err := newTestAdapter(t, srv.URL).SubmitBatch(context.Background(), batch)
	require.NoError(t, err)
	require.Len(t, got.Results, 1)
	assert.Equal(t, models.OutcomeCreated, got.Results[0].Status)
	assert.Equal(t, serverID, *got.Results[0].ServerID)
	assert.Equal(t, 1, got.Created)
}

func TestSubmitBatch_HTTPErrors(t *testing.T) {
	tests := []struct {
		status    int
		want      error
		retryable bool
	}{
		{http.StatusBadRequest, ErrBadRequest, false},
		{http.StatusUnauthorized, ErrUnauthorized, false},
		{http.StatusRequestEntityTooLarge, ErrPayloadTooLarge, false},
		{http.StatusTooManyRequests, ErrTooManyRequests, true},
		{http.StatusInternalServerError, ErrInternalServerError, true},
		{http.StatusServiceUnavailable, ErrServiceUnavailable, true},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "nope", tt.status)
			}))
			defer srv.Close()

			_, err := newTestAdapter(t, srv.URL).SubmitBatch(context.Background(), testBatch())
			require.ErrorIs(t, err, tt.want)
			assert.Equal(t, tt.retryable, IsRetryable(err))
		})
	}
}

func TestSubmitBatch_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := newTestAdapter(t, url).SubmitBatch(context.Background(), testBatch())
	require.ErrorIs(t, err, ErrTransport)
	assert.True(t, IsRetryable(err))
}

func TestSubmitBatch_MalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("{truncated"))
	}))
	defer srv.Close()

	_, err := newTestAdapter(t, srv.URL).SubmitBatch(context.Background(), testBatch())
	require.ErrorIs(t, err, ErrTransport)
}

// ── Records and resolution ──

func TestFetchRecord(t *testing.T) {
	want := models.AuthoritativeRecord{ServerID: "s1", ClientID: "c1", ActorID: "operator"}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/sync/records/c1":
			_, _ = utils.WriteJSON(w, want, http.StatusOK)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	a := newTestAdapter(t, srv.URL)

	got, err := a.FetchRecord(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, want.ServerID, got.ServerID)

	_, err = a.FetchRecord(context.Background(), "c2")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestResolveConflict(t *testing.T) {
	at := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/sync/conflicts/c1/resolve", r.URL.Path)

		var req models.ResolveRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, at, req.UpdatedAt)

		_, _ = utils.WriteJSON(w, models.ResolveResponse{Record: models.AuthoritativeRecord{
			ServerID: "s1", ClientID: "c1", Payload: req.Payload, UpdatedAt: req.UpdatedAt,
		}}, http.StatusOK)
	}))
	defer srv.Close()

	got, err := newTestAdapter(t, srv.URL).ResolveConflict(context.Background(), "c1", models.ResolveRequest{
		Payload:   models.DeliveryPayload{QuantityLiters: 10},
		UpdatedAt: at,
	})
	require.NoError(t, err)
	assert.Equal(t, "s1", got.ServerID)
	assert.Equal(t, 10.0, got.Payload.QuantityLiters)
}

// ── Ping ──

func TestPing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/ping", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))

	a := newTestAdapter(t, srv.URL)
	require.NoError(t, a.Ping(context.Background()))

	srv.Close()
	err := a.Ping(context.Background())
	require.True(t, errors.Is(err, ErrTransport))
}

func TestNormalizeBaseURL(t *testing.T) {
	got, err := normalizeBaseURL(" localhost:8080/ ")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080", got)

	_, err = normalizeBaseURL("")
	require.Error(t, err)
}
