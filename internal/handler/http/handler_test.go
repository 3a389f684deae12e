// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package http

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/MKhiriev/delivery-sync/internal/config"
	"github.com/MKhiriev/delivery-sync/internal/logger"
	"github.com/MKhiriev/delivery-sync/internal/mock"
	"github.com/MKhiriev/delivery-sync/internal/service"
	"github.com/MKhiriev/delivery-sync/internal/utils"
	"github.com/MKhiriev/delivery-sync/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const (
	testHashKey  = "test-hash-key"
	testToken    = "valid-token"
	testActor    = "officer-7"
	testClientID = "3f1c9b9e-2a4d-4c1b-9d7e-8f6a5b4c3d2e"
)

var t0 = time.Date(2026, 3, 1, 6, 0, 0, 0, time.UTC)

type testHandler struct {
	router    http.Handler
	ingestion *mock.MockIngestionService
	auth      *mock.MockAuthService
	appInfo   *mock.MockAppInfoService
}

func newTestHandler(t *testing.T) *testHandler {
	t.Helper()
	ctrl := gomock.NewController(t)

	th := &testHandler{
		ingestion: mock.NewMockIngestionService(ctrl),
		auth:      mock.NewMockAuthService(ctrl),
		appInfo:   mock.NewMockAppInfoService(ctrl),
	}

	cfg := config.StructuredConfig{
		App: config.App{HashKey: testHashKey, MaxBatchSize: 3},
	}
	h := NewHandler(&service.Services{
		IngestionService: th.ingestion,
		AuthService:      th.auth,
		AppInfoService:   th.appInfo,
	}, cfg, logger.Nop())
	th.router = h.Init()

	th.auth.EXPECT().ParseToken(gomock.Any(), testToken).
		Return(models.Token{RegisteredClaims: jwt.RegisteredClaims{Subject: testActor}}, nil).
		AnyTimes()
	th.auth.EXPECT().ParseToken(gomock.Any(), gomock.Not(testToken)).
		Return(models.Token{}, service.ErrTokenIsExpiredOrInvalid).
		AnyTimes()

	return th
}

func (th *testHandler) do(req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	th.router.ServeHTTP(rr, req)
	return rr
}

func sampleRecord(clientID string) models.BatchRecord {
	return models.BatchRecord{
		ClientID: clientID,
		Payload: models.DeliveryPayload{
			FarmerCode:     "F-001",
			StationID:      "ST-1",
			DeliveryDate:   "2026-03-01",
			QuantityLiters: 12.5,
			QualityGrade:   models.GradeA,
			Source:         models.SourceMobile,
		},
		CapturedAt: t0,
		UpdatedAt:  t0,
	}
}

// batchRequest builds a signed batch the way the device adapter does.
func batchRequest(t *testing.T, records ...models.BatchRecord) *http.Request {
	t.Helper()
	batch := models.BatchRequest{Records: records, Length: len(records)}

	recordsJSON, err := json.Marshal(batch.Records)
	require.NoError(t, err)
	body, err := json.Marshal(batch)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/sync/batch", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+testToken)
	req.Header.Set(HashHeader, utils.NewHasher(testHashKey).SumHex(recordsJSON))
	return req
}

func errorMessage(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var body utils.ErrorBody
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body.Error
}

// ── public endpoints ─────────────────────────────────────────────────────────

func TestPing(t *testing.T) {
	th := newTestHandler(t)

	rr := th.do(httptest.NewRequest(http.MethodGet, "/api/ping", nil))

	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.NotEmpty(t, rr.Header().Get(traceIDHeader))
}

func TestGetServerVersion(t *testing.T) {
	th := newTestHandler(t)
	th.appInfo.EXPECT().GetAppVersion(gomock.Any()).Return("1.4.0")

	rr := th.do(httptest.NewRequest(http.MethodGet, "/api/version/", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	var resp models.VersionResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "1.4.0", resp.Version)
}

func TestTraceIDIsEchoed(t *testing.T) {
	th := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/ping", nil)
	req.Header.Set(traceIDHeader, "trace-123")

	assert.Equal(t, "trace-123", th.do(req).Header().Get(traceIDHeader))
}

func TestUnregisteredMethodIsNotFound(t *testing.T) {
	th := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/sync/batch", nil)
	req.Header.Set("Authorization", "Bearer "+testToken)

	assert.Equal(t, http.StatusNotFound, th.do(req).Code)
}

// ── auth ─────────────────────────────────────────────────────────────────────

func TestAuth_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{name: "missing header", header: ""},
		{name: "not a bearer token", header: "Basic dXNlcjpwYXNz"},
		{name: "bearer without token", header: "Bearer"},
		{name: "invalid token", header: "Bearer forged"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			th := newTestHandler(t)

			req := httptest.NewRequest(http.MethodGet, "/api/sync/records/"+testClientID, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := th.do(req)

			assert.Equal(t, http.StatusUnauthorized, rr.Code)
		})
	}
}

func TestAuth_TokenWithoutSubject(t *testing.T) {
	ctrl := gomock.NewController(t)
	authSvc := mock.NewMockAuthService(ctrl)
	authSvc.EXPECT().ParseToken(gomock.Any(), "anonymous").Return(models.Token{}, nil)

	h := &Handler{services: &service.Services{AuthService: authSvc}, logger: logger.Nop()}
	next := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("next handler must not run")
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer anonymous")
	rr := httptest.NewRecorder()
	h.auth(next).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestAuth_PutsActorIntoContext(t *testing.T) {
	ctrl := gomock.NewController(t)
	authSvc := mock.NewMockAuthService(ctrl)
	authSvc.EXPECT().ParseToken(gomock.Any(), testToken).
		Return(models.Token{RegisteredClaims: jwt.RegisteredClaims{Subject: testActor}}, nil)

	h := &Handler{services: &service.Services{AuthService: authSvc}, logger: logger.Nop()}

	var actorID string
	next := http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		actorID, _ = utils.GetActorIDFromContext(r.Context())
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+testToken)
	h.auth(next).ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, testActor, actorID)
}

// ── POST /api/sync/batch ─────────────────────────────────────────────────────

func TestIngestBatch_Success(t *testing.T) {
	th := newTestHandler(t)
	serverID := "0195f1a2-0000-7000-8000-000000000001"

	th.ingestion.EXPECT().IngestBatch(gomock.Any(), testActor, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, req models.BatchRequest) models.BatchResponse {
			var resp models.BatchResponse
			for _, r := range req.Records {
				resp.Add(models.Outcome{ClientID: r.ClientID, Status: models.OutcomeCreated, ServerID: &serverID})
			}
			return resp
		})

	rr := th.do(batchRequest(t, sampleRecord(testClientID)))

	require.Equal(t, http.StatusOK, rr.Code)
	var resp models.BatchResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Len(t, resp.Results, 1)
	assert.Equal(t, testClientID, resp.Results[0].ClientID)
	assert.Equal(t, models.OutcomeCreated, resp.Results[0].Status)
	assert.Equal(t, 1, resp.Created)
}

func TestIngestBatch_GzipBody(t *testing.T) {
	th := newTestHandler(t)
	th.ingestion.EXPECT().IngestBatch(gomock.Any(), testActor, gomock.Any()).
		Return(models.BatchResponse{Total: 1})

	plain := batchRequest(t, sampleRecord(testClientID))
	var compressed bytes.Buffer
	zw := gzip.NewWriter(&compressed)
	_, err := zw.Write(readAll(t, plain))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/sync/batch", &compressed)
	req.Header = plain.Header.Clone()
	req.Header.Set("Content-Encoding", "gzip")

	assert.Equal(t, http.StatusOK, th.do(req).Code)
}

func TestIngestBatch_InvalidGzip(t *testing.T) {
	th := newTestHandler(t)

	req := batchRequest(t, sampleRecord(testClientID))
	req.Header.Set("Content-Encoding", "gzip")

	assert.Equal(t, http.StatusBadRequest, th.do(req).Code)
}

func TestIngestBatch_Rejections(t *testing.T) {
	tests := []struct {
		name       string
		request    func(t *testing.T) *http.Request
		wantStatus int
	}{
		{
			name: "missing hash",
			request: func(t *testing.T) *http.Request {
				req := batchRequest(t, sampleRecord(testClientID))
				req.Header.Del(HashHeader)
				return req
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "hash of other records",
			request: func(t *testing.T) *http.Request {
				req := batchRequest(t, sampleRecord(testClientID))
				req.Header.Set(HashHeader, utils.NewHasher(testHashKey).SumHex([]byte(`[]`)))
				return req
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "hash with another key",
			request: func(t *testing.T) *http.Request {
				records, err := json.Marshal([]models.BatchRecord{sampleRecord(testClientID)})
				require.NoError(t, err)
				req := batchRequest(t, sampleRecord(testClientID))
				req.Header.Set(HashHeader, utils.NewHasher("other").SumHex(records))
				return req
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "empty batch",
			request:    func(t *testing.T) *http.Request { return batchRequest(t) },
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "batch too large",
			request: func(t *testing.T) *http.Request {
				return batchRequest(t,
					sampleRecord("00000000-0000-4000-8000-000000000001"),
					sampleRecord("00000000-0000-4000-8000-000000000002"),
					sampleRecord("00000000-0000-4000-8000-000000000003"),
					sampleRecord("00000000-0000-4000-8000-000000000004"),
				)
			},
			wantStatus: http.StatusRequestEntityTooLarge,
		},
		{
			name: "length does not match",
			request: func(t *testing.T) *http.Request {
				records := []models.BatchRecord{sampleRecord(testClientID)}
				recordsJSON, err := json.Marshal(records)
				require.NoError(t, err)
				body, err := json.Marshal(models.BatchRequest{Records: records, Length: 5})
				require.NoError(t, err)

				req := httptest.NewRequest(http.MethodPost, "/api/sync/batch", bytes.NewReader(body))
				req.Header.Set("Authorization", "Bearer "+testToken)
				req.Header.Set(HashHeader, utils.NewHasher(testHashKey).SumHex(recordsJSON))
				return req
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "not JSON",
			request: func(t *testing.T) *http.Request {
				req := httptest.NewRequest(http.MethodPost, "/api/sync/batch", strings.NewReader("{"))
				req.Header.Set("Authorization", "Bearer "+testToken)
				req.Header.Set(HashHeader, "00")
				return req
			},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// IngestBatch has no expectation: reaching it fails the test.
			th := newTestHandler(t)

			rr := th.do(tt.request(t))

			assert.Equal(t, tt.wantStatus, rr.Code)
			assert.NotEmpty(t, errorMessage(t, rr))
		})
	}
}

// ── GET /api/sync/records/{clientID} ─────────────────────────────────────────

func TestGetRecord(t *testing.T) {
	rec := models.AuthoritativeRecord{
		ServerID:  "0195f1a2-0000-7000-8000-000000000001",
		ClientID:  testClientID,
		Payload:   sampleRecord(testClientID).Payload,
		UpdatedAt: t0,
		ActorID:   testActor,
	}

	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "found", wantStatus: http.StatusOK},
		{name: "not found", err: service.ErrRecordNotFound, wantStatus: http.StatusNotFound},
		{name: "store failure", err: errors.New("connection reset"), wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			th := newTestHandler(t)
			th.ingestion.EXPECT().Lookup(gomock.Any(), testClientID).Return(rec, tt.err)

			req := httptest.NewRequest(http.MethodGet, "/api/sync/records/"+testClientID, nil)
			req.Header.Set("Authorization", "Bearer "+testToken)
			rr := th.do(req)

			require.Equal(t, tt.wantStatus, rr.Code)
			if tt.err != nil {
				return
			}
			var got models.AuthoritativeRecord
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
			assert.Equal(t, rec.ServerID, got.ServerID)
			assert.True(t, rec.UpdatedAt.Equal(got.UpdatedAt))
		})
	}
}

// ── POST /api/sync/conflicts/{clientID}/resolve ──────────────────────────────

func TestResolveConflict(t *testing.T) {
	payload := sampleRecord(testClientID).Payload
	payload.QuantityLiters = 14

	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "overridden", wantStatus: http.StatusOK},
		{name: "invalid payload", err: service.ErrInvalidDataProvided, wantStatus: http.StatusBadRequest},
		{name: "unknown record", err: service.ErrRecordNotFound, wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			th := newTestHandler(t)
			want := models.ResolveRequest{Payload: payload, UpdatedAt: t0.Add(time.Hour)}

			th.ingestion.EXPECT().ResolveConflict(gomock.Any(), testActor, testClientID, gomock.Any()).
				DoAndReturn(func(_ context.Context, _, _ string, req models.ResolveRequest) (models.AuthoritativeRecord, error) {
					assert.Equal(t, want.Payload, req.Payload)
					assert.True(t, want.UpdatedAt.Equal(req.UpdatedAt))
					if tt.err != nil {
						return models.AuthoritativeRecord{}, tt.err
					}
					return models.AuthoritativeRecord{ClientID: testClientID, Payload: req.Payload, UpdatedAt: req.UpdatedAt}, nil
				})

			body, err := json.Marshal(want)
			require.NoError(t, err)
			req := httptest.NewRequest(http.MethodPost, "/api/sync/conflicts/"+testClientID+"/resolve", bytes.NewReader(body))
			req.Header.Set("Authorization", "Bearer "+testToken)
			rr := th.do(req)

			require.Equal(t, tt.wantStatus, rr.Code)
			if tt.err != nil {
				return
			}
			var resp models.ResolveResponse
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
			assert.Equal(t, payload, resp.Record.Payload)
		})
	}
}

func TestResolveConflict_MalformedBody(t *testing.T) {
	th := newTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/sync/conflicts/"+testClientID+"/resolve", strings.NewReader("not json"))
	req.Header.Set("Authorization", "Bearer "+testToken)

	assert.Equal(t, http.StatusBadRequest, th.do(req).Code)
}

func readAll(t *testing.T, r *http.Request) []byte {
	t.Helper()
	var buf bytes.Buffer
	_, err := buf.ReadFrom(r.Body)
	require.NoError(t, err)
	return buf.Bytes()
}
