// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/MKhiriev/delivery-sync/internal/config"
	"github.com/MKhiriev/delivery-sync/internal/logger"
	"github.com/MKhiriev/delivery-sync/internal/utils"
	"github.com/MKhiriev/delivery-sync/models"
)

// HashHeader carries the hex HMAC-SHA256 of the serialized batch records.
const HashHeader = "HashSHA256"

type httpServerAdapter struct {
	client *utils.HTTPClient
	probe  *utils.HTTPClient
	hasher *utils.Hasher
	token  string

	logger *logger.Logger
}

// NewHTTPServerAdapter constructs the HTTP implementation of [ServerAdapter].
// Ping uses its own client bounded by adapterCfg.ProbeTimeout, every other
// call is bounded by adapterCfg.RequestTimeout.
func NewHTTPServerAdapter(adapterCfg config.ClientAdapter, appCfg config.ClientApp, logger *logger.Logger) (ServerAdapter, error) {
	baseURL, err := normalizeBaseURL(adapterCfg.HTTPAddress)
	if err != nil {
		return nil, fmt.Errorf("invalid adapter http address: %w", err)
	}

	probeTimeout := adapterCfg.ProbeTimeout
	if probeTimeout <= 0 {
		probeTimeout = adapterCfg.RequestTimeout
	}

	return &httpServerAdapter{
		client: utils.NewHTTPClient(baseURL, adapterCfg.RequestTimeout),
		probe:  utils.NewHTTPClient(baseURL, probeTimeout),
		hasher: utils.NewHasher(appCfg.HashKey),
		token:  strings.TrimSpace(adapterCfg.Token),
		logger: logger,
	}, nil
}

func normalizeBaseURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty address")
	}

	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("address must include host and scheme")
	}

	return strings.TrimRight(u.String(), "/"), nil
}

// SubmitBatch POSTs to /api/sync/batch. The response must carry exactly one
// result per submitted record; matching results to records is left to the
// caller.
func (h *httpServerAdapter) SubmitBatch(ctx context.Context, req models.BatchRequest) (models.BatchResponse, error) {
	req.Length = len(req.Records)

	records, err := json.Marshal(req.Records)
	if err != nil {
		return models.BatchResponse{}, fmt.Errorf("encode batch records: %w", err)
	}

	resp, err := h.authedRequest(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader(HashHeader, h.hasher.SumHex(records)).
		SetBody(req).
		Post("/api/sync/batch")
	if err != nil {
		h.logger.Warn().Err(err).Str("func", "httpServerAdapter.SubmitBatch").Int("records", req.Length).Msg("batch was not delivered")
		return models.BatchResponse{}, fmt.Errorf("%w: submit batch: %w", ErrTransport, err)
	}
	if err = mapHTTPError(resp); err != nil {
		return models.BatchResponse{}, err
	}

	var br models.BatchResponse
	if err = json.Unmarshal(resp.Body(), &br); err != nil {
		return models.BatchResponse{}, fmt.Errorf("%w: decode batch response: %w", ErrTransport, err)
	}

	return br, nil
}

func (h *httpServerAdapter) FetchRecord(ctx context.Context, clientID string) (models.AuthoritativeRecord, error) {
	resp, err := h.authedRequest(ctx).
		SetPathParam("clientID", clientID).
		Get("/api/sync/records/{clientID}")
	if err != nil {
		return models.AuthoritativeRecord{}, fmt.Errorf("%w: fetch record: %w", ErrTransport, err)
	}
	if err = mapHTTPError(resp); err != nil {
		return models.AuthoritativeRecord{}, err
	}

	var rec models.AuthoritativeRecord
	if err = json.Unmarshal(resp.Body(), &rec); err != nil {
		return models.AuthoritativeRecord{}, fmt.Errorf("decode record: %w", err)
	}

	return rec, nil
}

func (h *httpServerAdapter) ResolveConflict(ctx context.Context, clientID string, req models.ResolveRequest) (models.AuthoritativeRecord, error) {
	resp, err := h.authedRequest(ctx).
		SetHeader("Content-Type", "application/json").
		SetPathParam("clientID", clientID).
		SetBody(req).
		Post("/api/sync/conflicts/{clientID}/resolve")
	if err != nil {
		return models.AuthoritativeRecord{}, fmt.Errorf("%w: resolve conflict: %w", ErrTransport, err)
	}
	if err = mapHTTPError(resp); err != nil {
		return models.AuthoritativeRecord{}, err
	}

	var rr models.ResolveResponse
	if err = json.Unmarshal(resp.Body(), &rr); err != nil {
		return models.AuthoritativeRecord{}, fmt.Errorf("decode resolve response: %w", err)
	}

	return rr.Record, nil
}

func (h *httpServerAdapter) Ping(ctx context.Context) error {
	resp, err := h.probe.R().SetContext(ctx).Get("/api/ping")
	if err != nil {
		return fmt.Errorf("%w: ping: %w", ErrTransport, err)
	}
	return mapHTTPError(resp)
}

func (h *httpServerAdapter) authedRequest(ctx context.Context) *resty.Request {
	req := h.client.R().SetContext(ctx)
	if h.token != "" {
		req.SetHeader("Authorization", "Bearer "+h.token)
	}
	return req
}
