// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package http

import (
	"encoding/json"
	"net/http"

	"github.com/MKhiriev/delivery-sync/internal/app"
	"github.com/MKhiriev/delivery-sync/internal/logger"
	"github.com/MKhiriev/delivery-sync/internal/utils"
	"github.com/MKhiriev/delivery-sync/models"
	"github.com/go-chi/chi/v5"
)

// ingestBatch applies a device batch. Per-record failures are reported in
// the body; only a malformed envelope fails the request.
func (h *Handler) ingestBatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	actorID, ok := utils.GetActorIDFromContext(ctx)
	if !ok {
		log.Error().Str("func", "*Handler.ingestBatch").Msg("no actor in request context")
		utils.WriteError(w, app.MsgNoActorProvided, http.StatusUnauthorized)
		return
	}

	var req models.BatchRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		log.Err(err).Str("func", "*Handler.ingestBatch").Msg("invalid JSON was passed")
		utils.WriteError(w, app.MsgInvalidDataProvided, http.StatusBadRequest)
		return
	}
	req.Hash = r.Header.Get(HashHeader)

	if err := h.validator.Validate(ctx, req); err != nil {
		log.Warn().Err(err).Str("func", "*Handler.ingestBatch").Int("records", len(req.Records)).Msg("batch rejected")
		h.writeError(w, err)
		return
	}

	resp := h.services.IngestionService.IngestBatch(ctx, actorID, req)
	_, _ = utils.WriteJSON(w, resp, http.StatusOK)
}

func (h *Handler) getRecord(w http.ResponseWriter, r *http.Request) {
	clientID := chi.URLParam(r, "clientID")

	rec, err := h.services.IngestionService.Lookup(r.Context(), clientID)
	if err != nil {
		logger.FromRequest(r).Debug().Err(err).Str("func", "*Handler.getRecord").Str("client_id", clientID).Msg("lookup failed")
		h.writeError(w, err)
		return
	}

	_, _ = utils.WriteJSON(w, rec, http.StatusOK)
}

// resolveConflict overwrites an authoritative record with the version the
// actor chose to keep.
func (h *Handler) resolveConflict(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)
	clientID := chi.URLParam(r, "clientID")

	actorID, ok := utils.GetActorIDFromContext(ctx)
	if !ok {
		utils.WriteError(w, app.MsgNoActorProvided, http.StatusUnauthorized)
		return
	}

	var req models.ResolveRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		log.Err(err).Str("func", "*Handler.resolveConflict").Msg("invalid JSON was passed")
		utils.WriteError(w, app.MsgInvalidDataProvided, http.StatusBadRequest)
		return
	}

	rec, err := h.services.IngestionService.ResolveConflict(ctx, actorID, clientID, req)
	if err != nil {
		log.Err(err).Str("func", "*Handler.resolveConflict").Str("client_id", clientID).Msg("override failed")
		h.writeError(w, err)
		return
	}

	_, _ = utils.WriteJSON(w, models.ResolveResponse{Record: rec}, http.StatusOK)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	resp := responseFromError(err)
	utils.WriteError(w, resp.message, resp.status)
}
