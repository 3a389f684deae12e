// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package http

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/MKhiriev/delivery-sync/internal/app"
	"github.com/MKhiriev/delivery-sync/internal/logger"
	"github.com/MKhiriev/delivery-sync/internal/utils"
)

// HashHeader carries the hex HMAC-SHA256 of the serialized batch records.
const HashHeader = "HashSHA256"

// batchHashing checks the HashSHA256 header against the compacted "records"
// member of the body. The body is restored for the next handler.
func (h *Handler) batchHashing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromRequest(r)

		expected := r.Header.Get(HashHeader)
		if expected == "" {
			log.Warn().Err(ErrMissingHash).Str("func", "*Handler.batchHashing").Send()
			utils.WriteError(w, app.MsgHashMismatch, http.StatusBadRequest)
			return
		}

		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err != nil {
			log.Err(err).Str("func", "*Handler.batchHashing").Msg("failed to read request body")
			utils.WriteError(w, app.MsgInvalidDataProvided, http.StatusBadRequest)
			return
		}
		r.Body = io.NopCloser(bytes.NewReader(body))

		var envelope struct {
			Records json.RawMessage `json:"records"`
		}
		if err = json.Unmarshal(body, &envelope); err != nil {
			log.Err(err).Str("func", "*Handler.batchHashing").Msg("invalid JSON was passed")
			utils.WriteError(w, app.MsgInvalidDataProvided, http.StatusBadRequest)
			return
		}

		var records bytes.Buffer
		if len(envelope.Records) > 0 {
			if err = json.Compact(&records, envelope.Records); err != nil {
				utils.WriteError(w, app.MsgInvalidDataProvided, http.StatusBadRequest)
				return
			}
		}

		if !h.hasher.Verify(records.Bytes(), expected) {
			log.Warn().Err(ErrHashMismatch).
				Str("func", "*Handler.batchHashing").
				Str("hash", expected).
				Msg("integrity check failed")
			utils.WriteError(w, app.MsgHashMismatch, http.StatusBadRequest)
			return
		}

		next.ServeHTTP(w, r)
	})
}
