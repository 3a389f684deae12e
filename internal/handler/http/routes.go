// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package http

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func (h *Handler) Init() *chi.Mux {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer, h.withTraceID, h.withLogging, withGunzip, middleware.Compress(5, "application/json"))
	if h.requestTimeout > 0 {
		router.Use(middleware.Timeout(h.requestTimeout))
	}

	// routes without authorization
	router.Group(func(r chi.Router) {
		r.Get("/api/ping", h.ping)
		r.Get("/api/version/", h.getServerVersion)
	})

	router.Group(func(r chi.Router) {
		r.Use(h.auth)

		r.With(h.batchHashing).Post("/api/sync/batch", h.ingestBatch)
		r.Get("/api/sync/records/{clientID}", h.getRecord)
		r.Post("/api/sync/conflicts/{clientID}/resolve", h.resolveConflict)
	})

	router.MethodNotAllowed(CheckHTTPMethod(router))

	return router
}
