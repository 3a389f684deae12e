// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package http

import (
	"errors"
	"net/http"

	"github.com/MKhiriev/delivery-sync/internal/app"
	"github.com/MKhiriev/delivery-sync/internal/logger"
	"github.com/MKhiriev/delivery-sync/internal/utils"
	"github.com/rs/zerolog"
)

// auth rejects requests without a valid bearer token with 401 and puts the
// token subject into the request context as the actor.
func (h *Handler) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromRequest(r)

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			log.Warn().Err(ErrEmptyAuthorizationHeader).Str("func", "*Handler.auth").Send()
			utils.WriteError(w, app.MsgTokenIsExpiredOrInvalid, http.StatusUnauthorized)
			return
		}

		tokenString, err := utils.ParseBearerToken(authHeader)
		if err != nil {
			log.Warn().Err(err).Str("func", "*Handler.auth").Send()
			utils.WriteError(w, app.MsgTokenIsExpiredOrInvalid, http.StatusUnauthorized)
			return
		}

		ctx := r.Context()
		token, err := h.services.AuthService.ParseToken(ctx, tokenString)
		if err != nil {
			log.Warn().Err(err).Str("func", "*Handler.auth").Msg("token rejected")
			utils.WriteError(w, app.MsgTokenIsExpiredOrInvalid, http.StatusUnauthorized)
			return
		}

		actorID, err := token.GetActorID()
		if err != nil {
			log.Warn().Err(errors.Join(ErrNoActor, err)).Str("func", "*Handler.auth").Send()
			utils.WriteError(w, app.MsgNoActorProvided, http.StatusUnauthorized)
			return
		}

		zerolog.Ctx(ctx).UpdateContext(func(c zerolog.Context) zerolog.Context {
			return c.Str("actor_id", actorID)
		})

		next.ServeHTTP(w, r.WithContext(utils.WithActorID(ctx, actorID)))
	})
}
