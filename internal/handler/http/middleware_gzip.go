// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package http

import (
	"compress/gzip"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/MKhiriev/delivery-sync/internal/app"
	"github.com/MKhiriev/delivery-sync/internal/logger"
	"github.com/MKhiriev/delivery-sync/internal/utils"
)

var gzipReaderPool = sync.Pool{
	New: func() any { return new(gzip.Reader) },
}

// withGunzip transparently decompresses gzip request bodies. Response
// compression is left to chi's Compress middleware.
func withGunzip(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Body == nil || !strings.Contains(r.Header.Get("Content-Encoding"), "gzip") {
			next.ServeHTTP(w, r)
			return
		}

		zr := gzipReaderPool.Get().(*gzip.Reader)
		if err := zr.Reset(r.Body); err != nil {
			gzipReaderPool.Put(zr)
			logger.FromRequest(r).Warn().Err(err).Str("func", "withGunzip").Msg("invalid gzip body")
			utils.WriteError(w, app.MsgInvalidDataProvided, http.StatusBadRequest)
			return
		}

		r.Body = &pooledGzipBody{Reader: zr, body: r.Body}
		r.Header.Del("Content-Encoding")
		r.ContentLength = -1

		next.ServeHTTP(w, r)
	})
}

type pooledGzipBody struct {
	*gzip.Reader
	body   io.ReadCloser
	closed bool
}

func (b *pooledGzipBody) Close() error {
	if b.closed {
		return nil
	}
	b.closed = true

	_ = b.Reader.Close()
	gzipReaderPool.Put(b.Reader)
	return b.body.Close()
}
