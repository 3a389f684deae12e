// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package grpc

import (
	"context"
	"net"
	"testing"

	"github.com/MKhiriev/delivery-sync/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

func startHealthServer(t *testing.T) (*Handler, healthpb.HealthClient) {
	t.Helper()

	h := NewHandler(nil, logger.Nop())
	lis := bufconn.Listen(1 << 20)

	srv := grpc.NewServer(grpc.UnaryInterceptor(h.UnaryLogging))
	h.Register(srv)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return h, healthpb.NewHealthClient(conn)
}

func check(t *testing.T, client healthpb.HealthClient, service string) healthpb.HealthCheckResponse_ServingStatus {
	t.Helper()
	resp, err := client.Check(context.Background(), &healthpb.HealthCheckRequest{Service: service})
	require.NoError(t, err)
	return resp.GetStatus()
}

func TestHealth_NotServingUntilReady(t *testing.T) {
	_, client := startHealthServer(t)

	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, check(t, client, ""))
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, check(t, client, SyncServiceName))
}

func TestHealth_SetServing(t *testing.T) {
	h, client := startHealthServer(t)

	h.SetServing(true)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, check(t, client, ""))
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, check(t, client, SyncServiceName))

	h.SetServing(false)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, check(t, client, SyncServiceName))
}

func TestHealth_Shutdown(t *testing.T) {
	h, client := startHealthServer(t)
	h.SetServing(true)

	h.Shutdown()
	h.SetServing(true)

	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, check(t, client, SyncServiceName))
}

func TestHealth_UnknownService(t *testing.T) {
	_, client := startHealthServer(t)

	_, err := client.Check(context.Background(), &healthpb.HealthCheckRequest{Service: "unknown"})

	assert.Equal(t, codes.NotFound, status.Code(err))
}
