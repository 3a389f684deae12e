// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package server

import (
	"context"
	"errors"
	"net"

	"github.com/MKhiriev/delivery-sync/internal/config"
	myGRPC "github.com/MKhiriev/delivery-sync/internal/handler/grpc"
	"github.com/MKhiriev/delivery-sync/internal/logger"
	"google.golang.org/grpc"
)

type grpcServer struct {
	handler *myGRPC.Handler
	address string

	server *grpc.Server
	logger *logger.Logger
}

func newGRPCServer(handler *myGRPC.Handler, cfg config.Server, logger *logger.Logger) *grpcServer {
	s := grpc.NewServer(grpc.UnaryInterceptor(handler.UnaryLogging))
	handler.Register(s)

	return &grpcServer{
		handler: handler,
		address: cfg.GRPCAddress,
		server:  s,
		logger:  logger,
	}
}

func (g *grpcServer) Serve() error {
	lis, err := net.Listen("tcp", g.address)
	if err != nil {
		return err
	}

	g.logger.Info().Str("address", g.address).Msg("launching gRPC server")
	g.handler.SetServing(true)

	if err = g.server.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}
	return nil
}

// Shutdown reports NOT_SERVING first so health checkers drain traffic, then
// stops gracefully. The server is stopped hard once ctx expires.
func (g *grpcServer) Shutdown(ctx context.Context) error {
	g.logger.Info().Msg("gRPC server shutdown")
	g.handler.Shutdown()

	done := make(chan struct{})
	go func() {
		g.server.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		g.server.Stop()
		return ctx.Err()
	}
}
