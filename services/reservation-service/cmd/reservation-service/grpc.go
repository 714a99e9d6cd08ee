package main

import (
	"context"
	"log/slog"
	"net"

	"github.com/md-rashed-zaman/tablereserve/libs/config"
	"github.com/md-rashed-zaman/tablereserve/services/reservation-service/internal/availability"
	"github.com/md-rashed-zaman/tablereserve/services/reservation-service/internal/grpcserver"
)

func startGrpcServer(ctx context.Context, logger *slog.Logger, engine *availability.Engine) error {
	port, err := config.Port("GRPC_PORT", "9094")
	if err != nil {
		return err
	}
	lis, err := net.Listen("tcp", ":"+port)
	if err != nil {
		return err
	}

	srv := grpcserver.New(engine, logger)

	go func() {
		logger.Info("grpc server starting", "addr", lis.Addr().String())
		if err := srv.Serve(lis); err != nil {
			logger.Error("grpc server error", "err", err)
		}
	}()

	go func() {
		<-ctx.Done()
		srv.GracefulStop()
	}()

	return nil
}
