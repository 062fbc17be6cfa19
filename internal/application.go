package application

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/config"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/metrics"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/repository"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/repository/storage"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/service"
	"github.com/rocketscienceinc/tictactoe-rooms/transport/rest"
	"github.com/rocketscienceinc/tictactoe-rooms/transport/websocket"
)

const shutdownTimeout = 10 * time.Second

// RunApp - runs the application until SIGINT/SIGTERM or a server failure.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigs:
			log.Info("Received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	stats := metrics.New(registry)

	broadcast := service.NewBroadcastService(logger, nil, stats)

	if conf.Redis.Enabled {
		redisStorage, err := storage.NewRedisStorage(ctx, conf.Redis.GetRedisAddr())
		if err != nil {
			return fmt.Errorf("could not connect to redis storage: %w", err)
		}

		defer closeRedis(log, redisStorage)

		mirror := repository.NewSnapshotMirror(logger, redisStorage, conf.Redis.SnapshotTTL, conf.Redis.QueueSize)
		go mirror.Run(ctx)

		broadcast = service.NewBroadcastService(logger, mirror, stats)

		log.Info("Mirroring room snapshots to redis", "addr", conf.Redis.GetRedisAddr())
	}

	sessions := service.NewSessionManager(
		logger,
		repository.NewRoomRepository(conf.Game.RoomIDLength),
		broadcast,
		service.NewBotService(),
		stats,
		service.Options{
			BotDelay: conf.Game.BotDelay,
			MaxSize:  conf.Game.MaxSize,
		},
	)

	wsServer := websocket.New(logger, sessions)
	handlers := rest.NewHandlers(logger, sessions, conf.Game.DefaultSize)
	httpServer := rest.NewServer(conf.HTTPPort, rest.NewRouter(handlers, wsServer, registry))

	// run HTTP server
	httpErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "port", conf.HTTPPort)
		if httpErr := httpServer.Start(); httpErr != nil {
			log.Error("HTTP server error", "error", httpErr)
			httpErrCh <- httpErr
		}
	}()

	var runErr error

	select {
	case runErr = <-httpErrCh:
		runErr = fmt.Errorf("HTTP server error: %w", runErr)
	case <-ctx.Done():
		log.Info("Application context canceled, shutting down")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("could not shutdown HTTP server", "error", err)
	}

	// hijacked sockets are not closed by Shutdown
	wsServer.CloseAll()
	sessions.Wait()

	return runErr
}

func closeRedis(log *slog.Logger, client *redis.Client) {
	if err := client.Close(); err != nil {
		log.Error("could not close redis storage", "error", err)
	}
}
