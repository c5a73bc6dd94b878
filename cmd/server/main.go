package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/dishant0406/lazyweb-backend/internal/api"
	"github.com/dishant0406/lazyweb-backend/internal/auth"
	"github.com/dishant0406/lazyweb-backend/internal/config"
	"github.com/dishant0406/lazyweb-backend/internal/database"
	"github.com/dishant0406/lazyweb-backend/internal/jobs"
	"github.com/dishant0406/lazyweb-backend/internal/mail"
	"github.com/dishant0406/lazyweb-backend/internal/metadata"
	"github.com/dishant0406/lazyweb-backend/internal/repositories"
	"github.com/dishant0406/lazyweb-backend/internal/rooms"
	"github.com/dishant0406/lazyweb-backend/internal/routers"
	"github.com/dishant0406/lazyweb-backend/internal/services"
	"github.com/dishant0406/lazyweb-backend/internal/session"
	"github.com/dishant0406/lazyweb-backend/internal/utils"
)

const shutdownTimeout = 30 * time.Second

var (
	listenAndServe = func(srv *http.Server) error { return srv.ListenAndServe() }
	exitFunc       = func(err error) {
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		exitFunc(err)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	logger := utils.NewLogger(cfg.Env)
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	opts := []rooms.Option{rooms.WithDeniedReplies(cfg.ReportDenied)}
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		publisher := services.NewRoomEventPublisher(rdb, cfg.RoomEventsChannel, logger)
		if err := publisher.Ping(ctx); err != nil {
			logger.Warn("redis unreachable at startup", zap.Error(err))
		}
		go publisher.Run(ctx)
		opts = append(opts, rooms.WithEventSink(publisher))
		logger.Info("room events enabled",
			zap.String("channel", publisher.Channel()),
			zap.String("instanceId", publisher.GetInstanceID()))
	}
	coordinator := rooms.NewCoordinator(logger, session.NewHub(), opts...)

	census := jobs.NewRoomCensusJob(coordinator, cfg.CensusSchedule, logger)
	if err := census.Start(); err != nil {
		return err
	}
	defer census.Stop()

	deps := api.Deps{
		Rooms:          coordinator,
		Metadata:       metadata.NewFetcher(nil),
		AllowedOrigins: splitOrigins(cfg.AllowedOrigins),
		ClientBuffer:   cfg.ClientBuffer,
	}
	withAccounts := cfg.JWTSecret != ""
	if withAccounts {
		db, err := database.Open(cfg.DatabaseURL, cfg.SQLitePath)
		if err != nil {
			return err
		}
		users := &repositories.UserRepository{DB: db}
		deps.Accounts = auth.NewService(users, mail.NewSMTPMailer(cfg.SMTP), cfg.JWTSecret, cfg.BackendURL, logger)
	} else {
		logger.Warn("JWT_SECRET_KEY not set, account routes disabled")
	}

	handlers := api.NewHandlers(logger, deps)
	router := routers.New(handlers, deps.AllowedOrigins, withAccounts)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("lazyweb rooms listening", zap.String("addr", server.Addr))
		serveErr <- listenAndServe(server)
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("lazyweb rooms shutting down")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	logger.Info("lazyweb rooms exited")
	return nil
}

func splitOrigins(raw string) []string {
	var out []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	if len(out) == 0 {
		out = []string{"*"}
	}
	return out
}
