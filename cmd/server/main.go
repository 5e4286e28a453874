package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	_ "github.com/joho/godotenv/autoload"
	"github.com/rs/zerolog"

	"teahouse.bot/internal/catalogs"
	"teahouse.bot/internal/config"
	"teahouse.bot/internal/logging"
	"teahouse.bot/internal/persistence/ledger"
	"teahouse.bot/internal/persistence/sqlstore"
	"teahouse.bot/internal/protocol"
	"teahouse.bot/internal/teahouse/auth"
	"teahouse.bot/internal/teahouse/commands"
	"teahouse.bot/internal/teahouse/economy"
	"teahouse.bot/internal/teahouse/model"
	"teahouse.bot/internal/teahouse/store"
	"teahouse.bot/internal/teahouse/store/memstore"
	"teahouse.bot/internal/teahouse/tasks"
	"teahouse.bot/internal/transport/ws"
)

func main() {
	configPath := flag.String("config", "./configs/server.yaml", "server config path (env only when missing)")
	flag.Parse()

	cfg := config.MustLoad(*configPath)
	logger, err := logging.New(cfg.Env, os.Stdout)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := run(cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("server stopped")
	}
}

func run(cfg *config.Config, logger zerolog.Logger) error {
	cats, err := catalogs.Load(cfg.ConfigsDir)
	if err != nil {
		return fmt.Errorf("load catalogs: %w", err)
	}

	opener, closeStore, err := openStore(cfg.DB, logger)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer closeStore.Close()

	mirror, err := buildMirror(cfg, logger)
	if err != nil {
		return fmt.Errorf("init mirror: %w", err)
	}
	defer mirror.Close()

	var book store.Ledger = store.NopLedger{}
	if cfg.Ledger.Enabled {
		dir := filepath.Join(cfg.DataDir, "ledger")
		w := ledger.NewWriter(dir, ledger.OnRotate(mirror.Enqueue))
		defer w.Close()
		book = w
		if _, err := mirror.Backfill(context.Background(), dir); err != nil {
			logger.Warn().Err(err).Msg("mirror backfill")
		}
	}

	admins, err := auth.OpenFileAllowList(cfg.AdminsFile)
	if err != nil {
		return fmt.Errorf("admins: %w", err)
	}

	engine := tasks.New(cats.Tasks,
		tasks.WithLocation(cfg.Location()),
		tasks.WithLogger(logger.With().Str("component", "tasks").Logger()),
		tasks.WithLedger(book),
	)
	svc := economy.New(engine, cats.Ratings,
		economy.WithLogger(logger.With().Str("component", "economy").Logger()),
		economy.WithLedger(book),
		economy.WithSignInReward(model.CoinsFromFloat(cfg.SignIn.MinReward), model.CoinsFromFloat(cfg.SignIn.MaxReward)),
	)
	router := commands.New(svc, opener, admins,
		commands.WithBotName(cfg.BotName),
		commands.WithLogger(logger.With().Str("component", "commands").Logger()),
	)

	gwCfg := ws.Config{
		BotName:        cfg.BotName,
		Catalogs:       protocol.CatalogDigests{TasksDigest: cats.Tasks.Digest, RatingsDigest: cats.Ratings.Digest},
		CommandTimeout: cfg.Gateway.CommandTimeout,
		DedupWindow:    cfg.Gateway.DedupWindow,
	}
	if cfg.Gateway.JWTSecret != "" {
		gwCfg.Verifier = ws.NewTokenVerifier(cfg.Gateway.JWTSecret, cfg.Gateway.JWTIssuer)
	} else {
		logger.Warn().Msg("gateway token check disabled (no jwt_secret)")
	}
	gateway := ws.NewServer(router, gwCfg, logger.With().Str("component", "gateway").Logger())

	a := &api{opener: opener, engine: engine, mirror: mirror, verifier: gwCfg.Verifier, log: logger}
	r := mux.NewRouter()
	a.routes(r)
	r.Handle("/v1/ws", gateway.Handler())

	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, cancel := signalContext()
	defer cancel()
	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
		gateway.CloseAll()
	}()

	logger.Info().
		Str("addr", cfg.Listen).
		Str("db", cfg.DB.Driver).
		Str("bot_name", cfg.BotName).
		Str("catalog_digest", cats.Digest()).
		Msg("listening")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	logger.Info().Msg("shut down")
	return nil
}

func openStore(db config.DB, logger zerolog.Logger) (store.Opener, io.Closer, error) {
	if db.Driver == "memory" {
		logger.Warn().Msg("using in-memory store; data is lost on exit")
		return memstore.New(), io.NopCloser(nil), nil
	}
	s, err := sqlstore.Open(db.Driver, db.DSN, logger.With().Str("component", "sqlstore").Logger())
	if err != nil {
		return nil, nil, err
	}
	return s, s, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}
