package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmitrijs2005/techstore/internal/buildinfo"
	"github.com/dmitrijs2005/techstore/internal/client/api"
	"github.com/dmitrijs2005/techstore/internal/client/catalog"
	"github.com/dmitrijs2005/techstore/internal/client/cli"
	"github.com/dmitrijs2005/techstore/internal/client/config"
	"github.com/dmitrijs2005/techstore/internal/client/flow"
	"github.com/dmitrijs2005/techstore/internal/client/profile"
	"github.com/dmitrijs2005/techstore/internal/client/session"
	"github.com/dmitrijs2005/techstore/internal/client/storage"
	"github.com/dmitrijs2005/techstore/internal/filex"
	"github.com/dmitrijs2005/techstore/internal/logging"
	"github.com/redis/go-redis/v9"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.LoadConfig()

	logger, err := logging.New(cfg.LogBackend, cfg.LogLevel, os.Stderr)
	if err != nil {
		log.Fatalf("%v", err)
	}
	if z, ok := logger.(*logging.ZapLogger); ok {
		defer z.Sync()
	}

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer closeStore()

	identity := api.NewIdentityClient(cfg.IdentityBaseURL,
		api.WithRateLimit(cfg.IdentityRateLimit),
		api.WithLogger(logger),
	)
	products := api.NewCatalogClient(cfg.CatalogBaseURL,
		api.WithRetryPolicy(cfg.CatalogTimeout, cfg.CatalogRetries, cfg.CatalogBackoff),
		api.WithCatalogLogger(logger),
	)

	term := cli.NewTerminal(os.Stdout)
	sess := session.NewSync(store, identity, logger)
	sess.AddSurface(term.Header())
	sess.AddSurface(term.Sidebar())
	sess.AddSurface(term.Avatar())

	machine := flow.New(identity, sess,
		flow.WithNotifier(term),
		flow.WithListener(term),
		flow.WithLogger(logger),
		flow.WithCountdown(cfg.CountdownSeconds, time.Second),
		flow.WithOTPErrorDelay(cfg.OTPErrorDelay),
		flow.OnCountdownTick(term.CountdownTick),
		flow.OnResendReady(term.ResendReady),
		flow.OnOTPChange(term.ShowCode),
	)

	var profileOpts []profile.Option
	profileOpts = append(profileOpts, profile.WithLogger(logger))
	if cfg.S3Bucket != "" {
		profileOpts = append(profileOpts, profile.WithPresigner(profile.NewS3Presigner(profile.S3Config{
			Region:       cfg.S3Region,
			Bucket:       cfg.S3Bucket,
			BaseEndpoint: cfg.S3BaseEndpoint,
			AccessKey:    cfg.S3AccessKey,
			SecretKey:    cfg.S3SecretKey,
		})))
	}

	app := cli.NewApp(cli.Deps{
		Flow:    machine,
		Session: sess,
		Catalog: catalog.NewService(products, logger),
		Profile: profile.NewService(identity, sess, store, profileOpts...),
		Term:    term,
		Log:     logger,
	}, cli.WithRequestTimeout(cfg.RequestTimeout))

	app.Run(ctx)
}

// openStore opens the session backend named by cfg. The returned func
// releases it.
func openStore(ctx context.Context, cfg *config.Config) (session.Store, func(), error) {
	switch cfg.SessionBackend {
	case config.SessionMemory:
		return session.NewMemoryStore(), func() {}, nil

	case config.SessionRedis:
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			rdb.Close()
			return nil, nil, fmt.Errorf("redis %s: %w", cfg.RedisAddr, err)
		}
		return session.NewRedisStore(rdb, session.DefaultRedisPrefix), func() { rdb.Close() }, nil

	case config.SessionSQLite, "":
		if err := filex.EnsureParentDir(cfg.DatabasePath); err != nil {
			return nil, nil, err
		}
		db, err := storage.Open(ctx, cfg.DatabasePath)
		if err != nil {
			return nil, nil, fmt.Errorf("error initializing database: %w", err)
		}
		return session.NewSQLiteStore(db), func() { closeDB(db) }, nil
	}
	return nil, nil, fmt.Errorf("unknown session backend %q", cfg.SessionBackend)
}

func closeDB(db *sql.DB) {
	if err := db.Close(); err != nil {
		log.Printf("error closing database: %v", err)
	}
}
