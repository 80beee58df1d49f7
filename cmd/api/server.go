package main

import (
	"context"
	"crypto/tls"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/5w1tchy/bookshelf-api/internal/api/handlers/admin"
	"github.com/5w1tchy/bookshelf-api/internal/api/handlers/authors"
	"github.com/5w1tchy/bookshelf-api/internal/api/handlers/books"
	"github.com/5w1tchy/bookshelf-api/internal/api/handlers/libraries"
	mw "github.com/5w1tchy/bookshelf-api/internal/api/middlewares"
	"github.com/5w1tchy/bookshelf-api/internal/api/router"
	"github.com/5w1tchy/bookshelf-api/internal/auth"
	"github.com/5w1tchy/bookshelf-api/internal/maintenance"
	"github.com/5w1tchy/bookshelf-api/internal/metrics/viewqueue"
	"github.com/5w1tchy/bookshelf-api/internal/repository/sqlconnect"
	jwtutil "github.com/5w1tchy/bookshelf-api/internal/security/jwt"
	"github.com/5w1tchy/bookshelf-api/internal/security/password"
	"github.com/5w1tchy/bookshelf-api/internal/storage/s3"
	adminstore "github.com/5w1tchy/bookshelf-api/internal/store/admin"
	storeauthors "github.com/5w1tchy/bookshelf-api/internal/store/authors"
	storebooks "github.com/5w1tchy/bookshelf-api/internal/store/books"
	storelib "github.com/5w1tchy/bookshelf-api/internal/store/libraries"
	"github.com/5w1tchy/bookshelf-api/internal/store/listcache"
	"github.com/5w1tchy/bookshelf-api/internal/validate"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

func main() {
	_ = godotenv.Load()

	if err := validate.Env(); err != nil {
		log.Fatalf("config: %v", err)
	}
	appEnv := os.Getenv("APP_ENV")
	for _, w := range validate.HardeningWarnings(appEnv) {
		log.Printf("[config] warning: %s", w)
	}

	jwtutil.Configure(jwtutil.LoadConfig())
	password.UsePolicy(password.LoadParamsFromEnv())

	db, err := sqlconnect.ConnectDB()
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer db.Close()

	migrateCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := sqlconnect.Migrate(migrateCtx, db); err != nil {
		log.Fatalf("migrate: %v", err)
	}
	cancel()
	log.Println("[db] connected, schema up to date")

	rdb := connectRedis()
	if rdb != nil {
		defer rdb.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	views := viewqueue.Start(db, 10000, 2)
	maintenance.StartViewRetention(ctx, db,
		validate.EnvInt("VIEW_RETENTION_DAYS", 90),
		envOr("VIEW_RETENTION_AT", "03:30"),
		envOr("VIEW_RETENTION_TZ", "UTC"))

	// Covers are optional: without a bucket the cover endpoints answer 503.
	var covers books.CoverStorage
	var objects authors.ObjectRemover
	if s3c, err := s3.New(ctx); err == nil {
		covers, objects = s3c, s3c
		log.Println("[s3] cover storage enabled")
	} else if !errors.Is(err, s3.ErrNotConfigured) {
		log.Fatalf("s3: %v", err)
	}

	cache := listcache.New(rdb)
	users := auth.NewSQLStore(db)

	handler := router.Router(router.Deps{
		DB:        db,
		RDB:       rdb,
		Users:     users,
		Auth:      auth.New(users, rdb),
		Books:     books.New(storebooks.New(db), cache, views, covers),
		Authors:   authors.New(storeauthors.New(db), cache, objects),
		Libraries: libraries.New(storelib.New(db)),
		Admin:     admin.NewHandler(rdb, adminstore.New(db)),
	})

	// Redis-backed limits are shared across instances; without Redis each
	// instance limits on its own.
	var limit, hourly mw.Middleware
	if rdb != nil {
		limit = mw.NewRedisTokenBucket(rdb, 5, 20, mw.PerIPKey("tb")).Middleware
		hourly = mw.NewRedisSlidingWindow(rdb, 3000, time.Hour, mw.PerIPKey("sw")).Middleware
	} else {
		limit = mw.NewLocalLimiter(ctx, 5, 20, mw.PerIPKey("tb")).Middleware
	}

	secureMux := mw.Apply(handler,
		mw.RequestID,
		mw.Recovery,
		mw.AccessLog,
		mw.Cors(mw.AllowedOrigins()),
		mw.ResponseTime,
		mw.SecurityHeaders,
		mw.BodySizeLimit(mw.MaxBodySize()),
		mw.HPP(mw.DefaultHPPOptions()),
		limit,
		hourly,
		mw.Compression,
	)

	server := &http.Server{
		Addr:              envOr("APP_ADDR", ":3000"),
		Handler:           secureMux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		TLSConfig:         &tls.Config{MinVersion: tls.VersionTLS12},
	}

	go func() {
		cert, key := os.Getenv("TLS_CERT"), os.Getenv("TLS_KEY")
		var err error
		if cert != "" && key != "" {
			log.Println("Server is running (TLS) on", server.Addr)
			err = server.ListenAndServeTLS(cert, key)
		} else {
			log.Println("Server is running on", server.Addr)
			err = server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalln("Error starting server:", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
	views.Shutdown()
	if n := views.Dropped(); n > 0 {
		log.Printf("[views] %d view events dropped", n)
	}
}

// connectRedis returns nil when Redis is not configured; every Redis-backed
// feature then degrades: limits become per instance, the list cache and
// refresh tokens are off.
func connectRedis() *redis.Client {
	var rdb *redis.Client

	if url := os.Getenv("UPSTASH_REDIS_URL"); url != "" {
		opt, err := redis.ParseURL(url) // e.g. rediss://default:<token>@host:port
		if err != nil {
			log.Fatalf("invalid UPSTASH_REDIS_URL: %v", err)
		}
		opt.DialTimeout = 5 * time.Second
		opt.ReadTimeout = 1 * time.Second
		opt.WriteTimeout = 1 * time.Second
		rdb = redis.NewClient(opt)
	} else if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		opt := &redis.Options{
			Addr:         addr,
			Username:     os.Getenv("REDIS_USER"),
			Password:     os.Getenv("REDIS_PASSWORD"),
			DialTimeout:  2 * time.Second,
			ReadTimeout:  500 * time.Millisecond,
			WriteTimeout: 500 * time.Millisecond,
		}
		if os.Getenv("REDIS_TLS") == "1" {
			opt.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		rdb = redis.NewClient(opt)
	} else {
		return nil
	}

	if err := validate.PingRedis(rdb, 3*time.Second); err != nil {
		log.Fatalf("Redis connection failed: %v", err)
	}
	log.Println("[redis] connected")
	return rdb
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
