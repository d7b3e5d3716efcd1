package main // Entry point package

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/contact-book-api/internal/auth"
	"github.com/iliyamo/contact-book-api/internal/cache"
	"github.com/iliyamo/contact-book-api/internal/config"
	"github.com/iliyamo/contact-book-api/internal/database"
	"github.com/iliyamo/contact-book-api/internal/handler"
	"github.com/iliyamo/contact-book-api/internal/middleware"
	"github.com/iliyamo/contact-book-api/internal/queue"
	"github.com/iliyamo/contact-book-api/internal/repository"
	"github.com/iliyamo/contact-book-api/internal/router"
	"github.com/iliyamo/contact-book-api/internal/service"
	"github.com/iliyamo/contact-book-api/internal/storage"
)

func main() {
	// .env is only a convenience for local runs; in deployment the real
	// environment wins and the file is absent.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	codec, err := auth.NewTokenCodec(cfg.JWTSecret, cfg.JWTAlgorithm, cfg.AccessTTL(), cfg.RefreshTTL(), cfg.ConfirmTTL())
	if err != nil {
		log.Fatalf("token codec: %v", err)
	}

	// Redis backs both the identity cache and the rate limiter. If it is
	// unreachable at startup the service still comes up: identities fall
	// back to an in-process cache and rate limiting is disabled.
	rdb := config.NewRedisClient()
	var identities cache.Identity
	if rdb != nil {
		identities = cache.NewRedisIdentity(rdb)
	} else {
		log.Println("redis unavailable, using in-memory identity cache")
		identities = cache.NewMemoryIdentity()
	}

	users := repository.NewUserRepo(db)
	contacts := repository.NewContactRepo(db)

	authSvc := service.NewAuthService(codec, users, identities, queue.Publisher{}, cfg.BcryptCost, cfg.IdentityTTL)

	// The consumer drains email.confirm in the background for the whole
	// process lifetime, reconnecting on broker failures.
	go queue.StartEmailConsumer(queue.NewLogNotifier())

	avatars := storage.NewDiskAvatarStore(cfg.AvatarDir, "/static/avatars")

	authH := handler.NewAuthHandler(authSvc)
	userH := handler.NewUserHandler(authSvc, avatars)
	contactH := handler.NewContactHandler(contacts)

	e := echo.New()
	e.Static("/static/avatars", cfg.AvatarDir)

	var limiter echo.MiddlewareFunc
	if rlCfg := config.LoadRateLimitConfig(); rlCfg.Enabled && rdb != nil {
		limiter = middleware.NewTokenBucket(rlCfg, rdb)
	}

	authMW := middleware.Authenticate(authSvc)

	router.RegisterRoutes(e)
	router.RegisterAuth(e, authH, limiter)
	router.RegisterUsers(e, userH, authMW)
	router.RegisterContacts(e, contactH, authMW, limiter)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
