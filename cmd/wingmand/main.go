// Command wingmand is the WingmanMatch API server: it wires configuration,
// persistence, cache, messaging, and every core service into one echo
// process, mirroring the teacher's cmd/match/main.go bootstrap sequence
// (config → dependencies → repositories → usecases → handlers → server).
package main

import (
	"os"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/wingmanmatch/wingman/internal/api"
	"github.com/wingmanmatch/wingman/internal/challenge"
	"github.com/wingmanmatch/wingman/internal/chat"
	"github.com/wingmanmatch/wingman/internal/matcher"
	"github.com/wingmanmatch/wingman/internal/matchsm"
	"github.com/wingmanmatch/wingman/internal/pkg/cache"
	"github.com/wingmanmatch/wingman/internal/pkg/collab"
	"github.com/wingmanmatch/wingman/internal/pkg/config"
	"github.com/wingmanmatch/wingman/internal/pkg/database"
	"github.com/wingmanmatch/wingman/internal/pkg/health"
	"github.com/wingmanmatch/wingman/internal/pkg/logger"
	"github.com/wingmanmatch/wingman/internal/pkg/middleware"
	nsqpkg "github.com/wingmanmatch/wingman/internal/pkg/nsq"
	"github.com/wingmanmatch/wingman/internal/pkg/ratelimit"
	"github.com/wingmanmatch/wingman/internal/pkg/server"
	"github.com/wingmanmatch/wingman/internal/profile"
	"github.com/wingmanmatch/wingman/internal/reputation"
	"github.com/wingmanmatch/wingman/internal/session"
	"github.com/wingmanmatch/wingman/internal/store"
)

const appName = "wingmand"

func main() {
	cfg := config.InitConfig(appName)

	appLogger, err := logger.New(logger.Config{Level: cfg.Logger.Level, FilePath: cfg.Logger.FilePath, Service: appName})
	if err != nil {
		panic(err)
	}
	defer appLogger.Close()
	log := appLogger.WithFields(nil)

	db, err := database.NewPostgresPool(cfg.Database)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to postgres")
	}

	redisClient, err := database.NewRedisClient(cfg.Redis)
	if err != nil {
		log.WithError(err).Warn("failed to connect to redis, cache will run in-process only")
		redisClient = nil
	}

	appCache := buildCache(redisClient, log)

	var nsqProducer *nsqpkg.Producer
	if p, err := nsqpkg.NewProducer(cfg.NSQ.NSQDAddress); err != nil {
		log.WithError(err).Warn("failed to connect to nsqd, notifications will be logged only")
	} else {
		nsqProducer = p
	}
	mailer := collab.NewNSQEmailSender(nsqProducer, cfg.NSQ.NotifyTopic, log)

	// Stores
	profiles := store.NewProfileStore(db)
	locations := store.NewLocationStore(db)
	matches := store.NewMatchStore(db)
	sessions := store.NewSessionStore(db)
	challenges := store.NewChallengeStore(db)
	chatStore := store.NewChatStore(db)

	// Core services
	limiter := ratelimit.NewLimiter(appCache, log)
	matcherSvc := matcher.NewService(db, profiles, matches, locations, mailer, log,
		cfg.Matcher.RecencyWindowDays, cfg.Matcher.MaxCandidateResults)
	matchsmSvc := matchsm.NewService(matches, matcherSvc, mailer, log)
	reputationSvc := reputation.NewService(matches, sessions, appCache, log)
	sessionSvc := session.NewService(sessions, matches, challenges, profiles, chatStore, mailer, reputationSvc, log)
	chatSvc := chat.NewService(chatStore, matches, limiter, log)
	challengeSvc := challenge.NewService(challenges, appCache, log)
	profileSvc := profile.NewService(profiles, locations, log)

	// HTTP
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.RequestID())
	e.Use(middleware.PanicRecovery(appLogger))
	e.Use(middleware.RequestLogger(appLogger))

	healthSvc := health.NewService(log)
	healthSvc.AddChecker("postgres", health.NewPostgresChecker(db))
	if redisClient != nil {
		healthSvc.AddChecker("redis", health.NewRedisChecker(redisClient))
	}
	healthSvc.RegisterRoutes(e)

	api.RegisterRoutes(e, cfg.JWT, cfg.TestAuth, limiter,
		api.NewProfileHandler(profileSvc),
		api.NewMatchesHandler(db, matcherSvc, cfg.Matcher.MaxCandidateResults),
		api.NewBuddyHandler(matchsmSvc),
		api.NewSessionHandler(sessionSvc),
		api.NewChatHandler(chatSvc),
		api.NewReputationHandler(reputationSvc),
		api.NewChallengesHandler(challengeSvc),
	)

	srv := server.NewGracefulServer(e, log, cfg.Server.Port)
	if err := srv.Start(); err != nil {
		log.WithError(err).Error("server exited with error")
		os.Exit(1)
	}

	if nsqProducer != nil {
		nsqProducer.Stop()
	}
	if redisClient != nil {
		redisClient.Close()
	}
	db.Close()
}

// buildCache selects the two-layer cache per the resolved graceful-fallback
// mapping (spec §9): Redis when reachable, wrapped in a FallbackCache so a
// later Redis outage degrades to the in-process cache instead of failing
// every read; the in-process cache alone when Redis never connected.
func buildCache(redisClient *database.RedisClient, log *logrus.Entry) cache.Cache {
	mem := cache.NewMemoryCache()
	if redisClient == nil {
		return mem
	}
	return cache.NewFallbackCache(cache.NewRedisCache(redisClient), mem, log)
}
