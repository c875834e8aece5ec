package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/irfanhabeeb-002/foodshare/internal/config"
	"github.com/irfanhabeeb-002/foodshare/internal/database"
	"github.com/irfanhabeeb-002/foodshare/internal/handler"
	"github.com/irfanhabeeb-002/foodshare/internal/middleware"
	"github.com/irfanhabeeb-002/foodshare/internal/queue"
	"github.com/irfanhabeeb-002/foodshare/internal/repository"
	"github.com/irfanhabeeb-002/foodshare/internal/router"
	"github.com/irfanhabeeb-002/foodshare/internal/service"
)

func main() {
	_ = godotenv.Load() // .env is optional outside dev
	cfg := config.Load()

	db, err := database.Open(cfg.DB)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	rdb := config.NewRedisClient() // nil when Redis is absent

	// Local delivery consumer for notification events. Runs for the
	// life of the process and reconnects on broker failure.
	go func() {
		if err := queue.StartNotificationConsumer(); err != nil {
			log.Printf("notification consumer stopped: %v", err)
		}
	}()

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	posts := repository.NewPostRepo(db)
	claims := repository.NewClaimRepo(db)
	groups := repository.NewGroupRepo(db)
	members := repository.NewMembershipRepo(db)
	requests := repository.NewJoinRequestRepo(db)
	notes := repository.NewNotificationRepo(db)
	reports := repository.NewReportRepo(db)

	notifier := service.NewNotifier(notes, members, service.AMQPPublisher{})
	reservations := service.NewReservationService(posts, claims, members, notifier)
	memberships := service.NewMembershipService(groups, members, requests, posts, notifier)
	proximity := service.NewProximityService(posts)
	reporting := service.NewReportService(reports, posts, notifier)

	e := echo.New()
	e.HideBanner = true

	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, users, tokens), cfg.JWTSecret)
	router.RegisterAPI(e, router.API{
		Posts:         handler.NewPostHandler(reservations),
		Groups:        handler.NewGroupHandler(memberships),
		Notes:         handler.NewNotificationHandler(notifier),
		Nearby:        handler.NewNearbyHandler(proximity),
		Reports:       handler.NewReportHandler(reporting),
		RateLimit:     middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb),
		ResponseCache: middleware.NewRedisCache(config.LoadCacheConfig(), rdb),
	}, cfg.JWTSecret)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
