package main // Entry point package

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	glog "github.com/labstack/gommon/log"

	"github.com/iliyamo/event-dashboard/internal/config"
	"github.com/iliyamo/event-dashboard/internal/feed"
	"github.com/iliyamo/event-dashboard/internal/handler"
	"github.com/iliyamo/event-dashboard/internal/middleware"
	"github.com/iliyamo/event-dashboard/internal/queue"
	"github.com/iliyamo/event-dashboard/internal/router"
	"github.com/iliyamo/event-dashboard/internal/scheduler"
	queue_publisher "github.com/iliyamo/event-dashboard/internal/service"
	"github.com/iliyamo/event-dashboard/internal/session"
	"github.com/iliyamo/event-dashboard/internal/utils"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("dotenv: %v", err)
	}
	cfg := config.Load()

	e := echo.New()
	e.HideBanner = true
	if cfg.Env == "prod" {
		e.Logger.SetLevel(glog.INFO)
	} else {
		e.Logger.SetLevel(glog.DEBUG)
	}
	e.Renderer = handler.MustRenderer()
	e.Use(echomw.Recover())
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			if v.Error != nil {
				c.Logger().Errorf("%s %s %d %s: %v", v.Method, v.URI, v.Status, v.Latency, v.Error)
				return nil
			}
			c.Logger().Infof("%s %s %d %s", v.Method, v.URI, v.Status, v.Latency)
			return nil
		},
	}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Redis is optional: without it the shared feed cache, the API response
	// cache and the login limiter are all disabled.
	rdb := config.NewRedisClient()
	cacheCfg := config.LoadCacheConfig()

	var opts []feed.Option
	if fc := feed.NewRedisCache(rdb, cfg.FeedCachePrefix, cfg.FeedURL, cfg.FeedTTL); fc != nil {
		log.Printf("feed: sharing fetched bodies under redis key %s", fc.Key())
		opts = append(opts, feed.WithCache(fc))
	}
	var notifier *queue_publisher.Notifier
	if cfg.FeedEventsEnabled {
		host, _ := os.Hostname()
		notifier = queue_publisher.NewNotifier(cfg.RabbitURL, host)
		opts = append(opts, feed.WithNotifier(notifier))
		go func() {
			if err := queue.StartFeedConsumer(ctx, cfg.RabbitURL, "logs"); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("feed-consumer: stopped: %v", err)
			}
		}()
	}
	store := feed.NewStore(feed.NewClient(cfg.FeedURL, cfg.FeedTimeout), cfg.FeedTTL, opts...)

	var warmer *scheduler.Warmer
	if cfg.FeedWarmCron != "" {
		w, err := scheduler.NewWarmer(cfg.FeedWarmCron, store, cfg.FeedTimeout)
		if err != nil {
			log.Fatalf("scheduler: %v", err)
		}
		warmer = w
		warmer.Start()
		log.Printf("scheduler: feed warm-up %q, next run %s", cfg.FeedWarmCron, warmer.Next().Format(time.RFC3339))
	}

	acc, err := utils.NewAccount(cfg.DemoEmail, cfg.DemoPassword, cfg.BcryptCost)
	if err != nil {
		log.Fatalf("auth: %v", err)
	}
	sessions := session.NewManager(cfg.JWTSecret, cfg.SessionTTL(), cfg.CookieSecure)
	loc, _ := cfg.Dashboard.Location()

	events := handler.NewEventsHandler(store, loc, cfg.Dashboard)
	events.BaseURL = os.Getenv("PUBLIC_URL")
	if rdb != nil && cacheCfg.Enabled {
		events.Purge = func(ctx context.Context) {
			if _, err := middleware.PurgeCache(ctx, rdb, cacheCfg.Prefix); err != nil {
				log.Printf("cache: purge failed: %v", err)
			}
		}
	}

	e.Use(middleware.Session(sessions))
	router.RegisterRoutes(e, store.State, &handler.SettingsHandler{Sessions: sessions})
	router.RegisterAuth(e, handler.NewAuthHandler(acc, sessions), middleware.NewLoginLimiter(config.LoadRateLimitConfig(), rdb), cfg.JWTSecret)
	router.RegisterDashboard(e, events, cfg.JWTSecret)
	router.RegisterAPI(e, events, cfg.JWTSecret, middleware.NewRedisCache(cacheCfg, rdb))

	addr := ":" + cfg.Port
	go func() {
		e.Logger.Infof("listening on %s (env=%s, feed=%s)", addr, cfg.Env, cfg.FeedURL)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			e.Logger.Fatal(err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if warmer != nil {
		<-warmer.Stop().Done()
	}
	if err := e.Shutdown(shutdownCtx); err != nil {
		e.Logger.Error(err)
	}
	if notifier != nil {
		notifier.Wait()
	}
	if rdb != nil {
		_ = rdb.Close()
	}
}
