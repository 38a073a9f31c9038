package main

import (
	"os"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/ChihavaJoy/ABCRetailers/api"
	"github.com/ChihavaJoy/ABCRetailers/storage"
	"github.com/ChihavaJoy/ABCRetailers/workflow"
)

func main() {
	if dbg, err := strconv.ParseBool(os.Getenv("DEBUG")); err == nil && dbg {
		log.SetLevel(log.DebugLevel)
	}

	connStr := os.Getenv("STORAGE_CONNECTION_STRING")
	if connStr == "" {
		log.Fatal("missing STORAGE_CONNECTION_STRING")
	}
	store, err := storage.New(connStr, storage.NamesFromEnv())
	if err != nil {
		log.Fatalf("storage: %v", err)
	}

	var deduper workflow.Deduper
	if redisConn := os.Getenv("REDIS_CONNECTION_STRING"); redisConn != "" {
		redisOpts, err := redis.ParseURL(redisConn)
		if err != nil {
			log.Fatalf("invalid REDIS_CONNECTION_STRING: %v", err)
		}
		ttl := 24 * time.Hour
		if v := os.Getenv("ORDER_DEDUP_TTL"); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil || d <= 0 {
				log.Fatalf("invalid ORDER_DEDUP_TTL: %v", err)
			}
			ttl = d
		}
		deduper = workflow.NewRedisDeduper(redis.NewClient(redisOpts), ttl)
	} else {
		log.Warn("REDIS_CONNECTION_STRING not set, order idempotency keys are ignored")
	}

	placer := workflow.NewPlacer(store, deduper, log.StandardLogger())

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	api.Register(e, store, placer, log.StandardLogger())

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Fatal(e.Start(":" + port))
}
