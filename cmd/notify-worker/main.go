package main

import (
	"context"
	"os"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/ChihavaJoy/ABCRetailers/storage"
)

func main() {
	if dbg, err := strconv.ParseBool(os.Getenv("DEBUG")); err == nil && dbg {
		log.SetLevel(log.DebugLevel)
	}
	log.Info("notification worker starting")

	connStr := os.Getenv("STORAGE_CONNECTION_STRING")
	if connStr == "" {
		log.Fatal("missing STORAGE_CONNECTION_STRING")
	}
	store, err := storage.New(connStr, storage.NamesFromEnv())
	if err != nil {
		log.Fatalf("storage: %v", err)
	}

	lease := 30 * time.Second
	if v := os.Getenv("NOTIFICATION_LEASE"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			log.Fatalf("invalid NOTIFICATION_LEASE: %v", err)
		}
		lease = d
	}

	w := &worker{
		queue:       store,
		lease:       lease,
		maxDequeues: 5,
		idleDelay:   time.Second,
		logger:      log.StandardLogger(),
	}
	w.run(context.Background())
}
