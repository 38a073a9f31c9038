package main

import (
	"context"
	"os"
	"strconv"

	log "github.com/sirupsen/logrus"

	"github.com/ChihavaJoy/ABCRetailers/storage"
)

func main() {
	if dbg, err := strconv.ParseBool(os.Getenv("DEBUG")); err == nil && dbg {
		log.SetLevel(log.DebugLevel)
	}
	log.Info("storage init starting")

	connStr := os.Getenv("STORAGE_CONNECTION_STRING")
	if connStr == "" {
		log.Fatal("missing STORAGE_CONNECTION_STRING")
	}

	store, err := storage.New(connStr, storage.NamesFromEnv())
	if err != nil {
		log.Fatalf("storage: %v", err)
	}
	if err := store.Init(context.Background()); err != nil {
		log.Fatalf("provision storage: %v", err)
	}

	log.Info("storage init complete")
}
