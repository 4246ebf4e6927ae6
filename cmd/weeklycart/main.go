package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/dukerupert/weeklycart/internal/database"
	"github.com/dukerupert/weeklycart/internal/logging"
	"github.com/dukerupert/weeklycart/internal/push"
	"github.com/dukerupert/weeklycart/internal/server"
	"github.com/dukerupert/weeklycart/internal/snapshot"
)

func main() {
	genKeys := flag.Bool("generate-vapid-keys", false, "print a fresh VAPID key pair and exit")
	flag.Parse()

	if *genKeys {
		pub, priv, err := push.GenerateVAPIDKeys()
		if err != nil {
			fmt.Fprintf(os.Stderr, "generate VAPID keys: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("WEEKLYCART_VAPID_PUBLIC_KEY=%s\nWEEKLYCART_VAPID_PRIVATE_KEY=%s\n", pub, priv)
		return
	}

	logger := logging.Setup(os.Getenv("WEEKLYCART_LOG_LEVEL"), os.Getenv("WEEKLYCART_LOG_FORMAT"))

	port := os.Getenv("WEEKLYCART_PORT")
	if port == "" {
		port = "8080"
	}

	dbPath := os.Getenv("WEEKLYCART_DB_PATH")
	if dbPath == "" {
		dbPath = "weeklycart.db"
	}

	baseURL := os.Getenv("WEEKLYCART_BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:" + port
	}

	db, err := database.Open(dbPath)
	if err != nil {
		logger.Error("open database", "path", dbPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	pushCfg := push.Config{
		VAPIDPublicKey:  os.Getenv("WEEKLYCART_VAPID_PUBLIC_KEY"),
		VAPIDPrivateKey: os.Getenv("WEEKLYCART_VAPID_PRIVATE_KEY"),
		Subscriber:      os.Getenv("WEEKLYCART_VAPID_SUBSCRIBER"),
	}
	if !pushCfg.Enabled() {
		logger.Info("VAPID keys not set, push notifications disabled",
			"hint", "run with -generate-vapid-keys to create a pair")
	}

	snapCfg := snapshot.Config{
		Dir:           os.Getenv("WEEKLYCART_SNAPSHOT_DIR"),
		Passphrase:    os.Getenv("WEEKLYCART_SNAPSHOT_PASSPHRASE"),
		ScheduleHour:  envInt("WEEKLYCART_SNAPSHOT_HOUR", 3),
		RetentionDays: envInt("WEEKLYCART_SNAPSHOT_RETENTION_DAYS", 30),
		S3: snapshot.S3Config{
			Endpoint:  os.Getenv("WEEKLYCART_S3_ENDPOINT"),
			Bucket:    os.Getenv("WEEKLYCART_S3_BUCKET"),
			Region:    os.Getenv("WEEKLYCART_S3_REGION"),
			AccessKey: os.Getenv("WEEKLYCART_S3_ACCESS_KEY"),
			SecretKey: os.Getenv("WEEKLYCART_S3_SECRET_KEY"),
		},
	}

	srv, err := server.New(db, baseURL, snapCfg, pushCfg, logger)
	if err != nil {
		logger.Error("initialize server", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	srv.Start(ctx)
	defer srv.Stop()

	httpServer := &http.Server{
		Addr:         ":" + port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		fmt.Printf("WeeklyCart running at http://localhost:%s\n", port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
