package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/deanwaring-hub/voicecraft/internal/client"
	"github.com/deanwaring-hub/voicecraft/internal/config"
	"github.com/deanwaring-hub/voicecraft/internal/identity"
	"github.com/deanwaring-hub/voicecraft/internal/poller"
	"github.com/deanwaring-hub/voicecraft/internal/service"
	"github.com/deanwaring-hub/voicecraft/internal/session"
	"github.com/deanwaring-hub/voicecraft/internal/web"
	ws "github.com/deanwaring-hub/voicecraft/internal/websocket"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Session store (tab-scoped state: identity, bearer token, current job)
	store := session.NewStore()

	// Identity provider client
	identityClient := identity.NewClient(&cfg.Identity)

	// JWKS verifier (optional — without an issuer, tokens are parsed unverified)
	var verifier identity.TokenVerifier
	if cfg.Identity.Issuer != "" {
		jwksVerifier, err := identity.NewJWKSVerifier(&cfg.Identity)
		if err != nil {
			log.Printf("Warning: JWKS verifier not initialized: %v", err)
		} else {
			verifier = jwksVerifier
			defer jwksVerifier.Close()
		}
	}

	// Jobs API client
	jobsClient := client.NewJobsClient(&cfg.API)

	// Storage clients are built per upload around the exchanged credentials
	newStorage := func(creds *identity.StorageCredentials) (client.StorageClient, error) {
		return client.NewS3Client(&cfg.Storage, creds)
	}

	// Validator
	validate := validator.New()

	// Services
	listService := service.NewJobListService(jobsClient, store)
	submitService := service.NewSubmitService(identityClient, newStorage, store, cfg.Upload, validate)

	// Job poller + transition fan-out
	jobPoller := poller.New(jobsClient, store, time.Duration(cfg.Poll.IntervalMillis)*time.Millisecond)

	hub := ws.NewHub()
	go hub.Run()
	jobPoller.Subscribe(hub)
	jobPoller.Subscribe(web.NewListRefresher(listService))

	// Pick up a current job persisted before a restart
	jobPoller.Resume()

	// Handlers
	app := web.NewApp(web.Handlers{
		Auth:   web.NewAuthHandler(identityClient, verifier, store, jobPoller, validate),
		Upload: web.NewUploadHandler(submitService, jobPoller),
		Jobs:   web.NewJobsHandler(listService, jobPoller, store),
		Hub:    hub,
		Store:  store,
	})

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := app.Listen(":" + cfg.Server.Port); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	log.Printf("voicecraft gateway listening on port %s", cfg.Server.Port)

	<-quit
	log.Println("Shutting down...")

	jobPoller.Stop()
	if err := app.Shutdown(); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}
