package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/tabletop-forge/combat-engine/internal/config"
	"github.com/tabletop-forge/combat-engine/internal/dice"
	"github.com/tabletop-forge/combat-engine/internal/domain/rulebook"
	"github.com/tabletop-forge/combat-engine/internal/events"
	"github.com/tabletop-forge/combat-engine/internal/repositories/encounters"
	combatsvc "github.com/tabletop-forge/combat-engine/internal/services/combat"
)

// logObserver writes every combat event to the process log
type logObserver struct{}

func (logObserver) ID() string { return "log" }

func (logObserver) Notify(event events.Event) error {
	log.Printf("event %s session=%s", event.Type, event.SessionID)
	return nil
}

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	} else {
		log.Println("Loaded .env file")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Validate the action catalog eagerly; a malformed entry should
	// stop the process at startup, not at use time
	catalogData, err := os.ReadFile(cfg.Combat.ActionsPath)
	if err != nil {
		log.Fatalf("Failed to read action catalog %s: %v", cfg.Combat.ActionsPath, err)
	}
	catalog, err := rulebook.LoadActions(catalogData)
	if err != nil {
		log.Fatalf("Failed to load action catalog: %v", err)
	}
	log.Printf("Loaded %d action definitions", len(catalog))

	// Keep Redis client for cleanup
	var redisClient *redis.Client

	repo := buildRepository(cfg, &redisClient)

	notifier := events.NewNotifier()
	notifier.Subscribe(logObserver{})

	svc := combatsvc.NewService(&combatsvc.ServiceConfig{
		Repository: repo,
		Roller:     dice.NewRandomRoller(),
		Notifier:   notifier,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	restored, err := svc.LoadSessions(ctx)
	cancel()
	if err != nil {
		log.Printf("Failed to restore sessions: %v", err)
	} else if restored > 0 {
		log.Printf("Restored %d sessions", restored)
	}

	log.Println("Combat engine is running. Press CTRL-C to exit.")
	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-sc

	log.Println("Shutting down...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := svc.Shutdown(shutdownCtx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			log.Printf("Error closing Redis client: %v", err)
		}
	}
}

// buildRepository connects to Redis when configured and falls back to
// the in-memory repository otherwise
func buildRepository(cfg *config.Config, redisClient **redis.Client) encounters.Repository {
	if cfg.Redis.Addr == "" {
		log.Println("No REDIS_ADDR set, using in-memory repository")
		return encounters.NewInMemoryRepository()
	}

	log.Printf("Connecting to Redis at: %s", cfg.Redis.Addr)
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("Failed to connect to Redis: %v", err)
		log.Println("Falling back to in-memory repository")
		_ = client.Close()
		return encounters.NewInMemoryRepository()
	}

	log.Println("Successfully connected to Redis")
	*redisClient = client
	return encounters.NewRedisRepository(&encounters.RedisRepoConfig{
		Client:       client,
		EncounterTTL: cfg.Combat.EncounterTTL,
	})
}
