package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/slack-go/slack"
)

func main() {
	importPath := flag.String("import", "", "import employees from a CSV file and exit")
	flag.Parse()

	// .env is optional; real deployments set the environment directly.
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded environment from .env")
	}

	cfg := LoadConfig()

	db, err := InitDB(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to init database: %v", err)
	}
	defer db.Close()

	repo := NewEmployeeRepository(db)

	if *importPath != "" {
		stats, err := ImportEmployees(context.Background(), repo, *importPath)
		if err != nil {
			log.Fatalf("Import failed: %v", err)
		}
		log.Printf("Imported employees: created=%d updated=%d skipped=%d", stats.Created, stats.Updated, stats.Skipped)
		return
	}

	var provider CacheProvider
	switch cfg.CacheBackend {
	case "sqlite":
		provider, err = NewSQLiteCache(db)
		if err != nil {
			log.Fatalf("Failed to init cache: %v", err)
		}
	default:
		provider = NewMemoryCache()
	}
	cache := NewCacheService(provider,
		time.Duration(cfg.IntentTTLMinutes)*time.Minute,
		time.Duration(cfg.ResponseTTLMinutes)*time.Minute,
	)

	gen := NewGenerator(cfg)
	classifier := NewClassifier(gen)

	greeting := NewGreetingAgent(gen)
	research := NewResearchAgent(gen)
	email := NewEmailAgent(gen)
	celebration := NewCelebrationAgent(gen, cfg.CompanyName)
	records := NewRecordAgent(gen, repo)

	orch := NewOrchestrator(cache, classifier,
		greeting, research, email, celebration, records,
		time.Duration(cfg.RequestTimeoutSeconds)*time.Second,
	)

	api := slack.New(
		cfg.SlackBotToken,
		slack.OptionAppLevelToken(cfg.SlackAppToken),
	)

	StartCelebrationScheduler(cfg, repo, celebration, api)

	log.Println("Starting AssistBot...")
	if err := StartSlackBot(cfg, orch, api); err != nil {
		log.Fatalf("Slack bot error: %v", err)
	}
}
