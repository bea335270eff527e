// Command apikey issues and revokes gateway API keys.
//
//	apikey -name ci-bot
//	apikey -name ci-bot -revoke
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/awanllm/chat-gateway/internal/auth"
	"github.com/awanllm/chat-gateway/internal/config"
	"github.com/awanllm/chat-gateway/internal/database"
)

func main() {
	name := flag.String("name", "", "label of the API key")
	revoke := flag.Bool("revoke", false, "deactivate the active key with this name instead of issuing one")
	flag.Parse()

	if *name == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	db, err := database.InitDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	ctx := context.Background()
	if *revoke {
		if err := auth.RevokeKey(ctx, db, *name); err != nil {
			log.Fatalf("❌ %v", err)
		}
		log.Printf("✅ API key %q revoked", *name)
		return
	}

	plain, record, err := auth.IssueKey(ctx, db, *name)
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
	log.Printf("✅ API key %q issued (id %s). It is shown only once.", record.Name, record.ID)
	fmt.Println(plain)
}
