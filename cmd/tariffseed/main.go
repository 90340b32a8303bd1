// Command tariffseed writes the configured default tariff into the tariff
// store when the jurisdiction has no row yet. With -admin-token it also
// prints a short-lived admin token for the admin API.
//
//	go run ./cmd/tariffseed --mode=admin-service --admin-token
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/kompa2go/kommute-fare/config"
	"github.com/kompa2go/kommute-fare/internal/adapter/postgres"
	"github.com/kompa2go/kommute-fare/internal/domain/models"
	"github.com/kompa2go/kommute-fare/internal/domain/types"
	"github.com/kompa2go/kommute-fare/internal/service/auth"
	pg "github.com/kompa2go/kommute-fare/pkg/postgres"
)

var (
	configPath = flag.String("config-path", "config.yaml", "Path to the config yaml file")
	adminToken = flag.Bool("admin-token", false, "Print an admin access token")
)

func main() {
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.NewConfig(*configPath)
	if err != nil {
		log.Fatal(err)
	}

	client, err := pg.New(ctx, cfg.Database)
	if err != nil {
		log.Fatal(err)
	}
	defer client.Close()

	seedDefaultTariff(ctx, postgres.NewTariffRepo(client.Pool), cfg.Tariff.Default())

	if *adminToken {
		tokens := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL)
		token, exp, err := tokens.Sign(ctx, models.User{ID: "tariffseed", Role: types.RoleAdmin})
		if err != nil {
			log.Fatalf("sign admin token: %v", err)
		}
		fmt.Printf("admin token (expires %s):\n%s\n", exp.Format(time.RFC3339), token)
	}
}

func seedDefaultTariff(ctx context.Context, repo *postgres.TariffRepo, t models.Tariff) {
	// short timeout for seed operations
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	inserted, err := repo.InsertIfMissing(ctx, t)
	if err != nil {
		log.Fatalf("seedDefaultTariff: %v", err)
	}

	if inserted {
		log.Printf("seedDefaultTariff: inserted tariff for %s", t.Jurisdiction)
		return
	}
	log.Printf("seedDefaultTariff: tariff for %s already exists", t.Jurisdiction)
}
