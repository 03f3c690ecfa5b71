// Package main provides a CLI tool for seeding the database with demo data.
package main

import (
	"context"
	"fmt"
	"math/rand/v2"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"lumpiah/internal/config"
	appctx "lumpiah/internal/core/context"
	"lumpiah/internal/core/id"
	"lumpiah/internal/core/types"
	"lumpiah/internal/domain/auth"
	"lumpiah/internal/domain/forecast"
	"lumpiah/internal/infrastructure/storage/postgres"
	"lumpiah/internal/infrastructure/storage/postgres/forecast_repo"
	"lumpiah/internal/infrastructure/storage/postgres/sales_repo"
	"lumpiah/internal/infrastructure/storage/postgres/schema"
	"lumpiah/pkg/logger"
)

// seedNamespace derives stable ids so reseeding updates rather than duplicates.
var seedNamespace = uuid.MustParse("6f1c2a3e-55a4-4a0e-9d1b-8f3b8f7e2c10")

func seedID(name string) id.ID {
	return uuid.NewSHA1(seedNamespace, []byte(name))
}

type productSeed struct {
	name     string
	category string
	mean     int
}

var (
	branchNames = []string{"Jakarta Pusat", "Bandung"}

	products = []productSeed{
		{"Lumpia Goreng", "savory", 40},
		{"Lumpia Basah", "savory", 25},
		{"Risoles Mayo", "savory", 30},
		{"Pastel Ayam", "savory", 18},
		{"Kue Lapis", "sweet", 12},
	}
)

func main() {
	log, err := logger.New(logger.Config{
		Level:       "info",
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}

	ctx := logger.WithLogger(context.Background(), log)

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(config.MustEnv("DATABASE_URL")))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	log.Info("connected to database")

	if err := schema.Apply(ctx, pool); err != nil {
		log.Fatalw("failed to apply schema", "error", err)
	}

	txManager := postgres.NewTxManager(pool)

	branchIDs, err := seedCatalog(ctx, txManager)
	if err != nil {
		log.Fatalw("failed to seed catalog", "error", err)
	}

	if config.GetEnvBool("SEED_DEMO_SALES", true) {
		days := config.GetEnvInt("SEED_SALES_DAYS", 21)
		n, err := seedSales(ctx, txManager, branchIDs, types.DayOf(time.Now()), days)
		if err != nil {
			log.Fatalw("failed to seed sales", "error", err)
		}
		log.Infow("sales seeded", "transactions", n, "days", days)
	}

	weights := forecast_repo.NewWeightRepo(txManager)
	if err := weights.Save(ctx, forecast.WeightConfig{
		BranchID: branchIDs[0],
		Weights: []types.Ratio{
			decimal.RequireFromString("0.4"),
			decimal.RequireFromString("0.3"),
			decimal.RequireFromString("0.2"),
			decimal.RequireFromString("0.1"),
		},
		SafetyStockPercent: decimal.RequireFromString("0.15"),
	}); err != nil {
		log.Fatalw("failed to seed weight config", "error", err)
	}

	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		if err := printDevTokens(secret, branchIDs[0]); err != nil {
			log.Warnw("failed to issue dev tokens", "error", err)
		}
	}

	log.Info("seeding completed successfully")
}

func seedCatalog(ctx context.Context, txManager *postgres.TxManager) ([]id.ID, error) {
	branchIDs := make([]id.ID, len(branchNames))

	err := txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		q := txManager.GetQuerier(ctx)
		for i, name := range branchNames {
			branchIDs[i] = seedID("branch:" + name)
			if _, err := q.Exec(ctx, `
				INSERT INTO branches (id, name, is_active)
				VALUES ($1, $2, true)
				ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, is_active = true
			`, branchIDs[i], name); err != nil {
				return fmt.Errorf("insert branch %q: %w", name, err)
			}
		}

		for _, p := range products {
			if _, err := q.Exec(ctx, `
				INSERT INTO products (id, name, category_id, is_active)
				VALUES ($1, $2, $3, true)
				ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, is_active = true
			`, seedID("product:"+p.name), p.name, seedID("category:"+p.category)); err != nil {
				return fmt.Errorf("insert product %q: %w", p.name, err)
			}
		}
		return nil
	})
	return branchIDs, err
}

// seedSales writes one PAID transaction per branch, product and day for the
// days before today. Quantities vary around each product's mean.
func seedSales(ctx context.Context, txManager *postgres.TxManager, branchIDs []id.ID, today types.Day, days int) (int, error) {
	rng := rand.New(rand.NewPCG(42, 7))
	batch := postgres.NewBatchInserter(txManager)

	var txRows, itemRows [][]any
	for _, branchID := range branchIDs {
		for d := days; d >= 1; d-- {
			day := today.AddDays(-d)
			for i, p := range products {
				txID := id.New()
				at := day.Start().Add(time.Duration(8+i) * time.Hour)
				qty := p.mean/2 + rng.IntN(p.mean+1)
				if qty < 1 {
					qty = 1
				}
				txRows = append(txRows, []any{txID, branchID, sales_repo.StatusPaid, at})
				itemRows = append(itemRows, []any{id.New(), txID, seedID("product:" + p.name), qty})
			}
		}
	}

	err := txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		from := today.AddDays(-days).Start()
		if _, err := txManager.GetQuerier(ctx).Exec(ctx, `
			DELETE FROM transactions WHERE branch_id = ANY($1) AND created_at >= $2 AND created_at < $3
		`, branchIDs, from, today.Start()); err != nil {
			return fmt.Errorf("clear seeded window: %w", err)
		}

		if _, err := batch.CopyFromSlice(ctx, "transactions",
			[]string{"id", "branch_id", "status", "created_at"}, txRows); err != nil {
			return err
		}
		_, err := batch.CopyFromSlice(ctx, "transaction_items",
			[]string{"id", "transaction_id", "product_id", "quantity"}, itemRows)
		return err
	})
	return len(txRows), err
}

func printDevTokens(secret string, branchID id.ID) error {
	jwtService, err := auth.NewJWTService(auth.DefaultJWTConfig(secret))
	if err != nil {
		return err
	}

	users := []appctx.UserContext{
		{
			UserID:  "seed-admin",
			Email:   "admin@lumpiah.local",
			Roles:   []string{"admin"},
			IsAdmin: true,
		},
		{
			UserID:   "seed-baker",
			BranchID: branchID.String(),
			Email:    "baker@lumpiah.local",
			Roles:    []string{"baker"},
			Permissions: []string{
				"production:plan:read",
				"production:realization:write",
				"production:accuracy:read",
				"forecast:config:read",
			},
		},
	}

	for _, u := range users {
		token, expiresAt, err := jwtService.GenerateAccessToken(u)
		if err != nil {
			return err
		}
		fmt.Printf("%s (expires %s):\n%s\n\n", u.Email, expiresAt.Format(time.RFC3339), token)
	}
	return nil
}
