// Command seed-db runs migrations and loads a starter product catalog and a
// set of sample coupons into the database.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/xenking/coupon-engine/internal/domain/catalog"
	"github.com/xenking/coupon-engine/internal/domain/coupon"
	"github.com/xenking/coupon-engine/internal/storage/postgres"
)

func main() {
	var (
		databaseURL  string
		productsFile string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&productsFile, "products-file", "db/seed/products.json", "path to products JSON file")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, productsFile); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, productsFile string) error {
	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := seedProducts(ctx, postgres.NewCatalogRepository(pool), productsFile); err != nil {
		return errors.Wrap(err, "seed products")
	}

	if err := seedCoupons(ctx, pool, postgres.NewCouponRepository(pool)); err != nil {
		return errors.Wrap(err, "seed coupons")
	}

	return nil
}

func seedProducts(ctx context.Context, repo catalog.Repository, productsFile string) error {
	slog.Info("reading products file", slog.String("path", productsFile))

	data, err := os.ReadFile(productsFile)
	if err != nil {
		return errors.Wrap(err, "read products file")
	}

	var products []catalog.Product
	if err := json.Unmarshal(data, &products); err != nil {
		return errors.Wrap(err, "parse products JSON")
	}

	for _, p := range products {
		if err := repo.Upsert(ctx, p); err != nil {
			return errors.Wrapf(err, "upsert product %d", p.ID)
		}
	}

	slog.Info("products seeded", slog.Int("count", len(products)))
	return nil
}

// seedCoupons inserts one sample coupon per kind, unless coupons already
// exist. Seeding is meant for fresh databases only.
func seedCoupons(ctx context.Context, pool *pgxpool.Pool, repo *postgres.CouponRepository) error {
	var count int64
	if err := pool.QueryRow(ctx, `SELECT count(*) FROM coupons`).Scan(&count); err != nil {
		return errors.Wrap(err, "count coupons")
	}
	if count > 0 {
		slog.Info("coupons already present, skipping", slog.Int64("count", count))
		return nil
	}

	samples := []coupon.Coupon{
		{
			Kind:   coupon.KindCartWise,
			Active: true,
			CartWise: &coupon.CartWiseSpec{
				Threshold:    decimal.NewFromInt(100),
				Discount:     decimal.NewFromInt(10),
				DiscountType: coupon.DiscountPercentage,
			},
		},
		{
			Kind:   coupon.KindProductWise,
			Active: true,
			ProductWise: &coupon.ProductWiseSpec{
				ProductID:    1,
				Discount:     decimal.NewFromInt(20),
				DiscountType: coupon.DiscountPercentage,
			},
		},
		{
			Kind:   coupon.KindBxGy,
			Active: true,
			BxGy: &coupon.BxGySpec{
				BuyProducts:     []int64{1, 2},
				BuyQuantity:     3,
				GetProducts:     []int64{3},
				GetQuantity:     1,
				RepetitionLimit: 2,
			},
		},
	}

	for i := range samples {
		if err := repo.Create(ctx, &samples[i]); err != nil {
			return errors.Wrapf(err, "create sample coupon %q", samples[i].Kind)
		}
	}

	slog.Info("coupons seeded", slog.Int("count", len(samples)))
	return nil
}
