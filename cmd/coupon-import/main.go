// Command coupon-import bulk-loads coupon definitions from gzipped JSONL
// dump files. Each line holds one coupon:
//
//	{"ref": "SPRING24", "type": "cart-wise", "active": true, "details": {...}}
//
// Dumps exported from upstream systems overlap; a per-file bloom filter is
// used to drop references already covered by an earlier file, so each ref is
// imported exactly once per run. Imports are idempotent across runs via
// upsert on the external reference.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/coupon-engine/internal/domain/coupon"
	"github.com/xenking/coupon-engine/internal/storage/postgres"
)

const (
	bloomCapacity = 10_000_000
	bloomFPR      = 0.001
	progressEvery = 1_000_000
)

// couponLine is one record in a dump file.
type couponLine struct {
	Ref     string          `json:"ref"`
	Type    string          `json:"type"`
	Active  *bool           `json:"active,omitempty"`
	Details json.RawMessage `json:"details"`
}

func main() {
	var databaseURL string

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.Parse()

	files := flag.Args()
	if len(files) == 0 {
		slog.Error("usage: coupon-import [--database-url URL] dump1.jsonl.gz [dump2.jsonl.gz ...]")
		os.Exit(1)
	}

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, files); err != nil {
		slog.Error("coupon import failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("coupon import completed successfully")
}

func run(ctx context.Context, databaseURL string, files []string) error {
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			return errors.Wrapf(err, "check file %s", f)
		}
	}

	// Pass 1: one bloom filter of refs per file, built concurrently.
	slog.Info("pass 1: building bloom filters", slog.Int("files", len(files)))

	filters, err := buildRefFilters(ctx, files)
	if err != nil {
		return errors.Wrap(err, "build ref filters")
	}

	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	// Pass 2: stream files in order, skipping refs covered by earlier files.
	slog.Info("pass 2: importing coupons")

	repo := postgres.NewCouponRepository(pool)
	total := 0
	for i, f := range files {
		imported, err := importFile(ctx, repo, f, filters[:i])
		if err != nil {
			return errors.Wrapf(err, "import file %s", f)
		}
		total += imported
	}

	slog.Info("import done", slog.Int("coupons", total))
	return nil
}

// buildRefFilters creates one bloom filter of coupon refs per file.
func buildRefFilters(ctx context.Context, files []string) ([]*bloom.BloomFilter, error) {
	filters := make([]*bloom.BloomFilter, len(files))

	g, ctx := errgroup.WithContext(ctx)
	for i, f := range files {
		g.Go(func() error {
			filter := bloom.NewWithEstimates(bloomCapacity, bloomFPR)
			count := 0

			if err := streamGzLines(ctx, f, func(data []byte) error {
				var line couponLine
				if err := json.Unmarshal(data, &line); err != nil {
					return errors.Wrap(err, "parse line")
				}
				if line.Ref != "" {
					filter.AddString(line.Ref)
					count++
					if count%progressEvery == 0 {
						slog.Info("pass 1 progress", slog.Int("file", i+1), slog.Int("refs", count))
					}
				}
				return nil
			}); err != nil {
				return errors.Wrapf(err, "scan %s", f)
			}

			slog.Info("pass 1 complete", slog.Int("file", i+1), slog.Int("refs", count))
			filters[i] = filter
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return filters, nil
}

// importFile upserts every valid coupon from one dump file, skipping refs
// seen earlier in the same file or present in any earlier file's filter.
func importFile(ctx context.Context, repo *postgres.CouponRepository, path string, earlier []*bloom.BloomFilter) (int, error) {
	seen := make(map[string]struct{})
	imported := 0

	err := streamGzLines(ctx, path, func(data []byte) error {
		var line couponLine
		if err := json.Unmarshal(data, &line); err != nil {
			return errors.Wrap(err, "parse line")
		}
		if line.Ref == "" {
			slog.Warn("skipping record without ref")
			return nil
		}
		if _, dup := seen[line.Ref]; dup {
			return nil
		}
		seen[line.Ref] = struct{}{}

		for _, f := range earlier {
			if f.TestString(line.Ref) {
				return nil
			}
		}

		cp := coupon.Coupon{Active: true}
		if line.Active != nil {
			cp.Active = *line.Active
		}
		if err := cp.UnmarshalDetails(coupon.Kind(line.Type), line.Details); err != nil {
			slog.Warn("skipping unparsable coupon", slog.String("ref", line.Ref), slog.String("error", err.Error()))
			return nil
		}
		if err := cp.Validate(); err != nil {
			slog.Warn("skipping malformed coupon", slog.String("ref", line.Ref), slog.String("error", err.Error()))
			return nil
		}

		if err := repo.UpsertByRef(ctx, line.Ref, &cp); err != nil {
			return errors.Wrapf(err, "upsert coupon %s", line.Ref)
		}

		imported++
		return nil
	})
	if err != nil {
		return 0, err
	}

	slog.Info("file imported", slog.String("path", path), slog.Int("coupons", imported))
	return imported, nil
}

// streamGzLines opens a gzip-compressed file and calls fn for each line.
func streamGzLines(ctx context.Context, path string, fn func(line []byte) error) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return errors.Wrapf(err, "create gzip reader for %s", path)
	}
	defer func() { _ = gz.Close() }()

	scanner := bufio.NewScanner(gz)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if len(scanner.Bytes()) == 0 {
			continue
		}
		if err := fn(scanner.Bytes()); err != nil {
			return err
		}
	}

	if err := scanner.Err(); err != nil {
		return errors.Wrapf(err, "scan %s", path)
	}

	return nil
}
