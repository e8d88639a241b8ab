// Command catalog-import loads product feeds into the catalog. Feeds are
// gzip-compressed files with one JSON product object per line; multiple feeds
// may carry the same product under the same name, and only the first
// occurrence is kept.
package main

import (
	"bufio"
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/aman-soni-070202/mini-order-processing-service/internal/repository"
)

const (
	bloomCapacity = 10_000_000
	bloomFPR      = 0.001
	progressEvery = 100_000
)

const upsertProductSQL = `INSERT INTO products (id, name, description, price, stock)
	VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (name) DO UPDATE
	SET description = EXCLUDED.description,
	    price = EXCLUDED.price,
	    stock = EXCLUDED.stock`

// productRow is one parsed feed line.
type productRow struct {
	ID          string
	Name        string
	Description string
	Price       decimal.Decimal
	Stock       int
}

func main() {
	var (
		dataDir     string
		pattern     string
		databaseURL string
	)

	flag.StringVar(&dataDir, "data-dir", "data", "directory containing feed files")
	flag.StringVar(&pattern, "pattern", "*.json.gz", "glob pattern for feed files inside data-dir")
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
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

	if err := run(ctx, dataDir, pattern, databaseURL); err != nil {
		slog.Error("catalog import failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("catalog import completed successfully")
}

func run(ctx context.Context, dataDir, pattern, databaseURL string) error {
	files, err := filepath.Glob(filepath.Join(dataDir, pattern))
	if err != nil {
		return errors.Wrap(err, "glob feed files")
	}
	if len(files) == 0 {
		return errors.Errorf("no feed files matching %s in %s", pattern, dataDir)
	}

	slog.Info("parsing feeds", slog.Int("files", len(files)))

	parsed, err := parseFeeds(ctx, files)
	if err != nil {
		return errors.Wrap(err, "parse feeds")
	}

	products := dedupe(parsed)

	slog.Info("products after dedupe", slog.Int("count", len(products)))

	if len(products) == 0 {
		slog.Info("nothing to import")
		return nil
	}

	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	return writeProducts(ctx, pool, products)
}

// parseFeeds parses every feed file concurrently, preserving the file order
// so that dedupe keeps the first occurrence across feeds.
func parseFeeds(ctx context.Context, files []string) ([][]productRow, error) {
	parsed := make([][]productRow, len(files))

	g, ctx := errgroup.WithContext(ctx)
	for i, f := range files {
		g.Go(parseFeedFile(ctx, i, f, parsed))
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return parsed, nil
}

func parseFeedFile(ctx context.Context, idx int, path string, parsed [][]productRow) func() error {
	return func() error {
		var (
			rows  []productRow
			count uint64
		)

		if err := streamGzFile(ctx, path, func(line []byte) error {
			row, err := parseProduct(line)
			if err != nil {
				return errors.Wrapf(err, "line %d", count+1)
			}
			rows = append(rows, row)

			count++
			if count%progressEvery == 0 {
				slog.Info("parse progress",
					slog.String("file", filepath.Base(path)),
					slog.Uint64("lines", count),
				)
			}
			return nil
		}); err != nil {
			return errors.Wrapf(err, "parse feed %s", path)
		}

		slog.Info("feed parsed",
			slog.String("file", filepath.Base(path)),
			slog.Uint64("products", count),
		)

		parsed[idx] = rows
		return nil
	}
}

// dedupe flattens the per-feed slices, keeping the first product seen for
// each name. The bloom filter makes the common miss path cheap; a positive
// is confirmed against the exact set so a false positive never drops a
// product.
func dedupe(parsed [][]productRow) []productRow {
	filter := bloom.NewWithEstimates(bloomCapacity, bloomFPR)
	seen := make(map[string]struct{})

	var out []productRow
	for _, rows := range parsed {
		for _, row := range rows {
			key := strings.ToLower(row.Name)
			if filter.TestString(key) {
				if _, ok := seen[key]; ok {
					continue
				}
			}
			filter.AddString(key)
			seen[key] = struct{}{}
			out = append(out, row)
		}
	}

	return out
}

// streamGzFile opens a gzip-compressed file and calls fn for each line.
func streamGzFile(ctx context.Context, path string, fn func(line []byte) error) error {
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

// parseProduct decodes one feed line. Price may be a JSON number or a string;
// a missing id gets a generated one.
func parseProduct(line []byte) (productRow, error) {
	var row productRow
	d := jx.DecodeBytes(line)

	if err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "id":
			v, err := d.Str()
			if err != nil {
				return errors.Wrap(err, "id")
			}
			row.ID = v
		case "name":
			v, err := d.Str()
			if err != nil {
				return errors.Wrap(err, "name")
			}
			row.Name = v
		case "description":
			v, err := d.Str()
			if err != nil {
				return errors.Wrap(err, "description")
			}
			row.Description = v
		case "price":
			var raw string
			switch d.Next() {
			case jx.String:
				v, err := d.Str()
				if err != nil {
					return errors.Wrap(err, "price")
				}
				raw = v
			default:
				n, err := d.Num()
				if err != nil {
					return errors.Wrap(err, "price")
				}
				raw = n.String()
			}
			v, err := decimal.NewFromString(raw)
			if err != nil {
				return errors.Wrap(err, "price")
			}
			row.Price = v
		case "stock", "inventory":
			v, err := d.Int()
			if err != nil {
				return errors.Wrap(err, key)
			}
			row.Stock = v
		default:
			return d.Skip()
		}
		return nil
	}); err != nil {
		return productRow{}, errors.Wrap(err, "decode product")
	}

	if row.Name == "" {
		return productRow{}, errors.New("product name is required")
	}
	if !row.Price.IsPositive() {
		return productRow{}, errors.Errorf("product %q has non-positive price", row.Name)
	}
	if row.Stock < 0 {
		return productRow{}, errors.Errorf("product %q has negative stock", row.Name)
	}
	if row.ID == "" {
		row.ID = uuid.New().String()
	}

	return row, nil
}

// writeProducts upserts all products into the catalog.
func writeProducts(ctx context.Context, pool *pgxpool.Pool, products []productRow) error {
	slog.Info("writing products to database", slog.Int("count", len(products)))

	for i, p := range products {
		if _, err := pool.Exec(ctx, upsertProductSQL,
			p.ID, p.Name, p.Description, p.Price, p.Stock,
		); err != nil {
			return errors.Wrapf(err, "upsert product %q", p.Name)
		}

		if (i+1)%100 == 0 || i+1 == len(products) {
			slog.Info("write progress", slog.Int("written", i+1), slog.Int("total", len(products)))
		}
	}

	return nil
}
