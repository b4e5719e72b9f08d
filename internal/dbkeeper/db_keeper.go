package dbkeeper

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/drstein77/shopsphere/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type Log interface {
	Info(string, ...zap.Field)
	Error(string, ...zap.Field)
}

type DBKeeper struct {
	pool *pgxpool.Pool
	log  Log
}

// NewDBKeeper connects to the database. It returns nil when the dsn is empty or unusable.
func NewDBKeeper(ctx context.Context, dsn func() string, log Log) *DBKeeper {
	addr := dsn()
	if addr == "" {
		log.Info("database dsn is empty")
		return nil
	}

	config, err := pgxpool.ParseConfig(addr)
	if err != nil {
		log.Error("Unable to parse database DSN: ", zap.Error(err))
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		log.Error("Unable to connect to database: ", zap.Error(err))
		return nil
	}

	log.Info("Connected!")

	return &DBKeeper{
		pool: pool,
		log:  log,
	}
}

// InsertCatalogItems upserts items by id and returns stats over the whole catalog table.
func (kp *DBKeeper) InsertCatalogItems(ctx context.Context, items []models.CatalogItem) (_ *models.ImportResponse, err error) {
	if kp.pool == nil {
		return nil, fmt.Errorf("database connection pool is nil")
	}

	tx, err := kp.pool.Begin(ctx)
	if err != nil {
		kp.log.Error("Failed to begin transaction", zap.Error(err))
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rollbackErr := tx.Rollback(ctx); rollbackErr != nil && !errors.Is(rollbackErr, pgx.ErrTxClosed) {
				kp.log.Error("Failed to rollback transaction", zap.Error(rollbackErr))
				err = errors.Join(err, rollbackErr)
			}
		}
	}()

	stmt := `
		INSERT INTO catalog_items
			(id, name, category, price, rating, description, images, colors, sizes, features, review_count)
		VALUES ($1, $2, $3, $4::numeric, $5, $6,
			coalesce($7::text[], '{}'), coalesce($8::text[], '{}'),
			coalesce($9::text[], '{}'), coalesce($10::text[], '{}'), $11)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			category = EXCLUDED.category,
			price = EXCLUDED.price,
			rating = EXCLUDED.rating,
			description = EXCLUDED.description,
			images = EXCLUDED.images,
			colors = EXCLUDED.colors,
			sizes = EXCLUDED.sizes,
			features = EXCLUDED.features,
			review_count = EXCLUDED.review_count,
			updated_at = now()`

	batch := &pgx.Batch{}
	for _, item := range items {
		batch.Queue(stmt, item.ID, item.Name, item.Category, item.Price.String(), item.Rating,
			item.Description, item.ImageRefs, item.Colors, item.Sizes, item.Features, item.ReviewCount)
	}

	br := tx.SendBatch(ctx, batch)
	for range items {
		if _, execErr := br.Exec(); execErr != nil {
			_ = br.Close()
			err = fmt.Errorf("failed to execute batch query: %w", execErr)
			return nil, err
		}
	}
	if closeErr := br.Close(); closeErr != nil {
		err = fmt.Errorf("failed to close batch: %w", closeErr)
		return nil, err
	}

	statsCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var (
		resp  models.ImportResponse
		total string
	)
	row := tx.QueryRow(statsCtx, `
		SELECT COUNT(*), COUNT(DISTINCT category), COALESCE(SUM(price), 0)::text
		FROM catalog_items
	`)
	if err = row.Scan(&resp.TotalItems, &resp.TotalCategories, &total); err != nil {
		err = fmt.Errorf("failed to calculate stats: %w", err)
		return nil, err
	}
	if resp.TotalPrice, err = decimal.NewFromString(total); err != nil {
		err = fmt.Errorf("failed to parse total price %q: %w", total, err)
		return nil, err
	}

	if err = tx.Commit(ctx); err != nil {
		err = fmt.Errorf("failed to commit transaction: %w", err)
		return nil, err
	}

	kp.log.Info("Catalog items upserted", zap.Int("count", len(items)))
	return &resp, nil
}

// GetCatalogItems returns the stored catalog ordered by id.
func (kp *DBKeeper) GetCatalogItems(ctx context.Context) ([]models.CatalogItem, error) {
	if kp.pool == nil {
		return nil, fmt.Errorf("database connection pool is nil")
	}

	rows, err := kp.pool.Query(ctx, `
		SELECT id, name, category, price::text, rating, description,
			images, colors, sizes, features, review_count
		FROM catalog_items
		ORDER BY id
	`)
	if err != nil {
		kp.log.Error("Failed to execute query", zap.Error(err))
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	var items []models.CatalogItem
	for rows.Next() {
		var (
			item  models.CatalogItem
			price string
		)
		err := rows.Scan(
			&item.ID,
			&item.Name,
			&item.Category,
			&price,
			&item.Rating,
			&item.Description,
			&item.ImageRefs,
			&item.Colors,
			&item.Sizes,
			&item.Features,
			&item.ReviewCount,
		)
		if err != nil {
			kp.log.Error("Failed to scan row", zap.Error(err))
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		if item.Price, err = decimal.NewFromString(price); err != nil {
			return nil, fmt.Errorf("failed to parse price of item %d: %w", item.ID, err)
		}
		items = append(items, item)
	}

	if rows.Err() != nil {
		kp.log.Error("Error occurred during rows iteration", zap.Error(rows.Err()))
		return nil, fmt.Errorf("error during rows iteration: %w", rows.Err())
	}

	return items, nil
}

func (kp *DBKeeper) Ping(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := kp.pool.Ping(ctx); err != nil {
		kp.log.Error("Database ping failed", zap.Error(err))
		return false
	}

	return true
}

func (kp *DBKeeper) Close() bool {
	if kp.pool != nil {
		kp.pool.Close()
		kp.log.Info("Database connection pool closed")
		return true
	}
	kp.log.Info("Attempted to close a nil database connection pool")
	return false
}
