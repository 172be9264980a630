// Package database imports checkpointed records into Postgres.
package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"paperharvest/pkg/checkpoint"
	"paperharvest/pkg/config"
	"paperharvest/pkg/logger"
	"paperharvest/pkg/models"
)

// Paper is the relational shape of a Record
type Paper struct {
	ArxivID         string
	Title           string
	Abstract        string
	PDFURL          string
	Published       *time.Time
	PrimaryCategory string
	// Authors in listed order
	Authors []string
	// Categories is the de-duplicated union of primary and listed categories
	Categories []string
}

// FromRecord converts a record; the arXiv id is the last segment of its URL
func FromRecord(r models.Record) Paper {
	p := Paper{
		ArxivID:         r.ShortID(),
		Title:           r.Title,
		Abstract:        r.Abstract,
		PDFURL:          r.PDFURL,
		PrimaryCategory: r.PrimaryCategory,
		Authors:         r.Authors,
		Categories:      r.AllCategories(),
	}
	if !r.Published.IsZero() {
		t := r.Published.UTC()
		p.Published = &t
	}
	return p
}

// FileStats counts one checkpoint's import
type FileStats struct {
	Key       string
	Succeeded int
	Failed    int
	Err       error
}

// Stats totals an import
type Stats struct {
	Files     []FileStats
	Succeeded int
	Failed    int
}

func (s *Stats) add(f FileStats) {
	s.Files = append(s.Files, f)
	s.Succeeded += f.Succeeded
	s.Failed += f.Failed
}

// Importer writes papers through a connection pool
type Importer struct {
	pool   *pgxpool.Pool
	logger logger.Logger
}

// Open connects to dsn and verifies the connection
func Open(ctx context.Context, cfg config.DatabaseConfig, dsn string, log logger.Logger) (*Importer, error) {
	if dsn == "" {
		return nil, errors.New("database URL is not configured")
	}
	pcfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}
	if cfg.MaxConns > 0 {
		pcfg.MaxConns = cfg.MaxConns
	}
	if cfg.ApplicationName != "" {
		pcfg.ConnConfig.RuntimeParams["application_name"] = cfg.ApplicationName
	}

	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	log = logger.OrNop(log).WithField("component", "database")
	log.InfoWithFields("Connected to database", map[string]interface{}{
		"host":      pcfg.ConnConfig.Host,
		"database":  pcfg.ConnConfig.Database,
		"max_conns": pcfg.MaxConns,
	})
	return &Importer{pool: pool, logger: log}, nil
}

// Close releases the pool
func (i *Importer) Close() {
	i.pool.Close()
}

// EnsureSchema creates missing tables and unique constraints
func (i *Importer) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := i.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}
	for _, c := range uniqueConstraints {
		var exists bool
		if err := i.pool.QueryRow(ctx, constraintExistsSQL, c.table, c.name).Scan(&exists); err != nil {
			return fmt.Errorf("failed to inspect constraints on %s: %w", c.table, err)
		}
		if exists {
			continue
		}
		i.logger.InfoWithFields("Adding unique constraint", map[string]interface{}{
			"table":  c.table,
			"column": c.column,
		})
		stmt := fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s UNIQUE (%s)",
			pgx.Identifier{c.table}.Sanitize(), pgx.Identifier{c.name}.Sanitize(), pgx.Identifier{c.column}.Sanitize())
		if _, err := i.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to add constraint %s: %w", c.name, err)
		}
	}
	return nil
}

// ImportStore imports every checkpoint in keys. A failing paper or file is
// counted and the import moves on; only ctx ending stops it early.
func (i *Importer) ImportStore(ctx context.Context, store checkpoint.Store, keys []string) (Stats, error) {
	var stats Stats
	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		records, err := store.Read(ctx, key)
		if err != nil {
			i.logger.WithError(err).WithField("unit", key).Error("Failed to read checkpoint")
			stats.add(FileStats{Key: key, Err: err})
			continue
		}
		fs := i.ImportRecords(ctx, records)
		fs.Key = key
		stats.add(fs)
		i.logger.InfoWithFields("Imported checkpoint", map[string]interface{}{
			"unit":      key,
			"succeeded": fs.Succeeded,
			"failed":    fs.Failed,
		})
	}
	return stats, nil
}

// ImportRecords upserts each record in its own transaction
func (i *Importer) ImportRecords(ctx context.Context, records []models.Record) FileStats {
	var fs FileStats
	for _, r := range records {
		if err := i.upsert(ctx, FromRecord(r)); err != nil {
			i.logger.WithError(err).WithField("paper", r.ID).Warn("Failed to import paper")
			fs.Failed++
			fs.Err = err
			continue
		}
		fs.Succeeded++
	}
	return fs
}

func (i *Importer) upsert(ctx context.Context, p Paper) error {
	tx, err := i.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := upsertPaper(ctx, tx, p); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func upsertPaper(ctx context.Context, q pgx.Tx, p Paper) error {
	var paperID int
	err := q.QueryRow(ctx, upsertPaperSQL,
		p.ArxivID, p.Title, p.Abstract, p.PDFURL, p.Published, p.PrimaryCategory,
	).Scan(&paperID)
	if err != nil {
		return fmt.Errorf("upsert paper %s: %w", p.ArxivID, err)
	}

	for order, name := range p.Authors {
		var authorID int
		if err := q.QueryRow(ctx, upsertAuthorSQL, name).Scan(&authorID); err != nil {
			return fmt.Errorf("upsert author %q: %w", name, err)
		}
		if _, err := q.Exec(ctx, linkAuthorSQL, paperID, authorID, order); err != nil {
			return fmt.Errorf("link author %q: %w", name, err)
		}
	}

	for _, name := range p.Categories {
		var categoryID int
		if err := q.QueryRow(ctx, upsertCategorySQL, name).Scan(&categoryID); err != nil {
			return fmt.Errorf("upsert category %s: %w", name, err)
		}
		if _, err := q.Exec(ctx, linkCategorySQL, paperID, categoryID); err != nil {
			return fmt.Errorf("link category %s: %w", name, err)
		}
	}
	return nil
}
