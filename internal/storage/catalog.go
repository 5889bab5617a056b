package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/wagnerlima/memory-cloud/wikipages/internal/config"
	"github.com/wagnerlima/memory-cloud/wikipages/internal/models"
)

var (
	// ErrNotFound is returned when a read finds nothing to return.
	ErrNotFound = errors.New("not found")
	// ErrCorruptState is returned when persisted data cannot be decoded.
	ErrCorruptState = errors.New("corrupt catalog state")
)

// Catalog owns the three persistent collections: the article of record, the
// link catalog and the title index. Each collection has its own unique key
// and conflict policy; writes for one ingestion are independent calls and are
// never grouped into a transaction.
type Catalog interface {
	// UpsertArticle inserts or overwrites the article keyed by title.
	UpsertArticle(ctx context.Context, title, summary, pageURL string) error
	// InsertLinkIfAbsent inserts a link unless its url is already present.
	// A conflict is not an error; inserted reports whether a row was added.
	InsertLinkIfAbsent(ctx context.Context, title, url, summary string) (inserted bool, err error)
	// UpsertIndex inserts or overwrites the index entry keyed by key.
	UpsertIndex(ctx context.Context, key, title, url string) error
	// ListLinks returns every link in insertion order, or an empty slice.
	ListLinks(ctx context.Context) ([]models.LinkEntry, error)
	// ListIndex returns every index entry ordered by key, or an empty slice.
	ListIndex(ctx context.Context) ([]models.IndexEntry, error)
	// GetLatestArticle returns the most recently upserted article.
	GetLatestArticle(ctx context.Context) (*models.ArticleRecord, error)
	Close() error
}

// Open opens the catalog backend selected by cfg.Driver.
func Open(ctx context.Context, cfg config.StorageConfig) (Catalog, error) {
	switch cfg.Driver {
	case config.DriverSQLite, "":
		return OpenSQLite(cfg.DataDir)
	case config.DriverMongo:
		return OpenMongo(ctx, cfg.Mongo)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// SQLiteCatalog is the default Catalog, backed by a single catalog.db file.
type SQLiteCatalog struct {
	db      *sql.DB
	dataDir string
}

// OpenSQLite opens (or creates) catalog.db under dataDir and runs migrations.
func OpenSQLite(dataDir string) (*SQLiteCatalog, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	dbPath := filepath.Join(dataDir, "catalog.db")
	db, err := sql.Open("sqlite3", "file:"+dbPath+sqliteDSNParams)
	if err != nil {
		return nil, fmt.Errorf("open catalog db: %w", err)
	}
	// One connection: writes to every collection are serialized, so the
	// uniqueness checks and the article sequence never race in-process.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(CatalogSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate catalog db: %w", err)
	}

	return &SQLiteCatalog{db: db, dataDir: dataDir}, nil
}

// Close closes the database connection.
func (c *SQLiteCatalog) Close() error {
	return c.db.Close()
}

// DataDir returns the directory holding catalog.db.
func (c *SQLiteCatalog) DataDir() string {
	return c.dataDir
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}
