package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/phishnet/phish-detector/internal/core"
	"go.uber.org/zap"
)

// MySQLCache is a MySQL implementation of the ResultCache interface
type MySQLCache struct {
	db          *sql.DB
	logger      *zap.Logger
	ttl         time.Duration
	cleanupFreq time.Duration
	stopCh      chan struct{}
	stopOnce    sync.Once
}

// NewMySQLCache creates a new MySQL cache
func NewMySQLCache(dsn string, logger *zap.Logger, ttl, cleanupFreq time.Duration) (*MySQLCache, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to MySQL database: %w", err)
	}

	// url is hashed for the key since URLs exceed index length limits
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS phishing_cache (
			url_hash BINARY(32) PRIMARY KEY,
			url TEXT NOT NULL,
			result JSON NOT NULL,
			inserted_at TIMESTAMP(6) NOT NULL,
			expires_at TIMESTAMP(6) NOT NULL,
			INDEX idx_expires_at (expires_at)
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	cache := &MySQLCache{
		db:          db,
		logger:      logger,
		ttl:         ttl,
		cleanupFreq: cleanupFreq,
		stopCh:      make(chan struct{}),
	}

	if cleanupFreq > 0 {
		go cache.startCleanupTask()
	}

	return cache, nil
}

// Get retrieves the cached result for a URL
func (c *MySQLCache) Get(ctx context.Context, url string) (*core.ClassificationResult, bool) {
	var data []byte

	err := c.db.QueryRowContext(ctx, `
		SELECT result
		FROM phishing_cache
		WHERE url_hash = UNHEX(SHA2(?, 256)) AND expires_at > UTC_TIMESTAMP(6)
	`, url).Scan(&data)

	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			c.logger.Error("Failed to query cache", zap.Error(err), zap.String("url", url))
		}
		return nil, false
	}

	result, err := decodeResult(data)
	if err != nil {
		c.logger.Error("Discarding unreadable cache entry", zap.Error(err), zap.String("url", url))
		return nil, false
	}

	return result, true
}

// Set stores a result; it replaces any previous entry for the URL
func (c *MySQLCache) Set(ctx context.Context, url string, result *core.ClassificationResult) error {
	data, err := encodeResult(result)
	if err != nil {
		return err
	}

	_, err = c.db.ExecContext(ctx, `
		INSERT INTO phishing_cache (url_hash, url, result, inserted_at, expires_at)
		VALUES (UNHEX(SHA2(?, 256)), ?, ?, UTC_TIMESTAMP(6), UTC_TIMESTAMP(6) + INTERVAL ? MICROSECOND)
		ON DUPLICATE KEY UPDATE
			result = VALUES(result),
			inserted_at = VALUES(inserted_at),
			expires_at = VALUES(expires_at)
	`, url, url, string(data), c.ttl.Microseconds())

	if err != nil {
		return fmt.Errorf("failed to insert cache entry: %w", err)
	}

	return nil
}

// Delete removes a cache entry
func (c *MySQLCache) Delete(ctx context.Context, url string) error {
	_, err := c.db.ExecContext(ctx, `
		DELETE FROM phishing_cache
		WHERE url_hash = UNHEX(SHA2(?, 256))
	`, url)

	if err != nil {
		return fmt.Errorf("failed to delete cache entry: %w", err)
	}

	return nil
}

// Cleanup removes expired entries
func (c *MySQLCache) Cleanup(ctx context.Context) error {
	result, err := c.db.ExecContext(ctx, `
		DELETE FROM phishing_cache
		WHERE expires_at <= UTC_TIMESTAMP(6)
	`)

	if err != nil {
		return fmt.Errorf("failed to clean up expired entries: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		c.logger.Warn("Failed to get rows affected during cleanup", zap.Error(err))
	} else {
		c.logger.Debug("Cleaned up expired cache entries", zap.Int64("expired_count", rowsAffected))
	}

	return nil
}

// startCleanupTask starts a background task to clean up expired entries
func (c *MySQLCache) startCleanupTask() {
	ticker := time.NewTicker(c.cleanupFreq)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := c.Cleanup(context.Background()); err != nil {
				c.logger.Error("Failed to clean up cache", zap.Error(err))
			}
		case <-c.stopCh:
			return
		}
	}
}

// Stop stops the background cleanup task and closes the database connection
func (c *MySQLCache) Stop() {
	c.stopOnce.Do(func() {
		close(c.stopCh)
		if err := c.db.Close(); err != nil {
			c.logger.Error("Failed to close MySQL database", zap.Error(err))
		}
	})
}
