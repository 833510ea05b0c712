package store

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

var postgresDialect = dialect{
	name: "postgres",
	schema: `
	-- Analyses and feedback are append-only; the application never updates or deletes rows.
	CREATE TABLE IF NOT EXISTS phishing_detections (
		id UUID PRIMARY KEY,
		url TEXT NOT NULL,
		is_phishing BOOLEAN NOT NULL,
		confidence_score SMALLINT NOT NULL CHECK (confidence_score BETWEEN 0 AND 100),
		risk_level VARCHAR(10) NOT NULL CHECK (risk_level IN ('low', 'medium', 'high')),
		analysis JSONB NOT NULL,
		analysis_type VARCHAR(20) NOT NULL CHECK (analysis_type IN ('url_analysis', 'content_analysis')),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	-- Backs History
	CREATE INDEX IF NOT EXISTS idx_detections_url ON phishing_detections(url, created_at);
	-- Backs the verdict counts in Stats
	CREATE INDEX IF NOT EXISTS idx_detections_verdict ON phishing_detections(is_phishing);

	CREATE TABLE IF NOT EXISTS user_feedback (
		id UUID PRIMARY KEY,
		url TEXT NOT NULL,
		system_determination BOOLEAN NOT NULL,
		user_feedback BOOLEAN NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	`,
	insertAnalysis: `
		INSERT INTO phishing_detections
			(id, url, is_phishing, confidence_score, risk_level, analysis, analysis_type, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
	insertFeedback: `
		INSERT INTO user_feedback (id, url, system_determination, user_feedback, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`,
	countAnalyses:         `SELECT COUNT(*) FROM phishing_detections WHERE is_phishing = $1`,
	countFeedbackAgreed:   `SELECT COUNT(*) FROM user_feedback WHERE system_determination = user_feedback`,
	countFeedbackDisputed: `SELECT COUNT(*) FROM user_feedback WHERE system_determination <> user_feedback`,
	history: `
		SELECT id, url, analysis, analysis_type, created_at
		FROM phishing_detections
		WHERE url = $1
		ORDER BY created_at ASC
	`,
}

// NewPostgresStore connects to PostgreSQL and ensures the schema exists
func NewPostgresStore(connStr string, logger *zap.Logger) (*SQLStore, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	store, err := newSQLStore(db, postgresDialect, logger)
	if err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}
