package store

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

var sqliteDialect = dialect{
	name: "sqlite",
	schema: `
	CREATE TABLE IF NOT EXISTS phishing_detections (
		id TEXT PRIMARY KEY,
		url TEXT NOT NULL,
		is_phishing BOOLEAN NOT NULL,
		confidence_score INTEGER NOT NULL,
		risk_level TEXT NOT NULL,
		analysis TEXT NOT NULL,
		analysis_type TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_detections_url ON phishing_detections(url, created_at);
	CREATE INDEX IF NOT EXISTS idx_detections_verdict ON phishing_detections(is_phishing);

	CREATE TABLE IF NOT EXISTS user_feedback (
		id TEXT PRIMARY KEY,
		url TEXT NOT NULL,
		system_determination BOOLEAN NOT NULL,
		user_feedback BOOLEAN NOT NULL,
		created_at TIMESTAMP NOT NULL
	);
	`,
	insertAnalysis: `
		INSERT INTO phishing_detections
			(id, url, is_phishing, confidence_score, risk_level, analysis, analysis_type, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
	insertFeedback: `
		INSERT INTO user_feedback (id, url, system_determination, user_feedback, created_at)
		VALUES (?, ?, ?, ?, ?)
	`,
	countAnalyses:         `SELECT COUNT(*) FROM phishing_detections WHERE is_phishing = ?`,
	countFeedbackAgreed:   `SELECT COUNT(*) FROM user_feedback WHERE system_determination = user_feedback`,
	countFeedbackDisputed: `SELECT COUNT(*) FROM user_feedback WHERE system_determination <> user_feedback`,
	history: `
		SELECT id, url, analysis, analysis_type, created_at
		FROM phishing_detections
		WHERE url = ?
		ORDER BY created_at ASC, rowid ASC
	`,
}

// NewSQLiteStore opens (and if needed creates) a SQLite record store
func NewSQLiteStore(dbPath string, logger *zap.Logger) (*SQLStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	// sqlite serializes writers anyway
	db.SetMaxOpenConns(1)

	store, err := newSQLStore(db, sqliteDialect, logger)
	if err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}
