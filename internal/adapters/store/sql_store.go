package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/phishnet/phish-detector/internal/core"
	"go.uber.org/zap"
)

// dialect holds the statements that differ between SQL backends
type dialect struct {
	name                  string
	schema                string
	insertAnalysis        string
	insertFeedback        string
	countAnalyses         string
	countFeedbackAgreed   string
	countFeedbackDisputed string
	history               string
}

// SQLStore implements core.RecordStore over database/sql. Rows are only ever
// inserted; nothing updates or deletes them.
type SQLStore struct {
	db      *sql.DB
	dialect dialect
	logger  *zap.Logger
}

func newSQLStore(db *sql.DB, d dialect, logger *zap.Logger) (*SQLStore, error) {
	if _, err := db.Exec(d.schema); err != nil {
		return nil, fmt.Errorf("failed to create %s schema: %w", d.name, err)
	}
	return &SQLStore{db: db, dialect: d, logger: logger}, nil
}

// SaveAnalysis appends an analysis record
func (s *SQLStore) SaveAnalysis(ctx context.Context, record *core.AnalysisRecord) error {
	analysisJSON, err := json.Marshal(record.Result)
	if err != nil {
		return fmt.Errorf("failed to marshal analysis: %w", err)
	}

	_, err = s.db.ExecContext(ctx, s.dialect.insertAnalysis,
		record.ID, record.URL, record.Result.IsPhishing, record.Result.ConfidenceScore,
		string(record.Result.RiskLevel), string(analysisJSON), string(record.AnalysisType),
		record.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to insert analysis record: %w", err)
	}
	return nil
}

// SaveFeedback appends a feedback record
func (s *SQLStore) SaveFeedback(ctx context.Context, record *core.FeedbackRecord) error {
	_, err := s.db.ExecContext(ctx, s.dialect.insertFeedback,
		record.ID, record.URL, record.SystemDetermination, record.UserFeedback, record.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to insert feedback record: %w", err)
	}
	return nil
}

// CountAnalyses counts analysis records with the given verdict
func (s *SQLStore) CountAnalyses(ctx context.Context, isPhishing bool) (int64, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx, s.dialect.countAnalyses, isPhishing).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count analyses: %w", err)
	}
	return count, nil
}

// CountFeedback counts feedback records that agree (or disagree) with the system
func (s *SQLStore) CountFeedback(ctx context.Context, agreed bool) (int64, error) {
	query := s.dialect.countFeedbackDisputed
	if agreed {
		query = s.dialect.countFeedbackAgreed
	}

	var count int64
	if err := s.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count feedback: %w", err)
	}
	return count, nil
}

// History returns the analysis records of a URL, oldest first
func (s *SQLStore) History(ctx context.Context, url string) ([]core.AnalysisRecord, error) {
	rows, err := s.db.QueryContext(ctx, s.dialect.history, url)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var records []core.AnalysisRecord
	for rows.Next() {
		var (
			record       core.AnalysisRecord
			analysisJSON []byte
			analysisType string
			createdAt    time.Time
		)
		if err := rows.Scan(&record.ID, &record.URL, &analysisJSON, &analysisType, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan analysis record: %w", err)
		}

		var result core.ClassificationResult
		if err := json.Unmarshal(analysisJSON, &result); err != nil {
			return nil, fmt.Errorf("failed to unmarshal analysis: %w", err)
		}
		record.Result = &result
		record.AnalysisType = core.AnalysisType(analysisType)
		record.Timestamp = createdAt.UTC()
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate history: %w", err)
	}

	return records, nil
}

// Close closes the database connection
func (s *SQLStore) Close() error {
	s.logger.Debug("Closing record store", zap.String("backend", s.dialect.name))
	return s.db.Close()
}
