package store

import (
	"context"
	"fmt"

	"github.com/tsawler/finsight/model"
)

// SaveIngestionLog records the outcome of one ingestion job.
func (s *Store) SaveIngestionLog(ctx context.Context, log *model.IngestionLog) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO ingestion_logs
			(id, document_id, status, chunks_extracted, tables_extracted, error, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, log.ID, log.DocumentID, string(log.Status), log.ChunksExtracted, log.TablesExtracted,
		log.Error, log.StartedAt, log.FinishedAt)
	if err != nil {
		return fmt.Errorf("saving ingestion log: %w", err)
	}
	return nil
}

// LogsByDocument returns a document's ingestion logs, newest first.
func (s *Store) LogsByDocument(ctx context.Context, documentID string) ([]model.IngestionLog, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, document_id, status, chunks_extracted, tables_extracted, error, started_at, finished_at
		FROM ingestion_logs WHERE document_id = ? ORDER BY started_at DESC, id
	`, documentID)
	if err != nil {
		return nil, fmt.Errorf("querying ingestion logs: %w", err)
	}
	defer rows.Close()

	var logs []model.IngestionLog
	for rows.Next() {
		var log model.IngestionLog
		var status string
		if err := rows.Scan(&log.ID, &log.DocumentID, &status, &log.ChunksExtracted,
			&log.TablesExtracted, &log.Error, &log.StartedAt, &log.FinishedAt); err != nil {
			return nil, fmt.Errorf("scanning ingestion log: %w", err)
		}
		log.Status = model.IngestionStatus(status)
		logs = append(logs, log)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating ingestion logs: %w", err)
	}
	return logs, nil
}
