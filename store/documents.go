package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/tsawler/finsight/model"
)

// SaveDocument inserts or updates a document. Inserting a new document whose
// file name belongs to a different document returns ErrDuplicateFileName.
func (s *Store) SaveDocument(ctx context.Context, doc *model.Document) error {
	if doc.ID == "" {
		return fmt.Errorf("document ID is empty")
	}

	existing, err := s.GetDocumentByFileName(ctx, doc.FileName)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	if existing != nil && existing.ID != doc.ID {
		return fmt.Errorf("%w: %s", ErrDuplicateFileName, doc.FileName)
	}

	tags, err := marshalStrings(doc.Tags)
	if err != nil {
		return err
	}

	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO documents (id, file_name, display_name, category, date, tags, page_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			file_name = excluded.file_name,
			display_name = excluded.display_name,
			category = excluded.category,
			date = excluded.date,
			tags = excluded.tags,
			page_count = excluded.page_count
	`, doc.ID, doc.FileName, doc.DisplayName, doc.Category, doc.Date, tags, doc.PageCount, doc.CreatedAt)
	if err != nil {
		return fmt.Errorf("saving document: %w", err)
	}
	return nil
}

// GetDocument retrieves a document by ID.
func (s *Store) GetDocument(ctx context.Context, id string) (*model.Document, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, file_name, display_name, category, date, tags, page_count, created_at
		FROM documents WHERE id = ?
	`, id)
	return scanDocument(row)
}

// GetDocumentByFileName retrieves a document by its unique file name.
func (s *Store) GetDocumentByFileName(ctx context.Context, fileName string) (*model.Document, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, file_name, display_name, category, date, tags, page_count, created_at
		FROM documents WHERE file_name = ?
	`, fileName)
	return scanDocument(row)
}

// ListDocuments returns all documents, newest first.
func (s *Store) ListDocuments(ctx context.Context) ([]model.Document, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, file_name, display_name, category, date, tags, page_count, created_at
		FROM documents ORDER BY created_at DESC, id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	var docs []model.Document
	for rows.Next() {
		doc, err := scanDocumentRows(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}
	return docs, nil
}

// DeleteDocument removes a document. Chunks, tables and table rows cascade.
func (s *Store) DeleteDocument(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// SaveChunks stores text chunks inside one transaction, replacing chunks
// with the same ID.
func (s *Store) SaveChunks(ctx context.Context, chunks []model.TextChunk) error {
	if len(chunks) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO text_chunks (id, document_id, page, seq, text, char_start, char_end, embedding)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			document_id = excluded.document_id,
			page = excluded.page,
			seq = excluded.seq,
			text = excluded.text,
			char_start = excluded.char_start,
			char_end = excluded.char_end,
			embedding = excluded.embedding
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, chunk := range chunks {
		if _, err := stmt.ExecContext(ctx, chunk.ID, chunk.DocumentID, chunk.Page, chunk.Seq,
			chunk.Text, chunk.CharStart, chunk.CharEnd, float32SliceToBytes(chunk.Embedding)); err != nil {
			return fmt.Errorf("saving chunk %s: %w", chunk.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// ChunksByDocument returns a document's chunks in sequence order.
func (s *Store) ChunksByDocument(ctx context.Context, documentID string) ([]model.TextChunk, error) {
	return s.queryChunks(ctx, `
		SELECT id, document_id, page, seq, text, char_start, char_end, embedding
		FROM text_chunks WHERE document_id = ? ORDER BY seq
	`, documentID)
}

// AllChunks returns every stored chunk, for rebuilding the similarity index.
func (s *Store) AllChunks(ctx context.Context) ([]model.TextChunk, error) {
	return s.queryChunks(ctx, `
		SELECT id, document_id, page, seq, text, char_start, char_end, embedding
		FROM text_chunks ORDER BY document_id, seq
	`)
}

// GetChunk retrieves one chunk by ID.
func (s *Store) GetChunk(ctx context.Context, id string) (*model.TextChunk, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, document_id, page, seq, text, char_start, char_end, embedding
		FROM text_chunks WHERE id = ?
	`, id)

	var chunk model.TextChunk
	var embedding []byte
	err := row.Scan(&chunk.ID, &chunk.DocumentID, &chunk.Page, &chunk.Seq,
		&chunk.Text, &chunk.CharStart, &chunk.CharEnd, &embedding)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scanning chunk: %w", err)
	}
	chunk.Embedding = bytesToFloat32Slice(embedding)
	return &chunk, nil
}

func (s *Store) queryChunks(ctx context.Context, query string, args ...any) ([]model.TextChunk, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var chunks []model.TextChunk
	for rows.Next() {
		var chunk model.TextChunk
		var embedding []byte
		if err := rows.Scan(&chunk.ID, &chunk.DocumentID, &chunk.Page, &chunk.Seq,
			&chunk.Text, &chunk.CharStart, &chunk.CharEnd, &embedding); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		chunk.Embedding = bytesToFloat32Slice(embedding)
		chunks = append(chunks, chunk)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}
	return chunks, nil
}

func scanDocument(row *sql.Row) (*model.Document, error) {
	var doc model.Document
	var tags string
	err := row.Scan(&doc.ID, &doc.FileName, &doc.DisplayName, &doc.Category,
		&doc.Date, &tags, &doc.PageCount, &doc.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scanning document: %w", err)
	}

	doc.Tags, err = unmarshalStrings(tags)
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func scanDocumentRows(rows *sql.Rows) (*model.Document, error) {
	var doc model.Document
	var tags string
	err := rows.Scan(&doc.ID, &doc.FileName, &doc.DisplayName, &doc.Category,
		&doc.Date, &tags, &doc.PageCount, &doc.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("scanning document: %w", err)
	}

	doc.Tags, err = unmarshalStrings(tags)
	if err != nil {
		return nil, err
	}
	return &doc, nil
}
