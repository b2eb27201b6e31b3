package postgres

import (
	"context"
	"database/sql"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/dreschagin/event-gallery/internal/domain/repository"
)

const maxPageLimit = 100

// PhotoIndex реализует repository.PhotoIndex для PostgreSQL.
// Страницы строятся keyset-пагинацией по (folder, public_id DESC)
type PhotoIndex struct {
	db *sql.DB
}

func NewPhotoIndex(db *sql.DB) *PhotoIndex {
	return &PhotoIndex{db: db}
}

func (r *PhotoIndex) Put(ctx context.Context, record repository.PhotoRecord) error {
	folder := strings.TrimSpace(record.Folder)
	publicID := strings.TrimSpace(record.PublicID)
	if folder == "" || publicID == "" {
		return fmt.Errorf("folder and public_id are required")
	}

	createdAt := record.CreatedAt.UTC()
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	query := `
		INSERT INTO gallery_photos (folder, public_id, object_key, url, file_name, content_type, size_bytes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (folder, public_id) DO NOTHING
	`

	result, err := r.db.ExecContext(ctx, query,
		folder,
		publicID,
		record.ObjectKey,
		record.URL,
		record.FileName,
		record.ContentType,
		record.SizeBytes,
		createdAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert photo: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return repository.ErrPhotoExists
	}

	return nil
}

func (r *PhotoIndex) Exists(ctx context.Context, folder, publicID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM gallery_photos WHERE folder = $1 AND public_id = $2)`,
		strings.TrimSpace(folder), strings.TrimSpace(publicID),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check photo: %w", err)
	}
	return exists, nil
}

// Page запрашивает limit+1 строк, чтобы понять, есть ли следующая страница
func (r *PhotoIndex) Page(ctx context.Context, query repository.PhotoPageQuery) (repository.PhotoRecordPage, error) {
	folder := strings.TrimSpace(query.Folder)
	if folder == "" {
		return repository.PhotoRecordPage{}, fmt.Errorf("folder is required")
	}

	limit := query.Limit
	if limit <= 0 || limit > maxPageLimit {
		limit = maxPageLimit
	}

	after := ""
	if strings.TrimSpace(query.Cursor) != "" {
		var err error
		after, err = decodeCursor(query.Cursor)
		if err != nil {
			return repository.PhotoRecordPage{}, err
		}
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT folder, public_id, object_key, url, file_name, content_type, size_bytes, created_at
		FROM gallery_photos
		WHERE folder = $1 AND ($2 = '' OR public_id < $2)
		ORDER BY public_id DESC
		LIMIT $3
	`, folder, after, limit+1)
	if err != nil {
		return repository.PhotoRecordPage{}, fmt.Errorf("failed to query photos: %w", err)
	}
	defer rows.Close()

	items := make([]repository.PhotoRecord, 0, limit)
	for rows.Next() {
		var record repository.PhotoRecord
		if err := rows.Scan(
			&record.Folder,
			&record.PublicID,
			&record.ObjectKey,
			&record.URL,
			&record.FileName,
			&record.ContentType,
			&record.SizeBytes,
			&record.CreatedAt,
		); err != nil {
			return repository.PhotoRecordPage{}, fmt.Errorf("failed to scan photo: %w", err)
		}
		record.CreatedAt = record.CreatedAt.UTC()
		items = append(items, record)
	}
	if err := rows.Err(); err != nil {
		return repository.PhotoRecordPage{}, fmt.Errorf("error iterating rows: %w", err)
	}

	page := repository.PhotoRecordPage{Items: items}
	if len(items) > limit {
		page.Items = items[:limit]
		page.NextCursor = encodeCursor(page.Items[limit-1].PublicID)
	}
	return page, nil
}

func (r *PhotoIndex) Count(ctx context.Context, folder string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM gallery_photos WHERE folder = $1`,
		strings.TrimSpace(folder),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count photos: %w", err)
	}
	return count, nil
}

// Ping проверяет соединение для readiness probe
func (r *PhotoIndex) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func encodeCursor(publicID string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(publicID))
}

func decodeCursor(cursor string) (string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimSpace(cursor))
	if err != nil || len(raw) == 0 {
		return "", repository.ErrInvalidCursor
	}
	return string(raw), nil
}
