package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/leca/image-gallery/internal/model"
	_ "modernc.org/sqlite"
)

// SQLiteDB implements Database backed by SQLite.
type SQLiteDB struct {
	db *sql.DB
}

// NewSQLiteDB opens (or creates) an SQLite database at dsn and runs migrations.
// For in-memory use pass "file::memory:?cache=shared".
func NewSQLiteDB(dsn string) (*SQLiteDB, error) {
	if !strings.Contains(dsn, "?") {
		dsn += "?_journal_mode=WAL&_busy_timeout=5000"
	} else if !strings.Contains(dsn, "_journal_mode") {
		dsn += "&_journal_mode=WAL&_busy_timeout=5000"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteDB{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteDB) Close() error {
	return s.db.Close()
}

func (s *SQLiteDB) CreateImage(ctx context.Context, img *model.Image) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO images (id, title, description, url, ts)
		VALUES (?, ?, ?, ?, ?)`,
		img.ID, img.Title, img.Description, img.URL, img.TS,
	)
	if err != nil {
		return fmt.Errorf("insert image: %w", err)
	}
	return nil
}

func (s *SQLiteDB) GetImage(ctx context.Context, id string) (*model.Image, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, title, description, url, ts
		FROM images WHERE id = ?`,
		id,
	)
	img, err := scanImage(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return img, err
}

func (s *SQLiteDB) ListImages(ctx context.Context, after string, limit int) (model.Page, error) {
	var since int64
	if after != "" {
		seq, err := DecodeCursor(after)
		if err != nil {
			return model.Page{}, err
		}
		since = seq
	}

	// One extra row tells whether a next page exists.
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, id, title, description, url, ts
		FROM images
		WHERE seq > ?
		ORDER BY seq ASC
		LIMIT ?`,
		since, limit+1,
	)
	if err != nil {
		return model.Page{}, fmt.Errorf("list images: %w", err)
	}
	defer rows.Close()

	var (
		images []model.Image
		seqs   []int64
	)
	for rows.Next() {
		var (
			seq int64
			img model.Image
		)
		if err := rows.Scan(&seq, &img.ID, &img.Title, &img.Description, &img.URL, &img.TS); err != nil {
			return model.Page{}, fmt.Errorf("scan image: %w", err)
		}
		images = append(images, img)
		seqs = append(seqs, seq)
	}
	if err := rows.Err(); err != nil {
		return model.Page{}, fmt.Errorf("list images: %w", err)
	}

	page := model.Page{Data: images}
	if len(images) > limit {
		page.Data = images[:limit]
		page.After = EncodeCursor(seqs[limit-1])
	}
	if page.Data == nil {
		page.Data = []model.Image{}
	}
	return page, nil
}

func (s *SQLiteDB) CountImages(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM images`).Scan(&count)
	return count, err
}

// EncodeCursor builds the opaque "after" token for the row inserted as seq.
func EncodeCursor(seq int64) string {
	return strconv.FormatInt(seq, 10)
}

// DecodeCursor parses a token produced by EncodeCursor.
func DecodeCursor(cursor string) (int64, error) {
	seq, err := strconv.ParseInt(cursor, 10, 64)
	if err != nil || seq <= 0 {
		return 0, ErrInvalidCursor
	}
	return seq, nil
}

type scannable interface {
	Scan(dest ...interface{}) error
}

func scanImage(row scannable) (*model.Image, error) {
	img := &model.Image{}
	err := row.Scan(&img.ID, &img.Title, &img.Description, &img.URL, &img.TS)
	if err != nil {
		return nil, fmt.Errorf("scan image: %w", err)
	}
	return img, nil
}
