package infra

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/Vovarama1992/mediashelf/internal/models"
	"github.com/Vovarama1992/mediashelf/internal/ports"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// pgxQuerier is the part of *pgxpool.Pool the repository needs.
type pgxQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const mediaTable = "media"

var mediaColumns = []string{
	"id::text", "title", "type", "status", "rating", "review", "image_url", "created_at",
}

const returningMedia = "RETURNING id::text, title, type, status, rating, review, image_url, created_at"

type PostgresMediaRepo struct {
	db pgxQuerier
	qb sq.StatementBuilderType
}

func NewPostgresMediaRepo(db pgxQuerier) ports.MediaRepository {
	return &PostgresMediaRepo{
		db: db,
		qb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func scanMedia(row pgx.Row) (*models.Media, error) {
	var m models.Media
	if err := row.Scan(
		&m.ID,
		&m.Title,
		&m.Type,
		&m.Status,
		&m.Rating,
		&m.Review,
		&m.ImageURL,
		&m.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *PostgresMediaRepo) list(ctx context.Context, op string, where sq.Sqlizer) ([]models.Media, error) {
	q := r.qb.Select(mediaColumns...).From(mediaTable).OrderBy("created_at DESC", "id DESC")
	if where != nil {
		q = q.Where(where)
	}
	sqlStr, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: build query: %w", op, err)
	}

	rows, err := r.db.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	out := make([]models.Media, 0)
	for rows.Next() {
		m, err := scanMedia(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		out = append(out, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows: %w", op, err)
	}
	return out, nil
}

func (r *PostgresMediaRepo) GetAll(ctx context.Context) ([]models.Media, error) {
	return r.list(ctx, "get all media", nil)
}

func (r *PostgresMediaRepo) Filter(ctx context.Context, mediaType models.MediaType) ([]models.Media, error) {
	return r.list(ctx, "filter media", sq.Eq{"type": string(mediaType)})
}

func (r *PostgresMediaRepo) GetByID(ctx context.Context, id string) (*models.Media, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}

	sqlStr, args, err := r.qb.Select(mediaColumns...).From(mediaTable).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("get media by id: build query: %w", err)
	}

	m, err := scanMedia(r.db.QueryRow(ctx, sqlStr, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get media by id %s: %w", id, err)
	}
	return m, nil
}

func (r *PostgresMediaRepo) Create(ctx context.Context, f models.MediaFields) (*models.Media, error) {
	sqlStr, args, err := r.qb.Insert(mediaTable).
		Columns("id", "title", "type", "status", "image_url", "rating", "review").
		Values(uuid.New().String(), f.Title, string(f.Type), string(f.Status), f.ImageURL, f.Rating, f.Review).
		Suffix(returningMedia).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("insert media: build query: %w", err)
	}

	m, err := scanMedia(r.db.QueryRow(ctx, sqlStr, args...))
	if err != nil {
		return nil, fmt.Errorf("insert media: %w", err)
	}
	return m, nil
}

// Update writes only the columns present in patch; everything else keeps its
// stored value.
func (r *PostgresMediaRepo) Update(ctx context.Context, id string, patch models.MediaPatch) (*models.Media, error) {
	cols := patch.Columns()
	if len(cols) == 0 {
		m, err := r.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if m == nil {
			return nil, models.ErrNotFound
		}
		return m, nil
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, models.ErrNotFound
	}

	sqlStr, args, err := r.qb.Update(mediaTable).
		SetMap(stringifyEnums(cols)).
		Where(sq.Eq{"id": id}).
		Suffix(returningMedia).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("update media %s: build query: %w", id, err)
	}

	start := time.Now()
	m, err := scanMedia(r.db.QueryRow(ctx, sqlStr, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("update media %s: %w", id, err)
	}

	log.Printf("[DB][UPDATE][OK] media=%s cols=%d dur=%s", id, len(cols), time.Since(start))
	return m, nil
}

func (r *PostgresMediaRepo) Delete(ctx context.Context, id string) (*models.Media, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, models.ErrNotFound
	}

	sqlStr, args, err := r.qb.Delete(mediaTable).
		Where(sq.Eq{"id": id}).
		Suffix(returningMedia).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("delete media %s: build query: %w", id, err)
	}

	m, err := scanMedia(r.db.QueryRow(ctx, sqlStr, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("delete media %s: %w", id, err)
	}

	log.Printf("[DB][DELETE][OK] media=%s", id)
	return m, nil
}

// stringifyEnums hands plain strings to the driver for the enum columns.
func stringifyEnums(cols map[string]any) map[string]any {
	if v, ok := cols["type"].(models.MediaType); ok {
		cols["type"] = string(v)
	}
	if v, ok := cols["status"].(models.MediaStatus); ok {
		cols["status"] = string(v)
	}
	return cols
}
