package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/filmdoms/community/internal/common/db"
	"github.com/filmdoms/community/internal/image/domain"
)

type Repository interface {
	Create(ctx context.Context, image domain.ImageFile) (domain.ImageFile, error)
	FindByID(ctx context.Context, id int64) (domain.ImageFile, error)
}

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func (r *PgRepository) Create(ctx context.Context, image domain.ImageFile) (domain.ImageFile, error) {
	start := time.Now()
	err := r.pool.QueryRow(
		ctx,
		`INSERT INTO image_files (uuid_file_name, original_file_name, url)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at`,
		image.UUIDFileName,
		image.OriginalFileName,
		image.URL,
	).Scan(&image.ID, &image.CreatedAt)
	if err := db.HandleQueryError(err, nil, "create image", start); err != nil {
		return domain.ImageFile{}, err
	}
	return image, nil
}

func (r *PgRepository) FindByID(ctx context.Context, id int64) (domain.ImageFile, error) {
	start := time.Now()
	var image domain.ImageFile
	err := r.pool.QueryRow(
		ctx,
		`SELECT id, uuid_file_name, original_file_name, url, created_at FROM image_files WHERE id = $1`,
		id,
	).Scan(&image.ID, &image.UUIDFileName, &image.OriginalFileName, &image.URL, &image.CreatedAt)
	if err := db.HandleQueryError(err, domain.ErrImageNotFound, "find image by id", start); err != nil {
		return domain.ImageFile{}, err
	}
	return image, nil
}
