package repository

import (
	"context"
	"time"

	pgx "github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/filmdoms/community/internal/account/domain"
	"github.com/filmdoms/community/internal/common/db"
)

const (
	emailConstraint    = "accounts_email_key"
	nicknameConstraint = "accounts_nickname_key"
)

type Repository interface {
	Create(ctx context.Context, account domain.Account) (domain.Account, error)
	FindByEmail(ctx context.Context, email string) (domain.Account, error)
	FindByID(ctx context.Context, id int64) (domain.Account, error)
	FindProfile(ctx context.Context, id int64) (domain.Profile, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ExistsByNickname(ctx context.Context, nickname string) (bool, error)
	UpdateProfile(ctx context.Context, id int64, nickname string, profileImageID int64) error
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	Delete(ctx context.Context, id int64) error
}

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

const selectAccount = `SELECT id, email, nickname, password_hash, role, profile_image_id, created_at, updated_at FROM accounts`

func scanAccount(row pgx.Row) (domain.Account, error) {
	var a domain.Account
	var role string
	err := row.Scan(&a.ID, &a.Email, &a.Nickname, &a.PasswordHash, &role, &a.ProfileImageID, &a.CreatedAt, &a.UpdatedAt)
	a.Role = domain.Role(role)
	return a, err
}

func (r *PgRepository) Create(ctx context.Context, account domain.Account) (domain.Account, error) {
	start := time.Now()
	err := r.pool.QueryRow(
		ctx,
		`INSERT INTO accounts (email, nickname, password_hash, role, profile_image_id)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at, updated_at`,
		account.Email,
		account.Nickname,
		account.PasswordHash,
		string(account.Role),
		account.ProfileImageID,
	).Scan(&account.ID, &account.CreatedAt, &account.UpdatedAt)
	if err != nil {
		if dupErr := duplicateError(err); dupErr != nil {
			db.MeasureQueryDuration("create account", start)
			return domain.Account{}, dupErr
		}
		return domain.Account{}, db.HandleQueryError(err, nil, "create account", start)
	}
	db.MeasureQueryDuration("create account", start)
	return account, nil
}

func (r *PgRepository) FindByEmail(ctx context.Context, email string) (domain.Account, error) {
	start := time.Now()
	account, err := scanAccount(r.pool.QueryRow(ctx, selectAccount+` WHERE email = $1`, email))
	if err := db.HandleQueryError(err, domain.ErrAccountNotFound, "find account by email", start); err != nil {
		return domain.Account{}, err
	}
	return account, nil
}

func (r *PgRepository) FindByID(ctx context.Context, id int64) (domain.Account, error) {
	start := time.Now()
	account, err := scanAccount(r.pool.QueryRow(ctx, selectAccount+` WHERE id = $1`, id))
	if err := db.HandleQueryError(err, domain.ErrAccountNotFound, "find account by id", start); err != nil {
		return domain.Account{}, err
	}
	return account, nil
}

func (r *PgRepository) FindProfile(ctx context.Context, id int64) (domain.Profile, error) {
	start := time.Now()
	var p domain.Profile
	var role string
	var imageURL *string
	err := r.pool.QueryRow(
		ctx,
		`SELECT a.id, a.email, a.nickname, a.role, a.profile_image_id, i.url, a.created_at
		 FROM accounts a
		 LEFT JOIN image_files i ON i.id = a.profile_image_id
		 WHERE a.id = $1`,
		id,
	).Scan(&p.ID, &p.Email, &p.Nickname, &role, &p.ProfileImageID, &imageURL, &p.CreatedAt)
	if err := db.HandleQueryError(err, domain.ErrAccountNotFound, "find account profile", start); err != nil {
		return domain.Profile{}, err
	}
	p.Role = domain.Role(role)
	if imageURL != nil {
		p.ProfileImageURL = *imageURL
	}
	return p, nil
}

func (r *PgRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM accounts WHERE email = $1)`, email, "check account email")
}

func (r *PgRepository) ExistsByNickname(ctx context.Context, nickname string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM accounts WHERE nickname = $1)`, nickname, "check account nickname")
}

func (r *PgRepository) exists(ctx context.Context, query, arg, operation string) (bool, error) {
	start := time.Now()
	var found bool
	err := r.pool.QueryRow(ctx, query, arg).Scan(&found)
	if err := db.HandleQueryError(err, nil, operation, start); err != nil {
		return false, err
	}
	return found, nil
}

func (r *PgRepository) UpdateProfile(ctx context.Context, id int64, nickname string, profileImageID int64) error {
	start := time.Now()
	tag, err := r.pool.Exec(
		ctx,
		`UPDATE accounts SET nickname = $2, profile_image_id = $3, updated_at = now() WHERE id = $1`,
		id,
		nickname,
		profileImageID,
	)
	if dupErr := duplicateError(err); dupErr != nil {
		db.MeasureQueryDuration("update account profile", start)
		return dupErr
	}
	if err := db.HandleExecError(err, "update account profile", start); err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

func (r *PgRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	start := time.Now()
	tag, err := r.pool.Exec(
		ctx,
		`UPDATE accounts SET password_hash = $2, updated_at = now() WHERE id = $1`,
		id,
		passwordHash,
	)
	if err := db.HandleExecError(err, "update account password", start); err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

func (r *PgRepository) Delete(ctx context.Context, id int64) error {
	start := time.Now()
	tag, err := r.pool.Exec(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	if err := db.HandleExecError(err, "delete account", start); err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

func duplicateError(err error) error {
	constraint, ok := db.UniqueViolation(err)
	if !ok {
		return nil
	}
	switch constraint {
	case emailConstraint:
		return domain.ErrDuplicateEmail
	case nicknameConstraint:
		return domain.ErrDuplicateNickname
	default:
		return nil
	}
}
