// AngelaMos | 2026
// repository.go

package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/carterperez-dev/blogsy/internal/core"
)

type Repository interface {
	UpsertFromIdentity(ctx context.Context, p IdentityProfile) (*User, error)
	UpsertBilling(ctx context.Context, p BillingProfile) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	GetByIdentityID(ctx context.Context, identityID string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	LinkIdentity(ctx context.Context, email, identityID string) error
	MarkCancelledByCustomer(ctx context.Context, customerID string) (int64, error)
	MarkCancelledByEmail(ctx context.Context, email string) (int64, error)
	List(ctx context.Context, params ListUsersParams) ([]User, int, error)
}

const userColumns = `id, user_id, email, full_name, price_id, customer_id,
		       status, role, created_at, updated_at`

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) UpsertFromIdentity(
	ctx context.Context,
	p IdentityProfile,
) (*User, error) {
	query := `
		INSERT INTO users (id, user_id, email, full_name)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (email) DO UPDATE
		SET user_id    = EXCLUDED.user_id,
		    full_name  = COALESCE(EXCLUDED.full_name, users.full_name),
		    updated_at = NOW()
		RETURNING ` + userColumns

	var u User
	err := r.db.GetContext(ctx, &u, query,
		uuid.New().String(),
		p.IdentityID,
		p.Email,
		nullable(p.FullName),
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return nil, fmt.Errorf("upsert identity user: %w", core.ErrDuplicateKey)
		}
		return nil, fmt.Errorf("upsert identity user: %w", err)
	}

	return &u, nil
}

func (r *repository) UpsertBilling(
	ctx context.Context,
	p BillingProfile,
) (*User, error) {
	query := `
		INSERT INTO users (id, email, full_name, price_id, customer_id, status)
		VALUES ($1, $2, $3, $4, $5, 'active')
		ON CONFLICT (email) DO UPDATE
		SET price_id    = EXCLUDED.price_id,
		    customer_id = EXCLUDED.customer_id,
		    full_name   = COALESCE(users.full_name, EXCLUDED.full_name),
		    status      = 'active',
		    updated_at  = NOW()
		RETURNING ` + userColumns

	var u User
	err := r.db.GetContext(ctx, &u, query,
		uuid.New().String(),
		p.Email,
		nullable(p.FullName),
		nullable(p.PriceID),
		nullable(p.CustomerID),
	)
	if err != nil {
		return nil, fmt.Errorf("upsert billing user: %w", err)
	}

	return &u, nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*User, error) {
	return r.getOne(ctx, "get user", `WHERE id = $1`, id)
}

func (r *repository) GetByIdentityID(
	ctx context.Context,
	identityID string,
) (*User, error) {
	return r.getOne(ctx, "get user by identity", `WHERE user_id = $1`, identityID)
}

func (r *repository) GetByEmail(
	ctx context.Context,
	email string,
) (*User, error) {
	return r.getOne(ctx, "get user by email", `WHERE email = $1`, email)
}

func (r *repository) getOne(
	ctx context.Context,
	op, where string,
	arg any,
) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users ` + where

	var u User
	err := r.db.GetContext(ctx, &u, query, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &u, nil
}

func (r *repository) LinkIdentity(
	ctx context.Context,
	email, identityID string,
) error {
	query := `
		UPDATE users
		SET user_id = $2, updated_at = NOW()
		WHERE email = $1 AND user_id IS NULL`

	result, err := r.db.ExecContext(ctx, query, email, identityID)
	if err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("link identity: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("link identity: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("link identity: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("link identity: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) MarkCancelledByCustomer(
	ctx context.Context,
	customerID string,
) (int64, error) {
	return r.markCancelled(ctx, "cancel by customer", `customer_id = $1`, customerID)
}

func (r *repository) MarkCancelledByEmail(
	ctx context.Context,
	email string,
) (int64, error) {
	return r.markCancelled(ctx, "cancel by email", `email = $1`, email)
}

func (r *repository) markCancelled(
	ctx context.Context,
	op, where string,
	arg any,
) (int64, error) {
	query := `
		UPDATE users
		SET status = 'cancelled', updated_at = NOW()
		WHERE ` + where

	result, err := r.db.ExecContext(ctx, query, arg)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return rows, nil
}

func (r *repository) List(
	ctx context.Context,
	params ListUsersParams,
) ([]User, int, error) {
	params.Normalize()

	var conditions []string
	var args []any
	argIdx := 1

	conditions = append(conditions, "TRUE")

	if params.Search != "" {
		conditions = append(conditions, fmt.Sprintf(
			"(email ILIKE $%d OR full_name ILIKE $%d)", argIdx, argIdx))
		args = append(args, "%"+escapeLike(params.Search)+"%")
		argIdx++
	}

	if params.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, params.Status)
		argIdx++
	}

	whereClause := strings.Join(conditions, " AND ")

	countQuery := fmt.Sprintf(
		"SELECT COUNT(*) FROM users WHERE %s",
		whereClause,
	)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM users
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`,
		userColumns, whereClause, argIdx, argIdx+1)

	args = append(args, params.PageSize, params.Offset())

	users := []User{}
	if err := r.db.SelectContext(ctx, &users, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}

	return users, total, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

func escapeLike(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "%", "\\%")
	s = strings.ReplaceAll(s, "_", "\\_")
	return s
}
