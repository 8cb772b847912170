package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/kelna-terese/EvalX/core"
	"github.com/kelna-terese/EvalX/core/user"
)

const userColumns = "id, name, email, role, is_active, password_hash, created_at, updated_at, last_login"

var userOrderable = map[string]string{
	"name":       "name",
	"email":      "email",
	"role":       "role",
	"created_at": "created_at",
	"last_login": "last_login",
}

type userRow struct {
	ID           string    `db:"id"`
	Name         string    `db:"name"`
	Email        string    `db:"email"`
	Role         string    `db:"role"`
	IsActive     bool      `db:"is_active"`
	PasswordHash []byte    `db:"password_hash"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
	LastLogin    null.Time `db:"last_login"`
}

func (r userRow) user() user.User {
	return user.User{
		ID:           r.ID,
		Name:         r.Name,
		Email:        r.Email,
		Role:         r.Role,
		IsActive:     r.IsActive,
		PasswordHash: r.PasswordHash,
		CreatedAt:    r.CreatedAt.UTC(),
		UpdatedAt:    r.UpdatedAt.UTC(),
		LastLogin:    r.LastLogin.Time.UTC(),
	}
}

type userRepository struct {
	base
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *sqlx.DB) *userRepository {
	return &userRepository{base{db: db}}
}

// trapNoRowsErr maps psql "no rows" err to user.ErrNotFound
func (repo userRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return user.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo userRepository) CheckEmailUniqueness(ctx context.Context, email string, excludedUsers []user.User, exec ...core.DBExecutor) error {
	q := "SELECT COUNT(*) FROM users WHERE lower(email) = lower(?)"
	args := []interface{}{email}
	if len(excludedUsers) > 0 {
		ids := make([]string, 0, len(excludedUsers))
		for _, u := range excludedUsers {
			ids = append(ids, u.ID)
		}
		q += " AND id NOT IN (?)"
		args = append(args, ids)
	}
	q, args, err := sqlx.In(q, args...)
	if err != nil {
		return errors.Wrap(err, "checking email uniqueness")
	}

	exe := repo.getExec(exec)
	var cnt int
	if err = sqlx.GetContext(ctx, exe, &cnt, exe.Rebind(q), args...); err != nil {
		return errors.Wrap(err, "checking email uniqueness")
	}
	if cnt > 0 {
		return user.ErrEmailExists
	}
	return nil
}

func (repo userRepository) CreateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	usr.ID = uuid.New().String()
	_, err := repo.getExec(exec).ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		usr.ID, usr.Name, usr.Email, usr.Role, usr.IsActive, usr.PasswordHash,
		usr.CreatedAt.UTC(), usr.UpdatedAt.UTC(), null.NewTime(usr.LastLogin.UTC(), !usr.LastLogin.IsZero()),
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code.Name() == "unique_violation" {
			return user.User{}, user.ErrEmailExists
		}
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return usr, nil
}

func (repo userRepository) QueryUsers(ctx context.Context, filter *user.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]user.User, error) {
	var conds []string
	var args []interface{}

	if filter != nil {
		// users with Name or Email matching the search keyword
		if filter.Search != "" {
			val := "%" + filter.Search + "%"
			conds = append(conds, "(name ILIKE ? OR email ILIKE ?)")
			args = append(args, val, val)
		}
		if len(filter.Roles) > 0 {
			conds = append(conds, "role IN (?)")
			args = append(args, filter.Roles)
		}
		if filter.IsActive != nil {
			conds = append(conds, "is_active = ?")
			args = append(args, *filter.IsActive)
		}
	}

	q := "SELECT " + userColumns + " FROM users" + where(conds) + orderByClause(ordering, userOrderable, "created_at ASC")
	q, args, err := sqlx.In(q, args...)
	if err != nil {
		return nil, errors.Wrap(err, "querying users")
	}

	exe := repo.getExec(exec)
	var rows []userRow
	if err = sqlx.SelectContext(ctx, exe, &rows, exe.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	users := make([]user.User, 0, len(rows))
	for _, r := range rows {
		users = append(users, r.user())
	}
	return users, nil
}

func (repo userRepository) GetUser(ctx context.Context, filter user.GetFilter, exec ...core.DBExecutor) (user.User, error) {
	var q string
	var arg interface{}

	switch {
	case filter.ID != "":
		if _, err := uuid.Parse(filter.ID); err != nil {
			return user.User{}, user.ErrNotFound
		}
		q, arg = "SELECT "+userColumns+" FROM users WHERE id = $1", filter.ID
	case filter.Email != "":
		q, arg = "SELECT "+userColumns+" FROM users WHERE lower(email) = lower($1)", filter.Email
	default:
		return user.User{}, user.ErrNotFound
	}

	var row userRow
	if err := sqlx.GetContext(ctx, repo.getExec(exec), &row, q, arg); err != nil {
		return user.User{}, repo.trapNoRowsErr(err, "finding user")
	}
	return row.user(), nil
}

func (repo userRepository) UpdateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	res, err := repo.getExec(exec).ExecContext(ctx,
		`UPDATE users SET name = $2, email = $3, is_active = $4, password_hash = $5, updated_at = $6, last_login = $7
		WHERE id = $1`,
		usr.ID, usr.Name, usr.Email, usr.IsActive, usr.PasswordHash,
		usr.UpdatedAt.UTC(), null.NewTime(usr.LastLogin.UTC(), !usr.LastLogin.IsZero()),
	)
	if err != nil {
		return user.User{}, errors.Wrap(err, "updating user")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return user.User{}, user.ErrNotFound
	}
	return usr, nil
}

// DeleteUsersByID relies on the foreign keys: a TEAM user's team cascades, a guide's teams are set null.
func (repo userRepository) DeleteUsersByID(ctx context.Context, ids []string, exec ...core.DBExecutor) (int, error) {
	valid := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, err := uuid.Parse(id); err == nil {
			valid = append(valid, id)
		}
	}
	if len(valid) == 0 {
		return 0, nil
	}

	q, args, err := sqlx.In("DELETE FROM users WHERE id IN (?)", valid)
	if err != nil {
		return 0, errors.Wrap(err, "deleting users")
	}
	exe := repo.getExec(exec)
	res, err := exe.ExecContext(ctx, exe.Rebind(q), args...)
	if err != nil {
		return 0, errors.Wrap(err, "deleting users")
	}
	cnt, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "deleting users")
	}
	return int(cnt), nil
}
