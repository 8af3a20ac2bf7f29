package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"taskora.org/internal/auth"
)

const userColumns = `id, username, email, first_name, last_name, phone_number, role, hashed_password, is_active`

func (s *Store) Insert(ctx context.Context, u *auth.User) error {
	err := s.db.QueryRowContext(ctx, `
		insert into users (username, email, first_name, last_name, phone_number, role, hashed_password, is_active)
		values ($1, $2, $3, $4, $5, $6, $7, $8)
		returning id
	`, u.Username, u.Email, u.FirstName, u.LastName, u.PhoneNumber, u.Role, u.HashedPassword, u.IsActive).Scan(&u.ID)
	if err != nil {
		return translateUnique(err)
	}
	return nil
}

func (s *Store) FindByID(ctx context.Context, id int64) (*auth.User, error) {
	row := s.db.QueryRowContext(ctx, `select `+userColumns+` from users where id = $1`, id)
	return scanUser(row)
}

func (s *Store) FindByUsername(ctx context.Context, username string) (*auth.User, error) {
	row := s.db.QueryRowContext(ctx, `select `+userColumns+` from users where username = $1`, username)
	return scanUser(row)
}

func (s *Store) List(ctx context.Context, filter auth.UserFilter) ([]*auth.User, error) {
	query := `select ` + userColumns + ` from users`
	var (
		where []string
		args  []any
	)
	if filter.Role != nil {
		args = append(args, *filter.Role)
		where = append(where, fmt.Sprintf("role = $%d", len(args)))
	}
	if filter.UsernamePrefix != nil {
		args = append(args, *filter.UsernamePrefix+"%")
		where = append(where, fmt.Sprintf("username ilike $%d", len(args)))
	}
	if filter.IsActive != nil {
		args = append(args, *filter.IsActive)
		where = append(where, fmt.Sprintf("is_active = $%d", len(args)))
	}
	if len(where) > 0 {
		query += " where " + strings.Join(where, " and ")
	}
	query += " order by id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*auth.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Update builds the SET clause from the allow-listed fields only. Column
// names come from this switch, never from client input.
func (s *Store) Update(ctx context.Context, id int64, upd auth.UserUpdate) (*auth.User, error) {
	if upd.IsZero() {
		return s.FindByID(ctx, id)
	}
	var (
		set  []string
		args []any
	)
	add := func(column string, value any) {
		args = append(args, value)
		set = append(set, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if upd.Username != nil {
		add("username", *upd.Username)
	}
	if upd.Email != nil {
		add("email", *upd.Email)
	}
	if upd.FirstName != nil {
		add("first_name", *upd.FirstName)
	}
	if upd.LastName != nil {
		add("last_name", *upd.LastName)
	}
	if upd.PhoneNumber != nil {
		add("phone_number", *upd.PhoneNumber)
	}
	if upd.Role != nil {
		add("role", *upd.Role)
	}
	if upd.IsActive != nil {
		add("is_active", *upd.IsActive)
	}
	args = append(args, id)
	query := fmt.Sprintf(`update users set %s where id = $%d returning `+userColumns,
		strings.Join(set, ", "), len(args))

	u, err := scanUser(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, auth.ErrNotFound) {
			return nil, auth.ErrNotFound
		}
		return nil, translateUnique(err)
	}
	return u, nil
}

func (s *Store) UpdatePassword(ctx context.Context, id int64, hashedPassword string) error {
	res, err := s.db.ExecContext(ctx, `update users set hashed_password = $1 where id = $2`, hashedPassword, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return auth.ErrNotFound
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `delete from users where id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return auth.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*auth.User, error) {
	var (
		u     auth.User
		first sql.NullString
		last  sql.NullString
		phone sql.NullString
	)
	err := row.Scan(&u.ID, &u.Username, &u.Email, &first, &last, &phone, &u.Role, &u.HashedPassword, &u.IsActive)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, auth.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if first.Valid {
		u.FirstName = &first.String
	}
	if last.Valid {
		u.LastName = &last.String
	}
	if phone.Valid {
		u.PhoneNumber = &phone.String
	}
	return &u, nil
}
