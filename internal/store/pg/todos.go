package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"taskora.org/internal/todo"
)

var _ todo.Store = (*todoStore)(nil)

// Todos returns the todo-facing view of the store.
func (s *Store) Todos() todo.Store { return &todoStore{db: s.db} }

type todoStore struct {
	db *sql.DB
}

const todoColumns = `id, title, description, priority, complete, owner_id`

func (s *todoStore) Insert(ctx context.Context, t *todo.Todo) error {
	return s.db.QueryRowContext(ctx, `
		insert into todos (title, description, priority, complete, owner_id)
		values ($1, $2, $3, $4, $5)
		returning id
	`, t.Title, t.Description, t.Priority, t.Complete, t.OwnerID).Scan(&t.ID)
}

func (s *todoStore) FindByID(ctx context.Context, id int64) (*todo.Todo, error) {
	row := s.db.QueryRowContext(ctx, `select `+todoColumns+` from todos where id = $1`, id)
	return scanTodo(row)
}

func (s *todoStore) ListByOwner(ctx context.Context, ownerID int64) ([]*todo.Todo, error) {
	rows, err := s.db.QueryContext(ctx, `select `+todoColumns+` from todos where owner_id = $1 order by id`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]*todo.Todo, 0)
	for rows.Next() {
		t, err := scanTodo(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *todoStore) Update(ctx context.Context, id int64, upd todo.Update) (*todo.Todo, error) {
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
	if upd.Title != nil {
		add("title", *upd.Title)
	}
	if upd.Description != nil {
		add("description", *upd.Description)
	}
	if upd.Priority != nil {
		add("priority", *upd.Priority)
	}
	if upd.Complete != nil {
		add("complete", *upd.Complete)
	}
	args = append(args, id)
	query := fmt.Sprintf(`update todos set %s where id = $%d returning `+todoColumns,
		strings.Join(set, ", "), len(args))
	return scanTodo(s.db.QueryRowContext(ctx, query, args...))
}

func (s *todoStore) DeleteByOwner(ctx context.Context, ownerID int64) error {
	_, err := s.db.ExecContext(ctx, `delete from todos where owner_id = $1`, ownerID)
	return err
}

func (s *todoStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `delete from todos where id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return todo.ErrNotFound
	}
	return nil
}

func scanTodo(row rowScanner) (*todo.Todo, error) {
	var t todo.Todo
	err := row.Scan(&t.ID, &t.Title, &t.Description, &t.Priority, &t.Complete, &t.OwnerID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, todo.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}
