package suppliers

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ pool *pgxpool.Pool }

func NewRepo(pool *pgxpool.Pool) *Repo { return &Repo{pool: pool} }

func (r *Repo) list(ctx context.Context, onlyActive bool) ([]Supplier, error) {
	q := `SELECT id, name, contact, address, is_active FROM suppliers`
	if onlyActive {
		q += ` WHERE is_active`
	}
	q += ` ORDER BY name`

	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Supplier
	for rows.Next() {
		var s Supplier
		if err := rows.Scan(&s.ID, &s.Name, &s.Contact, &s.Address, &s.Active); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *Repo) ListActive(ctx context.Context) ([]Supplier, error) { return r.list(ctx, true) }
func (r *Repo) ListAll(ctx context.Context) ([]Supplier, error)    { return r.list(ctx, false) }

func (r *Repo) Add(ctx context.Context, name, contact, address string) (*Supplier, error) {
	// имя уникально среди действующих
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM suppliers WHERE name = $1 AND is_active)`, name).Scan(&exists)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrDuplicateName
	}

	s := Supplier{Name: name, Contact: contact, Address: address, Active: true}
	err = r.pool.QueryRow(ctx, `
		INSERT INTO suppliers (name, contact, address, is_active)
		VALUES ($1,$2,$3,true)
		RETURNING id
	`, name, contact, address).Scan(&s.ID)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *Repo) Update(ctx context.Context, s Supplier) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE suppliers SET name=$2, contact=$3, address=$4, is_active=$5 WHERE id=$1
	`, s.ID, s.Name, s.Contact, s.Address, s.Active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repo) setActive(ctx context.Context, id int64, active bool) error {
	tag, err := r.pool.Exec(ctx, `UPDATE suppliers SET is_active=$2 WHERE id=$1`, id, active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repo) Deactivate(ctx context.Context, id int64) error { return r.setActive(ctx, id, false) }
func (r *Repo) Restore(ctx context.Context, id int64) error    { return r.setActive(ctx, id, true) }

func (r *Repo) Exists(ctx context.Context, name string) (bool, error) {
	var ok bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM suppliers WHERE name = $1)`, name).Scan(&ok)
	return ok, err
}
