package shipments

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const shipmentColumns = `id, qr_code, imei, device_name, capacity, supplier, status,
	sent_time, received_time, notes, created_by, updated_by, image_url, telegram_message_id`

type PG struct{ pool *pgxpool.Pool }

func NewPG(pool *pgxpool.Pool) *PG { return &PG{pool: pool} }

func scanShipment(row pgx.Row) (*Shipment, error) {
	var s Shipment
	err := row.Scan(&s.ID, &s.QRCode, &s.IMEI, &s.DeviceName, &s.Capacity, &s.Supplier, &s.Status,
		&s.SentTime, &s.ReceivedTime, &s.Notes, &s.CreatedBy, &s.UpdatedBy, &s.ImageURL, &s.TelegramMessageID)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func (r *PG) Create(ctx context.Context, p CreateParams) (*Shipment, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	row := tx.QueryRow(ctx, `
		INSERT INTO shipments (qr_code, imei, device_name, capacity, supplier, status, notes, created_by, image_url)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING `+shipmentColumns+`
	`, p.QRCode, p.IMEI, p.DeviceName, p.Capacity, p.Supplier, string(StatusSending), p.Notes, p.CreatedBy, p.ImageURL)

	s, err := scanShipment(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateQRCode
		}
		return nil, err
	}

	if _, err = tx.Exec(ctx, `
		INSERT INTO shipment_audit (shipment_id, action, old_value, new_value, actor)
		VALUES ($1,$2,$3,$4,$5)
	`, s.ID, string(AuditCreated), "", summarize(s), p.CreatedBy); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (r *PG) GetByQRCode(ctx context.Context, qrCode string) (*Shipment, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+shipmentColumns+` FROM shipments WHERE qr_code = $1`, qrCode)
	s, err := scanShipment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return s, nil
}

func (r *PG) GetByID(ctx context.Context, id int64) (*Shipment, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+shipmentColumns+` FROM shipments WHERE id = $1`, id)
	s, err := scanShipment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return s, nil
}

func (r *PG) UpdateStatus(ctx context.Context, qrCode string, status Status, updatedBy, notes string) (*Shipment, error) {
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var id int64
	var oldStatus Status
	err = tx.QueryRow(ctx, `SELECT id, status FROM shipments WHERE qr_code = $1 FOR UPDATE`, qrCode).
		Scan(&id, &oldStatus)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	// received_time ставится один раз и больше не трогается.
	row := tx.QueryRow(ctx, `
		UPDATE shipments SET
			status       = $2,
			updated_by   = $3,
			notes        = COALESCE(NULLIF($4,''), notes),
			received_time = CASE WHEN $2 = 'received' THEN COALESCE(received_time, now()) ELSE received_time END,
			updated_at   = now()
		WHERE id = $1
		RETURNING `+shipmentColumns+`
	`, id, string(status), updatedBy, notes)

	s, err := scanShipment(row)
	if err != nil {
		return nil, err
	}

	if _, err = tx.Exec(ctx, `
		INSERT INTO shipment_audit (shipment_id, action, old_value, new_value, actor)
		VALUES ($1,$2,$3,$4,$5)
	`, id, string(AuditStatusChanged), string(oldStatus), string(status), updatedBy); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (r *PG) Update(ctx context.Context, p UpdateParams) (*Shipment, error) {
	if !p.Status.Valid() {
		return nil, ErrInvalidStatus
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	old, err := scanShipment(tx.QueryRow(ctx,
		`SELECT `+shipmentColumns+` FROM shipments WHERE id = $1 FOR UPDATE`, p.ID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	row := tx.QueryRow(ctx, `
		UPDATE shipments SET
			qr_code     = $2,
			imei        = $3,
			device_name = $4,
			capacity    = $5,
			supplier    = $6,
			status      = $7,
			notes       = $8,
			updated_by  = $9,
			image_url   = $10,
			received_time = CASE WHEN $7 = 'received' THEN COALESCE(received_time, now()) ELSE received_time END,
			updated_at  = now()
		WHERE id = $1
		RETURNING `+shipmentColumns+`
	`, p.ID, p.QRCode, p.IMEI, p.DeviceName, p.Capacity, p.Supplier, string(p.Status), p.Notes, p.UpdatedBy, p.ImageURL)

	s, err := scanShipment(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateQRCode
		}
		return nil, err
	}

	if _, err = tx.Exec(ctx, `
		INSERT INTO shipment_audit (shipment_id, action, old_value, new_value, actor)
		VALUES ($1,$2,$3,$4,$5)
	`, p.ID, string(AuditUpdated), summarize(old), summarize(s), p.UpdatedBy); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (r *PG) List(ctx context.Context) ([]Shipment, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+shipmentColumns+` FROM shipments ORDER BY sent_time DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Shipment
	for rows.Next() {
		s, err := scanShipment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

func (r *PG) AuditLog(ctx context.Context, limit int) ([]AuditEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, shipment_id, action, old_value, new_value, actor, created_at
		FROM shipment_audit
		ORDER BY created_at DESC, id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []AuditEntry
	for rows.Next() {
		var e AuditEntry
		if err := rows.Scan(&e.ID, &e.ShipmentID, &e.Action, &e.OldValue, &e.NewValue, &e.Actor, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *PG) SetTelegramMessageID(ctx context.Context, shipmentID int64, messageID int64) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE shipments SET telegram_message_id = $2 WHERE id = $1`, shipmentID, messageID)
	return err
}

// summarize — компактная строка «как была/стала запись» для аудита.
func summarize(s *Shipment) string {
	return fmt.Sprintf("qr=%s imei=%s device=%s capacity=%s supplier=%s status=%s notes=%s image=%s",
		s.QRCode, s.IMEI, s.DeviceName, s.Capacity, s.Supplier, s.Status, s.Notes, s.ImageURL)
}
