package shipments

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Memory — то же хранилище поверх map, под мьютексом. Используется в
// тестах и для локального запуска без Postgres; семантика совпадает с PG.
type Memory struct {
	mu          sync.RWMutex
	byID        map[int64]*Shipment
	byQR        map[string]int64
	audit       []AuditEntry
	nextID      int64
	nextAuditID int64
}

func NewMemory() *Memory {
	return &Memory{
		byID: make(map[int64]*Shipment),
		byQR: make(map[string]int64),
	}
}

func (m *Memory) appendAudit(shipmentID int64, action AuditAction, oldVal, newVal, actor string) {
	m.nextAuditID++
	m.audit = append(m.audit, AuditEntry{
		ID:         m.nextAuditID,
		ShipmentID: shipmentID,
		Action:     action,
		OldValue:   oldVal,
		NewValue:   newVal,
		Actor:      actor,
		CreatedAt:  time.Now(),
	})
}

func copyOf(s *Shipment) *Shipment {
	c := *s
	if s.ReceivedTime != nil {
		t := *s.ReceivedTime
		c.ReceivedTime = &t
	}
	return &c
}

func (m *Memory) Create(ctx context.Context, p CreateParams) (*Shipment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byQR[p.QRCode]; ok {
		return nil, ErrDuplicateQRCode
	}

	m.nextID++
	s := &Shipment{
		ID:         m.nextID,
		QRCode:     p.QRCode,
		IMEI:       p.IMEI,
		DeviceName: p.DeviceName,
		Capacity:   p.Capacity,
		Supplier:   p.Supplier,
		Status:     StatusSending,
		SentTime:   time.Now(),
		Notes:      p.Notes,
		CreatedBy:  p.CreatedBy,
		ImageURL:   p.ImageURL,
	}
	m.byID[s.ID] = s
	m.byQR[s.QRCode] = s.ID
	m.appendAudit(s.ID, AuditCreated, "", summarize(s), p.CreatedBy)
	return copyOf(s), nil
}

func (m *Memory) GetByQRCode(ctx context.Context, qrCode string) (*Shipment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.byQR[qrCode]
	if !ok {
		return nil, nil
	}
	return copyOf(m.byID[id]), nil
}

func (m *Memory) GetByID(ctx context.Context, id int64) (*Shipment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.byID[id]
	if !ok {
		return nil, nil
	}
	return copyOf(s), nil
}

func (m *Memory) UpdateStatus(ctx context.Context, qrCode string, status Status, updatedBy, notes string) (*Shipment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	id, ok := m.byQR[qrCode]
	if !ok {
		return nil, ErrNotFound
	}
	s := m.byID[id]

	oldStatus := s.Status
	s.Status = status
	s.UpdatedBy = updatedBy
	if notes != "" {
		s.Notes = notes
	}
	if status == StatusReceived && s.ReceivedTime == nil {
		t := time.Now()
		s.ReceivedTime = &t
	}
	m.appendAudit(id, AuditStatusChanged, string(oldStatus), string(status), updatedBy)
	return copyOf(s), nil
}

func (m *Memory) Update(ctx context.Context, p UpdateParams) (*Shipment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !p.Status.Valid() {
		return nil, ErrInvalidStatus
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.byID[p.ID]
	if !ok {
		return nil, ErrNotFound
	}
	if otherID, taken := m.byQR[p.QRCode]; taken && otherID != p.ID {
		return nil, ErrDuplicateQRCode
	}

	old := copyOf(s)
	delete(m.byQR, s.QRCode)
	s.QRCode = p.QRCode
	s.IMEI = p.IMEI
	s.DeviceName = p.DeviceName
	s.Capacity = p.Capacity
	s.Supplier = p.Supplier
	s.Status = p.Status
	s.Notes = p.Notes
	s.UpdatedBy = p.UpdatedBy
	s.ImageURL = p.ImageURL
	if p.Status == StatusReceived && s.ReceivedTime == nil {
		t := time.Now()
		s.ReceivedTime = &t
	}
	m.byQR[s.QRCode] = s.ID
	m.appendAudit(s.ID, AuditUpdated, summarize(old), summarize(s), p.UpdatedBy)
	return copyOf(s), nil
}

func (m *Memory) List(ctx context.Context) ([]Shipment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Shipment, 0, len(m.byID))
	for _, s := range m.byID {
		out = append(out, *copyOf(s))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].SentTime.Equal(out[j].SentTime) {
			return out[i].SentTime.After(out[j].SentTime)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (m *Memory) AuditLog(ctx context.Context, limit int) ([]AuditEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	if limit < 0 {
		limit = 0
	}

	// свежие первыми
	out := make([]AuditEntry, 0, limit)
	for i := len(m.audit) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.audit[i])
	}
	return out, nil
}

func (m *Memory) SetTelegramMessageID(ctx context.Context, shipmentID int64, messageID int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.byID[shipmentID]
	if !ok {
		return ErrNotFound
	}
	s.TelegramMessageID = messageID
	return nil
}
