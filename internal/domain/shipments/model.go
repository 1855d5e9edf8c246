package shipments

import (
	"errors"
	"time"
)

type Status string

const (
	StatusSending  Status = "sending"
	StatusReceived Status = "received"
	StatusDamaged  Status = "damaged"
	StatusLost     Status = "lost"
)

var AllStatuses = []Status{StatusSending, StatusReceived, StatusDamaged, StatusLost}

func (s Status) Valid() bool {
	switch s {
	case StatusSending, StatusReceived, StatusDamaged, StatusLost:
		return true
	}
	return false
}

// Label — подпись статуса для сообщений пользователям (вьетнамский,
// как в самих накладных).
func (s Status) Label() string {
	switch s {
	case StatusSending:
		return "Đang gửi"
	case StatusReceived:
		return "Đã nhận"
	case StatusDamaged:
		return "Hư hỏng"
	case StatusLost:
		return "Mất"
	}
	return string(s)
}

var (
	ErrNotFound        = errors.New("shipments: not found")
	ErrDuplicateQRCode = errors.New("shipments: qr code already registered")
	ErrInvalidStatus   = errors.New("shipments: invalid status")
	ErrUnknownSupplier = errors.New("shipments: unknown supplier")
	ErrValidation      = errors.New("shipments: required field is empty")
)

// Shipment — одна физическая отправка, ключ — код этикетки.
// ReceivedTime ставится один раз, при первом переходе в received,
// и дальше не меняется и не очищается.
type Shipment struct {
	ID                int64
	QRCode            string
	IMEI              string
	DeviceName        string
	Capacity          string
	Supplier          string
	Status            Status
	SentTime          time.Time
	ReceivedTime      *time.Time
	Notes             string
	CreatedBy         string
	UpdatedBy         string
	ImageURL          string
	TelegramMessageID int64
}

type AuditAction string

const (
	AuditCreated       AuditAction = "created"
	AuditStatusChanged AuditAction = "status_changed"
	AuditUpdated       AuditAction = "updated"
)

// AuditEntry — неизменяемая запись об одной мутации отправки.
type AuditEntry struct {
	ID         int64
	ShipmentID int64
	Action     AuditAction
	OldValue   string
	NewValue   string
	Actor      string
	CreatedAt  time.Time
}

type CreateParams struct {
	QRCode     string
	IMEI       string
	DeviceName string
	Capacity   string
	Supplier   string
	CreatedBy  string
	Notes      string
	ImageURL   string
}

type UpdateParams struct {
	ID         int64
	QRCode     string
	IMEI       string
	DeviceName string
	Capacity   string
	Supplier   string
	Status     Status
	Notes      string
	UpdatedBy  string
	ImageURL   string
}
