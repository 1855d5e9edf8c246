package api

import (
	"time"

	"github.com/Trung051/chuyenhang/internal/domain/shipments"
	"github.com/Trung051/chuyenhang/internal/domain/suppliers"
)

type shipmentDTO struct {
	ID                int64      `json:"id"`
	QRCode            string     `json:"qr_code"`
	IMEI              string     `json:"imei"`
	DeviceName        string     `json:"device_name"`
	Capacity          string     `json:"capacity"`
	Supplier          string     `json:"supplier"`
	Status            string     `json:"status"`
	SentTime          time.Time  `json:"sent_time"`
	ReceivedTime      *time.Time `json:"received_time"`
	Notes             string     `json:"notes,omitempty"`
	CreatedBy         string     `json:"created_by"`
	UpdatedBy         string     `json:"updated_by,omitempty"`
	ImageURL          string     `json:"image_url,omitempty"`
	TelegramMessageID int64      `json:"telegram_message_id,omitempty"`
}

func toShipmentDTO(s *shipments.Shipment) shipmentDTO {
	return shipmentDTO{
		ID: s.ID, QRCode: s.QRCode, IMEI: s.IMEI, DeviceName: s.DeviceName,
		Capacity: s.Capacity, Supplier: s.Supplier, Status: string(s.Status),
		SentTime: s.SentTime, ReceivedTime: s.ReceivedTime, Notes: s.Notes,
		CreatedBy: s.CreatedBy, UpdatedBy: s.UpdatedBy, ImageURL: s.ImageURL,
		TelegramMessageID: s.TelegramMessageID,
	}
}

func toShipmentDTOs(list []shipments.Shipment) []shipmentDTO {
	out := make([]shipmentDTO, len(list))
	for i := range list {
		out[i] = toShipmentDTO(&list[i])
	}
	return out
}

type auditDTO struct {
	ID         int64     `json:"id"`
	ShipmentID int64     `json:"shipment_id"`
	Action     string    `json:"action"`
	OldValue   string    `json:"old_value"`
	NewValue   string    `json:"new_value"`
	Actor      string    `json:"actor"`
	CreatedAt  time.Time `json:"created_at"`
}

func toAuditDTOs(list []shipments.AuditEntry) []auditDTO {
	out := make([]auditDTO, len(list))
	for i, e := range list {
		out[i] = auditDTO{
			ID: e.ID, ShipmentID: e.ShipmentID, Action: string(e.Action),
			OldValue: e.OldValue, NewValue: e.NewValue, Actor: e.Actor, CreatedAt: e.CreatedAt,
		}
	}
	return out
}

type supplierDTO struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Contact string `json:"contact,omitempty"`
	Address string `json:"address,omitempty"`
	Active  bool   `json:"is_active"`
}

func toSupplierDTO(s suppliers.Supplier) supplierDTO {
	return supplierDTO{ID: s.ID, Name: s.Name, Contact: s.Contact, Address: s.Address, Active: s.Active}
}

func toSupplierDTOs(list []suppliers.Supplier) []supplierDTO {
	out := make([]supplierDTO, len(list))
	for i, s := range list {
		out[i] = toSupplierDTO(s)
	}
	return out
}
