// Package tracking — прикладной слой поверх хранилища отправок:
// валидация сканов, политика «тот же статус — не пишем», уведомления.
package tracking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Trung051/chuyenhang/internal/domain/shipments"
	"github.com/Trung051/chuyenhang/internal/infra/metrics"
	"github.com/Trung051/chuyenhang/internal/qr"
)

// ErrSameStatus — запрошен уже текущий статус. Хранилище записало бы
// его безусловно, отсекаем здесь.
var ErrSameStatus = errors.New("tracking: shipment already has this status")

// Notifier шлёт уведомление о принятой отправке. Ошибка доставки
// никогда не откатывает саму мутацию.
type Notifier interface {
	NotifyReceived(ctx context.Context, shipmentID int64, force, isUpdateImage bool) error
}

// SupplierDirectory — справочник перевозчиков для проверки ссылки.
type SupplierDirectory interface {
	Exists(ctx context.Context, name string) (bool, error)
}

type Service struct {
	store     shipments.Store
	suppliers SupplierDirectory
	notifier  Notifier
	log       *slog.Logger
}

func New(store shipments.Store, sup SupplierDirectory, notifier Notifier, log *slog.Logger) *Service {
	return &Service{store: store, suppliers: sup, notifier: notifier, log: log}
}

// ScanResult — исход разбора скана: либо найденная отправка, либо
// разобранный payload для формы создания.
type ScanResult struct {
	Found    bool
	Shipment *shipments.Shipment
	Payload  qr.Payload
}

// Scan разбирает сырой текст со сканера и ищет отправку по коду.
// Код этикетки — всегда первый сегмент payload, политика одна для
// создания и приёмки.
func (s *Service) Scan(ctx context.Context, raw string) (*ScanResult, error) {
	p := qr.Decode(raw)
	res := &ScanResult{Payload: p}
	if p.QRCode == "" {
		return res, nil
	}

	sh, err := s.store.GetByQRCode(ctx, p.QRCode)
	if err != nil {
		return nil, err
	}
	if sh != nil {
		res.Found = true
		res.Shipment = sh
	}
	return res, nil
}

// Create регистрирует отправку после скана или ручного ввода.
func (s *Service) Create(ctx context.Context, p shipments.CreateParams) (*shipments.Shipment, error) {
	required := map[string]string{
		"qr_code":     p.QRCode,
		"imei":        p.IMEI,
		"device_name": p.DeviceName,
		"capacity":    p.Capacity,
	}
	for field, v := range required {
		if v == "" {
			return nil, fmt.Errorf("%w: %s", shipments.ErrValidation, field)
		}
	}
	// поле с запятой не переживёт разбор этикетки — отклоняем сразу
	if _, err := qr.Encode(qr.Payload{QRCode: p.QRCode, IMEI: p.IMEI, DeviceName: p.DeviceName, Capacity: p.Capacity}); err != nil {
		return nil, fmt.Errorf("%w: %v", shipments.ErrValidation, err)
	}

	ok, err := s.suppliers.Exists(ctx, p.Supplier)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", shipments.ErrUnknownSupplier, p.Supplier)
	}

	sh, err := s.store.Create(ctx, p)
	if err != nil {
		return nil, err
	}
	metrics.ShipmentsCreated.Inc()
	return sh, nil
}

// ChangeResult — итог смены статуса. NotifyErr заполняется, если
// запись прошла, а уведомление — нет; вызывающий показывает это как
// предупреждение.
type ChangeResult struct {
	Shipment  *shipments.Shipment
	NotifyErr error
}

// ChangeStatus переводит отправку в новый статус и, при переходе в
// received, шлёт уведомление. Сбой доставки не откатывает запись.
func (s *Service) ChangeStatus(ctx context.Context, qrCode string, status shipments.Status, actor, notes string) (*ChangeResult, error) {
	if !status.Valid() {
		return nil, shipments.ErrInvalidStatus
	}

	cur, err := s.store.GetByQRCode(ctx, qrCode)
	if err != nil {
		return nil, err
	}
	if cur == nil {
		return nil, shipments.ErrNotFound
	}
	if cur.Status == status {
		return nil, ErrSameStatus
	}

	sh, err := s.store.UpdateStatus(ctx, qrCode, status, actor, notes)
	if err != nil {
		return nil, err
	}
	metrics.StatusTransitions.WithLabelValues(string(status)).Inc()

	res := &ChangeResult{Shipment: sh}
	if status == shipments.StatusReceived {
		res.NotifyErr = s.notifyReceived(ctx, sh.ID, true, false)
	}
	return res, nil
}

// Edit — полная правка записи (коррекция, не переход статуса).
// Принудительно уведомляем, только если сообщения ещё не было;
// imageChanged заставляет переслать фото.
func (s *Service) Edit(ctx context.Context, p shipments.UpdateParams, imageChanged bool) (*ChangeResult, error) {
	if !p.Status.Valid() {
		return nil, shipments.ErrInvalidStatus
	}
	if p.QRCode == "" {
		return nil, fmt.Errorf("%w: qr_code", shipments.ErrValidation)
	}
	// правка с запятой так же сломала бы последующий скан, как и создание
	if _, err := qr.Encode(qr.Payload{QRCode: p.QRCode, IMEI: p.IMEI, DeviceName: p.DeviceName, Capacity: p.Capacity}); err != nil {
		return nil, fmt.Errorf("%w: %v", shipments.ErrValidation, err)
	}

	ok, err := s.suppliers.Exists(ctx, p.Supplier)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", shipments.ErrUnknownSupplier, p.Supplier)
	}

	sh, err := s.store.Update(ctx, p)
	if err != nil {
		return nil, err
	}

	res := &ChangeResult{Shipment: sh}
	if sh.Status == shipments.StatusReceived {
		force := sh.TelegramMessageID == 0
		res.NotifyErr = s.notifyReceived(ctx, sh.ID, force, imageChanged)
	}
	return res, nil
}

func (s *Service) notifyReceived(ctx context.Context, shipmentID int64, force, isUpdateImage bool) error {
	if s.notifier == nil {
		return nil
	}
	err := s.notifier.NotifyReceived(ctx, shipmentID, force, isUpdateImage)
	if err != nil {
		metrics.NotifyFailures.Inc()
		s.log.Error("telegram notify failed", "shipment_id", shipmentID, "err", err)
	}
	return err
}

func (s *Service) List(ctx context.Context) ([]shipments.Shipment, error) {
	return s.store.List(ctx)
}

func (s *Service) Get(ctx context.Context, qrCode string) (*shipments.Shipment, error) {
	sh, err := s.store.GetByQRCode(ctx, qrCode)
	if err != nil {
		return nil, err
	}
	if sh == nil {
		return nil, shipments.ErrNotFound
	}
	return sh, nil
}

func (s *Service) AuditLog(ctx context.Context, limit int) ([]shipments.AuditEntry, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return s.store.AuditLog(ctx, limit)
}
