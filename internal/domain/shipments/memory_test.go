package shipments

import (
	"context"
	"errors"
	"testing"
)

func mustCreate(t *testing.T, s Store, qr string) *Shipment {
	t.Helper()
	sh, err := s.Create(context.Background(), CreateParams{
		QRCode:     qr,
		IMEI:       "356938035643809",
		DeviceName: "iPhone 15",
		Capacity:   "128GB",
		Supplier:   "GHN",
		CreatedBy:  "alice",
	})
	if err != nil {
		t.Fatalf("Create(%s): %v", qr, err)
	}
	return sh
}

func TestCreateDefaults(t *testing.T) {
	store := NewMemory()
	sh := mustCreate(t, store, "A1")

	if sh.ID == 0 {
		t.Error("id not assigned")
	}
	if sh.Status != StatusSending {
		t.Errorf("status = %s, want sending", sh.Status)
	}
	if sh.ReceivedTime != nil {
		t.Error("received_time must be nil on creation")
	}
	if sh.SentTime.IsZero() {
		t.Error("sent_time not set")
	}

	log, err := store.AuditLog(context.Background(), 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(log) != 1 || log[0].Action != AuditCreated {
		t.Fatalf("want single 'created' audit entry, got %+v", log)
	}
}

func TestCreateDuplicateQRCode(t *testing.T) {
	store := NewMemory()
	first := mustCreate(t, store, "A1")

	_, err := store.Create(context.Background(), CreateParams{QRCode: "A1", Supplier: "GHN", CreatedBy: "bob"})
	if !errors.Is(err, ErrDuplicateQRCode) {
		t.Fatalf("want ErrDuplicateQRCode, got %v", err)
	}

	// первая запись не пострадала
	got, err := store.GetByQRCode(context.Background(), "A1")
	if err != nil || got == nil {
		t.Fatalf("GetByQRCode: %v, %v", got, err)
	}
	if got.ID != first.ID || got.CreatedBy != "alice" {
		t.Fatalf("first record changed: %+v", got)
	}
}

func TestGetByQRCodeMissing(t *testing.T) {
	store := NewMemory()
	got, err := store.GetByQRCode(context.Background(), "nope")
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Fatalf("want nil for missing record, got %+v", got)
	}
}

func TestUpdateStatusNotFound(t *testing.T) {
	store := NewMemory()
	_, err := store.UpdateStatus(context.Background(), "ghost", StatusReceived, "alice", "")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
	log, _ := store.AuditLog(context.Background(), 10)
	if len(log) != 0 {
		t.Fatalf("no audit entry expected on failed update, got %d", len(log))
	}
}

func TestUpdateStatusInvalid(t *testing.T) {
	store := NewMemory()
	mustCreate(t, store, "A1")
	_, err := store.UpdateStatus(context.Background(), "A1", Status("teleported"), "alice", "")
	if !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("want ErrInvalidStatus, got %v", err)
	}
}

func TestReceivedTimeMonotonic(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	mustCreate(t, store, "A1")

	sh, err := store.UpdateStatus(ctx, "A1", StatusReceived, "alice", "")
	if err != nil {
		t.Fatal(err)
	}
	if sh.Status != StatusReceived || sh.ReceivedTime == nil {
		t.Fatalf("after receive: status=%s received_time=%v", sh.Status, sh.ReceivedTime)
	}
	if sh.UpdatedBy != "alice" {
		t.Errorf("updated_by = %q", sh.UpdatedBy)
	}
	firstReceived := *sh.ReceivedTime

	log, _ := store.AuditLog(ctx, 10)
	if len(log) != 2 {
		t.Fatalf("audit entries = %d, want 2", len(log))
	}

	// уход из received не очищает received_time
	sh, err = store.UpdateStatus(ctx, "A1", StatusDamaged, "bob", "")
	if err != nil {
		t.Fatal(err)
	}
	if sh.Status != StatusDamaged {
		t.Errorf("status = %s", sh.Status)
	}
	if sh.ReceivedTime == nil || !sh.ReceivedTime.Equal(firstReceived) {
		t.Fatalf("received_time changed: %v", sh.ReceivedTime)
	}

	// повторный received не перезаписывает отметку
	sh, err = store.UpdateStatus(ctx, "A1", StatusReceived, "carol", "")
	if err != nil {
		t.Fatal(err)
	}
	if !sh.ReceivedTime.Equal(firstReceived) {
		t.Fatalf("received_time overwritten: %v", sh.ReceivedTime)
	}
}

func TestUpdateStatusNotes(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	mustCreate(t, store, "A1")

	sh, err := store.UpdateStatus(ctx, "A1", StatusDamaged, "alice", "màn hình vỡ")
	if err != nil {
		t.Fatal(err)
	}
	if sh.Notes != "màn hình vỡ" {
		t.Errorf("notes = %q", sh.Notes)
	}

	// пустые notes не стирают прежние
	sh, err = store.UpdateStatus(ctx, "A1", StatusLost, "alice", "")
	if err != nil {
		t.Fatal(err)
	}
	if sh.Notes != "màn hình vỡ" {
		t.Errorf("notes wiped: %q", sh.Notes)
	}
}

func TestUpdateFull(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	a := mustCreate(t, store, "A1")
	mustCreate(t, store, "B2")

	// чужой qr_code занят
	_, err := store.Update(ctx, UpdateParams{
		ID: a.ID, QRCode: "B2", IMEI: a.IMEI, DeviceName: a.DeviceName,
		Capacity: a.Capacity, Supplier: a.Supplier, Status: a.Status, UpdatedBy: "alice",
	})
	if !errors.Is(err, ErrDuplicateQRCode) {
		t.Fatalf("want ErrDuplicateQRCode, got %v", err)
	}

	// свой же qr_code — не конфликт; статус received взводит отметку
	sh, err := store.Update(ctx, UpdateParams{
		ID: a.ID, QRCode: "A1-fixed", IMEI: "356938035643810", DeviceName: "iPhone 15 Pro",
		Capacity: "256GB", Supplier: "J&T", Status: StatusReceived, Notes: "sửa IMEI", UpdatedBy: "admin",
	})
	if err != nil {
		t.Fatal(err)
	}
	if sh.QRCode != "A1-fixed" || sh.Supplier != "J&T" || sh.ReceivedTime == nil {
		t.Fatalf("update not applied: %+v", sh)
	}

	// старый ключ освобождён, новый находится
	if got, _ := store.GetByQRCode(ctx, "A1"); got != nil {
		t.Error("old qr_code still resolves")
	}
	if got, _ := store.GetByQRCode(ctx, "A1-fixed"); got == nil || got.ID != a.ID {
		t.Error("new qr_code not found")
	}

	_, err = store.Update(ctx, UpdateParams{ID: 999, QRCode: "X", Status: StatusSending})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestAuditLogLimitAndOrder(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	mustCreate(t, store, "A1")
	if _, err := store.UpdateStatus(ctx, "A1", StatusReceived, "alice", ""); err != nil {
		t.Fatal(err)
	}
	if _, err := store.UpdateStatus(ctx, "A1", StatusDamaged, "bob", ""); err != nil {
		t.Fatal(err)
	}

	log, err := store.AuditLog(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(log) != 2 {
		t.Fatalf("len = %d, want 2", len(log))
	}
	if log[0].NewValue != string(StatusDamaged) || log[1].NewValue != string(StatusReceived) {
		t.Fatalf("wrong order: %+v", log)
	}
	if log[0].ID <= log[1].ID {
		t.Error("expected most recent entry first")
	}

	// отрицательный limit — пустой результат, не паника
	log, err = store.AuditLog(ctx, -1)
	if err != nil {
		t.Fatal(err)
	}
	if len(log) != 0 {
		t.Fatalf("len = %d, want 0", len(log))
	}
}

func TestSetTelegramMessageID(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	a := mustCreate(t, store, "A1")

	if err := store.SetTelegramMessageID(ctx, a.ID, 4242); err != nil {
		t.Fatal(err)
	}
	got, _ := store.GetByQRCode(ctx, "A1")
	if got.TelegramMessageID != 4242 {
		t.Errorf("telegram_message_id = %d", got.TelegramMessageID)
	}

	// служебная отметка не попадает в аудит
	log, _ := store.AuditLog(ctx, 10)
	if len(log) != 1 {
		t.Fatalf("audit entries = %d, want 1", len(log))
	}
}
