package tracking

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/Trung051/chuyenhang/internal/domain/shipments"
)

type mockNotifier struct {
	calls []notifyCall
	err   error
}

type notifyCall struct {
	shipmentID    int64
	force         bool
	isUpdateImage bool
}

func (m *mockNotifier) NotifyReceived(_ context.Context, id int64, force, isUpdateImage bool) error {
	m.calls = append(m.calls, notifyCall{id, force, isUpdateImage})
	return m.err
}

type stubDirectory struct{ known map[string]bool }

func (d stubDirectory) Exists(_ context.Context, name string) (bool, error) {
	return d.known[name], nil
}

func newService(t *testing.T) (*Service, *shipments.Memory, *mockNotifier) {
	t.Helper()
	store := shipments.NewMemory()
	notifier := &mockNotifier{}
	dir := stubDirectory{known: map[string]bool{"GHN": true, "J&T": true}}
	svc := New(store, dir, notifier, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return svc, store, notifier
}

func validParams(qr string) shipments.CreateParams {
	return shipments.CreateParams{
		QRCode: qr, IMEI: "356938035643809", DeviceName: "iPhone 15",
		Capacity: "128GB", Supplier: "GHN", CreatedBy: "alice",
	}
}

func TestCreateValidation(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*shipments.CreateParams)
		want   error
	}{
		{"empty qr", func(p *shipments.CreateParams) { p.QRCode = "" }, shipments.ErrValidation},
		{"empty imei", func(p *shipments.CreateParams) { p.IMEI = "" }, shipments.ErrValidation},
		{"empty device", func(p *shipments.CreateParams) { p.DeviceName = "" }, shipments.ErrValidation},
		{"empty capacity", func(p *shipments.CreateParams) { p.Capacity = "" }, shipments.ErrValidation},
		{"comma in field", func(p *shipments.CreateParams) { p.DeviceName = "iPhone 15, Pro" }, shipments.ErrValidation},
		{"unknown supplier", func(p *shipments.CreateParams) { p.Supplier = "VNPost" }, shipments.ErrUnknownSupplier},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validParams("A1")
			tt.mutate(&p)
			if _, err := svc.Create(ctx, p); !errors.Is(err, tt.want) {
				t.Fatalf("want %v, got %v", tt.want, err)
			}
		})
	}

	sh, err := svc.Create(ctx, validParams("A1"))
	if err != nil {
		t.Fatal(err)
	}
	if sh.Status != shipments.StatusSending || sh.ReceivedTime != nil {
		t.Fatalf("wrong defaults: %+v", sh)
	}
}

func TestScan(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()
	if _, err := svc.Create(ctx, validParams("A1")); err != nil {
		t.Fatal(err)
	}

	res, err := svc.Scan(ctx, "A1,356938035643809,iPhone 15,128GB")
	if err != nil {
		t.Fatal(err)
	}
	if !res.Found || res.Shipment == nil || res.Shipment.QRCode != "A1" {
		t.Fatalf("expected to find A1: %+v", res)
	}

	// незарегистрированный код: payload отдаётся для формы создания
	res, err = svc.Scan(ctx, "B2,111,Galaxy S24,256GB")
	if err != nil {
		t.Fatal(err)
	}
	if res.Found {
		t.Fatal("B2 must not be found")
	}
	if res.Payload.QRCode != "B2" || res.Payload.DeviceName != "Galaxy S24" {
		t.Fatalf("payload lost: %+v", res.Payload)
	}

	// пустой скан — пустой payload, не ошибка
	res, err = svc.Scan(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	if res.Found || res.Payload.QRCode != "" {
		t.Fatalf("unexpected result for empty scan: %+v", res)
	}
}

func TestChangeStatus(t *testing.T) {
	svc, _, notifier := newService(t)
	ctx := context.Background()
	if _, err := svc.Create(ctx, validParams("A1")); err != nil {
		t.Fatal(err)
	}

	if _, err := svc.ChangeStatus(ctx, "A1", shipments.StatusSending, "alice", ""); !errors.Is(err, ErrSameStatus) {
		t.Fatalf("want ErrSameStatus, got %v", err)
	}
	if _, err := svc.ChangeStatus(ctx, "A1", shipments.Status("nope"), "alice", ""); !errors.Is(err, shipments.ErrInvalidStatus) {
		t.Fatalf("want ErrInvalidStatus, got %v", err)
	}
	if _, err := svc.ChangeStatus(ctx, "ghost", shipments.StatusReceived, "alice", ""); !errors.Is(err, shipments.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
	if len(notifier.calls) != 0 {
		t.Fatalf("no notifications expected yet, got %d", len(notifier.calls))
	}

	res, err := svc.ChangeStatus(ctx, "A1", shipments.StatusReceived, "alice", "")
	if err != nil {
		t.Fatal(err)
	}
	if res.NotifyErr != nil {
		t.Fatalf("notify err: %v", res.NotifyErr)
	}
	if res.Shipment.ReceivedTime == nil {
		t.Fatal("received_time not set")
	}
	if len(notifier.calls) != 1 || !notifier.calls[0].force || notifier.calls[0].isUpdateImage {
		t.Fatalf("unexpected notify calls: %+v", notifier.calls)
	}

	// переход не в received уведомления не шлёт
	if _, err := svc.ChangeStatus(ctx, "A1", shipments.StatusDamaged, "bob", ""); err != nil {
		t.Fatal(err)
	}
	if len(notifier.calls) != 1 {
		t.Fatalf("unexpected notification on damaged: %+v", notifier.calls)
	}
}

func TestChangeStatusNotifyFailureIsNonFatal(t *testing.T) {
	svc, store, notifier := newService(t)
	ctx := context.Background()
	if _, err := svc.Create(ctx, validParams("A1")); err != nil {
		t.Fatal(err)
	}
	notifier.err = errors.New("telegram down")

	res, err := svc.ChangeStatus(ctx, "A1", shipments.StatusReceived, "alice", "")
	if err != nil {
		t.Fatalf("mutation must stand: %v", err)
	}
	if res.NotifyErr == nil {
		t.Fatal("notify error must be reported")
	}

	sh, _ := store.GetByQRCode(ctx, "A1")
	if sh.Status != shipments.StatusReceived || sh.ReceivedTime == nil {
		t.Fatalf("status rolled back: %+v", sh)
	}
}

func TestEditNotifyPolicy(t *testing.T) {
	svc, store, notifier := newService(t)
	ctx := context.Background()
	sh, err := svc.Create(ctx, validParams("A1"))
	if err != nil {
		t.Fatal(err)
	}

	edit := shipments.UpdateParams{
		ID: sh.ID, QRCode: "A1", IMEI: sh.IMEI, DeviceName: sh.DeviceName,
		Capacity: sh.Capacity, Supplier: "J&T", Status: shipments.StatusReceived, UpdatedBy: "admin",
	}

	// сообщения ещё нет — force
	if _, err := svc.Edit(ctx, edit, false); err != nil {
		t.Fatal(err)
	}
	if len(notifier.calls) != 1 || !notifier.calls[0].force {
		t.Fatalf("want forced notify, got %+v", notifier.calls)
	}

	// сообщение уже есть — без force, но с обновлением фото
	if err := store.SetTelegramMessageID(ctx, sh.ID, 777); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Edit(ctx, edit, true); err != nil {
		t.Fatal(err)
	}
	last := notifier.calls[len(notifier.calls)-1]
	if last.force || !last.isUpdateImage {
		t.Fatalf("unexpected notify call: %+v", last)
	}

	if _, err := svc.Edit(ctx, shipments.UpdateParams{ID: sh.ID, QRCode: "A1", Supplier: "VNPost", Status: shipments.StatusSending}, false); !errors.Is(err, shipments.ErrUnknownSupplier) {
		t.Fatalf("want ErrUnknownSupplier, got %v", err)
	}
}

func TestEditRejectsDelimiterInFields(t *testing.T) {
	svc, store, _ := newService(t)
	ctx := context.Background()
	sh, err := svc.Create(ctx, validParams("A1"))
	if err != nil {
		t.Fatal(err)
	}

	// qr_code с запятой развалился бы при следующем скане
	edit := shipments.UpdateParams{
		ID: sh.ID, QRCode: "A,1", IMEI: sh.IMEI, DeviceName: sh.DeviceName,
		Capacity: sh.Capacity, Supplier: "GHN", Status: shipments.StatusSending, UpdatedBy: "admin",
	}
	if _, err := svc.Edit(ctx, edit, false); !errors.Is(err, shipments.ErrValidation) {
		t.Fatalf("want ErrValidation, got %v", err)
	}

	edit.QRCode = "A1"
	edit.DeviceName = "iPhone,15"
	if _, err := svc.Edit(ctx, edit, false); !errors.Is(err, shipments.ErrValidation) {
		t.Fatalf("want ErrValidation, got %v", err)
	}

	// запись не тронута и находится сканом по старому коду
	got, err := store.GetByQRCode(ctx, "A1")
	if err != nil || got == nil {
		t.Fatalf("shipment lost after rejected edit: %v %v", got, err)
	}
	if got.DeviceName != sh.DeviceName {
		t.Fatalf("device name changed: %q", got.DeviceName)
	}
}

func TestEndToEndLifecycle(t *testing.T) {
	svc, store, _ := newService(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, validParams("A1")); err != nil {
		t.Fatal(err)
	}
	res, err := svc.ChangeStatus(ctx, "A1", shipments.StatusReceived, "alice", "")
	if err != nil {
		t.Fatal(err)
	}
	received := *res.Shipment.ReceivedTime

	log, _ := store.AuditLog(ctx, 10)
	if len(log) != 2 {
		t.Fatalf("audit entries = %d, want 2", len(log))
	}

	res, err = svc.ChangeStatus(ctx, "A1", shipments.StatusDamaged, "bob", "")
	if err != nil {
		t.Fatal(err)
	}
	if res.Shipment.Status != shipments.StatusDamaged {
		t.Errorf("status = %s", res.Shipment.Status)
	}
	if !res.Shipment.ReceivedTime.Equal(received) {
		t.Error("received_time must survive later transitions")
	}
}
