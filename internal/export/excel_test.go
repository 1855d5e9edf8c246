package export

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/Trung051/chuyenhang/internal/domain/shipments"
)

func sample() []shipments.Shipment {
	sent := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	received := sent.Add(48 * time.Hour)
	return []shipments.Shipment{
		{
			ID: 1, QRCode: "A1", IMEI: "356938035643809", DeviceName: "iPhone 15",
			Capacity: "128GB", Supplier: "GHN", Status: shipments.StatusReceived,
			SentTime: sent, ReceivedTime: &received, CreatedBy: "alice", UpdatedBy: "bob",
		},
		{
			ID: 2, QRCode: "B2", IMEI: "111222333444555", DeviceName: "Galaxy S24",
			Capacity: "256GB", Supplier: "J&T", Status: shipments.StatusSending,
			SentTime: sent, CreatedBy: "alice",
		},
	}
}

func TestWorkbook(t *testing.T) {
	data, err := Workbook(sample())
	if err != nil {
		t.Fatal(err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	rows, err := f.GetRows(sheet)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want header + 2", len(rows))
	}
	if rows[0][1] != "qr_code" {
		t.Errorf("header = %v", rows[0])
	}
	if rows[1][1] != "A1" || rows[1][6] != "received" {
		t.Errorf("first data row = %v", rows[1])
	}
	// received_time пуст, пока статус не received
	if rows[2][8] != "" {
		t.Errorf("unexpected received_time: %v", rows[2])
	}
}

func TestSheetPusherAppendAndReplace(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.xlsx")
	p := NewSheetPusher(path, "Shipments")

	rowCount := func() int {
		t.Helper()
		f, err := excelize.OpenFile(path)
		if err != nil {
			t.Fatal(err)
		}
		defer func() { _ = f.Close() }()
		rows, err := f.GetRows("Shipments")
		if err != nil {
			t.Fatal(err)
		}
		return len(rows)
	}

	if res := p.Push(sample(), true); !res.Success {
		t.Fatalf("push: %s", res.Message)
	}
	if got := rowCount(); got != 3 {
		t.Fatalf("rows after first append = %d, want 3", got)
	}

	// append дописывает под существующими строками
	if res := p.Push(sample(), true); !res.Success {
		t.Fatalf("append: %s", res.Message)
	}
	if got := rowCount(); got != 5 {
		t.Fatalf("rows after second append = %d, want 5", got)
	}

	// replace начинает лист заново
	if res := p.Push(sample(), false); !res.Success {
		t.Fatalf("replace: %s", res.Message)
	}
	if got := rowCount(); got != 3 {
		t.Fatalf("rows after replace = %d, want 3", got)
	}
}

func TestCSV(t *testing.T) {
	data, err := CSV(sample())
	if err != nil {
		t.Fatal(err)
	}
	text := strings.TrimPrefix(string(data), "\xef\xbb\xbf")
	lines := strings.Split(strings.TrimSpace(text), "\n")
	if len(lines) != 3 {
		t.Fatalf("lines = %d, want 3", len(lines))
	}
	if !strings.HasPrefix(lines[0], "id,qr_code,") {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.Contains(lines[1], "A1") {
		t.Errorf("data row = %q", lines[1])
	}
}
