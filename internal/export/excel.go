// Package export — выгрузка реестра отправок: xlsx для скачивания,
// push в общий xlsx-файл (append/replace) и CSV.
package export

import (
	"bytes"
	"fmt"
	"os"
	"sync"

	"github.com/xuri/excelize/v2"

	"github.com/Trung051/chuyenhang/internal/domain/shipments"
)

const timeLayout = "2006-01-02 15:04:05"

func header() []interface{} {
	return []interface{}{
		"id", "qr_code", "imei", "device_name", "capacity", "supplier",
		"status", "sent_time", "received_time", "notes", "created_by", "updated_by", "image_url",
	}
}

func row(s shipments.Shipment) []interface{} {
	received := ""
	if s.ReceivedTime != nil {
		received = s.ReceivedTime.Format(timeLayout)
	}
	return []interface{}{
		s.ID, s.QRCode, s.IMEI, s.DeviceName, s.Capacity, s.Supplier,
		string(s.Status), s.SentTime.Format(timeLayout), received,
		s.Notes, s.CreatedBy, s.UpdatedBy, s.ImageURL,
	}
}

// Workbook собирает xlsx с реестром для скачивания.
func Workbook(list []shipments.Shipment) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(f.GetActiveSheetIndex())

	h := header()
	if err := f.SetSheetRow(sheet, "A1", &h); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	for i, s := range list {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		r := row(s)
		if err := f.SetSheetRow(sheet, cell, &r); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	buf := &bytes.Buffer{}
	if err := f.Write(buf); err != nil {
		return nil, fmt.Errorf("serialize workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// Result — итог push во внешнюю таблицу. Ошибка не фатальна для
// вызвавшей операции, просто сообщается обратно.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// SheetPusher дописывает или заменяет лист в общем xlsx-файле
// (этот файл синхронизируется во внешнюю таблицу вне сервиса).
type SheetPusher struct {
	mu    sync.Mutex
	path  string
	sheet string
}

func NewSheetPusher(path, sheet string) *SheetPusher {
	return &SheetPusher{path: path, sheet: sheet}
}

func (p *SheetPusher) Push(list []shipments.Shipment, appendMode bool) Result {
	p.mu.Lock()
	defer p.mu.Unlock()

	f, err := p.open()
	if err != nil {
		return Result{Message: err.Error()}
	}
	defer func() { _ = f.Close() }()

	idx, err := f.GetSheetIndex(p.sheet)
	if err != nil {
		return Result{Message: err.Error()}
	}
	if idx < 0 {
		if _, err := f.NewSheet(p.sheet); err != nil {
			return Result{Message: err.Error()}
		}
	}

	start := 1
	if appendMode {
		rows, err := f.GetRows(p.sheet)
		if err != nil {
			return Result{Message: err.Error()}
		}
		start = len(rows) + 1
	} else {
		// replace: вычищаем строки листа и пишем заново
		rows, err := f.GetRows(p.sheet)
		if err != nil {
			return Result{Message: err.Error()}
		}
		for i := len(rows); i >= 1; i-- {
			if err := f.RemoveRow(p.sheet, i); err != nil {
				return Result{Message: err.Error()}
			}
		}
	}

	if start == 1 {
		h := header()
		if err := f.SetSheetRow(p.sheet, "A1", &h); err != nil {
			return Result{Message: err.Error()}
		}
		start = 2
	}
	for i, s := range list {
		cell, err := excelize.CoordinatesToCellName(1, start+i)
		if err != nil {
			return Result{Message: err.Error()}
		}
		r := row(s)
		if err := f.SetSheetRow(p.sheet, cell, &r); err != nil {
			return Result{Message: err.Error()}
		}
	}

	if err := f.SaveAs(p.path); err != nil {
		return Result{Message: fmt.Sprintf("save workbook: %v", err)}
	}
	return Result{Success: true, Message: fmt.Sprintf("pushed %d rows to sheet %q", len(list), p.sheet)}
}

func (p *SheetPusher) open() (*excelize.File, error) {
	if _, err := os.Stat(p.path); err != nil {
		if os.IsNotExist(err) {
			return excelize.NewFile(), nil
		}
		return nil, err
	}
	f, err := excelize.OpenFile(p.path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	return f, nil
}
