package export

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"github.com/Trung051/chuyenhang/internal/domain/shipments"
)

// CSV — тот же реестр в CSV, с BOM, чтобы Excel открывал UTF-8 корректно.
func CSV(list []shipments.Shipment) ([]byte, error) {
	buf := &bytes.Buffer{}
	buf.WriteString("\xef\xbb\xbf")

	w := csv.NewWriter(buf)

	h := header()
	record := make([]string, len(h))
	for i, v := range h {
		record[i] = fmt.Sprint(v)
	}
	if err := w.Write(record); err != nil {
		return nil, err
	}

	for _, s := range list {
		r := row(s)
		for i, v := range r {
			record[i] = fmt.Sprint(v)
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
