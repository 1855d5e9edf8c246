// Package qr кодирует и разбирает текстовый payload этикетки.
//
// Формат: четыре поля через запятую, порядок фиксированный:
//
//	qr_code,imei,device_name,capacity
//
// Разбор максимально терпимый: хвостовые поля могут отсутствовать,
// пробелы по краям каждого поля срезаются. Код этикетки — всегда
// первый сегмент строки, одна политика для всех вызывающих.
package qr

import (
	"context"
	"errors"
	"strings"
)

const delimiter = ","

// ErrDelimiterInField — поле содержит запятую, такой payload не
// восстановим при разборе, поэтому отклоняем его при кодировании.
var ErrDelimiterInField = errors.New("qr: field contains delimiter")

// ErrNotDetected возвращает ImageDecoder, когда в кадре нет QR-кода.
// Отличается от успешного разбора пустой строки.
var ErrNotDetected = errors.New("qr: no code detected in image")

// Payload — структурированное содержимое этикетки. Любое поле может
// быть пустой строкой.
type Payload struct {
	QRCode     string `json:"qr_code"`
	IMEI       string `json:"imei"`
	DeviceName string `json:"device_name"`
	Capacity   string `json:"capacity"`
}

// Encode собирает payload в одну строку для печати этикетки.
func Encode(p Payload) (string, error) {
	fields := []string{p.QRCode, p.IMEI, p.DeviceName, p.Capacity}
	for _, f := range fields {
		if strings.Contains(f, delimiter) {
			return "", ErrDelimiterInField
		}
	}
	return strings.Join(fields, delimiter), nil
}

// Decode разбирает сырой текст со сканера. Пустая строка даёт пустой
// Payload, лишние разделители после третьего остаются внутри Capacity.
func Decode(raw string) Payload {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Payload{}
	}

	parts := strings.SplitN(raw, delimiter, 4)
	get := func(i int) string {
		if i < len(parts) {
			return strings.TrimSpace(parts[i])
		}
		return ""
	}
	return Payload{
		QRCode:     get(0),
		IMEI:       get(1),
		DeviceName: get(2),
		Capacity:   get(3),
	}
}

// ImageDecoder — внешняя распознавалка кадра камеры. Реализация вне
// этого модуля; ErrNotDetected сигналит «картинка есть, кода нет».
type ImageDecoder interface {
	DecodeImage(ctx context.Context, image []byte) (string, error)
}
