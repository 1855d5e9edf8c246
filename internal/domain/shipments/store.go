package shipments

import "context"

// Store — хранилище отправок и их аудит-журнала. Каждая запись-мутация
// и её AuditEntry выполняются в одной транзакции: либо видно обе, либо
// ни одной. Оптимистичных версий нет, при гонке побеждает последняя
// запись.
type Store interface {
	// Create регистрирует новую отправку со статусом sending.
	// Возвращает ErrDuplicateQRCode, если код этикетки уже занят.
	Create(ctx context.Context, p CreateParams) (*Shipment, error)

	// GetByQRCode возвращает (nil, nil), если записи нет.
	GetByQRCode(ctx context.Context, qrCode string) (*Shipment, error)

	// GetByID — тот же контракт, ключ — суррогатный id.
	GetByID(ctx context.Context, id int64) (*Shipment, error)

	// UpdateStatus пишет статус безусловно, в том числе тот же самый —
	// отсечение «тот же статус» остаётся на вызывающем слое.
	// Пустые notes сохраняют прежние.
	UpdateStatus(ctx context.Context, qrCode string, status Status, updatedBy, notes string) (*Shipment, error)

	// Update — полная правка записи, включая сам qr_code; уникальность
	// проверяется против всех остальных записей.
	Update(ctx context.Context, p UpdateParams) (*Shipment, error)

	List(ctx context.Context) ([]Shipment, error)

	// AuditLog отдаёт не более limit записей, свежие первыми.
	AuditLog(ctx context.Context, limit int) ([]AuditEntry, error)

	// SetTelegramMessageID — служебная отметка доставки уведомления,
	// в аудит-журнал не попадает.
	SetTelegramMessageID(ctx context.Context, shipmentID int64, messageID int64) error
}
