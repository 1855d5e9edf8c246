package suppliers

import (
	"context"
	"errors"
)

var (
	ErrNotFound      = errors.New("suppliers: not found")
	ErrDuplicateName = errors.New("suppliers: name already in use")
)

// Supplier — партнёр-перевозчик. Удаление мягкое: Active=false,
// исторические отправки продолжают ссылаться на запись.
type Supplier struct {
	ID      int64
	Name    string
	Contact string
	Address string
	Active  bool
}

type Store interface {
	// ListActive — только действующие, для выбора при создании отправки.
	ListActive(ctx context.Context) ([]Supplier, error)
	// ListAll — включая деактивированных, для админ-экрана.
	ListAll(ctx context.Context) ([]Supplier, error)
	Add(ctx context.Context, name, contact, address string) (*Supplier, error)
	Update(ctx context.Context, s Supplier) error
	// Deactivate и Restore переключают is_active, строки не удаляются.
	Deactivate(ctx context.Context, id int64) error
	Restore(ctx context.Context, id int64) error
	// Exists проверяет имя среди всех поставщиков, включая неактивных:
	// старые отправки могут ссылаться на уже отключённого.
	Exists(ctx context.Context, name string) (bool, error)
}
