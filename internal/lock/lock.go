package lock

import (
	"context"
	"errors"
)

var ErrLockNotAcquired = errors.New("не удалось получить блокировку врача")

// Locker сериализует критические секции бронирования по одному врачу:
// проверка доступности слота и его резервирование выполняются под
// блокировкой, чтобы конкурентные запросы не прошли проверку одновременно.
type Locker interface {
	WithDoctorLock(ctx context.Context, doctorID int64, fn func(ctx context.Context) error) error
}
