package reminder

import (
	"context"
	"errors"
	"fmt"

	"github.com/portops/PGC-BookingService/pkg/dbmetrics"
	"github.com/portops/PGC-BookingService/pkg/psqlbuilder"
)

// Переиспользуем интерфейсы из dbmetrics для работы с БД
type DBExecutor = dbmetrics.DBExecutor

var (
	// ErrBuildQuery возвращается при ошибке построения SQL запроса
	ErrBuildQuery = errors.New("reminder.repository: failed to build query")

	// ErrExecQuery возвращается при ошибке выполнения SQL запроса
	ErrExecQuery = errors.New("reminder.repository: failed to execute query")
)

// Repository журнал отправленных напоминаний
// Уникальный индекс (booking_id, offset_hours) делает отправку идемпотентной:
// повторный проход sweeper-а не дублирует напоминание
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория напоминаний
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// TryRecord пытается записать факт отправки напоминания
// Возвращает true, если запись создана (напоминание нужно отправить),
// и false, если такое напоминание уже было записано ранее
func (r *Repository) TryRecord(ctx context.Context, bookingID int64, offsetHours int) (bool, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("booking_reminders").
		Columns("booking_id", "offset_hours").
		Values(bookingID, offsetHours).
		Suffix("ON CONFLICT (booking_id, offset_hours) DO NOTHING").
		ToSql()
	if err != nil {
		return false, fmt.Errorf("%w: TryRecord - build insert query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("%w: TryRecord - execute insert: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%w: TryRecord - get rows affected: %v", ErrExecQuery, err)
	}

	return rowsAffected == 1, nil
}
