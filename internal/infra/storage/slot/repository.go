package slot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"github.com/portops/PGC-BookingService/internal/domain"
	"github.com/portops/PGC-BookingService/pkg/dbmetrics"
	"github.com/portops/PGC-BookingService/pkg/psqlbuilder"
	"github.com/portops/PGC-BookingService/pkg/txmanager"
)

// serializationFailure код ошибки Postgres при конфликте сериализации
const serializationFailure = "40001"

// Repository капасити-леджер: единственный писатель reserved_count
//
// Reserve и Release - условные UPDATE по одной строке слота, поэтому
// конкурентные запросы по одному слоту линеаризуются строчной блокировкой
// Postgres, а разные слоты резервируются полностью параллельно
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория слотов
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

const slotColumns = "id, terminal_id, gate_id, slot_date, start_time, end_time, capacity, reserved_count, created_at, updated_at"

// Ensure материализует слот из шаблона расписания, если строки еще нет,
// и возвращает актуальное состояние слота
// Конкурентная материализация безопасна за счет ON CONFLICT DO NOTHING
func (r *Repository) Ensure(ctx context.Context, s *domain.TimeSlot) (*domain.TimeSlot, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("time_slots").
		Columns("terminal_id", "gate_id", "slot_date", "start_time", "end_time", "capacity").
		Values(s.TerminalID, s.GateID, s.SlotDate, s.StartTime, s.EndTime, s.Capacity).
		Suffix("ON CONFLICT (terminal_id, gate_id, slot_date, start_time) DO NOTHING").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: Ensure - build insert query: %v", ErrBuildQuery, err)
	}

	if _, err := executor.ExecContext(ctx, query, args...); err != nil {
		if isSerializationFailure(err) {
			return nil, fmt.Errorf("%w: Ensure - materialize slot: %v", txmanager.ErrSerializationFailure, err)
		}
		return nil, fmt.Errorf("%w: Ensure - execute insert: %v", ErrExecQuery, err)
	}

	return r.GetByKey(ctx, s.TerminalID, s.GateID, s.SlotDate, s.StartTime.String())
}

// Reserve атомарно резервирует amount единиц емкости слота
// Проверка и инкремент выполняются одним условным UPDATE: два конкурентных
// вызова на слот с одной свободной единицей не могут оба пройти
// Возвращает состояние слота ПОСЛЕ резервирования
func (r *Repository) Reserve(ctx context.Context, slotID int64, amount int) (*domain.TimeSlot, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("time_slots").
		Set("reserved_count", squirrel.Expr("reserved_count + ?", amount)).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": slotID}).
		Where(squirrel.Expr("reserved_count + ? <= capacity", amount)).
		Suffix("RETURNING " + slotColumns).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: Reserve - build update query: %v", ErrBuildQuery, err)
	}

	slot, err := r.scanSlot(executor.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		// Либо слота нет, либо емкость исчерпана - различаем отдельным SELECT
		if _, getErr := r.GetByID(ctx, slotID); getErr != nil {
			return nil, getErr
		}
		return nil, ErrSlotFull
	}
	if err != nil {
		// Конфликт сериализации на горячей строке: маркируем, чтобы
		// сериализуемая транзакция повторилась целиком
		if isSerializationFailure(err) {
			return nil, fmt.Errorf("%w: Reserve - slot id=%d: %v", txmanager.ErrSerializationFailure, slotID, err)
		}
		return nil, fmt.Errorf("%w: Reserve - scan slot: %v", ErrScanRow, err)
	}

	return slot, nil
}

// Release атомарно возвращает amount единиц емкости слота
// Уход reserved_count ниже нуля - нарушение инварианта, операция падает
func (r *Repository) Release(ctx context.Context, slotID int64, amount int) (*domain.TimeSlot, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("time_slots").
		Set("reserved_count", squirrel.Expr("reserved_count - ?", amount)).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": slotID}).
		Where(squirrel.Expr("reserved_count - ? >= 0", amount)).
		Suffix("RETURNING " + slotColumns).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: Release - build update query: %v", ErrBuildQuery, err)
	}

	slot, err := r.scanSlot(executor.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		if _, getErr := r.GetByID(ctx, slotID); getErr != nil {
			return nil, getErr
		}
		return nil, fmt.Errorf("%w: slot id=%d amount=%d", ErrReleaseUnderflow, slotID, amount)
	}
	if err != nil {
		if isSerializationFailure(err) {
			return nil, fmt.Errorf("%w: Release - slot id=%d: %v", txmanager.ErrSerializationFailure, slotID, err)
		}
		return nil, fmt.Errorf("%w: Release - scan slot: %v", ErrScanRow, err)
	}

	return slot, nil
}

// GetByID получает слот по ID
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.TimeSlot, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(slotColumns).
		From("time_slots").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	slot, err := r.scanSlot(executor.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSlotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - scan slot: %v", ErrScanRow, err)
	}

	return slot, nil
}

// GetByKey получает слот по натуральному ключу (терминал, ворота, дата, время начала)
func (r *Repository) GetByKey(ctx context.Context, terminalID, gateID int64, date time.Time, startTime string) (*domain.TimeSlot, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(slotColumns).
		From("time_slots").
		Where(squirrel.Eq{
			"terminal_id": terminalID,
			"gate_id":     gateID,
			"slot_date":   date,
			"start_time":  startTime,
		}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByKey - build select query: %v", ErrBuildQuery, err)
	}

	slot, err := r.scanSlot(executor.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSlotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByKey - scan slot: %v", ErrScanRow, err)
	}

	return slot, nil
}

// ListByDate получает материализованные слоты терминала на дату
// Опционально сужает выборку до одних ворот
// Слоты без броней могут отсутствовать в выборке - каталог дополняет их из шаблона
func (r *Repository) ListByDate(ctx context.Context, terminalID int64, gateID *int64, date time.Time) ([]*domain.TimeSlot, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(slotColumns).
		From("time_slots").
		Where(squirrel.Eq{"terminal_id": terminalID, "slot_date": date}).
		OrderBy("gate_id ASC, start_time ASC")

	if gateID != nil {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"gate_id": *gateID})
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListByDate - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListByDate - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	slots := make([]*domain.TimeSlot, 0)
	for rows.Next() {
		slot, err := r.scanSlot(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: ListByDate - scan row: %v", ErrScanRow, err)
		}
		slots = append(slots, slot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: ListByDate - rows error: %v", ErrScanRow, err)
	}

	return slots, nil
}

// rowScanner общий интерфейс *sql.Row и *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func isSerializationFailure(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == serializationFailure
	}
	return false
}

func (r *Repository) scanSlot(row rowScanner) (*domain.TimeSlot, error) {
	var slot domain.TimeSlot
	var createdAt, updatedAt sql.NullTime

	err := row.Scan(
		&slot.ID,
		&slot.TerminalID,
		&slot.GateID,
		&slot.SlotDate,
		&slot.StartTime,
		&slot.EndTime,
		&slot.Capacity,
		&slot.ReservedCount,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	slot.CreatedAt = createdAt.Time
	slot.UpdatedAt = updatedAt.Time

	return &slot, nil
}
