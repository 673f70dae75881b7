package booking

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
)

// uniqueViolation код ошибки Postgres при нарушении уникального индекса
const uniqueViolation = "23505"

// Repository репозиторий для работы с бронированиями
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория бронирований
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

var bookingColumns = []string{
	"id",
	"reference",
	"carrier_id",
	"terminal_id",
	"gate_id",
	"slot_id",
	"truck_id",
	"container_ids",
	"booking_date",
	"start_time",
	"end_time",
	"slot_start_at",
	"slot_end_at",
	"status",
	"driver_name",
	"driver_phone",
	"decided_at",
	"consumed_at",
	"cancelled_at",
	"expires_at",
	"created_at",
	"updated_at",
}

// Create создает новое бронирование
// Вызывается только внутри транзакции создания (вместе с резервом слота
// и пометкой контейнеров)
func (r *Repository) Create(ctx context.Context, b *domain.Booking) (*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("bookings").
		Columns(
			"reference",
			"carrier_id",
			"terminal_id",
			"gate_id",
			"slot_id",
			"truck_id",
			"container_ids",
			"booking_date",
			"start_time",
			"end_time",
			"slot_start_at",
			"slot_end_at",
			"status",
			"driver_name",
			"driver_phone",
			"decided_at",
			"expires_at",
		).
		Values(
			b.Reference,
			b.CarrierID,
			b.TerminalID,
			b.GateID,
			b.SlotID,
			b.TruckID,
			pq.Array(b.ContainerIDs),
			b.BookingDate,
			b.TimeStart,
			b.TimeEnd,
			b.SlotStartAt,
			b.SlotEndAt,
			b.Status,
			b.DriverName,
			b.DriverPhone,
			b.DecidedAt,
			b.ExpiresAt,
		).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	var createdAt, updatedAt sql.NullTime
	err = executor.QueryRowContext(ctx, query, args...).Scan(&b.ID, &createdAt, &updatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return nil, ErrDuplicateReference
		}
		return nil, fmt.Errorf("%w: Create - execute insert: %v", ErrExecQuery, err)
	}

	b.CreatedAt = createdAt.Time
	b.UpdatedAt = updatedAt.Time

	return b, nil
}

// GetByID получает бронирование по ID
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	return r.getOne(ctx, squirrel.Eq{"id": id}, "GetByID")
}

// GetByReference получает бронирование по человекочитаемому номеру
func (r *Repository) GetByReference(ctx context.Context, reference string) (*domain.Booking, error) {
	return r.getOne(ctx, squirrel.Eq{"reference": reference}, "GetByReference")
}

func (r *Repository) getOne(ctx context.Context, where squirrel.Eq, op string) (*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(bookingColumns...).
		From("bookings").
		Where(where).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %s - build select query: %v", ErrBuildQuery, op, err)
	}

	b, err := scanBooking(executor.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s - scan booking: %v", ErrScanRow, op, err)
	}

	return b, nil
}

// ListWithFilter получает бронирования с фильтрацией по перевозчику/терминалу,
// статусу и периоду дат слота
func (r *Repository) ListWithFilter(ctx context.Context, filter domain.BookingsFilter) ([]*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(bookingColumns...).
		From("bookings").
		OrderBy("booking_date DESC, start_time DESC, id DESC")

	if filter.CarrierID != nil {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"carrier_id": *filter.CarrierID})
	}
	if filter.TerminalID != nil {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"terminal_id": *filter.TerminalID})
	}
	if filter.Status != nil {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"status": *filter.Status})
	}
	if filter.StartDate != nil {
		selectBuilder = selectBuilder.Where(squirrel.GtOrEq{"booking_date": *filter.StartDate})
	}
	if filter.EndDate != nil {
		selectBuilder = selectBuilder.Where(squirrel.LtOrEq{"booking_date": *filter.EndDate})
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListWithFilter - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListWithFilter - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	return scanBookings(rows)
}

// Transition выполняет CAS-переход статуса: переход проходит только если
// текущий статус совпадает с ожидаемым, иначе ErrStatusConflict
// Конкурирующие переходы (отмена против экспирации) не портят состояние -
// проигравший получает ошибку
func (r *Repository) Transition(ctx context.Context, id int64, from, to domain.BookingStatus) error {
	updateBuilder := psqlbuilder.Update("bookings").
		Set("status", to).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id, "status": from})

	// Штампы времени выставляются по целевому статусу
	switch to {
	case domain.StatusConfirmed, domain.StatusRejected:
		updateBuilder = updateBuilder.Set("decided_at", squirrel.Expr("NOW()"))
	case domain.StatusConsumed:
		updateBuilder = updateBuilder.Set("consumed_at", squirrel.Expr("NOW()"))
	case domain.StatusCancelled:
		updateBuilder = updateBuilder.Set("cancelled_at", squirrel.Expr("NOW()"))
	}

	return r.execTransition(ctx, updateBuilder, id, "Transition")
}

// ConfirmWithDeadline подтверждает pending-бронирование и одновременно
// переносит дедлайн: для confirmed он означает момент признания no-show
func (r *Repository) ConfirmWithDeadline(ctx context.Context, id int64, noShowDeadline time.Time) error {
	updateBuilder := psqlbuilder.Update("bookings").
		Set("status", domain.StatusConfirmed).
		Set("decided_at", squirrel.Expr("NOW()")).
		Set("expires_at", noShowDeadline).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id, "status": domain.StatusPending})

	return r.execTransition(ctx, updateBuilder, id, "ConfirmWithDeadline")
}

func (r *Repository) execTransition(ctx context.Context, updateBuilder squirrel.UpdateBuilder, id int64, op string) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := updateBuilder.ToSql()
	if err != nil {
		return fmt.Errorf("%w: %s - build update query: %v", ErrBuildQuery, op, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: %s - execute update: %v", ErrExecQuery, op, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %s - get rows affected: %v", ErrExecQuery, op, err)
	}

	if rowsAffected == 0 {
		// Либо бронирования нет, либо статус уже другой
		if _, getErr := r.GetByID(ctx, id); getErr != nil {
			return getErr
		}
		return ErrStatusConflict
	}

	return nil
}

// ListDue возвращает бронирования в указанном статусе с истекшим дедлайном
// Для pending дедлайн - начало слота, для confirmed - конец слота плюс
// грейс-период no-show
func (r *Repository) ListDue(ctx context.Context, status domain.BookingStatus, now time.Time, limit uint64) ([]*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(bookingColumns...).
		From("bookings").
		Where(squirrel.Eq{"status": status}).
		Where(squirrel.LtOrEq{"expires_at": now}).
		OrderBy("expires_at ASC").
		Limit(limit).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListDue - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListDue - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	return scanBookings(rows)
}

// ListUpcomingConfirmed возвращает подтвержденные бронирования, слот которых
// начинается в интервале (now, horizon] - кандидаты на напоминания
func (r *Repository) ListUpcomingConfirmed(ctx context.Context, now, horizon time.Time) ([]*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(bookingColumns...).
		From("bookings").
		Where(squirrel.Eq{"status": domain.StatusConfirmed}).
		Where(squirrel.Gt{"slot_start_at": now}).
		Where(squirrel.LtOrEq{"slot_start_at": horizon}).
		OrderBy("slot_start_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListUpcomingConfirmed - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListUpcomingConfirmed - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	return scanBookings(rows)
}

// rowScanner общий интерфейс *sql.Row и *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanBooking(row rowScanner) (*domain.Booking, error) {
	var b domain.Booking
	var containerIDs pq.Int64Array
	var createdAt, updatedAt sql.NullTime

	err := row.Scan(
		&b.ID,
		&b.Reference,
		&b.CarrierID,
		&b.TerminalID,
		&b.GateID,
		&b.SlotID,
		&b.TruckID,
		&containerIDs,
		&b.BookingDate,
		&b.TimeStart,
		&b.TimeEnd,
		&b.SlotStartAt,
		&b.SlotEndAt,
		&b.Status,
		&b.DriverName,
		&b.DriverPhone,
		&b.DecidedAt,
		&b.ConsumedAt,
		&b.CancelledAt,
		&b.ExpiresAt,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	b.ContainerIDs = containerIDs
	b.CreatedAt = createdAt.Time
	b.UpdatedAt = updatedAt.Time

	return &b, nil
}

func scanBookings(rows *sql.Rows) ([]*domain.Booking, error) {
	bookings := make([]*domain.Booking, 0)

	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanBookings - scan row: %v", ErrScanRow, err)
		}
		bookings = append(bookings, b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: scanBookings - rows error: %v", ErrScanRow, err)
	}

	return bookings, nil
}
