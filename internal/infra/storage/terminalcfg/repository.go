package terminalcfg

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

// Переиспользуем интерфейсы из dbmetrics для работы с БД
type DBExecutor = dbmetrics.DBExecutor

// Repository read-only доступ к политике терминалов, воротам и недельным
// шаблонам расписаний. Эти данные принадлежат админскому CRUD-слою
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория конфигурации терминалов
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// GetTerminal получает терминал с его политикой бронирования
func (r *Repository) GetTerminal(ctx context.Context, id int64) (*domain.TerminalConfig, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(
		"id",
		"code",
		"name",
		"timezone",
		"auto_validation_threshold_pct",
		"max_advance_booking_days",
		"min_advance_booking_hours",
		"no_show_grace_minutes",
		"max_containers_per_booking",
		"reminder_hours_before",
		"created_at",
		"updated_at",
	).
		From("terminals").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetTerminal - build select query: %v", ErrBuildQuery, err)
	}

	var t domain.TerminalConfig
	var reminders pq.Int64Array
	var createdAt, updatedAt sql.NullTime

	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&t.ID,
		&t.Code,
		&t.Name,
		&t.Timezone,
		&t.AutoValidationThresholdPct,
		&t.MaxAdvanceBookingDays,
		&t.MinAdvanceBookingHours,
		&t.NoShowGraceMinutes,
		&t.MaxContainersPerBooking,
		&reminders,
		&createdAt,
		&updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTerminalNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetTerminal - scan terminal: %v", ErrScanRow, err)
	}

	t.ReminderHoursBefore = make([]int, len(reminders))
	for i, h := range reminders {
		t.ReminderHoursBefore[i] = int(h)
	}
	t.CreatedAt = createdAt.Time
	t.UpdatedAt = updatedAt.Time

	return &t, nil
}

// GetGate получает ворота по ID
func (r *Repository) GetGate(ctx context.Context, id int64) (*domain.Gate, error) {
	gates, err := r.listGates(ctx, squirrel.Eq{"id": id}, "GetGate")
	if err != nil {
		return nil, err
	}
	if len(gates) == 0 {
		return nil, ErrGateNotFound
	}
	return gates[0], nil
}

// ListGates получает все ворота терминала
func (r *Repository) ListGates(ctx context.Context, terminalID int64) ([]*domain.Gate, error) {
	return r.listGates(ctx, squirrel.Eq{"terminal_id": terminalID}, "ListGates")
}

func (r *Repository) listGates(ctx context.Context, where squirrel.Eq, op string) ([]*domain.Gate, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(
		"id",
		"terminal_id",
		"code",
		"allowed_truck_types",
		"allowed_truck_classes",
	).
		From("gates").
		Where(where).
		OrderBy("id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %s - build select query: %v", ErrBuildQuery, op, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %s - execute query: %v", ErrExecQuery, op, err)
	}
	defer rows.Close()

	gates := make([]*domain.Gate, 0)
	for rows.Next() {
		var g domain.Gate
		var truckTypes, truckClasses pq.StringArray

		if err := rows.Scan(&g.ID, &g.TerminalID, &g.Code, &truckTypes, &truckClasses); err != nil {
			return nil, fmt.Errorf("%w: %s - scan row: %v", ErrScanRow, op, err)
		}

		g.AllowedTruckTypes = make([]domain.TruckType, len(truckTypes))
		for i, t := range truckTypes {
			g.AllowedTruckTypes[i] = domain.TruckType(t)
		}
		g.AllowedTruckClasses = make([]domain.TruckClass, len(truckClasses))
		for i, c := range truckClasses {
			g.AllowedTruckClasses[i] = domain.TruckClass(c)
		}

		gates = append(gates, &g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s - rows error: %v", ErrScanRow, op, err)
	}

	return gates, nil
}

// ListSchedules получает строки недельного шаблона ворот терминала на день недели
func (r *Repository) ListSchedules(ctx context.Context, terminalID int64, weekday time.Weekday) ([]*domain.GateSchedule, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(
		"gs.gate_id",
		"gs.weekday",
		"gs.open_time",
		"gs.close_time",
		"gs.slot_duration_minutes",
		"gs.capacity",
	).
		From("gate_schedules gs").
		Join("gates g ON g.id = gs.gate_id").
		Where(squirrel.Eq{"g.terminal_id": terminalID, "gs.weekday": int(weekday)}).
		OrderBy("gs.gate_id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListSchedules - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListSchedules - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	schedules := make([]*domain.GateSchedule, 0)
	for rows.Next() {
		var s domain.GateSchedule
		var weekdayInt int

		if err := rows.Scan(&s.GateID, &weekdayInt, &s.OpenTime, &s.CloseTime, &s.SlotDurationMinutes, &s.Capacity); err != nil {
			return nil, fmt.Errorf("%w: ListSchedules - scan row: %v", ErrScanRow, err)
		}
		s.Weekday = time.Weekday(weekdayInt)

		schedules = append(schedules, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: ListSchedules - rows error: %v", ErrScanRow, err)
	}

	return schedules, nil
}
