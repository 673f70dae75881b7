package fleet

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"github.com/portops/PGC-BookingService/internal/domain"
	"github.com/portops/PGC-BookingService/pkg/dbmetrics"
	"github.com/portops/PGC-BookingService/pkg/psqlbuilder"
)

// Repository доступ к ресурсам перевозчика: грузовикам и контейнерам
// Сами ресурсы создает и изменяет внешний CRUD-слой; здесь они читаются,
// единственная запись - флаг is_booked контейнера
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// GetTruck получает грузовик по ID
func (r *Repository) GetTruck(ctx context.Context, id int64) (*domain.Truck, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("id", "carrier_id", "license_plate", "truck_type", "truck_class").
		From("trucks").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetTruck - build select query: %v", ErrBuildQuery, err)
	}

	var truck domain.Truck
	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&truck.ID,
		&truck.CarrierID,
		&truck.LicensePlate,
		&truck.Type,
		&truck.Class,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTruckNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetTruck - scan truck: %v", ErrScanRow, err)
	}

	return &truck, nil
}

// GetContainersByIDs получает контейнеры по списку ID
// Если хотя бы один ID не найден - ErrContainerNotFound
func (r *Repository) GetContainersByIDs(ctx context.Context, ids []int64) ([]*domain.Container, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("id", "carrier_id", "container_number", "operation_type", "is_booked").
		From("containers").
		Where(squirrel.Expr("id = ANY(?)", pq.Array(ids))).
		OrderBy("id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetContainersByIDs - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: GetContainersByIDs - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	containers := make([]*domain.Container, 0, len(ids))
	for rows.Next() {
		var c domain.Container
		if err := rows.Scan(&c.ID, &c.CarrierID, &c.Number, &c.OperationType, &c.IsBooked); err != nil {
			return nil, fmt.Errorf("%w: GetContainersByIDs - scan row: %v", ErrScanRow, err)
		}
		containers = append(containers, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: GetContainersByIDs - rows error: %v", ErrScanRow, err)
	}

	if len(containers) != len(ids) {
		return nil, fmt.Errorf("%w: requested %d, found %d", ErrContainerNotFound, len(ids), len(containers))
	}

	return containers, nil
}

// MarkContainersBooked помечает контейнеры занятыми
// Условие в WHERE гарантирует single-writer: флаг ставится только на свободные
// контейнеры нужного перевозчика, и если хотя бы один не подошел - вся
// операция откатывается вызывающей транзакцией через ErrContainerConflict
func (r *Repository) MarkContainersBooked(ctx context.Context, ids []int64, carrierID int64) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("containers").
		Set("is_booked", true).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Expr("id = ANY(?)", pq.Array(ids))).
		Where(squirrel.Eq{"carrier_id": carrierID, "is_booked": false}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: MarkContainersBooked - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: MarkContainersBooked - execute update: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: MarkContainersBooked - get rows affected: %v", ErrExecQuery, err)
	}

	if rowsAffected != int64(len(ids)) {
		return fmt.Errorf("%w: marked %d of %d", ErrContainerConflict, rowsAffected, len(ids))
	}

	return nil
}

// ReleaseContainers снимает флаг is_booked с контейнеров
// Возвращает количество реально освобожденных строк; расхождение с len(ids)
// не считается ошибкой (контейнер мог быть удален CRUD-слоем)
func (r *Repository) ReleaseContainers(ctx context.Context, ids []int64) (int64, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("containers").
		Set("is_booked", false).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Expr("id = ANY(?)", pq.Array(ids))).
		Where(squirrel.Eq{"is_booked": true}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("%w: ReleaseContainers - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("%w: ReleaseContainers - execute update: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: ReleaseContainers - get rows affected: %v", ErrExecQuery, err)
	}

	return rowsAffected, nil
}
