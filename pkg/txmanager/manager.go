package txmanager

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/portops/PGC-BookingService/pkg/dbmetrics"
)

// serializationFailure код ошибки Postgres при конфликте сериализации
const serializationFailure = "40001"

// maxSerializableRetries количество повторов сериализуемой транзакции
// при конфликте сериализации
const maxSerializableRetries = 3

// ErrSerializationConflict возвращается, когда сериализуемая транзакция
// не прошла даже после повторов
var ErrSerializationConflict = errors.New("txmanager: serialization conflict, retries exhausted")

// ErrSerializationFailure маркер statement-level конфликта сериализации (40001)
// Репозитории оборачивают им ошибку Postgres вместо своих сентинелов, чтобы
// DoSerializable мог распознать конфликт и повторить транзакцию
var ErrSerializationFailure = errors.New("txmanager: serialization failure")

// TransactionManager менеджер транзакций поверх обернутой метриками БД
// Кладет активную транзакцию в контекст; репозитории подхватывают ее
// через dbmetrics.GetExecutor
type TransactionManager struct {
	db *dbmetrics.DB
}

// NewTransactionManager создает менеджер транзакций
func NewTransactionManager(db *dbmetrics.DB) *TransactionManager {
	return &TransactionManager{db: db}
}

// Do выполняет fn в транзакции с уровнем изоляции по умолчанию
func (m *TransactionManager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.run(ctx, &sql.TxOptions{}, fn)
}

// DoSerializable выполняет fn в сериализуемой транзакции
// При конфликте сериализации повторяет до maxSerializableRetries раз
func (m *TransactionManager) DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	var lastErr error
	for attempt := 0; attempt < maxSerializableRetries; attempt++ {
		lastErr = m.run(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable}, fn)
		if !isSerializationFailure(lastErr) {
			return lastErr
		}
	}
	return fmt.Errorf("%w: %v", ErrSerializationConflict, lastErr)
}

// DoReadOnly выполняет fn в read-only транзакции
func (m *TransactionManager) DoReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.run(ctx, &sql.TxOptions{ReadOnly: true}, fn)
}

func (m *TransactionManager) run(ctx context.Context, opts *sql.TxOptions, fn func(ctx context.Context) error) error {
	// Вложенные транзакции не открываем - используем уже активную
	if dbmetrics.IsInTransaction(ctx) {
		return fn(ctx)
	}

	tx, err := m.db.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("txmanager: begin tx: %w", err)
	}

	txCtx := dbmetrics.WithExecutor(ctx, tx)

	if err := fn(txCtx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("txmanager: rollback after error %v: %w", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("txmanager: commit tx: %w", err)
	}

	return nil
}

func isSerializationFailure(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrSerializationFailure) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == serializationFailure
	}
	return false
}
