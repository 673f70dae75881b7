package dbmetrics

import "context"

type ctxKey int

const txKey ctxKey = iota

// WithExecutor кладет транзакционный executor в контекст
// Репозитории достают его через GetExecutor и выполняют запросы в рамках
// активной транзакции, не зная о ней напрямую
func WithExecutor(ctx context.Context, tx TxExecutor) context.Context {
	return context.WithValue(ctx, txKey, tx)
}

// GetExecutor возвращает executor из контекста (активную транзакцию),
// либо fallback, если транзакции нет
func GetExecutor(ctx context.Context, fallback DBExecutor) DBExecutor {
	if tx, ok := ctx.Value(txKey).(TxExecutor); ok {
		return tx
	}
	return fallback
}

// IsInTransaction сообщает, выполняется ли контекст внутри транзакции
func IsInTransaction(ctx context.Context) bool {
	_, ok := ctx.Value(txKey).(TxExecutor)
	return ok
}
