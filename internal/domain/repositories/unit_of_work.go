package repositories

import "context"

// UnitOfWork runs fn in a single transaction. Repository calls made with the
// context handed to fn join that transaction, so a status transition and its
// audit event commit or roll back together. Nested calls reuse the outer
// transaction.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(txCtx context.Context) error) error
}
