package db

import (
	"context"

	"github.com/mcdexio/yield-battle-vault/common/txhook"
	"gorm.io/gorm"
)

type txKey struct{}

// WithTx binds tx to ctx so that code called with ctx joins the transaction.
func WithTx(ctx context.Context, tx *gorm.DB) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

// TxFromContext returns the transaction bound to ctx.
func TxFromContext(ctx context.Context) (*gorm.DB, bool) {
	tx, ok := ctx.Value(txKey{}).(*gorm.DB)
	return tx, ok && tx != nil
}

// FromContext returns the transaction bound to ctx, or fallback outside of one.
func FromContext(ctx context.Context, fallback *gorm.DB) *gorm.DB {
	if tx, ok := TxFromContext(ctx); ok {
		return tx
	}
	return fallback.WithContext(ctx)
}

// TransactionContext runs body in a transaction bound to the context it receives. Rollback
// hooks registered on that context run when the transaction does not commit.
func TransactionContext(ctx context.Context, db *gorm.DB, body func(ctx context.Context, tx *gorm.DB) error) (err error) {
	ctx, hooks := txhook.Begin(ctx)
	defer func() {
		if recovered := recover(); recovered != nil {
			hooks.Rollback()
			panic(recovered)
		}
		if err != nil {
			hooks.Rollback()
			return
		}
		hooks.Commit()
	}()
	return Transaction(db.WithContext(ctx), func(tx *gorm.DB) error {
		return body(WithTx(ctx, tx), tx)
	})
}
