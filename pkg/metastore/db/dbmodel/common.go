package dbmodel

import (
	"context"
)

//go:generate mockery --name=IMetaDomain
type IMetaDomain interface {
	SubscriptionDb(ctx context.Context) ISubscriptionDb
	UserDb(ctx context.Context) IUserDb
	RelationDb(ctx context.Context) IRelationDb
	ChangeDb(ctx context.Context) IChangeDb
	WatermarkDb(ctx context.Context) IWatermarkDb
}

//go:generate mockery --name=ITransaction
type ITransaction interface {
	Transaction(ctx context.Context, fn func(txctx context.Context) error) error
}
