package dao

import (
	"context"

	"github.com/textweave/notifier/pkg/metastore/db/dbcore"
	"github.com/textweave/notifier/pkg/metastore/db/dbmodel"
)

type metaDomain struct{}

func NewMetaDomain() *metaDomain {
	return &metaDomain{}
}

var _ dbmodel.IMetaDomain = &metaDomain{}

func (*metaDomain) SubscriptionDb(ctx context.Context) dbmodel.ISubscriptionDb {
	return &subscriptionDb{dbcore.GetDB(ctx)}
}

func (*metaDomain) UserDb(ctx context.Context) dbmodel.IUserDb {
	return &userDb{dbcore.GetDB(ctx)}
}

func (*metaDomain) RelationDb(ctx context.Context) dbmodel.IRelationDb {
	return &relationDb{dbcore.GetDB(ctx)}
}

func (*metaDomain) ChangeDb(ctx context.Context) dbmodel.IChangeDb {
	return &changeDb{dbcore.GetDB(ctx)}
}

func (*metaDomain) WatermarkDb(ctx context.Context) dbmodel.IWatermarkDb {
	return &watermarkDb{dbcore.GetDB(ctx)}
}
