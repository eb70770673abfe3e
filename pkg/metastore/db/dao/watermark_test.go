package dao

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/textweave/notifier/pkg/common"
	"github.com/textweave/notifier/pkg/metastore/db/dbcore"
	"github.com/textweave/notifier/pkg/model"
)

func TestWatermarkDb(t *testing.T) {
	db := dbcore.ConfigDatabaseForTesting()
	watermarkDb := &watermarkDb{db: db}
	daily := int32(model.FrequencyDaily)

	_, ok, err := watermarkDb.Get(daily)
	require.NoError(t, err)
	require.False(t, ok)

	first := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, watermarkDb.Advance(daily, time.Time{}, first))

	watermark, ok, err := watermarkDb.Get(daily)
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, watermark.Equal(first))

	// A second first-run insert loses the conflict.
	require.ErrorIs(t, watermarkDb.Advance(daily, time.Time{}, first.Add(time.Hour)), common.ErrWatermarkConflict)

	// The conditional update only succeeds from the current watermark.
	second := first.Add(time.Hour)
	require.ErrorIs(t, watermarkDb.Advance(daily, second, second.Add(time.Hour)), common.ErrWatermarkConflict)
	require.NoError(t, watermarkDb.Advance(daily, first, second))

	watermark, _, err = watermarkDb.Get(daily)
	require.NoError(t, err)
	require.True(t, watermark.Equal(second))

	_, ok, err = watermarkDb.Get(int32(model.FrequencyWeekly))
	require.NoError(t, err)
	require.False(t, ok)
}
