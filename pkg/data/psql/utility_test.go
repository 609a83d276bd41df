package psql

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hallupa/CommonCode-sub001/pkg/common"
	"github.com/Hallupa/CommonCode-sub001/pkg/utility/fixed"
)

type recordingExecer struct {
	query string
	args  []any
}

func (r *recordingExecer) ExecContext(_ context.Context, query string, args ...any) (sql.Result, error) {
	r.query = query
	r.args = args
	return nil, nil
}

func TestInsertTrade_ClosedTrade(t *testing.T) {
	trade, err := common.NewTrade(common.Order{
		Broker:    "test",
		Market:    "EURUSD",
		Direction: common.Long,
		Type:      common.OrderTypeMarket,
		Time:      time.Unix(0, 0),
		Quantity:  fixed.FromInt(2, 0),
	})
	require.NoError(t, err)
	trade.Fill(fixed.FromInt(10, 0), time.Unix(60, 0))
	trade.Close(fixed.FromInt(12, 0), time.Unix(120, 0), common.ManualClose)

	rec := &recordingExecer{}
	require.NoError(t, InsertTrade(context.Background(), rec, trade))

	assert.Contains(t, rec.query, "ON CONFLICT (trade_id) DO NOTHING")
	require.Len(t, rec.args, 17)
	assert.Equal(t, trade.Id.String(), rec.args[0])
	assert.Nil(t, rec.args[6])
	assert.Equal(t, "10", rec.args[8])
	assert.Equal(t, "12", rec.args[11])
	assert.Equal(t, "manual_close", rec.args[13])
	assert.Equal(t, "4", rec.args[16])
}

func TestInsertTrade_ExpiredTradeHasNoEntry(t *testing.T) {
	trade, err := common.NewTrade(common.Order{
		Market:    "EURUSD",
		Direction: common.Short,
		Type:      common.OrderTypeLimitEntry,
		Price:     fixed.FromInt(10, 0),
		Time:      time.Unix(0, 0),
		Expiry:    time.Unix(60, 0),
		Quantity:  fixed.One,
	})
	require.NoError(t, err)
	trade.Expire(time.Unix(60, 0))

	rec := &recordingExecer{}
	require.NoError(t, InsertTrade(context.Background(), rec, trade))
	assert.Nil(t, rec.args[8])
	assert.Equal(t, "expired", rec.args[13])
}

func TestInsertTrade_OpenTradeRejected(t *testing.T) {
	trade, err := common.NewTrade(common.Order{
		Market:   "EURUSD",
		Type:     common.OrderTypeMarket,
		Time:     time.Unix(0, 0),
		Quantity: fixed.One,
	})
	require.NoError(t, err)

	assert.ErrorIs(t, InsertTrade(context.Background(), &recordingExecer{}, trade), ErrTradeNotTerminal)
}
