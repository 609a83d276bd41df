package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hallupa/CommonCode-sub001/pkg/common"
	"github.com/Hallupa/CommonCode-sub001/pkg/tools/store"
	"github.com/Hallupa/CommonCode-sub001/pkg/utility/fixed"
)

func TestConfiguration_Validate(t *testing.T) {
	assert.NoError(t, Configuration{RiskPercent: fixed.One}.Validate())
	assert.Error(t, Configuration{}.Validate())
	assert.Error(t, Configuration{RiskPercent: fixed.FromInt(101, 0)}.Validate())
	assert.Error(t, Configuration{RiskPercent: fixed.One, MaxPercent: fixed.NegOne}.Validate())
}

func TestSizer_Quantity(t *testing.T) {
	sizer, err := NewSizer(Configuration{RiskPercent: fixed.One}, store.NewForexTestStore("test"))
	require.NoError(t, err)

	// 1% of 10000 over a 20 pip stop is 5000 units.
	q, err := sizer.Quantity("test", "EURUSD", fixed.FromInt(10000, 0), fixed.MustFromString("1.1000"), fixed.MustFromString("1.0980"))
	require.NoError(t, err)
	assert.True(t, q.Eq(fixed.FromInt(5000, 0)), q.String())

	// 30 pips gives 3333.33 units, rounded down to the lot step.
	q, err = sizer.Quantity("test", "EURUSD", fixed.FromInt(10000, 0), fixed.MustFromString("1.1000"), fixed.MustFromString("1.0970"))
	require.NoError(t, err)
	assert.True(t, q.Eq(fixed.FromInt(3000, 0)), q.String())
}

func TestSizer_Errors(t *testing.T) {
	sizer, err := NewSizer(Configuration{RiskPercent: fixed.One}, store.NewForexTestStore("test"))
	require.NoError(t, err)

	_, err = sizer.Quantity("test", "EURUSD", fixed.FromInt(10000, 0), fixed.One, fixed.One)
	assert.ErrorIs(t, err, ErrZeroStopDistance)

	_, err = sizer.Quantity("test", "EURUSD", fixed.FromInt(100, 0), fixed.MustFromString("1.1"), fixed.MustFromString("1.0"))
	assert.ErrorIs(t, err, ErrBelowMinLot)

	_, err = sizer.Quantity("test", "GBPUSD", fixed.FromInt(10000, 0), fixed.MustFromString("1.1"), fixed.MustFromString("1.0"))
	assert.ErrorIs(t, err, store.ErrMarketNotPresent)
}

func TestSizer_MaxPercentCap(t *testing.T) {
	sizer, err := NewSizer(Configuration{RiskPercent: fixed.FromInt(50, 0), MaxPercent: fixed.FromInt(100, 0)}, store.NewForexTestStore("test"))
	require.NoError(t, err)

	q, err := sizer.Quantity("test", "EURUSD", fixed.FromInt(10000, 0), fixed.One, fixed.MustFromString("0.999"))
	require.NoError(t, err)
	assert.True(t, q.Eq(fixed.FromInt(10000, 0)), q.String())
}

func TestExitLevels(t *testing.T) {
	stop := StopFromAtr(common.Long, fixed.FromInt(100, 0), fixed.FromInt(2, 0), fixed.FromInt(15, 1))
	assert.True(t, stop.Eq(fixed.FromInt(97, 0)))
	assert.True(t, StopFromAtr(common.Short, fixed.FromInt(100, 0), fixed.FromInt(2, 0), fixed.One).Eq(fixed.FromInt(102, 0)))

	assert.True(t, LimitFromRiskReward(common.Long, fixed.FromInt(100, 0), stop, fixed.Two).Eq(fixed.FromInt(106, 0)))
	assert.True(t, LimitFromRiskReward(common.Short, fixed.FromInt(100, 0), fixed.FromInt(102, 0), fixed.Two).Eq(fixed.FromInt(96, 0)))
}
