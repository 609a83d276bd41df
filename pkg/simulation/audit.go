package simulation

import (
	"math"
	"time"

	"github.com/Hallupa/CommonCode-sub001/pkg/common"
	"github.com/Hallupa/CommonCode-sub001/pkg/utility/fixed"
)

type accountSnapshot struct {
	balance    fixed.Point
	totalValue fixed.Point
	t          time.Time
}

// Audit samples the account during a run and derives the performance report from it.
type Audit struct {
	minSnapshotInterval time.Duration

	snapshots    []accountSnapshot
	closedTrades []common.Trade
	withdrawn    int
}

func NewAudit(minSnapshotInterval time.Duration) *Audit {
	return &Audit{
		minSnapshotInterval: minSnapshotInterval,
	}
}

func (a *Audit) AddAccountSnapshot(balance, totalValue fixed.Point, t time.Time) {
	if len(a.snapshots) == 0 || t.Sub(a.snapshots[len(a.snapshots)-1].t) >= a.minSnapshotInterval {
		a.snapshots = append(a.snapshots, accountSnapshot{balance: balance, totalValue: totalValue, t: t})
	}
}

// AddTerminalTrade records a trade that reached a final state. Withdrawn orders only count.
func (a *Audit) AddTerminalTrade(trade common.Trade) {
	if trade.Status() == common.TradeStatusClosed {
		a.closedTrades = append(a.closedTrades, trade)
	} else {
		a.withdrawn++
	}
}

func (a *Audit) GenerateReport() Report {
	report := Report{WithdrawnOrders: a.withdrawn}
	if len(a.snapshots) == 0 {
		return report
	}

	first := a.snapshots[0]
	last := a.snapshots[len(a.snapshots)-1]

	report.StartDate = first.t
	report.EndDate = last.t
	report.InitialValue = first.totalValue
	report.FinalValue = last.totalValue
	report.FinalBalance = last.balance

	if report.InitialValue.IsPos() {
		report.TotalProfit = report.FinalValue.Div(report.InitialValue).Sub(fixed.One).MulInt64(100).Rescale(2)
	}

	if report.InitialValue.IsPos() && report.FinalValue.IsPos() {
		report.AnnualizedReturn = annualize(report.FinalValue.Div(report.InitialValue), a.dayCount())
	}

	peak := first.totalValue
	for _, snapshot := range a.snapshots {
		peak = peak.Max(snapshot.totalValue)
		if peak.IsPos() {
			report.MaxDrawdown = report.MaxDrawdown.Max(peak.Sub(snapshot.totalValue).Div(peak))
		}
	}

	a.tradeStatistics(&report)

	if report.MaxDrawdown.IsPos() {
		report.RecoveryFactor = report.TotalProfit.Div(report.MaxDrawdown.MulInt64(100)).Rescale(4)
	}
	report.MaxDrawdown = report.MaxDrawdown.MulInt64(100).Rescale(2)

	dailyReturns := a.dailyReturns()
	mean := fixed.Mean(dailyReturns)
	volatility := fixed.StdDev(dailyReturns, mean)
	if !mean.IsZero() && !volatility.IsZero() {
		report.AnnualizedVolatility = volatility.Mul(fixed.Sqrt252).MulInt64(100).Rescale(2)
		report.SharpeRatio = fixed.SharpeRatio(dailyReturns, fixed.Zero).Mul(fixed.Sqrt252).Rescale(5)
		report.SortinoRatio = fixed.SortinoRatio(dailyReturns, fixed.Zero).Mul(fixed.Sqrt252).Rescale(5)
	}

	return report
}

func (a *Audit) tradeStatistics(report *Report) {
	var (
		totalDuration time.Duration
		totalProfit   = fixed.Zero
		totalLoss     = fixed.Zero
	)

	for i := range a.closedTrades {
		trade := &a.closedTrades[i]
		report.TotalTrades++

		entry, _ := trade.Entry()
		exit, _ := trade.Exit()
		if exit.Time.After(entry.Time) {
			totalDuration += exit.Time.Sub(entry.Time)
		}

		pnl := trade.NetProfitLoss()
		if pnl.IsPos() {
			totalProfit = totalProfit.Add(pnl)
			report.WinningTrades++
		} else {
			totalLoss = totalLoss.Add(pnl.Neg())
			report.LosingTrades++
		}
	}

	if report.WinningTrades > 0 {
		report.AverageWin = totalProfit.DivInt(report.WinningTrades)
	}
	if report.LosingTrades > 0 {
		report.AverageLoss = totalLoss.DivInt(report.LosingTrades)
	}
	if totalLoss.IsPos() {
		report.ProfitFactor = totalProfit.Div(totalLoss)
	}
	if report.AverageLoss.IsPos() {
		report.RiskRewardRatio = report.AverageWin.Div(report.AverageLoss)
	}
	if report.TotalTrades > 0 {
		report.Expectancy = totalProfit.Sub(totalLoss).DivInt(report.TotalTrades)
		report.AverageTradeDuration = totalDuration / time.Duration(report.TotalTrades)
		report.WinRate = fixed.FromInt(report.WinningTrades, 0).DivInt(report.TotalTrades).MulInt64(100).Rescale(2)
	}
}

// annualize compounds the growth ratio to a year. Short runs with large returns exceed
// the decimal range, so the power is taken in floating point and dropped when it overflows.
func annualize(ratio fixed.Point, days int) fixed.Point {
	r, _ := ratio.Float64()
	annual := (math.Pow(r, 365/float64(days)) - 1) * 100
	if math.IsInf(annual, 0) || math.IsNaN(annual) || math.Abs(annual) > 1e12 {
		return fixed.Zero
	}
	return fixed.FromFloat64(annual).Rescale(2)
}

func (a *Audit) dayCount() int {
	if len(a.snapshots) < 2 {
		return 1
	}
	start := a.snapshots[0].t
	end := a.snapshots[len(a.snapshots)-1].t
	return int(end.Sub(start).Hours()/24) + 1
}

func (a *Audit) dailyReturns() []fixed.Point {
	var returns []fixed.Point
	if len(a.snapshots) < 2 {
		return returns
	}

	prevDate := a.snapshots[0].t.Truncate(24 * time.Hour)
	prevValue := a.snapshots[0].totalValue

	for _, snapshot := range a.snapshots[1:] {
		date := snapshot.t.Truncate(24 * time.Hour)
		if date.After(prevDate) && prevValue.IsPos() {
			returns = append(returns, snapshot.totalValue.Div(prevValue).Sub(fixed.One))
			prevDate = date
			prevValue = snapshot.totalValue
		}
	}

	return returns
}
