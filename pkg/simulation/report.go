package simulation

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Hallupa/CommonCode-sub001/pkg/utility/fixed"
)

// Report holds percentages scaled to 100, e.g. TotalProfit 12.5 means 12.5%.
type Report struct {
	StartDate            time.Time
	EndDate              time.Time
	InitialValue         fixed.Point
	FinalValue           fixed.Point
	FinalBalance         fixed.Point
	TotalProfit          fixed.Point
	AnnualizedReturn     fixed.Point
	MaxDrawdown          fixed.Point
	TotalTrades          int
	WinningTrades        int
	LosingTrades         int
	WithdrawnOrders      int
	WinRate              fixed.Point
	Expectancy           fixed.Point
	ProfitFactor         fixed.Point
	AverageWin           fixed.Point
	AverageLoss          fixed.Point
	RiskRewardRatio      fixed.Point
	AverageTradeDuration time.Duration
	RecoveryFactor       fixed.Point
	SharpeRatio          fixed.Point
	SortinoRatio         fixed.Point
	AnnualizedVolatility fixed.Point
}

func (report Report) Print(logger *zap.Logger) {
	logger.Info("performance report",
		zap.Time("start", report.StartDate),
		zap.Time("end", report.EndDate),
		zap.String("initial_value", report.InitialValue.String()),
		zap.String("final_value", report.FinalValue.String()),
		zap.String("final_balance", report.FinalBalance.String()),
		zap.String("total_profit", fmt.Sprintf("%s%%", report.TotalProfit)),
		zap.String("annualized_return", fmt.Sprintf("%s%%", report.AnnualizedReturn)),
		zap.String("max_drawdown", fmt.Sprintf("%s%%", report.MaxDrawdown)),
		zap.String("recovery_factor", report.RecoveryFactor.String()),
	)

	logger.Info("trade statistics",
		zap.Int("total_trades", report.TotalTrades),
		zap.Int("winning_trades", report.WinningTrades),
		zap.Int("losing_trades", report.LosingTrades),
		zap.Int("withdrawn_orders", report.WithdrawnOrders),
		zap.String("win_rate", fmt.Sprintf("%s%%", report.WinRate)),
		zap.String("expectancy", report.Expectancy.String()),
		zap.String("profit_factor", report.ProfitFactor.String()),
		zap.String("average_win", report.AverageWin.String()),
		zap.String("average_loss", report.AverageLoss.String()),
		zap.String("risk_reward_ratio", report.RiskRewardRatio.String()),
		zap.Duration("average_trade_duration", report.AverageTradeDuration),
	)

	logger.Info("risk metrics",
		zap.String("sharpe_ratio", report.SharpeRatio.String()),
		zap.String("sortino_ratio", report.SortinoRatio.String()),
		zap.String("annualized_volatility", fmt.Sprintf("%s%%", report.AnnualizedVolatility)),
	)
}
