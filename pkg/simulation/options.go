package simulation

import (
	"github.com/Hallupa/CommonCode-sub001/pkg/bus"
	"github.com/Hallupa/CommonCode-sub001/pkg/candle"
	"github.com/Hallupa/CommonCode-sub001/pkg/derived"
	"github.com/Hallupa/CommonCode-sub001/pkg/tools/store"
)

type Option func(*Runner)

// ProgressFunc receives the number of replayed candles and the total to replay.
type ProgressFunc func(done, total int)

// WithSynthesizer serves subscriptions written as FIRST/SECOND from the synthesizer.
func WithSynthesizer(synthesizer *derived.Synthesizer) Option {
	return func(r *Runner) {
		r.synthesizer = synthesizer
	}
}

// WithRefresher refreshes every subscribed series before loading.
func WithRefresher(refresher *candle.Refresher) Option {
	return func(r *Runner) {
		r.refresher = refresher
	}
}

func WithHandlers(handlers bus.Handlers) Option {
	return func(r *Runner) {
		r.handlers = handlers
	}
}

func WithProgress(progress ProgressFunc) Option {
	return func(r *Runner) {
		r.progress = progress
	}
}

// WithMarketStore makes market metadata available to strategies through Api.MarketInfo.
func WithMarketStore(markets *store.MarketStore) Option {
	return func(r *Runner) {
		r.markets = markets
	}
}
