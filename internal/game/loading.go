package game

import (
	"log/slog"
	"sync/atomic"
)

// LoadingState tracks whether the initial fill is running. Real frontends
// would draw a loading screen; the headless driver logs transitions.
type LoadingState struct {
	loading atomic.Bool
	log     *slog.Logger
}

// NewLoadingState returns an indicator that is not loading.
func NewLoadingState(log *slog.Logger) *LoadingState {
	return &LoadingState{log: log}
}

// SetLoading records v and logs transitions.
func (l *LoadingState) SetLoading(v bool) {
	if l.loading.Swap(v) != v {
		l.log.Info("loading indicator", "visible", v)
	}
}

// Loading reports the last value passed to SetLoading.
func (l *LoadingState) Loading() bool {
	return l.loading.Load()
}
