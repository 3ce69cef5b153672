package port

import "esgrag/internal/domain"

// ProgressObserver receives ordered progress events from long running
// operations. It is called synchronously and must not block for long.
type ProgressObserver interface {
	OnProgress(ev domain.ProgressEvent)
}

// ProgressFunc adapts a plain function to ProgressObserver.
type ProgressFunc func(ev domain.ProgressEvent)

func (f ProgressFunc) OnProgress(ev domain.ProgressEvent) {
	if f != nil {
		f(ev)
	}
}
