package alert

import (
	"context"

	"github.com/rs/zerolog"
)

// Worker decouples dosing evaluation from the order write path: handlers
// enqueue entries and return immediately, a single goroutine evaluates
// them in order.
type Worker struct {
	tasks chan ManualEntry
	eval  *ManualEvaluator
	log   zerolog.Logger
}

func NewWorker(eval *ManualEvaluator, queueSize int, logger zerolog.Logger) *Worker {
	if queueSize <= 0 {
		queueSize = 64
	}
	return &Worker{
		tasks: make(chan ManualEntry, queueSize),
		eval:  eval,
		log:   logger,
	}
}

// Enqueue hands an entry to the worker without blocking. When the queue
// is full the entry is dropped with a log line: losing a notification is
// acceptable, delaying a clinician's write is not.
func (w *Worker) Enqueue(entry ManualEntry) bool {
	select {
	case w.tasks <- entry:
		return true
	default:
		w.log.Warn().Str("drug", entry.DrugName).
			Msg("alert queue full, dropping dosing evaluation")
		return false
	}
}

// Start consumes the queue until ctx is cancelled, then drains whatever
// is already queued before returning.
func (w *Worker) Start(ctx context.Context) {
	for {
		select {
		case entry := <-w.tasks:
			w.eval.Evaluate(ctx, entry)
		case <-ctx.Done():
			w.drain()
			return
		}
	}
}

func (w *Worker) drain() {
	for {
		select {
		case entry := <-w.tasks:
			w.eval.Evaluate(context.Background(), entry)
		default:
			return
		}
	}
}
