package worker

import (
	"context"
	"time"
)

// consensusOperations periodically runs consensus against the known peers so
// a node that missed blocks catches up without being asked.
func (w *Worker) consensusOperations() {
	w.evHandler("worker: consensusOperations: G started")
	defer w.evHandler("worker: consensusOperations: G completed")

	ticker := time.NewTicker(w.consensusInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if !w.isShutdown() {
				w.runConsensusOperation()
			}
		case <-w.shut:
			w.evHandler("worker: consensusOperations: received shut signal")
			return
		}
	}
}

// runConsensusOperation resolves the chain against the known peers.
func (w *Worker) runConsensusOperation() {
	w.evHandler("worker: runConsensusOperation: started")
	defer w.evHandler("worker: runConsensusOperation: completed")

	// Stop talking to peers once a shutdown starts.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		select {
		case <-w.shut:
			cancel()
		case <-ctx.Done():
		}
	}()

	res := w.state.Resolve(ctx)

	w.evHandler("worker: runConsensusOperation: outcome[%s]: length[%d]: rejected[%d]", res.Outcome, len(res.Chain), len(res.Rejected))
}
