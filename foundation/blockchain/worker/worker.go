// Package worker implements mining and background consensus for the
// blockchain.
package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ardanlabs/ledger/foundation/blockchain/state"
)

// ErrShutdown is returned when work is requested from a worker that is
// shutting down.
var ErrShutdown = errors.New("worker is shutting down")

// mineRequest asks the mining goroutine to mine the next block and report
// back on the result channel.
type mineRequest struct {
	ctx    context.Context
	result chan mineResponse
}

// mineResponse is what the mining goroutine reports back.
type mineResponse struct {
	result state.MineResult
	err    error
}

// =============================================================================

// Worker manages the POW and consensus workflows for the blockchain.
type Worker struct {
	state             *state.State
	wg                sync.WaitGroup
	consensusInterval time.Duration
	shut              chan struct{}
	startMining       chan mineRequest
	cancelMining      chan bool
	evHandler         state.EventHandler
}

// Run creates a worker, registers the worker with the state package, and
// starts up all the background processes. A zero consensus interval turns
// off the background consensus.
func Run(st *state.State, consensusInterval time.Duration, evHandler state.EventHandler) *Worker {
	if evHandler == nil {
		evHandler = func(v string, args ...any) {}
	}

	w := Worker{
		state:             st,
		consensusInterval: consensusInterval,
		shut:              make(chan struct{}),
		startMining:       make(chan mineRequest),
		cancelMining:      make(chan bool, 1),
		evHandler:         evHandler,
	}

	// Register this worker with the state package.
	st.Worker = &w

	// Load the set of operations we need to run.
	operations := []func(){
		w.miningOperations,
	}
	if consensusInterval > 0 {
		operations = append(operations, w.consensusOperations)
	}

	// Set waitgroup to match the number of G's we need for the set
	// of operations we have.
	g := len(operations)
	w.wg.Add(g)

	// We don't want to return until we know all the G's are up and running.
	hasStarted := make(chan bool)

	// Start all the operational G's.
	for _, op := range operations {
		go func(op func()) {
			defer w.wg.Done()
			hasStarted <- true
			op()
		}(op)
	}

	// Wait for the G's to report they are running.
	for i := 0; i < g; i++ {
		<-hasStarted
	}

	return &w
}

// =============================================================================
// These methods implement the state.Worker interface.

// Shutdown terminates the goroutines performing work.
func (w *Worker) Shutdown() {
	w.evHandler("worker: shutdown: started")
	defer w.evHandler("worker: shutdown: completed")

	w.evHandler("worker: shutdown: signal cancel mining")
	w.SignalCancelMining()

	w.evHandler("worker: shutdown: terminate goroutines")
	close(w.shut)
	w.wg.Wait()
}

// Mine asks the mining goroutine to mine the next block and waits for the
// result. Mining requests are handled one at a time in the order received.
func (w *Worker) Mine(ctx context.Context) (state.MineResult, error) {
	req := mineRequest{
		ctx:    ctx,
		result: make(chan mineResponse, 1),
	}

	select {
	case w.startMining <- req:
	case <-ctx.Done():
		return state.MineResult{}, ctx.Err()
	case <-w.shut:
		return state.MineResult{}, ErrShutdown
	}

	select {
	case resp := <-req.result:
		return resp.result, resp.err
	case <-ctx.Done():
		return state.MineResult{}, ctx.Err()
	}
}

// SignalCancelMining signals the G executing the runMiningOperation function
// to stop immediately.
func (w *Worker) SignalCancelMining() {
	select {
	case w.cancelMining <- true:
	default:
	}
	w.evHandler("worker: SignalCancelMining: MINING: CANCEL: signaled")
}

// =============================================================================

// isShutdown is used to test if a shutdown has been signaled.
func (w *Worker) isShutdown() bool {
	select {
	case <-w.shut:
		return true
	default:
		return false
	}
}
