package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/state"
)

// miningOperations handles mining.
func (w *Worker) miningOperations() {
	w.evHandler("worker: miningOperations: G started")
	defer w.evHandler("worker: miningOperations: G completed")

	for {
		select {
		case req := <-w.startMining:
			if w.isShutdown() {
				req.result <- mineResponse{err: ErrShutdown}
				continue
			}
			result, err := w.runMiningOperation(req.ctx)
			req.result <- mineResponse{result: result, err: err}

		case <-w.shut:
			w.evHandler("worker: miningOperations: received shut signal")
			return
		}
	}
}

// solveBlock runs one attempt at mining the next block. The attempt is
// cancelled by the caller, a new block from a peer or a shutdown.
func (w *Worker) solveBlock(reqCtx context.Context) (database.Block, time.Duration, error) {

	// Drain the cancel mining channel before starting.
	select {
	case <-w.cancelMining:
		w.evHandler("worker: solveBlock: MINING: drained cancel channel")
	default:
	}

	ctx, cancel := context.WithCancel(reqCtx)
	defer cancel()

	// Can't return from this function until this G is complete.
	var wg sync.WaitGroup
	wg.Add(1)

	// This G exists to cancel the mining operation.
	go func() {
		defer func() {
			cancel()
			wg.Done()
		}()

		select {
		case <-w.cancelMining:
			w.evHandler("worker: solveBlock: MINING: CANCEL: requested")
		case <-w.shut:
			w.evHandler("worker: solveBlock: MINING: CANCEL: shutdown")
		case <-ctx.Done():
		}
	}()

	t := time.Now()
	block, err := w.state.MineNewBlock(ctx)
	duration := time.Since(t)

	cancel()
	wg.Wait()

	return block, duration, err
}

// runMiningOperation takes all the transactions from the mempool and writes a
// new block to the database. The block is then shared with the network and
// the reward for mining it is submitted.
func (w *Worker) runMiningOperation(reqCtx context.Context) (state.MineResult, error) {
	w.evHandler("worker: runMiningOperation: MINING: started")
	defer w.evHandler("worker: runMiningOperation: MINING: completed")

	var block database.Block
	var err error
	for {
		var duration time.Duration
		block, duration, err = w.solveBlock(reqCtx)

		w.evHandler("worker: runMiningOperation: MINING: mining duration[%v]", duration)

		// A cancel signal that went out for a block this operation already
		// builds on is stale. The work is started again.
		if errors.Is(err, context.Canceled) && reqCtx.Err() == nil && !w.isShutdown() {
			w.evHandler("worker: runMiningOperation: MINING: CANCEL: stale signal, mining again")
			continue
		}

		break
	}

	if err != nil {
		switch {
		case errors.Is(err, state.ErrChainChanged):
			w.evHandler("worker: runMiningOperation: MINING: WARNING: %s", err)
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			w.evHandler("worker: runMiningOperation: MINING: CANCEL: complete")
		default:
			w.evHandler("worker: runMiningOperation: MINING: ERROR: %s", err)
		}
		return state.MineResult{}, err
	}

	// WOW, we mined a block. The block is in the chain now so sharing it and
	// paying the reward must finish even if the caller goes away.
	netCtx := context.WithoutCancel(reqCtx)

	blockPeers := w.state.NetSendBlockToPeers(netCtx, block)
	for _, failed := range state.FailedPeers(blockPeers) {
		w.evHandler("worker: runMiningOperation: MINING: NetSendBlockToPeers: WARNING: %s", failed)
	}

	reward, rewardPeers := w.state.SubmitMiningReward(netCtx)

	result := state.MineResult{
		Block:       block,
		BlockPeers:  blockPeers,
		Reward:      reward,
		RewardPeers: rewardPeers,
	}

	return result, nil
}
