// Package public maintains the group of handlers for public access.
package public

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ardanlabs/ledger/business/sys/validate"
	"github.com/ardanlabs/ledger/business/web/errs"
	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/state"
	"github.com/ardanlabs/ledger/foundation/events"
	"github.com/ardanlabs/ledger/foundation/nameservice"
	"github.com/ardanlabs/ledger/foundation/web"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Handlers manages the set of client facing endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
	NS    *nameservice.NameService
	WS    websocket.Upgrader
	Evts  *events.Events
}

// Events handles a web socket to provide events to a client.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	ch := h.Evts.Acquire(v.TraceID)
	defer h.Evts.Release(v.TraceID)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, wd := <-ch:
			if !wd {
				return nil
			}

			if err := c.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return nil
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}
		}
	}
}

// Blockchain returns the full state of this node. Peers call this during
// consensus.
func (h Handlers) Blockchain(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.RetrieveNodeState(), http.StatusOK)
}

// BroadcastTransaction creates a new transaction, adds it to the mempool and
// shares it with every known peer.
func (h Handlers) BroadcastTransaction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var nt state.NewTx
	if err := web.Decode(r, &nt); err != nil {
		return errs.NewBadRequest("unable to decode payload: %s", err)
	}

	if err := validate.Check(nt); err != nil {
		return fmt.Errorf("validating transaction: %w", err)
	}

	tx, nextBlockIndex, results := h.State.SubmitTransaction(ctx, nt)

	h.Log.Infow("broadcast tran", "traceid", v.TraceID, "tx", tx, "peers", len(results))

	resp := txBroadcast{
		Note:           "Transaction created and broadcast successfully.",
		Transaction:    tx,
		NextBlockIndex: nextBlockIndex,
		FailedPeers:    state.FailedPeers(results),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Mine seals the mempool into a new block, shares it with the network and
// pays the mining reward.
func (h Handlers) Mine(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	res, err := h.State.Worker.Mine(ctx)
	if err != nil {
		if errors.Is(err, state.ErrChainChanged) {
			return errs.NewTrusted(err, http.StatusConflict)
		}
		return fmt.Errorf("mining: %w", err)
	}

	h.Log.Infow("mine", "traceid", v.TraceID, "index", res.Block.Index, "hash", res.Block.Hash, "nonce", res.Block.Nonce)

	failed := state.FailedPeers(res.BlockPeers)
	failed = append(failed, state.FailedPeers(res.RewardPeers)...)

	resp := mined{
		Note:        "New block mined & broadcast successfully.",
		Block:       res.Block,
		Reward:      res.Reward,
		FailedPeers: failed,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// RegisterAndBroadcastNode brings a new node into the network through this
// node.
func (h Handlers) RegisterAndBroadcastNode(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var nn state.NewNode
	if err := web.Decode(r, &nn); err != nil {
		return errs.NewBadRequest("unable to decode payload: %s", err)
	}

	if err := validate.Check(nn); err != nil {
		return fmt.Errorf("validating node: %w", err)
	}

	results, err := h.State.RegisterAndBroadcastNode(ctx, nn.URL)
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadGateway)
	}

	resp := registered{
		Note:        "New node registered with network successfully.",
		FailedPeers: state.FailedPeers(results),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Consensus resolves the local chain against every known peer.
func (h Handlers) Consensus(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	res := h.State.Resolve(ctx)

	resp := consensus{
		Note:        "Current chain has not been replaced.",
		Outcome:     res.Outcome,
		Replaced:    res.Outcome == state.OutcomeReplaced,
		Chain:       res.Chain,
		FailedPeers: state.FailedPeers(res.Peers),
	}

	switch res.Outcome {
	case state.OutcomeReplaced:
		resp.Note = "This chain has been replaced."
	case state.OutcomeRejectedInvalid:
		resp.Note = "Current chain has not been replaced, longer chains failed validation."
	}

	for _, pr := range res.Rejected {
		resp.Rejected = append(resp.Rejected, pr.URL)
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// =============================================================================

// QueryBlock returns the block with the specified hash.
func (h Handlers) QueryBlock(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	hash := web.Param(r, "blockHash")

	block, err := h.State.QueryBlockByHash(hash)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return errs.NewNotFound("block", hash)
		}
		return err
	}

	return web.Respond(ctx, w, blockLookup{Block: block}, http.StatusOK)
}

// QueryTransaction returns the transaction with the specified id and the
// block it was recorded in.
func (h Handlers) QueryTransaction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	id := web.Param(r, "transactionId")

	tx, block, err := h.State.QueryTransaction(id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return errs.NewNotFound("transaction", id)
		}
		return err
	}

	return web.Respond(ctx, w, txLookup{Transaction: tx, Block: block}, http.StatusOK)
}

// QueryAddress returns every recorded transaction for the address along
// with its balance. Pending transactions are not included.
func (h Handlers) QueryAddress(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	address := web.Param(r, "address")

	resp := addressLookup{
		Name:        h.NS.Lookup(address),
		AddressData: h.State.QueryAddress(address),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}
