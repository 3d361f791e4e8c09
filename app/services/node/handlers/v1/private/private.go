// Package private maintains the group of handlers for node to node access.
package private

import (
	"context"
	"fmt"
	"net/http"

	"github.com/ardanlabs/ledger/business/sys/validate"
	"github.com/ardanlabs/ledger/business/web/errs"
	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/state"
	"github.com/ardanlabs/ledger/foundation/web"
	"go.uber.org/zap"
)

// Handlers manages the set of node to node endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
}

// SubmitNodeTransaction adds a transaction shared by a peer to the mempool.
// The transaction is not shared again.
func (h Handlers) SubmitNodeTransaction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var tx database.Tx
	if err := web.Decode(r, &tx); err != nil {
		return errs.NewBadRequest("unable to decode payload: %s", err)
	}

	if err := validate.Check(tx); err != nil {
		return fmt.Errorf("validating transaction: %w", err)
	}

	h.Log.Infow("add tran", "traceid", v.TraceID, "tx", tx)
	nextBlockIndex := h.State.UpsertNodeTransaction(tx)

	resp := struct {
		Note           string `json:"note"`
		NextBlockIndex uint64 `json:"nextBlockIndex"`
	}{
		Note:           fmt.Sprintf("Transaction will be added in block %d.", nextBlockIndex),
		NextBlockIndex: nextBlockIndex,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// ReceiveNewBlock takes a block mined by a peer, validates it and if that
// passes, adds the block to the local blockchain. The peer is always answered
// with a receipt saying whether the block was accepted.
func (h Handlers) ReceiveNewBlock(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var nb state.NewBlock
	if err := web.Decode(r, &nb); err != nil {
		return errs.NewBadRequest("unable to decode payload: %s", err)
	}

	receipt := state.BlockReceipt{
		Note:     "New block received and accepted.",
		Accepted: true,
		Block:    nb.Block,
	}

	if err := h.State.ProcessProposedBlock(nb.Block); err != nil {
		h.Log.Infow("receive block", "traceid", v.TraceID, "hash", nb.Block.Hash, "status", "rejected", "reason", err)

		receipt.Note = "New block rejected."
		receipt.Accepted = false
	}

	return web.Respond(ctx, w, receipt, http.StatusOK)
}

// RegisterNode adds a node announced by a peer to the known peers.
func (h Handlers) RegisterNode(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var nn state.NewNode
	if err := web.Decode(r, &nn); err != nil {
		return errs.NewBadRequest("unable to decode payload: %s", err)
	}

	if err := validate.Check(nn); err != nil {
		return fmt.Errorf("validating node: %w", err)
	}

	h.State.RegisterNode(nn.URL)

	resp := struct {
		Note string `json:"note"`
	}{
		Note: "New node registered successfully.",
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// RegisterNodesBulk adds every node of the network to the known peers. It is
// how a joining node learns the network.
func (h Handlers) RegisterNodesBulk(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var nb state.NodesBulk
	if err := web.Decode(r, &nb); err != nil {
		return errs.NewBadRequest("unable to decode payload: %s", err)
	}

	if err := validate.Check(nb); err != nil {
		return fmt.Errorf("validating nodes: %w", err)
	}

	added := h.State.RegisterNodesBulk(nb.URLs)

	resp := struct {
		Note  string `json:"note"`
		Added int    `json:"added"`
	}{
		Note:  "Bulk registration successful.",
		Added: added,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}
