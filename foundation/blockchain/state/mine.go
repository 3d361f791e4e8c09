package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/peer"
)

// ErrChainChanged is returned when a block was mined on top of a block that
// is no longer the latest block in the chain.
var ErrChainChanged = errors.New("chain changed while mining")

// ErrBlockRejected is returned by a peer result when the peer answered but
// did not accept the block.
var ErrBlockRejected = errors.New("block rejected by peer")

// MineResult is what a mining operation produces once the block is sealed,
// shared with the network and the reward is submitted.
type MineResult struct {
	Block       database.Block
	BlockPeers  []PeerResult
	Reward      database.Tx
	RewardPeers []PeerResult
}

// =============================================================================

// MineNewBlock seals the current mempool into a new block and appends it to
// the chain. The proof of work runs without holding the state lock so peers
// can still be served while mining.
func (s *State) MineNewBlock(ctx context.Context) (database.Block, error) {
	s.evHandler("state: MineNewBlock: MINING: snapshot mempool")

	s.mu.Lock()
	prevBlock := s.db.LatestBlock()
	trans := s.mempool.Copy()
	s.mu.Unlock()

	s.evHandler("state: MineNewBlock: MINING: perform POW: prevBlk[%d]: numTrans[%d]", prevBlock.Index, len(trans))

	// Attempt to create a new block by solving the POW puzzle. This can be cancelled.
	block, err := database.POW(ctx, database.POWArgs{
		PrevBlock:    prevBlock,
		Transactions: trans,
		Difficulty:   s.genesis.Difficulty,
		EvHandler:    s.evHandler,
	})
	if err != nil {
		return database.Block{}, s.chainChanged(prevBlock, err)
	}

	// Just check one more time we were not cancelled.
	if ctx.Err() != nil {
		return database.Block{}, s.chainChanged(prevBlock, ctx.Err())
	}

	s.evHandler("state: MineNewBlock: MINING: update database")

	s.mu.Lock()
	defer s.mu.Unlock()

	// A block from a peer or a consensus replacement may have landed while
	// the puzzle was being solved.
	if err := s.chainChanged(prevBlock, nil); err != nil {
		return database.Block{}, err
	}

	s.db.Write(block)
	s.mempool.Truncate()

	s.blockEvent(block)

	return block, nil
}

// chainChanged reports ErrChainChanged in place of the specified error when
// the block being mined on is no longer the latest block. Mining is cancelled
// when a peer block or a new chain lands, and that is what the caller needs
// to hear about.
func (s *State) chainChanged(prevBlock database.Block, err error) error {
	latest := s.db.LatestBlock()
	if latest.Hash == prevBlock.Hash {
		return err
	}

	return fmt.Errorf("%w: mined on blk[%d], latest is blk[%d]", ErrChainChanged, prevBlock.Index, latest.Index)
}

// NetSendBlockToPeers takes the new mined block and sends it to all known
// peers. It returns once every peer has answered or failed.
func (s *State) NetSendBlockToPeers(ctx context.Context, block database.Block) []PeerResult {
	s.evHandler("state: NetSendBlockToPeers: started: blk[%d]", block.Index)
	defer s.evHandler("state: NetSendBlockToPeers: completed: blk[%d]", block.Index)

	decode := func(pr peer.Peer, body []byte) error {
		var receipt BlockReceipt
		if err := json.Unmarshal(body, &receipt); err != nil {
			return fmt.Errorf("%w: decoding receipt: %s", ErrPeerUnreachable, err)
		}

		if !receipt.Accepted {
			return fmt.Errorf("%w: %s", ErrBlockRejected, receipt.Note)
		}

		s.evHandler("state: NetSendBlockToPeers: sent to peer[%s]", pr)
		return nil
	}

	return s.broadcast(ctx, s.knownPeers.Copy(), http.MethodPost, "/receive-new-block", NewBlock{Block: block}, decode)
}

// =============================================================================

// blockEvent provides a specific event about a new block in the chain for
// application specific support.
func (s *State) blockEvent(block database.Block) {
	blockJSON, err := json.Marshal(block)
	if err != nil {
		blockJSON = []byte(fmt.Sprintf("%q", err.Error()))
	}

	s.evHandler(`viewer: block: {"hash":%q,"block":%s}`, block.Hash, string(blockJSON))
}
