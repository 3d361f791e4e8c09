package state

import (
	"github.com/ardanlabs/ledger/foundation/blockchain/database"
)

// ProcessProposedBlock takes a block received from a peer, validates it and
// if that passes, adds the block to the local blockchain and clears the
// mempool. A rejected block leaves the state untouched, a node that is behind
// catches up through consensus.
func (s *State) ProcessProposedBlock(block database.Block) error {
	s.evHandler("state: ProcessProposedBlock: started: prevBlk[%s]: newBlk[%s]: numTrans[%d]", block.PrevBlockHash, block.Hash, len(block.Transactions))
	defer s.evHandler("state: ProcessProposedBlock: completed: newBlk[%s]", block.Hash)

	if err := s.validateUpdateDatabase(block); err != nil {
		s.evHandler("state: ProcessProposedBlock: REJECTED: %s", err)
		return err
	}

	return nil
}

// validateUpdateDatabase takes the block and validates it against the
// latest block. If the block passes, the block is appended and the mempool
// is cleared.
func (s *State) validateUpdateDatabase(block database.Block) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.evHandler("state: validateUpdateDatabase: validate block")

	if err := database.ValidateNextBlock(s.db.LatestBlock(), block, s.genesis.Difficulty); err != nil {
		return err
	}

	s.evHandler("state: validateUpdateDatabase: append block and clear mempool")

	s.db.Write(block)
	s.mempool.Truncate()

	// If a mining operation is in flight, it is building on a block that is
	// no longer the latest. It needs to stop. The signal goes out under the
	// lock so a mining operation can't snapshot the new block before it.
	s.signalCancelMining()

	s.blockEvent(block)

	return nil
}
