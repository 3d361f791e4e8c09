package state

import (
	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/genesis"
	"github.com/ardanlabs/ledger/foundation/blockchain/peer"
)

// AddressData represents every recorded transaction an address is part of.
type AddressData struct {
	Transactions []database.Tx `json:"addressTransactions"`
	Balance      float64       `json:"addressBalance"`
}

// RetrieveNodeState returns the chain, mempool and known peers. The chain
// and mempool are read together so they are consistent with each other.
func (s *State) RetrieveNodeState() NodeState {
	s.mu.Lock()
	chain := s.db.Copy()
	pool := s.mempool.Copy()
	s.mu.Unlock()

	return NodeState{
		Chain:               chain,
		PendingTransactions: pool,
		CurrentNodeURL:      s.knownPeers.Self().URL,
		NetworkNodes:        s.knownPeers.URLs(),
	}
}

// RetrieveGenesis returns a copy of the genesis information.
func (s *State) RetrieveGenesis() genesis.Genesis {
	return s.genesis
}

// RetrieveMinerAddress returns the address mining rewards are paid to.
func (s *State) RetrieveMinerAddress() string {
	return s.minerAddress
}

// RetrieveNodeURL returns the url this node is known by.
func (s *State) RetrieveNodeURL() string {
	return s.knownPeers.Self().URL
}

// RetrieveLatestBlock returns a copy the current latest block.
func (s *State) RetrieveLatestBlock() database.Block {
	return s.db.LatestBlock()
}

// RetrieveChain returns a copy of the full chain.
func (s *State) RetrieveChain() []database.Block {
	return s.db.Copy()
}

// RetrieveMempool returns a copy of the mempool.
func (s *State) RetrieveMempool() []database.Tx {
	return s.mempool.Copy()
}

// RetrieveKnownPeers retrieves a copy of the known peer list.
func (s *State) RetrieveKnownPeers() []peer.Peer {
	return s.knownPeers.Copy()
}

// =============================================================================

// QueryBlockByHash returns the block with the specified hash.
func (s *State) QueryBlockByHash(hash string) (database.Block, error) {
	return s.db.QueryBlockByHash(hash)
}

// QueryTransaction returns the transaction with the specified id along with
// the block it was recorded in.
func (s *State) QueryTransaction(id string) (database.Tx, database.Block, error) {
	return s.db.QueryTransaction(id)
}

// QueryAddress returns the recorded transactions and balance for the address.
func (s *State) QueryAddress(address string) AddressData {
	txs, balance := s.db.QueryAddress(address)
	if txs == nil {
		txs = []database.Tx{}
	}

	return AddressData{
		Transactions: txs,
		Balance:      balance,
	}
}
