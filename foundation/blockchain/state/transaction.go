package state

import (
	"context"
	"net/http"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
)

// UpsertNodeTransaction adds a transaction received from a peer to the
// mempool. The transaction is not shared again. The returned index is the
// block the transaction will likely be mined into, which is only a hint.
func (s *State) UpsertNodeTransaction(tx database.Tx) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.mempool.Add(tx) {
		s.evHandler("state: UpsertNodeTransaction: tx[%s]: already in mempool", tx.ID)
	}

	return s.db.LatestBlock().Index + 1
}

// SubmitTransaction creates a new transaction, adds it to the mempool and
// shares it with every known peer. It returns once every peer has answered
// or failed.
func (s *State) SubmitTransaction(ctx context.Context, nt NewTx) (database.Tx, uint64, []PeerResult) {
	tx := database.NewTx(nt.Amount, nt.Sender, nt.Recipient)

	s.evHandler("state: SubmitTransaction: started: tx[%s]", tx)
	defer s.evHandler("state: SubmitTransaction: completed: tx[%s]", tx.ID)

	nextIndex := s.UpsertNodeTransaction(tx)
	results := s.NetSendTxToPeers(ctx, tx)

	return tx, nextIndex, results
}

// SubmitMiningReward pays this node the mining reward through the same path
// used for user transactions.
func (s *State) SubmitMiningReward(ctx context.Context) (database.Tx, []PeerResult) {
	reward := NewTx{
		Amount:    s.genesis.MiningReward,
		Sender:    s.genesis.RewardSender,
		Recipient: s.minerAddress,
	}

	tx, _, results := s.SubmitTransaction(ctx, reward)

	return tx, results
}

// NetSendTxToPeers shares a new transaction with the known peers. Peers only
// add it to their mempool, they never share it again.
func (s *State) NetSendTxToPeers(ctx context.Context, tx database.Tx) []PeerResult {
	s.evHandler("state: NetSendTxToPeers: started")
	defer s.evHandler("state: NetSendTxToPeers: completed")

	// CORE NOTE: Bitcoin does not send the full transaction immediately to save
	// on bandwidth. A node will send the transaction id first so the receiving
	// node can check if they already have the transaction or not.

	// For now, the full transaction is sent.
	return s.broadcast(ctx, s.knownPeers.Copy(), http.MethodPost, "/transaction", tx, nil)
}
