package state

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"sync"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/peer"
)

// Outcome describes what a consensus resolution did to the local chain.
type Outcome int

// Set of outcomes for a consensus resolution.
const (
	OutcomeKept Outcome = iota
	OutcomeReplaced
	OutcomeRejectedInvalid
)

// String implements the fmt.Stringer interface.
func (o Outcome) String() string {
	switch o {
	case OutcomeReplaced:
		return "replaced"
	case OutcomeRejectedInvalid:
		return "rejected-invalid"
	default:
		return "kept"
	}
}

// MarshalText implements the encoding.TextMarshaler interface.
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// Resolution is the result of running consensus against the known peers.
type Resolution struct {
	Outcome  Outcome
	Source   peer.Peer // Peer whose chain was adopted when replaced.
	Chain    []database.Block
	Rejected []peer.Peer // Peers that offered a longer chain that failed validation.
	Peers    []PeerResult
}

// candidate is a chain offered by a peer during resolution.
type candidate struct {
	peer  peer.Peer
	state NodeState
}

// =============================================================================

// Resolve asks every known peer for its chain and adopts the longest valid
// chain when it is strictly longer than the local one. Ties keep the local
// chain. Peers that can't be reached are left out of the comparison.
func (s *State) Resolve(ctx context.Context) Resolution {
	s.evHandler("state: Resolve: started")
	defer s.evHandler("state: Resolve: completed")

	candidates, results := s.netRequestPeerStates(ctx)

	localLength := s.db.Length()

	// Longest first, ties ordered by peer url so the choice is stable.
	sort.SliceStable(candidates, func(i, j int) bool {
		return len(candidates[i].state.Chain) > len(candidates[j].state.Chain)
	})

	res := Resolution{
		Outcome: OutcomeKept,
		Peers:   results,
	}

	var winner *candidate
	for i := range candidates {
		cnd := candidates[i]
		if len(cnd.state.Chain) <= localLength {
			break
		}

		if err := database.ValidateChain(cnd.state.Chain, s.genesis.Difficulty); err != nil {
			s.evHandler("state: Resolve: peer[%s]: length[%d]: REJECTED: %s", cnd.peer, len(cnd.state.Chain), err)
			res.Rejected = append(res.Rejected, cnd.peer)
			continue
		}

		winner = &cnd
		break
	}

	switch {
	case winner != nil:
		if s.replaceChain(*winner) {
			res.Outcome = OutcomeReplaced
			res.Source = winner.peer
		}

	case len(res.Rejected) > 0:
		res.Outcome = OutcomeRejectedInvalid

	case s.syncPoolOnTie:
		s.syncPoolOnTieWith(candidates, localLength)
	}

	res.Chain = s.db.Copy()

	s.evHandler("state: Resolve: outcome[%s]: length[%d]", res.Outcome, len(res.Chain))

	return res
}

// replaceChain swaps the local chain and mempool for the ones reported by
// the peer. Nothing changes if the local chain caught up in the meantime.
func (s *State) replaceChain(cnd candidate) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db.Length() >= len(cnd.state.Chain) {
		s.evHandler("state: replaceChain: peer[%s]: local chain caught up, keeping it", cnd.peer)
		return false
	}

	if err := s.db.Replace(cnd.state.Chain); err != nil {
		s.evHandler("state: replaceChain: peer[%s]: ERROR: %s", cnd.peer, err)
		return false
	}
	s.mempool.Replace(cnd.state.PendingTransactions)

	s.evHandler("state: replaceChain: peer[%s]: chain replaced: length[%d]: mempool[%d]", cnd.peer, len(cnd.state.Chain), len(cnd.state.PendingTransactions))

	// Any mining in flight is building on the old chain.
	s.signalCancelMining()

	return true
}

// syncPoolOnTieWith adopts the mempool of a peer whose chain is valid, as long
// as the local one and ends on a different block.
func (s *State) syncPoolOnTieWith(candidates []candidate, localLength int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	latest := s.db.LatestBlock()
	if s.db.Length() != localLength {
		return
	}

	for _, cnd := range candidates {
		chain := cnd.state.Chain
		if len(chain) != localLength || chain[len(chain)-1].Hash == latest.Hash {
			continue
		}

		if !database.IsChainValid(chain, s.genesis.Difficulty) {
			continue
		}

		s.mempool.Replace(cnd.state.PendingTransactions)
		s.evHandler("state: syncPoolOnTieWith: peer[%s]: mempool synced: mempool[%d]", cnd.peer, len(cnd.state.PendingTransactions))
		return
	}
}

// =============================================================================

// netRequestPeerStates asks every known peer for its full state at the same
// time and waits for all of them. Only the peers that answered are returned
// as candidates, ordered by url.
func (s *State) netRequestPeerStates(ctx context.Context) ([]candidate, []PeerResult) {
	s.evHandler("state: netRequestPeerStates: started")
	defer s.evHandler("state: netRequestPeerStates: completed")

	var mu sync.Mutex
	states := make(map[peer.Peer]NodeState)

	decode := func(pr peer.Peer, body []byte) error {
		var ns NodeState
		if err := json.Unmarshal(body, &ns); err != nil {
			return fmt.Errorf("%w: decoding state: %s", ErrPeerUnreachable, err)
		}

		s.evHandler("state: netRequestPeerStates: peer[%s]: length[%d]: mempool[%d]", pr, len(ns.Chain), len(ns.PendingTransactions))

		mu.Lock()
		states[pr] = ns
		mu.Unlock()

		return nil
	}

	results := s.broadcast(ctx, s.knownPeers.Copy(), http.MethodGet, "/blockchain", nil, decode)

	candidates := make([]candidate, 0, len(states))
	for _, res := range results {
		if ns, exists := states[res.Peer]; exists {
			candidates = append(candidates, candidate{peer: res.Peer, state: ns})
		}
	}

	return candidates, results
}
