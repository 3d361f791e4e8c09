package state

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/ardanlabs/ledger/foundation/blockchain/peer"
	"github.com/cenkalti/backoff"
)

// DefaultJoinTimeout bounds how long a node keeps trying to join the network
// through its bootstrap node.
const DefaultJoinTimeout = 2 * time.Minute

// RegisterAndBroadcastNode brings a new node into the network through this
// node. The new node is added here, announced to every known peer and then
// handed the full membership so it knows everyone. Peers that can't be
// reached are reported but don't stop the join. Failing to reach the new
// node itself is returned as an error.
func (s *State) RegisterAndBroadcastNode(ctx context.Context, url string) ([]PeerResult, error) {
	newPeer := peer.New(url)

	s.evHandler("state: RegisterAndBroadcastNode: started: peer[%s]", newPeer)
	defer s.evHandler("state: RegisterAndBroadcastNode: completed: peer[%s]", newPeer)

	if newPeer == s.knownPeers.Self() {
		s.evHandler("state: RegisterAndBroadcastNode: peer[%s]: this node, nothing to do", newPeer)
		return nil, nil
	}

	s.RegisterNode(newPeer.URL)

	// Announce the new node to everyone else this node knows.
	var others []peer.Peer
	for _, pr := range s.knownPeers.Copy() {
		if pr != newPeer {
			others = append(others, pr)
		}
	}
	results := s.broadcast(ctx, others, http.MethodPost, "/register-node", NewNode{URL: newPeer.URL}, nil)

	// Hand the new node the full membership, including this node.
	bulk := NodesBulk{
		URLs: append(s.knownPeers.URLs(), s.knownPeers.Self().URL),
	}
	if err := s.send(ctx, http.MethodPost, newPeer.URL+"/register-nodes-bulk", bulk, nil); err != nil {
		return results, fmt.Errorf("bulk register with %s: %w", newPeer, err)
	}

	return results, nil
}

// RegisterNode adds the node to the set of known peers. Registering a node
// that is already known, or this node, is a no-op that reports false.
func (s *State) RegisterNode(url string) bool {
	added := s.knownPeers.Add(peer.New(url))
	if added {
		s.evHandler("state: RegisterNode: adding peer-node %s", url)
	}
	return added
}

// RegisterNodesBulk merges the specified nodes into the set of known peers
// and returns how many were new.
func (s *State) RegisterNodesBulk(urls []string) int {
	var added int
	for _, url := range urls {
		if s.RegisterNode(url) {
			added++
		}
	}
	return added
}

// JoinNetwork asks the bootstrap node to bring this node into the network.
// The bootstrap node may not be up yet when this node starts, so the request
// is retried with an exponential backoff until it succeeds, the timeout
// passes or the context is cancelled.
func (s *State) JoinNetwork(ctx context.Context, bootstrap string, timeout time.Duration) error {
	bootPeer := peer.New(bootstrap)
	if bootPeer == s.knownPeers.Self() {
		return nil
	}

	s.evHandler("state: JoinNetwork: started: bootstrap[%s]", bootPeer)
	defer s.evHandler("state: JoinNetwork: completed: bootstrap[%s]", bootPeer)

	if timeout <= 0 {
		timeout = DefaultJoinTimeout
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 250 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = timeout

	var attempt int
	op := func() error {
		attempt++

		nn := NewNode{URL: s.knownPeers.Self().URL}
		err := s.send(ctx, http.MethodPost, bootPeer.URL+"/register-and-broadcast-node", nn, nil)
		if err != nil {
			s.evHandler("state: JoinNetwork: bootstrap[%s]: attempt[%d]: WARNING: %s", bootPeer, attempt, err)
		}
		return err
	}

	if err := backoff.Retry(op, backoff.WithContext(b, ctx)); err != nil {
		return fmt.Errorf("joining through %s: %w", bootPeer, err)
	}

	// The bootstrap node knows this node is here, learn about it as well.
	s.RegisterNode(bootPeer.URL)

	return nil
}
