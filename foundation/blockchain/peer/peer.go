// Package peer maintains the peer related information such as the set
// of know peers and their status.
package peer

import (
	"sort"
	"strings"
	"sync"
)

// Peer represents information about a Node in the network.
type Peer struct {
	URL string
}

// New contructs a new info value. Trailing slashes are dropped so the same
// node is never known under two spellings.
func New(url string) Peer {
	return Peer{
		URL: strings.TrimRight(strings.TrimSpace(url), "/"),
	}
}

// Match validates if the specified url matches this node.
func (p Peer) Match(url string) bool {
	return p.URL == New(url).URL
}

// String implements the fmt.Stringer interface.
func (p Peer) String() string {
	return p.URL
}

// =============================================================================

// PeerSet represents the data representation to maintain a set of known
// peers. The set only grows, there is no eviction.
type PeerSet struct {
	mu   sync.RWMutex
	self Peer
	set  map[Peer]struct{}
}

// NewPeerSet constructs a new info set to manage node peer information. The
// self url is never added to the set.
func NewPeerSet(self string) *PeerSet {
	return &PeerSet{
		self: New(self),
		set:  make(map[Peer]struct{}),
	}
}

// Self returns the peer value for this node.
func (ps *PeerSet) Self() Peer {
	return ps.self
}

// Add adds a new node to the set. It reports false when the node was
// already known or is this node, which is not an error.
func (ps *PeerSet) Add(peer Peer) bool {
	peer = New(peer.URL)
	if peer.URL == "" || peer == ps.self {
		return false
	}

	ps.mu.Lock()
	defer ps.mu.Unlock()

	_, exists := ps.set[peer]
	if !exists {
		ps.set[peer] = struct{}{}
		return true
	}

	return false
}

// Contains reports if the node is in the set.
func (ps *PeerSet) Contains(peer Peer) bool {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	_, exists := ps.set[New(peer.URL)]
	return exists
}

// Count returns the number of known peers.
func (ps *PeerSet) Count() int {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	return len(ps.set)
}

// Copy returns a list of the known peers sorted by url.
func (ps *PeerSet) Copy() []Peer {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	peers := make([]Peer, 0, len(ps.set))
	for peer := range ps.set {
		peers = append(peers, peer)
	}

	sort.Slice(peers, func(i, j int) bool { return peers[i].URL < peers[j].URL })

	return peers
}

// URLs returns the urls of the known peers sorted.
func (ps *PeerSet) URLs() []string {
	peers := ps.Copy()

	urls := make([]string, len(peers))
	for i, peer := range peers {
		urls[i] = peer.URL
	}

	return urls
}
