// Package state is the core API for the blockchain and implements all the
// business rules and processing.
package state

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/genesis"
	"github.com/ardanlabs/ledger/foundation/blockchain/mempool"
	"github.com/ardanlabs/ledger/foundation/blockchain/peer"
)

// DefaultPeerTimeout bounds every request made to a peer when the
// configuration doesn't provide a value.
const DefaultPeerTimeout = 5 * time.Second

// =============================================================================

// EventHandler defines a function that is called when events
// occur in the processing of blocks and transactions.
type EventHandler func(v string, args ...any)

// Worker interface represents the behavior required to be implemented by any
// package providing support for mining and background consensus.
type Worker interface {
	Shutdown()
	Mine(ctx context.Context) (MineResult, error)
	SignalCancelMining()
}

// =============================================================================

// Config represents the configuration required to start
// the blockchain node.
type Config struct {
	MinerAddress  string
	Genesis       genesis.Genesis
	KnownPeers    *peer.PeerSet
	PeerTimeout   time.Duration
	SyncPoolOnTie bool
	EvHandler     EventHandler
}

// State manages the blockchain held in memory by this node.
type State struct {
	mu sync.Mutex

	minerAddress  string
	syncPoolOnTie bool
	evHandler     EventHandler
	client        *http.Client

	genesis    genesis.Genesis
	knownPeers *peer.PeerSet
	db         *database.Database
	mempool    *mempool.Mempool

	Worker Worker
}

// New constructs a new blockchain for data management.
func New(cfg Config) (*State, error) {
	if cfg.KnownPeers == nil {
		return nil, errors.New("known peers must be provided")
	}

	if cfg.KnownPeers.Self().URL == "" {
		return nil, errors.New("node url must be provided")
	}

	if cfg.MinerAddress == "" {
		return nil, errors.New("miner address must be provided")
	}

	if cfg.Genesis.Difficulty == "" {
		return nil, errors.New("genesis difficulty must be provided")
	}

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	timeout := cfg.PeerTimeout
	if timeout <= 0 {
		timeout = DefaultPeerTimeout
	}

	// Create the State to provide support for managing the blockchain.
	state := State{
		minerAddress:  cfg.MinerAddress,
		syncPoolOnTie: cfg.SyncPoolOnTie,
		evHandler:     ev,
		client:        &http.Client{Timeout: timeout},

		genesis:    cfg.Genesis,
		knownPeers: cfg.KnownPeers,
		db:         database.New(),
		mempool:    mempool.New(),
	}

	// The Worker is not set here. The call to worker.Run will assign itself
	// and start everything up and running for the node.

	return &state, nil
}

// Shutdown cleanly brings the node down.
func (s *State) Shutdown() error {
	s.evHandler("state: shutdown: started")
	defer s.evHandler("state: shutdown: completed")

	// Stop all blockchain writing activity.
	if s.Worker != nil {
		s.Worker.Shutdown()
	}

	s.client.CloseIdleConnections()

	return nil
}

// signalCancelMining stops any mining operation in flight since the chain
// it was building on is gone.
func (s *State) signalCancelMining() {
	if s.Worker != nil {
		s.Worker.SignalCancelMining()
	}
}
