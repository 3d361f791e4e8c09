package public

import (
	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/state"
)

type txBroadcast struct {
	Note           string      `json:"note"`
	Transaction    database.Tx `json:"transaction"`
	NextBlockIndex uint64      `json:"nextBlockIndex"`
	FailedPeers    []string    `json:"failedPeers"`
}

type mined struct {
	Note        string         `json:"note"`
	Block       database.Block `json:"newBlock"`
	Reward      database.Tx    `json:"reward"`
	FailedPeers []string       `json:"failedPeers"`
}

type registered struct {
	Note        string   `json:"note"`
	FailedPeers []string `json:"failedPeers"`
}

type consensus struct {
	Note        string           `json:"note"`
	Outcome     state.Outcome    `json:"outcome"`
	Replaced    bool             `json:"replaced"`
	Chain       []database.Block `json:"chain"`
	Rejected    []string         `json:"rejectedPeers,omitempty"`
	FailedPeers []string         `json:"failedPeers"`
}

type blockLookup struct {
	Block database.Block `json:"block"`
}

type txLookup struct {
	Transaction database.Tx    `json:"transaction"`
	Block       database.Block `json:"block"`
}

type addressLookup struct {
	Name        string            `json:"name"`
	AddressData state.AddressData `json:"addressData"`
}
