package state

import "github.com/ardanlabs/ledger/foundation/blockchain/database"

// NodeState represents the full state a node reports to its peers.
type NodeState struct {
	Chain               []database.Block `json:"chain"`
	PendingTransactions []database.Tx    `json:"pendingTransactions"`
	CurrentNodeURL      string           `json:"currentNodeUrl"`
	NetworkNodes        []string         `json:"networkNodes"`
}

// NewTx is what a client submits to create and broadcast a transaction.
type NewTx struct {
	Amount    float64 `json:"amount" validate:"gte=0"`
	Sender    string  `json:"sender" validate:"required"`
	Recipient string  `json:"recipient" validate:"required"`
}

// NewBlock wraps a block proposed by a peer.
type NewBlock struct {
	Block database.Block `json:"newBlock"`
}

// BlockReceipt is what a peer answers when handed a new block.
type BlockReceipt struct {
	Note     string         `json:"note"`
	Accepted bool           `json:"accepted"`
	Block    database.Block `json:"newBlock"`
}

// NewNode carries the url of a node joining the network.
type NewNode struct {
	URL string `json:"newNodeUrl" validate:"required,url"`
}

// NodesBulk carries the full membership of the network.
type NodesBulk struct {
	URLs []string `json:"allNetworkNodes" validate:"required,dive,url"`
}
