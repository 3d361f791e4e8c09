package database

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strconv"
	"time"
)

// Genesis sentinel values. Every chain starts with a block carrying exactly
// these values and no transactions.
const (
	GenesisIndex = 1
	GenesisNonce = 100
	GenesisHash  = "0"
)

// Block represents a group of transactions sealed by a proof of work.
type Block struct {
	Index         uint64 `json:"index" validate:"gte=1"`
	TimeStamp     int64  `json:"timestamp"` // Milliseconds since epoch, not part of the hash.
	Transactions  []Tx   `json:"transactions" validate:"dive"`
	Nonce         uint64 `json:"nonce"`
	Hash          string `json:"hash" validate:"required"`
	PrevBlockHash string `json:"previousBlockHash" validate:"required"`
}

// BlockData is the part of a block that is covered by the hash together
// with the previous block hash and the nonce.
type BlockData struct {
	Index        uint64 `json:"index"`
	Transactions []Tx   `json:"transactions"`
}

// NewGenesisBlock constructs the sentinel block every chain starts with.
func NewGenesisBlock() Block {
	return Block{
		Index:         GenesisIndex,
		TimeStamp:     time.Now().UnixMilli(),
		Transactions:  []Tx{},
		Nonce:         GenesisNonce,
		Hash:          GenesisHash,
		PrevBlockHash: GenesisHash,
	}
}

// NewBlock constructs a sealed block from the values found by the proof of work.
func NewBlock(data BlockData, nonce uint64, prevBlockHash string, hash string) Block {
	return Block{
		Index:         data.Index,
		TimeStamp:     time.Now().UnixMilli(),
		Transactions:  copyTxs(data.Transactions),
		Nonce:         nonce,
		Hash:          hash,
		PrevBlockHash: prevBlockHash,
	}
}

// Data returns the hashed payload of the block.
func (b Block) Data() BlockData {
	return BlockData{
		Index:        b.Index,
		Transactions: b.Transactions,
	}
}

// IsGenesis reports if the block carries the genesis sentinel values.
func (b Block) IsGenesis() bool {
	return b.Index == GenesisIndex &&
		b.Nonce == GenesisNonce &&
		b.Hash == GenesisHash &&
		b.PrevBlockHash == GenesisHash &&
		len(b.Transactions) == 0
}

// Copy returns a block that shares no memory with the original.
func (b Block) Copy() Block {
	b.Transactions = copyTxs(b.Transactions)
	return b
}

// =============================================================================

// HashBlock returns the hex encoded SHA-256 of the previous block hash, the
// decimal nonce and the JSON form of the block data, concatenated in that
// order. The function is pure and safe to call concurrently.
func HashBlock(prevBlockHash string, data BlockData, nonce uint64) string {

	// A nil slice would encode as null and produce a different hash than
	// the empty list other nodes see on the wire.
	if data.Transactions == nil {
		data.Transactions = []Tx{}
	}

	// Other nodes hash the payload without html escaping.
	var payload bytes.Buffer
	enc := json.NewEncoder(&payload)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(data); err != nil {
		return ""
	}

	h := sha256.New()
	h.Write([]byte(prevBlockHash))
	h.Write([]byte(strconv.FormatUint(nonce, 10)))
	h.Write(bytes.TrimSuffix(payload.Bytes(), []byte("\n")))

	return hex.EncodeToString(h.Sum(nil))
}

// =============================================================================

// copyTxs returns a copy of the transactions, never nil.
func copyTxs(txs []Tx) []Tx {
	cpy := make([]Tx, len(txs))
	copy(cpy, txs)
	return cpy
}
