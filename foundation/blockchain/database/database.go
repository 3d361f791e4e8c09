// Package database handles the in memory copy of the blockchain along with
// the rules for hashing, mining and validating blocks.
package database

import (
	"errors"
	"sync"
)

// ErrNotFound is returned when a lookup doesn't find a match.
var ErrNotFound = errors.New("not found")

// Database manages the chain of blocks held by this node. The chain only
// changes by appending a block or by replacing it as a whole.
type Database struct {
	mu    sync.RWMutex
	chain []Block
}

// New constructs a database holding only the genesis block.
func New() *Database {
	return &Database{
		chain: []Block{NewGenesisBlock()},
	}
}

// LatestBlock returns the last block in the chain.
func (db *Database) LatestBlock() Block {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return db.chain[len(db.chain)-1].Copy()
}

// Length returns the number of blocks in the chain.
func (db *Database) Length() int {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return len(db.chain)
}

// Copy returns a copy of the full chain.
func (db *Database) Copy() []Block {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return copyChain(db.chain)
}

// Write appends the block to the chain. Validation is the caller's job.
func (db *Database) Write(block Block) {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.chain = append(db.chain, block.Copy())
}

// Replace swaps the full chain for the specified one.
func (db *Database) Replace(chain []Block) error {
	if len(chain) == 0 {
		return errors.New("can't replace with an empty chain")
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	db.chain = copyChain(chain)

	return nil
}

// =============================================================================

// QueryBlockByHash returns the block with the specified hash.
func (db *Database) QueryBlockByHash(hash string) (Block, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	for _, block := range db.chain {
		if block.Hash == hash {
			return block.Copy(), nil
		}
	}

	return Block{}, ErrNotFound
}

// QueryTransaction returns the transaction with the specified id and the
// block it was recorded in.
func (db *Database) QueryTransaction(id string) (Tx, Block, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	for _, block := range db.chain {
		for _, tx := range block.Transactions {
			if tx.ID == id {
				return tx, block.Copy(), nil
			}
		}
	}

	return Tx{}, Block{}, ErrNotFound
}

// QueryAddress returns every recorded transaction the address is part of
// and the balance those transactions produce.
func (db *Database) QueryAddress(address string) ([]Tx, float64) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	var txs []Tx
	var balance float64
	for _, block := range db.chain {
		for _, tx := range block.Transactions {
			if !tx.Touches(address) {
				continue
			}

			txs = append(txs, tx)

			if tx.Recipient == address {
				balance += tx.Amount
			}
			if tx.Sender == address {
				balance -= tx.Amount
			}
		}
	}

	return txs, balance
}

// =============================================================================

func copyChain(chain []Block) []Block {
	cpy := make([]Block, len(chain))
	for i, block := range chain {
		cpy[i] = block.Copy()
	}
	return cpy
}
