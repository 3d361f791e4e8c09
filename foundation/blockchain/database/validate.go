package database

import (
	"errors"
	"fmt"
)

// Set of errors identifying why a block or chain was rejected.
var (
	ErrStructuralInvalid = errors.New("chain structure invalid")
	ErrProofInvalid      = errors.New("proof of work invalid")
)

// ValidateGenesis checks the block carries the genesis sentinel values.
func ValidateGenesis(block Block) error {
	if !block.IsGenesis() {
		return fmt.Errorf("%w: genesis block does not match sentinel: index[%d] nonce[%d] hash[%s] prev[%s] trans[%d]",
			ErrStructuralInvalid, block.Index, block.Nonce, block.Hash, block.PrevBlockHash, len(block.Transactions))
	}

	return nil
}

// ValidateNextBlock checks the block can follow the previous block: the
// parent hash must link, the index must be the next one and the recomputed
// hash must match the stored hash and solve the puzzle.
func ValidateNextBlock(prevBlock Block, block Block, difficulty string) error {
	if block.PrevBlockHash != prevBlock.Hash {
		return fmt.Errorf("%w: blk[%d]: parent hash doesn't match, got %s, exp %s", ErrStructuralInvalid, block.Index, block.PrevBlockHash, prevBlock.Hash)
	}

	if block.Index != prevBlock.Index+1 {
		return fmt.Errorf("%w: blk[%d]: this block is not the next number, exp %d", ErrStructuralInvalid, block.Index, prevBlock.Index+1)
	}

	hash := HashBlock(prevBlock.Hash, block.Data(), block.Nonce)
	if !IsHashSolved(difficulty, hash) {
		return fmt.Errorf("%w: blk[%d]: hash %s does not start with %q", ErrProofInvalid, block.Index, hash, difficulty)
	}

	if hash != block.Hash {
		return fmt.Errorf("%w: blk[%d]: stored hash doesn't match contents, got %s, exp %s", ErrProofInvalid, block.Index, block.Hash, hash)
	}

	return nil
}

// ValidateChain walks the full chain and returns the first violation found.
// The chain is only read, never modified.
func ValidateChain(chain []Block, difficulty string) error {
	if len(chain) == 0 {
		return fmt.Errorf("%w: empty chain", ErrStructuralInvalid)
	}

	if err := ValidateGenesis(chain[0]); err != nil {
		return err
	}

	for i := 1; i < len(chain); i++ {
		if err := ValidateNextBlock(chain[i-1], chain[i], difficulty); err != nil {
			return err
		}
	}

	return nil
}

// IsChainValid reports if the chain passes ValidateChain.
func IsChainValid(chain []Block, difficulty string) bool {
	return ValidateChain(chain, difficulty) == nil
}
