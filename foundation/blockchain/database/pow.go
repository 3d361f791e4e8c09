package database

import (
	"context"
	"strings"
)

// DefaultDifficulty is the prefix a block hash must start with to be accepted.
const DefaultDifficulty = "0000"

// POWArgs represents the set of arguments required to run proof of work.
type POWArgs struct {
	PrevBlock    Block
	Transactions []Tx
	Difficulty   string
	EvHandler    func(v string, args ...any)
}

// POW constructs a new Block and performs the work to find a nonce that
// solves the cryptographic puzzle for it.
func POW(ctx context.Context, args POWArgs) (Block, error) {
	data := BlockData{
		Index:        args.PrevBlock.Index + 1,
		Transactions: copyTxs(args.Transactions),
	}

	nonce, hash, err := ProofOfWork(ctx, args.PrevBlock.Hash, data, args.Difficulty, args.EvHandler)
	if err != nil {
		return Block{}, err
	}

	return NewBlock(data, nonce, args.PrevBlock.Hash, hash), nil
}

// ProofOfWork increments a nonce from zero until the block hash starts with
// the difficulty prefix and returns the first nonce that does. There is no
// upper bound on the search, only the context can stop it.
func ProofOfWork(ctx context.Context, prevBlockHash string, data BlockData, difficulty string, ev func(v string, args ...any)) (nonce uint64, hash string, err error) {
	if ev == nil {
		ev = func(v string, args ...any) {}
	}

	ev("database: ProofOfWork: MINING: started: blk[%d]: numTrans[%d]", data.Index, len(data.Transactions))
	defer ev("database: ProofOfWork: MINING: completed: blk[%d]", data.Index)

	for {
		if nonce > 0 && nonce%1_000_000 == 0 {
			ev("database: ProofOfWork: MINING: attempts[%d]", nonce)
		}

		if ctx.Err() != nil {
			ev("database: ProofOfWork: MINING: CANCELLED")
			return 0, "", ctx.Err()
		}

		hash = HashBlock(prevBlockHash, data, nonce)
		if IsHashSolved(difficulty, hash) {
			ev("database: ProofOfWork: MINING: SOLVED: prevBlk[%s]: newBlk[%s]: nonce[%d]", prevBlockHash, hash, nonce)
			return nonce, hash, nil
		}

		nonce++
	}
}

// IsHashSolved checks the hash starts with the difficulty prefix.
func IsHashSolved(difficulty string, hash string) bool {
	return hash != "" && strings.HasPrefix(hash, difficulty)
}
