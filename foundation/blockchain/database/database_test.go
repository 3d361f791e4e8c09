package database_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

// lowDifficulty keeps the tests fast while still exercising the search.
const lowDifficulty = "00"

// buildChain mines blocks on top of the genesis block until the chain
// holds the specified number of blocks.
func buildChain(t *testing.T, length int, difficulty string) []database.Block {
	chain := []database.Block{database.NewGenesisBlock()}

	for len(chain) < length {
		txs := []database.Tx{
			database.NewTx(float64(len(chain)), "alice", "bob"),
			database.NewTx(12.5, "00", "miner"),
		}

		block, err := database.POW(context.Background(), database.POWArgs{
			PrevBlock:    chain[len(chain)-1],
			Transactions: txs,
			Difficulty:   difficulty,
		})
		if err != nil {
			t.Fatalf("\t%s\tShould be able to mine block %d: %v", failed, len(chain)+1, err)
		}

		chain = append(chain, block)
	}

	return chain
}

// =============================================================================

func Test_HashBlock(t *testing.T) {
	type table struct {
		name  string
		prev  string
		data  database.BlockData
		nonce uint64
		exp   string
	}

	tt := []table{
		{
			name:  "empty",
			prev:  "0",
			data:  database.BlockData{Index: 2},
			nonce: 0,
			exp:   "67a61beb314e39b13abebceb17d33374e2b0b847899d4e5c3e61bf967e27f9dc",
		},
		{
			name: "reward",
			prev: "0",
			data: database.BlockData{
				Index:        2,
				Transactions: []database.Tx{{Amount: 12.5, Sender: "00", Recipient: "abc", ID: "f00d"}},
			},
			nonce: 7,
			exp:   "50432fda799164929836481cb3c9bdcb76e4f2939e6b8e63fcfcda1d7bed95c8",
		},
		{
			name: "html-characters",
			prev: "0",
			data: database.BlockData{
				Index:        2,
				Transactions: []database.Tx{{Amount: 1, Sender: "a&b", Recipient: "<c>", ID: "id1"}},
			},
			nonce: 7,
			exp:   "8760157e1286687fac9b73ac229b4322d57515998f39dabdd5af9d0111c446b9",
		},
	}

	t.Log("Given the need to hash blocks the same way every node does.")
	{
		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen handling block data %q.", testID, tst.name)
			{
				f := func(t *testing.T) {
					got := database.HashBlock(tst.prev, tst.data, tst.nonce)
					if got != tst.exp {
						t.Logf("\t%s\tTest %d:\tgot: %s", failed, testID, got)
						t.Logf("\t%s\tTest %d:\texp: %s", failed, testID, tst.exp)
						t.Fatalf("\t%s\tTest %d:\tShould get back the expected hash.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould get back the expected hash.", success, testID)
				}

				t.Run(tst.name, f)
			}
		}
	}
}

func Test_ProofOfWork(t *testing.T) {
	t.Log("Given the need to find a nonce that solves the puzzle.")
	{
		t.Logf("\tTest 0:\tWhen mining on top of the genesis block.")
		{
			data := database.BlockData{Index: 2, Transactions: []database.Tx{}}

			nonce, hash, err := database.ProofOfWork(context.Background(), database.GenesisHash, data, database.DefaultDifficulty, nil)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to solve the puzzle: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to solve the puzzle.", success)

			if nonce != 5672 {
				t.Logf("\t%s\tTest 0:\tgot: %d", failed, nonce)
				t.Logf("\t%s\tTest 0:\texp: %d", failed, 5672)
				t.Fatalf("\t%s\tTest 0:\tShould find the first solving nonce.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould find the first solving nonce.", success)

			if !strings.HasPrefix(hash, database.DefaultDifficulty) {
				t.Fatalf("\t%s\tTest 0:\tShould get a hash with the difficulty prefix: %s", failed, hash)
			}
			t.Logf("\t%s\tTest 0:\tShould get a hash with the difficulty prefix.", success)

			if hash != database.HashBlock(database.GenesisHash, data, nonce) {
				t.Fatalf("\t%s\tTest 0:\tShould get back the hash of the solving nonce.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould get back the hash of the solving nonce.", success)
		}

		t.Logf("\tTest 1:\tWhen checking every smaller nonce.")
		{
			data := database.BlockData{Index: 7, Transactions: []database.Tx{database.NewTx(3, "a", "b")}}

			nonce, _, err := database.ProofOfWork(context.Background(), "abc", data, lowDifficulty, nil)
			if err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to solve the puzzle: %v", failed, err)
			}

			for n := uint64(0); n < nonce; n++ {
				if database.IsHashSolved(lowDifficulty, database.HashBlock("abc", data, n)) {
					t.Fatalf("\t%s\tTest 1:\tShould not skip the solving nonce %d, got %d.", failed, n, nonce)
				}
			}
			t.Logf("\t%s\tTest 1:\tShould return the first nonce in search order.", success)

			again, _, _ := database.ProofOfWork(context.Background(), "abc", data, lowDifficulty, nil)
			if again != nonce {
				t.Fatalf("\t%s\tTest 1:\tShould be deterministic, got %d and %d.", failed, nonce, again)
			}
			t.Logf("\t%s\tTest 1:\tShould be deterministic.", success)
		}

		t.Logf("\tTest 2:\tWhen the search is cancelled.")
		{
			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			// No hash can start with this prefix so only cancellation ends the search.
			_, _, err := database.ProofOfWork(ctx, "abc", database.BlockData{Index: 2}, "zz", nil)
			if !errors.Is(err, context.Canceled) {
				t.Fatalf("\t%s\tTest 2:\tShould stop with a cancel error: %v", failed, err)
			}
			t.Logf("\t%s\tTest 2:\tShould stop with a cancel error.", success)
		}
	}
}

func Test_ValidateChain(t *testing.T) {
	chain := buildChain(t, 4, lowDifficulty)

	type table struct {
		name   string
		mutate func(chain []database.Block)
		expErr error
	}

	tt := []table{
		{
			name:   "valid",
			mutate: func(chain []database.Block) {},
		},
		{
			name:   "amount",
			mutate: func(chain []database.Block) { chain[2].Transactions[0].Amount += 1 },
			expErr: database.ErrProofInvalid,
		},
		{
			name:   "recipient",
			mutate: func(chain []database.Block) { chain[1].Transactions[1].Recipient += "x" },
			expErr: database.ErrProofInvalid,
		},
		{
			name:   "nonce",
			mutate: func(chain []database.Block) { chain[3].Nonce++ },
			expErr: database.ErrProofInvalid,
		},
		{
			name:   "linkage",
			mutate: func(chain []database.Block) { chain[2].PrevBlockHash = chain[0].Hash },
			expErr: database.ErrStructuralInvalid,
		},
		{
			name:   "index",
			mutate: func(chain []database.Block) { chain[3].Index = 9 },
			expErr: database.ErrStructuralInvalid,
		},
		{
			name:   "genesis",
			mutate: func(chain []database.Block) { chain[0].Nonce = 101 },
			expErr: database.ErrStructuralInvalid,
		},
		{
			name:   "genesis-trans",
			mutate: func(chain []database.Block) { chain[0].Transactions = []database.Tx{database.NewTx(1, "a", "b")} },
			expErr: database.ErrStructuralInvalid,
		},
	}

	t.Log("Given the need to validate a candidate chain.")
	{
		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen handling the %q case.", testID, tst.name)
			{
				f := func(t *testing.T) {
					candidate := make([]database.Block, len(chain))
					for i, block := range chain {
						candidate[i] = block.Copy()
					}
					tst.mutate(candidate)

					err := database.ValidateChain(candidate, lowDifficulty)
					switch {
					case tst.expErr == nil && err != nil:
						t.Fatalf("\t%s\tTest %d:\tShould accept the chain: %v", failed, testID, err)
					case tst.expErr != nil && !errors.Is(err, tst.expErr):
						t.Logf("\t%s\tTest %d:\tgot: %v", failed, testID, err)
						t.Logf("\t%s\tTest %d:\texp: %v", failed, testID, tst.expErr)
						t.Fatalf("\t%s\tTest %d:\tShould classify the violation.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould get back the expected result.", success, testID)

					if database.IsChainValid(candidate, lowDifficulty) != (tst.expErr == nil) {
						t.Fatalf("\t%s\tTest %d:\tShould agree with ValidateChain.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould agree with ValidateChain.", success, testID)
				}

				t.Run(tst.name, f)
			}
		}
	}

	t.Log("Given the need to leave the inspected chain untouched.")
	{
		before := chain[1].Hash
		database.ValidateChain(chain, lowDifficulty)
		if chain[1].Hash != before || len(chain) != 4 {
			t.Fatalf("\t%s\tShould not modify the chain.", failed)
		}
		t.Logf("\t%s\tShould not modify the chain.", success)
	}
}

func Test_Lookups(t *testing.T) {
	chain := buildChain(t, 3, lowDifficulty)

	db := database.New()
	if err := db.Replace(chain); err != nil {
		t.Fatalf("\t%s\tShould be able to replace the chain: %v", failed, err)
	}

	t.Log("Given the need to look up recorded data.")
	{
		t.Logf("\tTest 0:\tWhen looking up a block by hash.")
		{
			block, err := db.QueryBlockByHash(chain[2].Hash)
			if err != nil || block.Index != chain[2].Index {
				t.Fatalf("\t%s\tTest 0:\tShould find the block: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould find the block.", success)

			if _, err := db.QueryBlockByHash("nope"); !errors.Is(err, database.ErrNotFound) {
				t.Fatalf("\t%s\tTest 0:\tShould report a missing block: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould report a missing block.", success)
		}

		t.Logf("\tTest 1:\tWhen looking up a transaction by id.")
		{
			want := chain[1].Transactions[0]
			tx, block, err := db.QueryTransaction(want.ID)
			if err != nil || tx != want || block.Hash != chain[1].Hash {
				t.Fatalf("\t%s\tTest 1:\tShould find the transaction and its block: %v", failed, err)
			}
			t.Logf("\t%s\tTest 1:\tShould find the transaction and its block.", success)
		}

		t.Logf("\tTest 2:\tWhen looking up an address.")
		{
			txs, balance := db.QueryAddress("miner")
			if len(txs) != 2 || balance != 25 {
				t.Logf("\t%s\tTest 2:\tgot: %d txs, balance %v", failed, len(txs), balance)
				t.Fatalf("\t%s\tTest 2:\tShould get back the address data.", failed)
			}
			t.Logf("\t%s\tTest 2:\tShould get back the address data.", success)

			_, balance = db.QueryAddress("alice")
			if balance != -3 {
				t.Fatalf("\t%s\tTest 2:\tShould subtract sent amounts, got %v.", failed, balance)
			}
			t.Logf("\t%s\tTest 2:\tShould subtract sent amounts.", success)
		}
	}
}
