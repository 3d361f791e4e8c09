package worker_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/genesis"
	"github.com/ardanlabs/ledger/foundation/blockchain/peer"
	"github.com/ardanlabs/ledger/foundation/blockchain/state"
	"github.com/ardanlabs/ledger/foundation/blockchain/worker"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func newState(t *testing.T, difficulty string, ev state.EventHandler) *state.State {
	gen := genesis.Default()
	gen.Difficulty = difficulty

	st, err := state.New(state.Config{
		MinerAddress: "miner",
		Genesis:      gen,
		KnownPeers:   peer.NewPeerSet("http://localhost:9080"),
		EvHandler:    ev,
	})
	if err != nil {
		t.Fatalf("\t%s\tShould be able to construct the state : %s", failed, err)
	}

	return st
}

func Test_Mine(t *testing.T) {
	t.Log("Given the need to mine through the worker.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen mining requests arrive one after the other.", testID)
		{
			st := newState(t, "00", nil)
			w := worker.Run(st, 0, nil)
			defer w.Shutdown()

			for i := 0; i < 3; i++ {
				res, err := w.Mine(context.Background())
				if err != nil {
					t.Fatalf("\t%s\tTest %d:\tShould be able to mine : %s", failed, testID, err)
				}
				if exp := uint64(i + 2); res.Block.Index != exp {
					t.Fatalf("\t%s\tTest %d:\tShould mine block %d : got %d", failed, testID, exp, res.Block.Index)
				}
			}
			t.Logf("\t%s\tTest %d:\tShould mine blocks in order.", success, testID)

			if got := len(st.RetrieveChain()); got != 4 {
				t.Fatalf("\t%s\tTest %d:\tShould have a chain of length 4 : got %d", failed, testID, got)
			}
			t.Logf("\t%s\tTest %d:\tShould have a chain of length 4.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen the caller gives up on an unsolvable puzzle.", testID)
		{
			st := newState(t, "zz", nil)
			w := worker.Run(st, 0, nil)
			defer w.Shutdown()

			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			if _, err := w.Mine(ctx); !errors.Is(err, context.Canceled) {
				t.Fatalf("\t%s\tTest %d:\tShould stop with the caller : %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould stop with the caller.", success, testID)

			if got := len(st.RetrieveChain()); got != 1 {
				t.Fatalf("\t%s\tTest %d:\tShould leave the chain untouched : got %d", failed, testID, got)
			}
			t.Logf("\t%s\tTest %d:\tShould leave the chain untouched.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen the worker is shut down.", testID)
		{
			st := newState(t, "00", nil)
			w := worker.Run(st, 0, nil)
			w.Shutdown()

			if _, err := w.Mine(context.Background()); !errors.Is(err, worker.ErrShutdown) {
				t.Fatalf("\t%s\tTest %d:\tShould refuse to mine : %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould refuse to mine.", success, testID)
		}
	}
}

// powWatcher reports through started when the first proof of work begins and
// counts how many were started.
type powWatcher struct {
	started  chan struct{}
	once     sync.Once
	attempts atomic.Int32
}

func newPowWatcher() *powWatcher {
	return &powWatcher{started: make(chan struct{})}
}

func (pw *powWatcher) handler(v string, args ...any) {
	if strings.HasPrefix(v, "state: MineNewBlock: MINING: perform POW") {
		pw.attempts.Add(1)
		pw.once.Do(func() { close(pw.started) })
	}
}

func mineAsync(w *worker.Worker) <-chan error {
	errs := make(chan error, 1)
	go func() {
		_, err := w.Mine(context.Background())
		errs <- err
	}()
	return errs
}

func Test_MineInterrupted(t *testing.T) {
	const difficulty = "00000"

	t.Log("Given the need to handle the chain moving while mining.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen a peer block lands during the proof of work.", testID)
		{
			pw := newPowWatcher()
			st := newState(t, difficulty, pw.handler)
			w := worker.Run(st, 0, nil)
			defer w.Shutdown()

			peerBlock, err := database.POW(context.Background(), database.POWArgs{
				PrevBlock:  st.RetrieveLatestBlock(),
				Difficulty: difficulty,
			})
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to mine the peer block : %s", failed, testID, err)
			}

			// The pending transaction makes the local block differ from the peer's.
			st.UpsertNodeTransaction(database.NewTx(1, "alice", "bob"))

			errs := mineAsync(w)
			<-pw.started

			if err := st.ProcessProposedBlock(peerBlock); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould accept the peer block : %s", failed, testID, err)
			}

			select {
			case err := <-errs:
				if !errors.Is(err, state.ErrChainChanged) {
					t.Fatalf("\t%s\tTest %d:\tShould report the chain changed : %v", failed, testID, err)
				}
			case <-time.After(time.Minute):
				t.Fatalf("\t%s\tTest %d:\tShould stop mining.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould report the chain changed.", success, testID)

			if latest := st.RetrieveLatestBlock(); latest.Hash != peerBlock.Hash || len(st.RetrieveChain()) != 2 {
				t.Fatalf("\t%s\tTest %d:\tShould keep the peer block as the latest.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould keep the peer block as the latest.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen a cancel signal arrives but the chain didn't move.", testID)
		{
			pw := newPowWatcher()
			st := newState(t, difficulty, pw.handler)
			w := worker.Run(st, 0, nil)
			defer w.Shutdown()

			errs := mineAsync(w)
			<-pw.started

			w.SignalCancelMining()

			select {
			case err := <-errs:
				if err != nil {
					t.Fatalf("\t%s\tTest %d:\tShould still mine the block : %s", failed, testID, err)
				}
			case <-time.After(time.Minute):
				t.Fatalf("\t%s\tTest %d:\tShould still mine the block.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould still mine the block.", success, testID)

			if got := pw.attempts.Load(); got < 2 {
				t.Fatalf("\t%s\tTest %d:\tShould start the proof of work again : attempts %d", failed, testID, got)
			}
			t.Logf("\t%s\tTest %d:\tShould start the proof of work again.", success, testID)

			if got := len(st.RetrieveChain()); got != 2 {
				t.Fatalf("\t%s\tTest %d:\tShould have a chain of length 2 : got %d", failed, testID, got)
			}
			t.Logf("\t%s\tTest %d:\tShould have a chain of length 2.", success, testID)
		}
	}
}
