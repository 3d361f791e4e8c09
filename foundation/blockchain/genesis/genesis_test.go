package genesis_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ardanlabs/ledger/foundation/blockchain/genesis"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func Test_Load(t *testing.T) {
	t.Log("Given the need to load the genesis values.")
	{
		t.Logf("\tTest 0:\tWhen no file is provided.")
		{
			gen, err := genesis.Load("")
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to load defaults: %v", failed, err)
			}
			if gen != genesis.Default() {
				t.Fatalf("\t%s\tTest 0:\tShould get back the defaults: %+v", failed, gen)
			}
			t.Logf("\t%s\tTest 0:\tShould get back the defaults.", success)
		}

		t.Logf("\tTest 1:\tWhen a file overrides some values.")
		{
			path := filepath.Join(t.TempDir(), "genesis.json")
			if err := os.WriteFile(path, []byte(`{"difficulty":"00","mining_reward":50}`), 0600); err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to write the file: %v", failed, err)
			}

			gen, err := genesis.Load(path)
			if err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to load the file: %v", failed, err)
			}
			if gen.Difficulty != "00" || gen.MiningReward != 50 || gen.RewardSender != "00" {
				t.Fatalf("\t%s\tTest 1:\tShould merge the file over the defaults: %+v", failed, gen)
			}
			t.Logf("\t%s\tTest 1:\tShould merge the file over the defaults.", success)
		}

		t.Logf("\tTest 2:\tWhen the file clears the difficulty.")
		{
			path := filepath.Join(t.TempDir(), "genesis.json")
			os.WriteFile(path, []byte(`{"difficulty":""}`), 0600)

			if _, err := genesis.Load(path); err == nil {
				t.Fatalf("\t%s\tTest 2:\tShould reject an empty difficulty.", failed)
			}
			t.Logf("\t%s\tTest 2:\tShould reject an empty difficulty.", success)
		}
	}
}
