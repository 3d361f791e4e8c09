package nameservice_test

import (
	"path/filepath"
	"testing"

	"github.com/ardanlabs/ledger/foundation/nameservice"
	"github.com/ethereum/go-ethereum/crypto"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func Test_Lookup(t *testing.T) {
	t.Log("Given the need to name accounts by their key files.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen the folder holds one account.", testID)
		{
			folder := t.TempDir()

			pk, err := crypto.GenerateKey()
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to generate a key : %s", failed, testID, err)
			}
			if err := crypto.SaveECDSA(nameservice.KeyPath(folder, "kennedy"), pk); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to save the key : %s", failed, testID, err)
			}

			ns, err := nameservice.New(folder)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to load the folder : %s", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to load the folder.", success, testID)

			address := nameservice.Address(pk.PublicKey)
			if name := ns.Lookup(address); name != "kennedy" {
				t.Fatalf("\t%s\tTest %d:\tShould find the account name : got %q", failed, testID, name)
			}
			t.Logf("\t%s\tTest %d:\tShould find the account name.", success, testID)

			if got, err := nameservice.LoadAddress(folder, "kennedy"); err != nil || got != address {
				t.Fatalf("\t%s\tTest %d:\tShould load the same address : got %q : %v", failed, testID, got, err)
			}
			t.Logf("\t%s\tTest %d:\tShould load the same address.", success, testID)

			if name := ns.Lookup("unknown"); name != "unknown" {
				t.Fatalf("\t%s\tTest %d:\tShould echo unknown addresses : got %q", failed, testID, name)
			}
			t.Logf("\t%s\tTest %d:\tShould echo unknown addresses.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen the folder doesn't exist.", testID)
		{
			ns, err := nameservice.New(filepath.Join(t.TempDir(), "missing"))
			if err != nil || len(ns.Copy()) != 0 {
				t.Fatalf("\t%s\tTest %d:\tShould get an empty name service : %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould get an empty name service.", success, testID)
		}
	}
}
