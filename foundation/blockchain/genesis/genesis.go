// Package genesis maintains access to the genesis file.
package genesis

import (
	"encoding/json"
	"errors"
	"os"
	"time"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
)

// Genesis represents the genesis file.
type Genesis struct {
	Date         time.Time `json:"date"`
	Difficulty   string    `json:"difficulty"`    // Prefix every block hash must start with.
	MiningReward float64   `json:"mining_reward"` // Reward paid to the miner of a block.
	RewardSender string    `json:"reward_sender"` // Sender address used for mining rewards.
}

// Default returns the genesis values used when no file is provided.
func Default() Genesis {
	return Genesis{
		Date:         time.Date(2018, time.January, 1, 0, 0, 0, 0, time.UTC),
		Difficulty:   database.DefaultDifficulty,
		MiningReward: 12.5,
		RewardSender: "00",
	}
}

// =============================================================================

// Load opens and consumes the genesis file. Values missing from the file
// keep their defaults.
func Load(path string) (Genesis, error) {
	genesis := Default()
	if path == "" {
		return genesis, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return Genesis{}, err
	}

	if err := json.Unmarshal(content, &genesis); err != nil {
		return Genesis{}, err
	}

	if genesis.Difficulty == "" {
		return Genesis{}, errors.New("genesis difficulty can't be empty")
	}

	return genesis, nil
}
