package database

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Tx represents a transfer of value between two addresses. Once created a
// transaction is never modified, it is shared with peers by value.
type Tx struct {
	Amount    float64 `json:"amount" validate:"gte=0"`
	Sender    string  `json:"sender" validate:"required"`
	Recipient string  `json:"recipient" validate:"required"`
	ID        string  `json:"transactionId" validate:"required"`
}

// NewTx constructs a new transaction with a unique id.
func NewTx(amount float64, sender string, recipient string) Tx {
	return Tx{
		Amount:    amount,
		Sender:    sender,
		Recipient: recipient,
		ID:        NewID(),
	}
}

// String implements the fmt.Stringer interface for logging.
func (tx Tx) String() string {
	return fmt.Sprintf("%s:%s->%s:%v", tx.ID, tx.Sender, tx.Recipient, tx.Amount)
}

// Touches reports if the address is the sender or the recipient.
func (tx Tx) Touches(address string) bool {
	return tx.Sender == address || tx.Recipient == address
}

// =============================================================================

// NewID generates a unique id in the compact form used on the wire,
// a UUID with the dashes removed.
func NewID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
