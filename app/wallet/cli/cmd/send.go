package cmd

import (
	"errors"
	"net/http"

	"github.com/spf13/cobra"
)

var (
	from   string
	to     string
	amount float64
)

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Create a transaction and broadcast it to the network",
	RunE:  sendRun,
}

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.Flags().StringVarP(&from, "from", "f", "", "Sender address, defaults to the account address.")
	sendCmd.Flags().StringVarP(&to, "to", "t", "", "Recipient address.")
	sendCmd.Flags().Float64VarP(&amount, "amount", "v", 0, "Amount to send.")
}

func sendRun(cmd *cobra.Command, args []string) error {
	if to == "" {
		return errors.New("a recipient is required")
	}

	sender := from
	if sender == "" {
		address, err := accountAddress()
		if err != nil {
			return err
		}
		sender = address
	}

	tx := struct {
		Amount    float64 `json:"amount"`
		Sender    string  `json:"sender"`
		Recipient string  `json:"recipient"`
	}{
		Amount:    amount,
		Sender:    sender,
		Recipient: to,
	}

	return nodeRequest(cmd, http.MethodPost, "/transaction/broadcast", tx)
}
