package cmd

import (
	"net/http"

	"github.com/spf13/cobra"
)

var balanceCmd = &cobra.Command{
	Use:   "balance [address]",
	Short: "Print the recorded transactions and balance of an address",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var address string
		switch len(args) {
		case 1:
			address = args[0]
		default:
			a, err := accountAddress()
			if err != nil {
				return err
			}
			address = a
		}

		return nodeRequest(cmd, http.MethodGet, "/address/"+address, nil)
	},
}

func init() {
	rootCmd.AddCommand(balanceCmd)
}
