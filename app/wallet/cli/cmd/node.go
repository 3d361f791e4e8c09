package cmd

import (
	"errors"
	"net/http"

	"github.com/spf13/cobra"
)

var newNodeURL string

var mineCmd = &cobra.Command{
	Use:   "mine",
	Short: "Ask the node to mine the pending transactions into a block",
	RunE: func(cmd *cobra.Command, args []string) error {
		return nodeRequest(cmd, http.MethodGet, "/mine", nil)
	},
}

var consensusCmd = &cobra.Command{
	Use:   "consensus",
	Short: "Ask the node to resolve its chain against its peers",
	RunE: func(cmd *cobra.Command, args []string) error {
		return nodeRequest(cmd, http.MethodGet, "/consensus", nil)
	},
}

var chainCmd = &cobra.Command{
	Use:   "chain",
	Short: "Print the chain, mempool and peers of the node",
	RunE: func(cmd *cobra.Command, args []string) error {
		return nodeRequest(cmd, http.MethodGet, "/blockchain", nil)
	},
}

var joinCmd = &cobra.Command{
	Use:   "join",
	Short: "Bring a new node into the network through the node",
	RunE: func(cmd *cobra.Command, args []string) error {
		if newNodeURL == "" {
			return errors.New("the url of the new node is required")
		}

		nn := struct {
			URL string `json:"newNodeUrl"`
		}{
			URL: newNodeURL,
		}

		return nodeRequest(cmd, http.MethodPost, "/register-and-broadcast-node", nn)
	},
}

func init() {
	rootCmd.AddCommand(mineCmd)
	rootCmd.AddCommand(consensusCmd)
	rootCmd.AddCommand(chainCmd)
	rootCmd.AddCommand(joinCmd)
	joinCmd.Flags().StringVarP(&newNodeURL, "node", "n", "", "Base url of the node joining the network.")
}
