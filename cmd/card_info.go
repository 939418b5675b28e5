package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"ezsync/internal/ezshare"
	"ezsync/pkg/utils"
)

var cardInfoCmd = &cobra.Command{
	Use:   "card-info",
	Short: "Show the card's firmware information",
	Long: `Query the EzShare card's version endpoint and print what it reports.
Useful to confirm the card is reachable before a sync.`,
	Example: `  # Query the configured card
  ezsync card-info

  # Query a card at a different address
  ezsync card-info --url http://192.168.4.1/dir?dir=A:`,
	Run: func(cmd *cobra.Command, args []string) {
		runCardInfo(cmd)
	},
}

func runCardInfo(cmd *cobra.Command) {
	client, err := ezshare.New(getRootURL(cmd), 30*time.Second)
	if err != nil {
		utils.PrintError(err, "card-info")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if isVerbose(cmd) {
		cmd.Printf("Querying card at: %s\n", getRootURL(cmd))
	}

	version, err := client.Version(ctx)
	if err != nil {
		utils.PrintError(err, "card-info")
		return
	}

	if err := utils.PrintJSON(version); err != nil {
		utils.PrintError(err, "card-info")
		return
	}

	if isVerbose(cmd) {
		cmd.Println("Card info retrieved successfully")
	}
}

func init() {
	cardInfoCmd.SetUsageTemplate(usageTemplate)
}
