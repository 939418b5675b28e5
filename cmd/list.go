package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"ezsync/internal/ezshare"
	"ezsync/internal/models"
	"ezsync/internal/syncer"
	"ezsync/pkg/utils"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the files on the card",
	Long: `Recursively list the contents of the card's file browser without
downloading anything. Entries on the ignore list are left out. The date
window flags narrow DATALOG day folders the same way they do for sync.`,
	Example: `  # List everything on the card
  ezsync list

  # List only the last week of DATALOG
  ezsync list --days 7

  # List a different card
  ezsync list --url http://192.168.4.1/dir?dir=A:`,
	Run: func(cmd *cobra.Command, args []string) {
		runList(cmd)
	},
}

func runList(cmd *cobra.Command) {
	startFrom, _ := cmd.Flags().GetString("start-from")
	days, _ := cmd.Flags().GetInt("days")

	window, err := syncer.ParseWindow(startFrom, days, time.Now())
	if err != nil {
		utils.PrintError(err, "list")
		return
	}

	client, err := ezshare.New(getRootURL(cmd), 30*time.Second)
	if err != nil {
		utils.PrintError(err, "list")
		return
	}

	timeout, _ := cmd.Flags().GetInt("timeout")
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeout)*time.Second)
	defer cancel()

	if isVerbose(cmd) {
		cmd.Printf("Listing card contents from: %s\n", getRootURL(cmd))
	}

	s := syncer.New(client, syncer.Options{
		TargetPath: getTargetPath(cmd),
		Window:     window,
		Ignore:     syncer.NewIgnoreSet(cfg.Ignore...),
	})

	plan, err := s.Plan(ctx)
	if err != nil {
		utils.PrintError(err, "list")
		return
	}

	result := &models.ListResult{
		SourceURL:     getRootURL(cmd),
		Entries:       []models.ListEntry{},
		TotalDirs:     len(plan.Dirs),
		OperationTime: utils.FormatTime(time.Now()),
	}
	for _, dir := range plan.Dirs {
		result.Entries = append(result.Entries, models.ListEntry{
			Name:  dir,
			Path:  dir,
			IsDir: true,
		})
	}
	for _, e := range plan.Entries {
		entry := models.ListEntry{
			Name: e.Entry.Name,
			Path: e.RelPath,
			Size: e.Entry.Size,
		}
		if !e.Entry.Modified.IsZero() {
			entry.Modified = utils.FormatTime(e.Entry.Modified)
		}
		result.Entries = append(result.Entries, entry)
		result.TotalFiles++
		result.TotalSizeBytes += e.Entry.Size
	}
	result.TotalSizeHuman = utils.FormatBytes(result.TotalSizeBytes)

	if err := utils.PrintJSON(result); err != nil {
		utils.PrintError(err, "list")
		return
	}

	if isVerbose(cmd) {
		cmd.Printf("Found %d files in %d directories\n", result.TotalFiles, result.TotalDirs)
	}
}

func init() {
	listCmd.Flags().String("start-from", "", "Start date for DATALOG day folders (YYYYMMDD or 'all')")
	listCmd.Flags().IntP("days", "d", 0, "List only the trailing N days of DATALOG")
	listCmd.Flags().Int("timeout", 600, "Timeout in seconds for the operation (default: 10 minutes)")

	listCmd.SetUsageTemplate(usageTemplate)
}
