package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"ezsync/internal/ezshare"
	"ezsync/internal/syncer"
	"ezsync/internal/wifi"
	"ezsync/pkg/utils"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Download new and changed files from the card",
	Long: `Download new and changed files from the EzShare card into the destination
directory.

The command walks the card's directory listing recursively, filters entries
by the ignore list and the date window, compares what remains against the
local copy, and downloads whatever is missing or out of date. Failed
downloads are retried a few times; a file that keeps failing is reported
and the rest of the queue continues.

Day folders under DATALOG are filtered by the date window: --start-from
takes a YYYYMMDD date (or 'all'), --days keeps the trailing N days.

With --wifi the command first joins the card's network and switches back
when the sync is done.`,
	Example: `  # Sync with settings from config
  ezsync sync

  # Sync the last two weeks, creating the destination if needed
  ezsync sync --days 14 --create-missing

  # Full re-download from an explicit date
  ezsync sync --start-from 20230101 --overwrite

  # Join the card's network first, show a progress bar
  ezsync sync --wifi --progress

  # See what would be downloaded without touching anything
  ezsync sync --dry-run --verbose`,
	Run: func(cmd *cobra.Command, args []string) {
		runSync(cmd)
	},
}

func runSync(cmd *cobra.Command) {
	startFrom := cfg.StartFrom
	if cmd.Flags().Changed("start-from") {
		startFrom, _ = cmd.Flags().GetString("start-from")
	}
	days := cfg.DayCount
	if cmd.Flags().Changed("days") {
		days, _ = cmd.Flags().GetInt("days")
	}
	retries := cfg.Retries
	if cmd.Flags().Changed("retries") {
		retries, _ = cmd.Flags().GetInt("retries")
	}
	overwrite := cfg.Overwrite
	if cmd.Flags().Changed("overwrite") {
		overwrite, _ = cmd.Flags().GetBool("overwrite")
	}
	createMissing := cfg.CreateMissing
	if cmd.Flags().Changed("create-missing") {
		createMissing, _ = cmd.Flags().GetBool("create-missing")
	}
	extraIgnore, _ := cmd.Flags().GetStringArray("ignore")
	showProgress, _ := cmd.Flags().GetBool("progress")
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	window, err := syncer.ParseWindow(startFrom, days, time.Now())
	if err != nil {
		utils.PrintError(err, "sync")
		return
	}

	client, err := ezshare.New(getRootURL(cmd), 30*time.Second)
	if err != nil {
		utils.PrintError(err, "sync")
		return
	}

	timeout, _ := cmd.Flags().GetInt("timeout")
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeout)*time.Second)
	defer cancel()

	if useWifi, _ := cmd.Flags().GetBool("wifi"); useWifi {
		manager := newWifiManager(cmd)
		if !connectOrPrompt(ctx, manager) {
			utils.PrintError(fmt.Errorf("could not connect to network %q", cfg.WifiSSID), "sync")
			return
		}
		defer restoreNetwork(manager)
	}

	if isVerbose(cmd) {
		cmd.Printf("Starting sync operation...\n")
		cmd.Printf("  Source: %s\n", getRootURL(cmd))
		cmd.Printf("  Destination: %s\n", getTargetPath(cmd))
		if dryRun {
			cmd.Println("  DRY RUN MODE: No files will actually be downloaded")
		}
	}

	s := syncer.New(client, syncer.Options{
		TargetPath:    getTargetPath(cmd),
		Window:        window,
		Ignore:        syncer.NewIgnoreSet(append(cfg.Ignore, extraIgnore...)...),
		Overwrite:     overwrite,
		CreateMissing: createMissing,
		Retries:       retries,
		DryRun:        dryRun,
		Verbose:       isVerbose(cmd),
		Progress:      showProgress,
		Out:           cmd.OutOrStdout(),
	})

	result, err := s.Run(ctx)
	if err != nil {
		utils.PrintError(err, "sync")
		return
	}

	if err := utils.PrintJSON(result); err != nil {
		utils.PrintError(err, "sync")
		return
	}

	if isVerbose(cmd) {
		cmd.Println("Sync operation completed")
		cmd.Printf("Downloaded %d files, skipped %d\n", result.TotalFiles, result.SkippedFiles)
	}
}

func newWifiManager(cmd *cobra.Command) *wifi.Manager {
	ssid := cfg.WifiSSID
	if cmd.Flags().Changed("ssid") {
		ssid, _ = cmd.Flags().GetString("ssid")
	}
	psk := cfg.WifiPSK
	if cmd.Flags().Changed("psk") {
		psk, _ = cmd.Flags().GetString("psk")
	}
	return wifi.NewManager(ssid, psk, time.Duration(cfg.WifiDelay)*time.Second)
}

// restoreNetwork leaves the card's network on its own deadline: the sync
// context may already be expired when the deferred restore runs, and the
// machine must not stay stuck on the card's WiFi.
func restoreNetwork(manager *wifi.Manager) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := manager.Disconnect(ctx); err != nil {
		slog.Warn("failed to restore previous network", "error", err)
	}
}

// connectOrPrompt tries the platform WiFi switcher. When that fails on an
// interactive terminal the user can connect by hand and continue; on a
// non-interactive run the sync is aborted.
func connectOrPrompt(ctx context.Context, manager *wifi.Manager) bool {
	err := manager.Connect(ctx)
	if err == nil {
		return true
	}
	slog.Warn("automatic wifi switch failed", "error", err)

	if !isTerminal(os.Stdin) {
		return false
	}
	fmt.Print("Unable to connect automatically. Connect manually and press 'c' to continue, anything else to cancel: ")
	var response string
	fmt.Scanln(&response)
	return strings.EqualFold(response, "c")
}

func isTerminal(f *os.File) bool {
	stat, err := f.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) != 0
}

func init() {
	syncCmd.Flags().String("start-from", "", "Start date for DATALOG day folders (YYYYMMDD or 'all')")
	syncCmd.Flags().IntP("days", "d", 0, "Sync only the trailing N days of DATALOG")
	syncCmd.Flags().BoolP("overwrite", "o", false, "Re-download files that already exist locally")
	syncCmd.Flags().Bool("create-missing", false, "Create the destination directory if missing")
	syncCmd.Flags().StringArrayP("ignore", "i", nil, "Additional entry name to ignore (repeatable)")
	syncCmd.Flags().IntP("retries", "r", 3, "Download attempts per file before giving up")
	syncCmd.Flags().BoolP("wifi", "w", false, "Join the card's WiFi network before syncing")
	syncCmd.Flags().String("ssid", "", "Card network SSID (default from config)")
	syncCmd.Flags().String("psk", "", "Card network passphrase (default from config)")
	syncCmd.Flags().Bool("progress", false, "Show a progress bar while downloading")
	syncCmd.Flags().Bool("dry-run", false, "Show what would be downloaded without downloading")
	syncCmd.Flags().Int("timeout", 3600, "Timeout in seconds for the operation (default: 1 hour)")

	syncCmd.SetUsageTemplate(usageTemplate)
}
