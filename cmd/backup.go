package cmd

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"ezsync/internal/models"
	"ezsync/internal/s3client"
	"ezsync/pkg/utils"
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Upload the local CPAP data to an S3 bucket",
	Long: `Upload the synced CPAP data directory to an S3-compatible bucket as an
offsite backup.

By default the directory is zipped into a single archive before uploading.
With --no-archive every file is uploaded individually under its relative
path. --prune-older deletes backups older than the given number of days
from the destination prefix after a successful upload.

Bucket credentials come from the env file or environment variables.`,
	Example: `  # Archive and upload the data directory
  ezsync backup

  # Upload into a dated prefix, keep 90 days of backups
  ezsync backup --destination "cpap/2025" --prune-older 90

  # Upload files individually without archiving
  ezsync backup --no-archive

  # Custom archive name, skip the confirmation prompt
  ezsync backup --archive-name "pre-checkup" --confirm`,
	Run: func(cmd *cobra.Command, args []string) {
		runBackup(cmd)
	},
}

func runBackup(cmd *cobra.Command) {
	destination, _ := cmd.Flags().GetString("destination")
	noArchive, _ := cmd.Flags().GetBool("no-archive")
	archiveName, _ := cmd.Flags().GetString("archive-name")
	pruneOlder, _ := cmd.Flags().GetInt("prune-older")
	confirm, _ := cmd.Flags().GetBool("confirm")
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	source := getTargetPath(cmd)
	shouldArchive := !noArchive

	if err := utils.ValidatePaths([]string{source}); err != nil {
		utils.PrintError(err, "backup")
		return
	}

	if !confirm && !dryRun {
		fmt.Printf("Backup operation summary:\n")
		fmt.Printf("  Bucket: %s\n", cfg.BucketName)
		fmt.Printf("  Source: %s\n", source)
		fmt.Printf("  Destination: %s\n", destinationDisplay(destination))
		fmt.Printf("  Archive: %t\n", shouldArchive)
		if pruneOlder > 0 {
			fmt.Printf("  Prune backups older than: %d days\n", pruneOlder)
		}

		fmt.Print("Continue with backup? (y/N): ")
		var response string
		fmt.Scanln(&response)
		if !slices.Contains([]string{"y", "yes"}, strings.ToLower(response)) {
			fmt.Println("Backup cancelled.")
			return
		}
	}

	timeout, _ := cmd.Flags().GetInt("timeout")
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeout)*time.Second)
	defer cancel()

	if isVerbose(cmd) {
		cmd.Printf("Starting backup operation...\n")
		cmd.Printf("  Source: %s\n", source)
		cmd.Printf("  Destination: %s\n", destinationDisplay(destination))
		cmd.Printf("  Archive: %t\n", shouldArchive)
		if dryRun {
			cmd.Println("  DRY RUN MODE: No files will actually be uploaded")
		}
	}

	if dryRun {
		result := dryRunBackupResult(source, destination, shouldArchive, archiveName)
		if err := utils.PrintJSON(result); err != nil {
			utils.PrintError(err, "backup")
		}
		return
	}

	client, err := s3client.New(cfg)
	if err != nil {
		utils.PrintError(err, "backup")
		return
	}

	result, err := client.Backup(ctx, source, destination, shouldArchive, archiveName)
	if err != nil {
		utils.PrintError(err, "backup")
		return
	}

	if pruneOlder > 0 {
		pruned, err := client.Prune(ctx, destination, pruneOlder)
		if err != nil {
			utils.PrintError(err, "backup")
			return
		}
		result.Pruned = pruned
	}

	if err := utils.PrintJSON(result); err != nil {
		utils.PrintError(err, "backup")
		return
	}

	if isVerbose(cmd) {
		cmd.Println("Backup operation completed successfully")
	}
}

func destinationDisplay(destination string) string {
	if destination == "" {
		return "bucket root"
	}
	return destination
}

func dryRunBackupResult(source, destination string, shouldArchive bool, archiveName string) *models.BackupResult {
	result := &models.BackupResult{
		BucketName:      cfg.BucketName,
		DestinationPath: destination,
		Items:           []models.BackupItem{},
		ArchiveCreated:  shouldArchive,
		OperationTime:   utils.FormatTime(time.Now()),
		TotalSizeHuman:  "0 B",
		BackupDuration:  "0s",
		DryRun:          true,
	}
	if shouldArchive {
		if archiveName == "" {
			archiveName = utils.GenerateArchiveName([]string{source}, ".zip")
		}
		remotePath := destination
		if remotePath != "" && !strings.HasSuffix(remotePath, "/") {
			remotePath += "/"
		}
		result.Items = append(result.Items, models.BackupItem{
			LocalPath:  source,
			RemotePath: remotePath + archiveName,
			IsArchived: true,
		})
	} else {
		result.Items = append(result.Items, models.BackupItem{
			LocalPath:  source,
			RemotePath: destination,
		})
	}
	result.TotalFiles = len(result.Items)
	return result
}

func init() {
	backupCmd.Flags().StringP("destination", "d", "", "Destination prefix in the bucket (optional)")
	backupCmd.Flags().Bool("no-archive", false, "Upload files individually without creating an archive")
	backupCmd.Flags().StringP("archive-name", "a", "", "Custom name for the archive file (only used with archiving)")
	backupCmd.Flags().Int("prune-older", 0, "Delete backups older than this many days after upload")
	backupCmd.Flags().Bool("confirm", false, "Skip confirmation prompt")
	backupCmd.Flags().Bool("dry-run", false, "Show what would be uploaded without actually uploading")
	backupCmd.Flags().Int("timeout", 3600, "Timeout in seconds for the operation (default: 1 hour)")

	backupCmd.SetUsageTemplate(usageTemplate)
}
