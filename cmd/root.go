package cmd

import (
	"github.com/spf13/cobra"

	"ezsync/config"
)

var (
	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "ezsync",
	Short: "Sync CPAP data from an EzShare WiFi SD card",
	Long: `ezsync downloads CPAP therapy data from an EzShare WiFi SD card over the
card's embedded HTTP file browser, so the card never has to leave the device.
The local copy can be imported into OSCAR or similar analysis software.
Configuration is loaded from an env file or environment variables`,
}

func Execute(config *config.Config) error {
	cfg = config
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(cardInfoCmd)
	rootCmd.AddCommand(backupCmd)

	rootCmd.PersistentFlags().StringP("path", "p", "", "Override destination directory from config")
	rootCmd.PersistentFlags().StringP("url", "u", "", "Override card root URL from config")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")
}

func getTargetPath(cmd *cobra.Command) string {
	path, _ := cmd.Flags().GetString("path")
	if path != "" {
		return path
	}
	return cfg.TargetPath
}

func getRootURL(cmd *cobra.Command) string {
	url, _ := cmd.Flags().GetString("url")
	if url != "" {
		return url
	}
	return cfg.RootURL
}

func isVerbose(cmd *cobra.Command) bool {
	verbose, _ := cmd.Flags().GetBool("verbose")
	return verbose
}

const usageTemplate = `Usage:{{if .Runnable}}
  {{.UseLine}}{{end}}{{if .HasAvailableSubCommands}}
  {{.CommandPath}} [command]{{end}}{{if gt (len .Aliases) 0}}

Aliases:
  {{.NameAndAliases}}{{end}}{{if .HasExample}}

Examples:
{{.Example}}{{end}}{{if .HasAvailableSubCommands}}

Available Commands:{{range .Commands}}{{if (or .IsAvailableCommand (eq .Name "help"))}}
  {{rpad .Name .NamePadding }} {{.Short}}{{end}}{{end}}{{end}}{{if .HasAvailableLocalFlags}}

Flags:
{{.LocalFlags.FlagUsages | trimTrailingWhitespaces}}{{end}}{{if .HasAvailableInheritedFlags}}

Global Flags:
{{.InheritedFlags.FlagUsages | trimTrailingWhitespaces}}{{end}}{{if .HasHelpSubCommands}}

Additional help topics:{{range .Commands}}{{if .IsAdditionalHelpTopicCommand}}
  {{rpad .Name .NamePadding }} {{.Short}}{{end}}{{end}}{{end}}{{if .HasAvailableSubCommands}}

Use "{{.CommandPath}} [command] --help" for more information about a command.{{end}}
`
