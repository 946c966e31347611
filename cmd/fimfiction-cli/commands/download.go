package commands

import (
	"fmt"
	"log/slog"
	"os"

	"fimfiction/lib/scrapers/fimfiction/core"

	"github.com/spf13/cobra"
)

var (
	downloadFormat string
	downloadOutput string
)

func init() {
	downloadCmd.Flags().StringVarP(&downloadFormat, "format", "f", string(core.FormatEPUB), "One of txt, html or epub.")
	downloadCmd.Flags().StringVarP(&downloadOutput, "output", "o", "", "The file to write to, <story id>.<format> by default.")
	rootCmd.AddCommand(downloadCmd)
}

var downloadCmd = &cobra.Command{
	Use:   "download <story id> [--format epub] [--output <path>]",
	Short: "Downloads a whole story.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		client, err := newClient(cmd.Context())
		if err != nil {
			return err
		}
		downloadURL, err := client.DownloadURL(id, core.DownloadFormat(downloadFormat))
		if err != nil {
			return err
		}

		path := downloadOutput
		if path == "" {
			path = fmt.Sprintf("%d.%s", id, downloadFormat)
		}
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()

		n, err := client.Download(cmd.Context(), downloadURL, f)
		if err != nil {
			return err
		}
		slog.Info("downloaded story", "path", path, "bytes", n)
		return nil
	},
}
