package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var sheetsAuthCmd = &cobra.Command{
	Use:   "sheets-auth [code]",
	Short: "Connect Google Sheets for lead export",
	Long: `Without arguments, prints the Google consent URL. Run again with the
code Google returns to store the token used for exports.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSheetsAuth,
}

func runSheetsAuth(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	exporter := newSheetsExporter(cfg)
	out := cmd.OutOrStdout()

	if len(args) == 1 {
		code := strings.TrimSpace(args[0])
		if code == "" {
			return fmt.Errorf("authorization code is empty")
		}
		if err := exporter.CompleteAuth(cmd.Context(), code); err != nil {
			return fmt.Errorf("authentication failed: %w", err)
		}
		fmt.Fprintf(out, "Google Sheets connected. Token saved to %s\n", cfg.GoogleTokenFile)
		return nil
	}

	authURL, err := exporter.Init(cmd.Context())
	if err != nil {
		return err
	}
	if authURL == "" {
		fmt.Fprintln(out, "Google Sheets is already connected.")
		return nil
	}
	fmt.Fprintf(out, "To connect Google Sheets:\n\n1. Open this link:\n%s\n\n2. Sign in and authorize access\n\n3. Run: leadgen sheets-auth YOUR_CODE\n", authURL)
	return nil
}
