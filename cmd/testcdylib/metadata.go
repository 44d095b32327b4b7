package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/airblast-dev/test-cdylib/internal/cargo"
)

var metadataCmd = &cobra.Command{
	Use:   "metadata [dir]",
	Short: "Show the workspace root and target directory cargo resolves",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := cmd.Flags().GetString("format")
		if err != nil {
			return err
		}
		format = strings.ToLower(format)
		switch format {
		case "pretty", "json":
		default:
			return fmt.Errorf("unsupported format %q (must be pretty or json)", format)
		}
		dir := ""
		if len(args) > 0 {
			dir = args[0]
		}
		tc := &cargo.Toolchain{Path: app.cfg.CargoPath}
		md, err := tc.Metadata(cmd.Context(), dir)
		if err != nil {
			return err
		}
		if format == "json" {
			return renderMetadataJSON(cmd.OutOrStdout(), md)
		}
		renderMetadataPretty(cmd.OutOrStdout(), md)
		return nil
	},
}

func init() {
	metadataCmd.Flags().String("format", "pretty", "output format (pretty|json)")
}

func renderMetadataPretty(out io.Writer, md *cargo.Metadata) {
	fmt.Fprintf(out, "workspace root:   %s\n", md.WorkspaceRoot)
	fmt.Fprintf(out, "target directory: %s\n", md.TargetDirectory)
	fmt.Fprintf(out, "packages:         %d\n", len(md.Packages))
}

func renderMetadataJSON(out io.Writer, md *cargo.Metadata) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(md)
}
