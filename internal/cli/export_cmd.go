package cli

import (
	"fmt"
	"os"

	"github.com/alexanderramin/orgctl/internal/cli/formatter"
	"github.com/alexanderramin/orgctl/internal/export"
	"github.com/spf13/cobra"
)

func newExportCmd(app *App) *cobra.Command {
	var (
		out    string
		format string
		cached bool
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the flattened tree to an XLSX or CSV file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := export.ParseFormat(format, out)
			if err != nil {
				return err
			}
			flags := treeFlags{cached: cached}
			banner, err := flags.load(cmd, app)
			if err != nil {
				return err
			}

			rows := export.Rows(app.Orgs.Store())
			file, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("creating %s: %w", out, err)
			}
			if err := export.Write(file, f, rows); err != nil {
				file.Close()
				return fmt.Errorf("writing %s: %w", out, err)
			}
			if err := file.Close(); err != nil {
				return fmt.Errorf("closing %s: %w", out, err)
			}

			w := cmd.OutOrStdout()
			if banner != "" {
				fmt.Fprintln(w, formatter.StyleYellow.Render(banner))
			}
			fmt.Fprintln(w, formatter.Success(fmt.Sprintf("Exported %s to %s (%s)",
				formatter.Plural(len(rows), "organization"), out, f)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file")
	cmd.Flags().StringVar(&format, "format", "", "xlsx|csv (default from the file extension)")
	cmd.Flags().BoolVar(&cached, "cached", false, "Export the last saved snapshot")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}
