package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/marben/mandelview/internal/config"
	"github.com/marben/mandelview/internal/landmarks"
	"github.com/marben/mandelview/internal/palette"
)

var regionsCmd = &cobra.Command{
	Use:   "regions",
	Short: "List the landmark regions",
	Long: `List the built-in landmarks and those from landmarks_file.

With --yaml the catalogue is printed in the landmarks file format, which is
a convenient starting point for your own file.`,
	Args: cobra.NoArgs,
	RunE: runRegions,
}

var schemesCmd = &cobra.Command{
	Use:   "schemes",
	Short: "List the colour schemes",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		for _, n := range palette.Names() {
			fmt.Fprintln(cmd.OutOrStdout(), n)
		}
	},
}

var regionsYAML bool

func init() {
	rootCmd.AddCommand(regionsCmd)
	rootCmd.AddCommand(schemesCmd)

	regionsCmd.Flags().BoolVar(&regionsYAML, "yaml", false, "print as a landmarks file")
}

func runRegions(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	catalog, err := landmarks.Load(cfg.LandmarksFile)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if regionsYAML {
		return catalog.Write(out)
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tX\tY")
	for _, name := range catalog.Names() {
		r := catalog[name]
		fmt.Fprintf(w, "%s\t[%g, %g]\t[%g, %g]\n", name, r.Xmin, r.Xmax, r.Ymin, r.Ymax)
	}
	return w.Flush()
}
