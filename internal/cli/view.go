package cli

import (
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/marben/mandelview/internal/config"
	"github.com/marben/mandelview/internal/tui"
	"github.com/marben/mandelview/internal/view"
)

var viewCmd = &cobra.Command{
	Use:   "view",
	Short: "Explore the set in the terminal",
	Long: `Open an interactive explorer in the terminal.

Drag with the left mouse button to pan, drag with the right button (or
shift+left) to zoom into a rectangle, and use the wheel to zoom at the
pointer. Press ? for the key bindings.

Logs go to a file so they never disturb the display (default
~/.config/mandelview/view.log).`,
	Args: cobra.NoArgs,
	RunE: runView,
}

var (
	viewRegion string
	viewScheme string
)

func init() {
	rootCmd.AddCommand(viewCmd)

	viewCmd.Flags().StringVarP(&viewRegion, "region", "r", "", "landmark to start at")
	viewCmd.Flags().StringVarP(&viewScheme, "scheme", "s", "", "initial colour scheme")
}

func runView(cmd *cobra.Command, args []string) error {
	// stderr would corrupt the alternate screen
	defaultLog := filepath.Join(config.ConfigDir(), "view.log")
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGTERM)
	defer stop()

	e, err := setup(ctx, defaultLog)
	if err != nil {
		return err
	}
	defer e.close()

	r, err := e.region(viewRegion)
	if err != nil {
		return err
	}
	cyc, err := e.scheme(viewScheme)
	if err != nil {
		return err
	}

	// the terminal size replaces this resolution as soon as it is known
	state := view.NewState(e.cfg.Domain(r), e.cfg.View.Settings())
	state.Scheme = cyc

	final, err := tui.Run(ctx, state, e.eval, e.logger)
	if err != nil {
		return fmt.Errorf("explorer: %w", err)
	}
	d := final.Domain
	fmt.Fprintf(cmd.OutOrStdout(), "last view: %s max_iter=%d\n", d.Region, d.MaxIter)
	return nil
}
