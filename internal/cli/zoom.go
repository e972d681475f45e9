package cli

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/marben/mandelview/internal/zoom"
)

var zoomCmd = &cobra.Command{
	Use:   "zoom TARGET",
	Short: "Render a zoom sequence into a landmark",
	Long: `Render frames that zoom from a start region into TARGET.

Region bounds move geometrically, so every frame zooms by roughly the same
factor. Frames are written as fractal_0000.png, fractal_0001.png, ... and
frames that already exist are skipped, so an interrupted run can be resumed.

Example:
  mandelview zoom seahorse-valley --frames 200 --out frames/`,
	Args: cobra.ExactArgs(1),
	RunE: runZoom,
}

var (
	zoomFrom     string
	zoomFrames   int
	zoomRatio    float64
	zoomOut      string
	zoomParallel int
	zoomScheme   string
)

func init() {
	rootCmd.AddCommand(zoomCmd)

	zoomCmd.Flags().StringVar(&zoomFrom, "from", "", "start landmark (default: the default region)")
	zoomCmd.Flags().IntVarP(&zoomFrames, "frames", "n", 0, "number of frames (default from config)")
	zoomCmd.Flags().Float64Var(&zoomRatio, "ratio", 0, "geometric ratio between frames, in (0, 1) (default from config)")
	zoomCmd.Flags().StringVarP(&zoomOut, "out", "o", "", "output directory (default from config)")
	zoomCmd.Flags().IntVarP(&zoomParallel, "parallel", "p", 0, "frames rendered at once (default from config)")
	zoomCmd.Flags().StringVarP(&zoomScheme, "scheme", "s", "", "colour scheme")
}

func runZoom(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	e, err := setup(ctx, "")
	if err != nil {
		return err
	}
	defer e.close()

	start, err := e.region(zoomFrom)
	if err != nil {
		return err
	}
	target, err := e.catalog.Lookup(args[0])
	if err != nil {
		return err
	}
	cyc, err := e.scheme(zoomScheme)
	if err != nil {
		return err
	}

	zc := e.cfg.Zoom
	if zoomFrames > 0 {
		zc.Frames = zoomFrames
	}
	if zoomRatio > 0 {
		zc.Ratio = zoomRatio
	}
	if zoomOut != "" {
		zc.OutputDir = zoomOut
	}
	if zoomParallel > 0 {
		zc.Parallel = zoomParallel
	}

	regions, err := zoom.Sequence(start, target, zc.Frames, zc.Ratio)
	if err != nil {
		return err
	}
	r := zoom.NewRenderer(e.eval, e.cfg.Domain(start), zc.OutputDir,
		zoom.WithColor(cyc.Current().Color),
		zoom.WithParallel(zc.Parallel),
		zoom.WithLogger(e.logger.WithComponent("zoom")),
	)
	stats, err := r.Render(ctx, regions)
	fmt.Fprintf(cmd.OutOrStdout(), "%d frames rendered, %d skipped in %s (%s)\n",
		stats.Rendered, stats.Skipped, stats.Elapsed.Round(time.Millisecond), zc.OutputDir)
	return err
}
