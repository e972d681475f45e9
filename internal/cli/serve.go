package cli

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/marben/mandelview/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the explorer over HTTP and websockets",
	Long: `Start an HTTP server with:

  /ws         interactive session (JSON events in, status + PNG frames out)
  /image.png  single render, e.g. /image.png?region=seahorse-valley&w=800&h=600
  /regions    the landmark catalogue as JSON
  /healthz    liveness probe`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var (
	serveAddr   string
	serveRegion string
)

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config, :8080)")
	serveCmd.Flags().StringVarP(&serveRegion, "region", "r", "", "landmark new sessions start at")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	e, err := setup(ctx, "")
	if err != nil {
		return err
	}
	defer e.close()

	r, err := e.region(serveRegion)
	if err != nil {
		return err
	}
	cyc, err := e.scheme("")
	if err != nil {
		return err
	}
	addr := e.cfg.Server.Addr
	if serveAddr != "" {
		addr = serveAddr
	}

	srv := server.New(e.eval, e.cfg.Domain(r),
		server.WithSettings(e.cfg.View.Settings()),
		server.WithScheme(cyc),
		server.WithLandmarks(e.catalog),
		server.WithFrameRate(e.cfg.Server.FramesPerSecond, e.cfg.Server.Burst),
		server.WithMaxPixels(e.cfg.Server.MaxPixels),
		server.WithLogger(e.logger),
	)
	return srv.ListenAndServe(ctx, addr)
}
