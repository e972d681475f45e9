package cli

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	mandel "github.com/marben/mandelview"
	"github.com/marben/mandelview/internal/export"
	"github.com/marben/mandelview/internal/palette"
	"github.com/marben/mandelview/internal/view"
)

var renderCmd = &cobra.Command{
	Use:   "render [x0 x1 y0 y1 max_iters resx resy]",
	Short: "Render a region to an image file",
	Long: `Render one image of the Mandelbrot set.

The region comes from the positional arguments, from --region, or from the
configured default region. The output format follows the file extension
(.png, .bmp, .tiff, .jpg); with -o - the image goes to stdout as --format.

Examples:
  # The default view at the configured resolution
  mandelview render -o mandel.png

  # Explicit bounds, iteration cap and resolution
  mandelview render -- -0.8 -0.7 0.05 0.15 500 1920 1080

  # A landmark, annotated with its bounds
  mandelview render --region seahorse-valley --annotate -o seahorse.tiff`,
	Args: func(cmd *cobra.Command, args []string) error {
		if len(args) != 0 && len(args) != 7 {
			return fmt.Errorf("expected 0 or 7 positional arguments, got %d", len(args))
		}
		return nil
	},
	RunE: runRender,
}

var (
	renderOutput     string
	renderFormat     string
	renderRegion     string
	renderScheme     string
	renderWidth      int
	renderHeight     int
	renderIterations int
	renderAnnotate   bool
	renderThumbnail  int
)

func init() {
	rootCmd.AddCommand(renderCmd)

	renderCmd.Flags().StringVarP(&renderOutput, "output", "o", "mandel.png", "output file, or - for stdout")
	renderCmd.Flags().StringVar(&renderFormat, "format", "png", "image format when writing to stdout (png/bmp/tiff/jpeg)")
	renderCmd.Flags().StringVarP(&renderRegion, "region", "r", "", "landmark name (see 'mandelview regions')")
	renderCmd.Flags().StringVarP(&renderScheme, "scheme", "s", "", "colour scheme (default from config)")
	renderCmd.Flags().IntVar(&renderWidth, "width", 0, "image width (default from config)")
	renderCmd.Flags().IntVar(&renderHeight, "height", 0, "image height (default from config)")
	renderCmd.Flags().IntVarP(&renderIterations, "iterations", "i", 0, "iteration cap (default from config)")
	renderCmd.Flags().BoolVar(&renderAnnotate, "annotate", false, "print the region bounds on the image")
	renderCmd.Flags().IntVar(&renderThumbnail, "thumbnail", 0, "scale the result down to fit this many pixels per side")
}

func runRender(cmd *cobra.Command, args []string) error {
	e, err := setup(cmd.Context(), "")
	if err != nil {
		return err
	}
	defer e.close()

	d, err := renderDomain(e, args)
	if err != nil {
		return err
	}
	cyc, err := e.scheme(renderScheme)
	if err != nil {
		return err
	}

	out, format, err := renderTarget(cmd.OutOrStdout())
	if err != nil {
		return err
	}

	start := time.Now()
	m, err := e.eval.Evaluate(cmd.Context(), d)
	if err != nil {
		return fmt.Errorf("evaluate: %w", err)
	}
	evaluated := time.Since(start)

	img := palette.Paint(m, cyc.Current().Color)
	if renderThumbnail > 0 {
		img = export.Fit(img, renderThumbnail, renderThumbnail)
	}
	if renderAnnotate {
		export.Annotate(img, export.Caption(d, view.Precision(d.Region)), color.White)
	}

	if out != nil {
		if err := export.Encode(out, img, format); err != nil {
			return err
		}
	} else if err := export.WriteFile(renderOutput, img); err != nil {
		return err
	}

	e.logger.Info("render finished",
		"region", d.Region.String(),
		"width", d.Resolution.X,
		"height", d.Resolution.Y,
		"max_iter", d.MaxIter,
		"evaluate_ms", evaluated.Milliseconds(),
		"total_ms", time.Since(start).Milliseconds(),
		"output", renderOutput,
	)
	return nil
}

// renderDomain builds the domain from the positional arguments or the flags
// and configuration.
func renderDomain(e *env, args []string) (mandel.Domain, error) {
	if len(args) == 7 {
		return parseDomainArgs(args, e.cfg.Engine.Threshold)
	}
	r, err := e.region(renderRegion)
	if err != nil {
		return mandel.Domain{}, err
	}
	d := e.cfg.Domain(r)
	if renderWidth > 0 {
		d.Resolution.X = renderWidth
	}
	if renderHeight > 0 {
		d.Resolution.Y = renderHeight
	}
	if renderIterations > 0 {
		d.MaxIter = renderIterations
	}
	return d, d.Validate()
}

// parseDomainArgs reads x0 x1 y0 y1 max_iters resx resy.
func parseDomainArgs(args []string, threshold float64) (mandel.Domain, error) {
	var bounds [4]float64
	for i := range bounds {
		f, err := strconv.ParseFloat(args[i], 64)
		if err != nil {
			return mandel.Domain{}, fmt.Errorf("argument %d (%q): %w", i+1, args[i], err)
		}
		bounds[i] = f
	}
	var ints [3]int
	for i := range ints {
		n, err := strconv.Atoi(args[4+i])
		if err != nil {
			return mandel.Domain{}, fmt.Errorf("argument %d (%q): %w", 5+i, args[4+i], err)
		}
		ints[i] = n
	}
	d := mandel.Domain{
		Region:     mandel.Region{Xmin: bounds[0], Xmax: bounds[1], Ymin: bounds[2], Ymax: bounds[3]},
		Resolution: mandel.Resolution{X: ints[1], Y: ints[2]},
		Threshold:  threshold,
		MaxIter:    ints[0],
	}
	return d, d.Validate()
}

// renderTarget returns the writer for -o - and the format to use, or a nil
// writer when the image goes to renderOutput.
func renderTarget(stdout io.Writer) (io.Writer, export.Format, error) {
	if renderOutput != "-" {
		_, err := export.FormatFromPath(renderOutput)
		return nil, "", err
	}
	f, err := export.FormatFromPath("stdout." + renderFormat)
	if err != nil {
		return nil, "", err
	}
	if file, ok := stdout.(*os.File); ok && term.IsTerminal(int(file.Fd())) {
		return nil, "", errors.New("refusing to write a binary image to a terminal; redirect stdout or use -o FILE")
	}
	return stdout, f, nil
}
