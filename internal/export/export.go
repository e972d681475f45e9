// Package export writes rendered images to disk in the format implied by the
// file extension and provides scaling and caption helpers.
package export

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/tiff"

	mandel "github.com/marben/mandelview"
)

// Format is an image encoding.
type Format string

const (
	PNG  Format = "png"
	BMP  Format = "bmp"
	TIFF Format = "tiff"
	JPEG Format = "jpeg"
)

// FormatFromPath picks the encoding from the extension of path.
func FormatFromPath(path string) (Format, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".png":
		return PNG, nil
	case ".bmp":
		return BMP, nil
	case ".tif", ".tiff":
		return TIFF, nil
	case ".jpg", ".jpeg":
		return JPEG, nil
	default:
		return "", fmt.Errorf("unsupported image extension %q (want .png, .bmp, .tiff or .jpg)", ext)
	}
}

// Encode writes img to w in format f.
func Encode(w io.Writer, img image.Image, f Format) error {
	var err error
	switch f {
	case PNG:
		err = png.Encode(w, img)
	case BMP:
		err = bmp.Encode(w, img)
	case TIFF:
		err = tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	case JPEG:
		err = jpeg.Encode(w, img, &jpeg.Options{Quality: 95})
	default:
		return fmt.Errorf("unsupported format %q", f)
	}
	if err != nil {
		return fmt.Errorf("encode %s: %w", f, err)
	}
	return nil
}

// WriteFile encodes img to path, choosing the format from the extension.
func WriteFile(path string, img image.Image) error {
	f, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create image: %w", err)
	}
	if err := Encode(out, img, f); err != nil {
		_ = out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close image: %w", err)
	}
	return nil
}

// Fit scales img down to fit within maxW x maxH, keeping its aspect ratio.
// Images that already fit are copied unchanged.
func Fit(img image.Image, maxW, maxH int) *image.RGBA {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	scale := min(1, float64(maxW)/float64(w), float64(maxH)/float64(h))
	dw := max(1, int(float64(w)*scale))
	dh := max(1, int(float64(h)*scale))

	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
	if dw == w && dh == h {
		draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
		return dst
	}
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

// Caption returns the status lines shown under a view: the bounds of the
// region with prec decimals and the iteration cap.
func Caption(d mandel.Domain, prec int) []string {
	r := d.Region
	return []string{
		fmt.Sprintf("x (%.*f, %.*f), y (%.*f, %.*f)", prec, r.Xmin, prec, r.Xmax, prec, r.Ymin, prec, r.Ymax),
		fmt.Sprintf("Max iters: %d", d.MaxIter),
	}
}

// Annotate draws lines of text in the bottom-left corner of img.
func Annotate(img draw.Image, lines []string, c color.Color) {
	face := basicfont.Face7x13
	lineHeight := face.Metrics().Height.Ceil()
	b := img.Bounds()

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: face,
	}
	y := b.Max.Y - 4 - (len(lines)-1)*lineHeight
	for _, line := range lines {
		d.Dot = fixed.P(b.Min.X+4, y)
		d.DrawString(line)
		y += lineHeight
	}
}
