package capture

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// overlayMargin is the padding around the timestamp strip, in pixels.
const overlayMargin = 4

// bakeOverlay composites the live frame onto an off-screen raster and draws
// the timestamp string directly into the pixel data, then PNG-encodes the
// result. The stamp lives in the image itself, not in metadata, so the
// artifact stays self-describing across re-encoding and transport.
func bakeOverlay(src image.Image, stamp string) ([]byte, error) {
	bounds := src.Bounds()
	dst := image.NewRGBA(bounds)
	draw.Draw(dst, bounds, src, bounds.Min, draw.Src)

	face := basicfont.Face7x13
	metrics := face.Metrics()
	textWidth := font.MeasureString(face, stamp).Ceil()
	textHeight := metrics.Ascent.Ceil() + metrics.Descent.Ceil()

	// Dark backing strip in the bottom-left corner keeps the stamp legible
	// over arbitrary frame content.
	strip := image.Rect(
		bounds.Min.X,
		bounds.Max.Y-textHeight-2*overlayMargin,
		bounds.Min.X+textWidth+2*overlayMargin,
		bounds.Max.Y,
	).Intersect(bounds)
	draw.Draw(dst, strip, image.NewUniform(color.RGBA{A: 200}), image.Point{}, draw.Over)

	drawer := &font.Drawer{
		Dst:  dst,
		Src:  image.White,
		Face: face,
		Dot: fixed.P(
			bounds.Min.X+overlayMargin,
			bounds.Max.Y-overlayMargin-metrics.Descent.Ceil(),
		),
	}
	drawer.DrawString(stamp)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("capture: encode frame: %w", err)
	}
	return buf.Bytes(), nil
}
