package compose

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"math"

	"github.com/fogleman/gg"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

const (
	// CanvasSize is the square post dimension in pixels.
	CanvasSize = 1080

	headlineBandFraction = 0.30
	separatorThickness   = 6.0

	headlineMarginX = 64.0
	headlineMarginY = 36.0

	maxHeadlineFontSize = 72.0
	minHeadlineFontSize = 30.0
	fontSizeStep        = 2.0

	logoHeight    = 80
	edgeMargin    = 40.0
	brandFontSize = 30.0
	shadowOffset  = 2.0

	backgroundColor = "#101826"
	separatorColor  = "#e8b923"
	highlightColor  = "#e8b923"
	headlineColor   = "#ffffff"
	brandColor      = "#ffffff"
	shadowColor     = "#000000"
)

// Composer assembles post images. Logo and overlay are decoded once at
// construction; Compose itself performs no I/O.
type Composer struct {
	logo      image.Image
	overlay   image.Image
	brandText string
	headline  *opentype.Font
	brand     font.Face
}

// NewComposer fails fast when the branding images are missing so the
// pipeline never reaches drawing with unusable inputs.
func NewComposer(logo, overlay image.Image, brandText string) (*Composer, error) {
	if logo == nil {
		return nil, errors.New("logo image required")
	}
	if overlay == nil {
		return nil, errors.New("overlay image required")
	}
	headlineFont, err := opentype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse headline font: %w", err)
	}
	brandFont, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse brand font: %w", err)
	}
	brandFace, err := opentype.NewFace(brandFont, &opentype.FaceOptions{
		Size: brandFontSize, DPI: 72, Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("build brand face: %w", err)
	}
	return &Composer{
		logo:      logo,
		overlay:   overlay,
		brandText: brandText,
		headline:  headlineFont,
		brand:     brandFace,
	}, nil
}

// Compose renders the full canvas and returns it PNG-encoded.
func (c *Composer) Compose(src image.Image, headline string, highlights []string) ([]byte, error) {
	if src == nil {
		return nil, errors.New("source image required")
	}

	dc := gg.NewContext(CanvasSize, CanvasSize)
	dc.SetHexColor(backgroundColor)
	dc.Clear()

	bandTop := int(math.Round(CanvasSize * headlineBandFraction))
	photo := coverFit(src, CanvasSize, CanvasSize-bandTop)
	dc.DrawImage(photo, 0, bandTop)

	// separator bar at the band boundary
	dc.SetHexColor(separatorColor)
	dc.DrawRectangle(0, float64(bandTop)-separatorThickness/2, CanvasSize, separatorThickness)
	dc.Fill()

	if err := c.drawHeadline(dc, headline, highlights, float64(bandTop)); err != nil {
		return nil, err
	}

	c.drawOverlay(dc)
	c.drawLogo(dc)
	c.drawBrandText(dc)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dc.Image()); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// drawHeadline shrinks the font until the wrapped block fits the band,
// then paints highlight rectangles under the matching substrings before
// the glyphs.
func (c *Composer) drawHeadline(dc *gg.Context, headline string, highlights []string, bandHeight float64) error {
	maxWidth := CanvasSize - 2*headlineMarginX
	maxHeight := bandHeight - 2*headlineMarginY

	fontSize, lines, err := c.fitHeadline(dc, headline, maxWidth, maxHeight)
	if err != nil {
		return err
	}
	lh := LineHeight(fontSize)
	blockHeight := float64(len(lines)) * lh
	blockTop := (bandHeight - blockHeight) / 2
	if blockTop < headlineMarginY {
		blockTop = headlineMarginY
	}

	m := ggMeasurer{dc}
	lineX := make([]float64, len(lines))
	for i, line := range lines {
		lineX[i] = (CanvasSize - m.MeasureString(line)) / 2
	}

	dc.SetHexColor(highlightColor)
	for _, span := range FindHighlights(m, lines, highlights) {
		lineTop := blockTop + float64(span.Line)*lh
		y := lineTop + lh*(1-highlightBandFraction)
		dc.DrawRectangle(lineX[span.Line]+span.X, y, span.Width, lh*highlightBandFraction)
		dc.Fill()
	}

	dc.SetHexColor(headlineColor)
	for i, line := range lines {
		baseline := blockTop + float64(i)*lh + fontSize
		dc.DrawString(line, lineX[i], baseline)
	}
	return nil
}

// fitHeadline walks font sizes downward until the wrapped block fits the
// vertical budget. The floor size is accepted even when it still
// overflows. The chosen face is left installed on the context.
func (c *Composer) fitHeadline(dc *gg.Context, headline string, maxWidth, maxHeight float64) (float64, []string, error) {
	var lines []string
	size := maxHeadlineFontSize
	for {
		face, err := opentype.NewFace(c.headline, &opentype.FaceOptions{
			Size: size, DPI: 72, Hinting: font.HintingFull,
		})
		if err != nil {
			return 0, nil, fmt.Errorf("build headline face: %w", err)
		}
		dc.SetFontFace(face)
		lines = WrapLines(ggMeasurer{dc}, headline, maxWidth)
		if float64(len(lines))*LineHeight(size) <= maxHeight || size <= minHeadlineFontSize {
			return size, lines, nil
		}
		size -= fontSizeStep
		if size < minHeadlineFontSize {
			size = minHeadlineFontSize
		}
	}
}

// drawOverlay stretches the overlay texture over the full canvas after the
// content so it acts as a global tint.
func (c *Composer) drawOverlay(dc *gg.Context) {
	dc.DrawImage(stretchTo(c.overlay, CanvasSize, CanvasSize), 0, 0)
}

// drawLogo places the logo bottom-left at a fixed height, aspect preserved.
func (c *Composer) drawLogo(dc *gg.Context) {
	b := c.logo.Bounds()
	w := int(math.Round(float64(b.Dx()) * logoHeight / float64(b.Dy())))
	scaled := stretchTo(c.logo, w, logoHeight)
	dc.DrawImage(scaled, int(edgeMargin), CanvasSize-int(edgeMargin)-logoHeight)
}

// drawBrandText places the brand handle bottom-right with a drop shadow
// for legibility against variable backgrounds.
func (c *Composer) drawBrandText(dc *gg.Context) {
	dc.SetFontFace(c.brand)
	x := float64(CanvasSize) - edgeMargin
	y := float64(CanvasSize) - edgeMargin
	dc.SetHexColor(shadowColor)
	dc.DrawStringAnchored(c.brandText, x+shadowOffset, y+shadowOffset, 1, 0)
	dc.SetHexColor(brandColor)
	dc.DrawStringAnchored(c.brandText, x, y, 1, 0)
}

// ggMeasurer adapts the drawing context to the layout Measurer contract.
type ggMeasurer struct {
	dc *gg.Context
}

func (g ggMeasurer) MeasureString(s string) float64 {
	w, _ := g.dc.MeasureString(s)
	return w
}

// coverFit crops src to the target aspect ratio (center crop on the
// relatively larger axis) and scales it to exactly fill width x height.
func coverFit(src image.Image, width, height int) image.Image {
	crop := coverCropRect(src.Bounds(), width, height)
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, crop, xdraw.Src, nil)
	return dst
}

// coverCropRect picks the centered sub-rectangle of src matching the
// target aspect ratio: relatively wider sources lose width, relatively
// taller sources lose height.
func coverCropRect(sb image.Rectangle, targetW, targetH int) image.Rectangle {
	srcW, srcH := sb.Dx(), sb.Dy()
	srcAspect := float64(srcW) / float64(srcH)
	targetAspect := float64(targetW) / float64(targetH)

	if srcAspect > targetAspect {
		cropW := int(math.Round(float64(srcH) * targetAspect))
		x0 := sb.Min.X + (srcW-cropW)/2
		return image.Rect(x0, sb.Min.Y, x0+cropW, sb.Max.Y)
	}
	cropH := int(math.Round(float64(srcW) / targetAspect))
	y0 := sb.Min.Y + (srcH-cropH)/2
	return image.Rect(sb.Min.X, y0, sb.Max.X, y0+cropH)
}

// stretchTo scales an image to the exact target size, ignoring aspect.
func stretchTo(src image.Image, width, height int) image.Image {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Src, nil)
	return dst
}
