package documents

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strings"
	"unicode"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/markjakearzadon/donation-gobackend/internal/models"
)

const (
	canvasWidth  = 300
	canvasHeight = 180
	scale        = 3
	lineHeight   = 18
)

var (
	paper  = color.RGBA{250, 247, 238, 255}
	ink    = color.RGBA{33, 37, 41, 255}
	accent = color.RGBA{25, 111, 61, 255}
)

// RenderCertificate draws the certificate as a PNG. The bitmap face only
// covers ASCII, so other scripts are replaced in the drawn donor line; the
// stored certificate keeps the original name.
func RenderCertificate(c *models.Certificate) ([]byte, error) {
	small := image.NewRGBA(image.Rect(0, 0, canvasWidth, canvasHeight))
	draw.Draw(small, small.Bounds(), image.NewUniform(paper), image.Point{}, draw.Src)
	frame(small, accent)

	y := 28
	centered(small, y, "CERTIFICATE OF DONATION", accent)
	y += lineHeight + 6
	lines := []string{
		"No. " + c.CertificateNumber,
		"Donor: " + printable(c.DonorName, "Valued donor"),
		"Amount: " + c.Amount.StringFixed(2),
		"Type: " + c.Type,
		"Date: " + c.CreatedAt.UTC().Format("2006-01-02"),
	}
	for _, line := range lines {
		drawString(small, 16, y, line, ink)
		y += lineHeight
	}
	centered(small, canvasHeight-14, "Thank you for your generosity", accent)

	big := image.NewRGBA(image.Rect(0, 0, canvasWidth*scale, canvasHeight*scale))
	draw.NearestNeighbor.Scale(big, big.Bounds(), small, small.Bounds(), draw.Src, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, big); err != nil {
		return nil, fmt.Errorf("failed to encode certificate: %w", err)
	}
	return buf.Bytes(), nil
}

func frame(img *image.RGBA, col color.Color) {
	b := img.Bounds()
	for x := b.Min.X + 4; x < b.Max.X-4; x++ {
		img.Set(x, 4, col)
		img.Set(x, b.Max.Y-5, col)
	}
	for y := b.Min.Y + 4; y < b.Max.Y-4; y++ {
		img.Set(4, y, col)
		img.Set(b.Max.X-5, y, col)
	}
}

func centered(img *image.RGBA, y int, text string, col color.Color) {
	width := font.MeasureString(basicfont.Face7x13, text).Ceil()
	drawString(img, (img.Bounds().Dx()-width)/2, y, text, col)
}

func drawString(img *image.RGBA, x, y int, text string, col color.Color) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: basicfont.Face7x13,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)},
	}
	d.DrawString(text)
}

// printable keeps the runes the bitmap face can draw.
func printable(s, fallback string) string {
	var b strings.Builder
	for _, r := range s {
		if r < unicode.MaxASCII && unicode.IsPrint(r) {
			b.WriteRune(r)
		}
	}
	out := strings.TrimSpace(b.String())
	if out == "" {
		return fallback
	}
	return out
}
