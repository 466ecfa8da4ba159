// Package captcha renders short alphanumeric challenges into noisy PNG images.
package captcha

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math/rand/v2"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"foodinsight/pkg/utils"
)

const (
	Width      = 150
	Height     = 50
	CodeLength = 5
	Alphabet   = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	glyphScale = 2
	noiseLines = 5
)

// Challenge is one issued CAPTCHA: the expected answer and its rendering.
type Challenge struct {
	Code string
	PNG  []byte
}

func (c Challenge) DataURI() string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(c.PNG)
}

type Generator struct{}

func NewGenerator() *Generator { return &Generator{} }

func (g *Generator) Generate() (Challenge, error) {
	code, err := utils.RandomString(Alphabet, CodeLength)
	if err != nil {
		return Challenge{}, fmt.Errorf("captcha code: %w", err)
	}
	img, err := g.Render(code)
	if err != nil {
		return Challenge{}, err
	}
	return Challenge{Code: code, PNG: img}, nil
}

// Render draws code on a white canvas: glyph i sits near x = 20 + 25*i with +-5px jitter on both
// axes, in a random dark colour, under five light-grey noise lines.
func (g *Generator) Render(code string) ([]byte, error) {
	canvas := image.NewRGBA(image.Rect(0, 0, Width, Height))
	draw.Draw(canvas, canvas.Bounds(), image.White, image.Point{}, draw.Src)

	face := basicfont.Face7x13
	for i, ch := range code {
		x := 20 + i*25 + jitter(5)
		y := 10 + jitter(5)
		col := color.RGBA{R: uint8(rand.IntN(101)), G: uint8(rand.IntN(101)), B: uint8(rand.IntN(101)), A: 255}

		glyph := image.NewRGBA(image.Rect(0, 0, face.Width, face.Height))
		d := &font.Drawer{
			Dst:  glyph,
			Src:  image.NewUniform(col),
			Face: face,
			Dot:  fixed.P(0, face.Ascent),
		}
		d.DrawString(string(ch))

		dst := image.Rect(x, y, x+face.Width*glyphScale, y+face.Height*glyphScale)
		draw.NearestNeighbor.Scale(canvas, dst, glyph, glyph.Bounds(), draw.Over, nil)
	}

	grey := color.RGBA{R: 200, G: 200, B: 200, A: 255}
	for i := 0; i < noiseLines; i++ {
		line(canvas, rand.IntN(Width+1), rand.IntN(Height+1), rand.IntN(Width+1), rand.IntN(Height+1), grey)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, canvas); err != nil {
		return nil, fmt.Errorf("encode captcha: %w", err)
	}
	return buf.Bytes(), nil
}

func jitter(n int) int {
	return rand.IntN(2*n+1) - n
}

// line is Bresenham's algorithm; points outside the canvas are ignored by Set.
func line(img *image.RGBA, x0, y0, x1, y1 int, c color.Color) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	e := dx + dy
	for {
		img.Set(x0, y0, c)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
