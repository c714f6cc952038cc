package canvas

import (
	"bytes"
	"fmt"
	"image/color"

	"github.com/fogleman/gg"
	"github.com/google/uuid"
	"golang.org/x/image/font/basicfont"
)

const (
	boxWidth  = 300.0
	boxHeight = 80.0

	DefaultImageWidth = 1600
	maxImageSide      = 8000
)

var (
	bgColor       = color.RGBA{R: 0xfa, G: 0xfa, B: 0xfc, A: 0xff}
	edgeColor     = color.RGBA{R: 0x9c, G: 0xa3, B: 0xaf, A: 0xff}
	boxColor      = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	rootColor     = color.RGBA{R: 0x4f, G: 0x46, B: 0xe5, A: 0xff}
	selectedColor = color.RGBA{R: 0xf5, G: 0x9e, B: 0x0b, A: 0xff}
	borderColor   = color.RGBA{R: 0x37, G: 0x41, B: 0x51, A: 0xff}
)

// RenderPNG draws g scaled to width pixels.
func RenderPNG(g Graph, width int) ([]byte, error) {
	if width <= 0 {
		width = DefaultImageWidth
	}
	if width > maxImageSide {
		width = maxImageSide
	}
	if len(g.Nodes) == 0 {
		return nil, fmt.Errorf("render mind map: no visible nodes")
	}
	b := g.Bounds
	// Node coordinates are centres, so make room for whole boxes.
	b.MinX -= boxWidth / 2
	b.MaxX += boxWidth / 2
	b.MinY -= boxHeight / 2
	b.MaxY += boxHeight / 2
	if b.Width() <= 0 || b.Height() <= 0 {
		return nil, fmt.Errorf("render mind map: empty bounds")
	}
	scale := float64(width) / b.Width()
	height := int(b.Height() * scale)
	if height > maxImageSide {
		scale = float64(maxImageSide) / b.Height()
		height = maxImageSide
		width = int(b.Width() * scale)
	}
	if height < 1 {
		height = 1
	}

	dc := gg.NewContext(width, height)
	dc.SetColor(bgColor)
	dc.Clear()
	dc.Scale(scale, scale)
	dc.Translate(-b.MinX, -b.MinY)

	at := make(map[uuid.UUID]Node, len(g.Nodes))
	for _, n := range g.Nodes {
		at[n.ID] = n
	}
	dc.SetColor(edgeColor)
	dc.SetLineWidth(3)
	for _, e := range g.Edges {
		src, ok1 := at[e.Source]
		dst, ok2 := at[e.Target]
		if !ok1 || !ok2 {
			continue
		}
		dc.DrawLine(src.X, src.Y+boxHeight/2, dst.X, dst.Y-boxHeight/2)
		dc.Stroke()
	}

	face := basicfont.Face7x13
	dc.SetFontFace(face)
	maxChars := int(boxWidth/float64(face.Advance)) - 2
	for _, n := range g.Nodes {
		x, y := n.X-boxWidth/2, n.Y-boxHeight/2
		dc.DrawRoundedRectangle(x, y, boxWidth, boxHeight, 12)
		switch {
		case n.Selected:
			dc.SetColor(selectedColor)
		case n.Level == 0:
			dc.SetColor(rootColor)
		default:
			dc.SetColor(boxColor)
		}
		dc.FillPreserve()
		dc.SetColor(borderColor)
		dc.SetLineWidth(2)
		dc.Stroke()

		if n.Level == 0 || n.Selected {
			dc.SetColor(color.White)
		} else {
			dc.SetColor(borderColor)
		}
		dc.DrawStringAnchored(ellipsize(n.Label, maxChars), n.X, n.Y, 0.5, 0.5)
		if n.HasChildren && !n.Expanded {
			dc.DrawStringAnchored("+", x+boxWidth-14, y+boxHeight-12, 0.5, 0.5)
		}
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func ellipsize(s string, n int) string {
	r := []rune(s)
	if n <= 3 || len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
