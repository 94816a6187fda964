// Package export writes packed atlases out: TextureAtlas XML, TexturePacker
// JSON, zip bundles, a PDF layout preview and PDF reference cards.
package export

import (
	"bytes"
	"fmt"
	"io"
	"math"

	"github.com/go-pdf/fpdf"
	"github.com/piwi3910/AtlasPack/internal/model"
)

// frameColor represents an RGB outline color for a frame.
type frameColor struct {
	R, G, B int
}

var frameColors = []frameColor{
	{R: 76, G: 175, B: 80},  // green
	{R: 33, G: 150, B: 243}, // blue
	{R: 255, G: 152, B: 0},  // orange
	{R: 156, G: 39, B: 176}, // purple
	{R: 0, G: 188, B: 212},  // cyan
	{R: 244, G: 67, B: 54},  // red
	{R: 255, G: 235, B: 59}, // yellow
	{R: 121, G: 85, B: 72},  // brown
}

// Page layout constants (A4 landscape in mm).
const (
	pageWidth    = 297.0
	pageHeight   = 210.0
	marginLeft   = 15.0
	marginRight  = 15.0
	marginTop    = 15.0
	marginBottom = 15.0
	headerHeight = 12.0
	drawAreaTop  = marginTop + headerHeight + 5.0
)

// ExportPDF writes a preview of the packed sheet: the sheet image with
// every packed rectangle outlined, followed by a legend page listing each
// SubTexture.
func ExportPDF(w io.Writer, sheetPNG []byte, atlas model.TextureAtlas) error {
	if len(atlas.SubTextures) == 0 {
		return fmt.Errorf("%w: atlas has no frames", ErrNoEntries)
	}
	if atlas.Width <= 0 || atlas.Height <= 0 {
		return fmt.Errorf("atlas has no size (%dx%d)", atlas.Width, atlas.Height)
	}

	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, marginBottom)

	pdf.AddPage()
	renderSheetPage(pdf, sheetPNG, atlas)

	pdf.AddPage()
	renderLegendPage(pdf, atlas)

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("writing pdf: %w", err)
	}
	return nil
}

// renderSheetPage draws the sheet image scaled into the page with outlines.
func renderSheetPage(pdf *fpdf.Fpdf, sheetPNG []byte, atlas model.TextureAtlas) {
	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetXY(marginLeft, marginTop)
	title := fmt.Sprintf("%s (%d x %d px)", atlas.ImagePath, atlas.Width, atlas.Height)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, headerHeight, title, "", 0, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetXY(marginLeft, marginTop+headerHeight)
	stats := fmt.Sprintf("Frames: %d | Unique rectangles: %d | Efficiency: %.1f%%",
		len(atlas.SubTextures), len(uniqueRects(atlas)), atlasEfficiency(atlas))
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 5, stats, "", 0, "L", false, 0, "")

	drawWidth := pageWidth - marginLeft - marginRight
	drawHeight := pageHeight - drawAreaTop - marginBottom

	scale := math.Min(drawWidth/float64(atlas.Width), drawHeight/float64(atlas.Height))
	canvasW := float64(atlas.Width) * scale
	canvasH := float64(atlas.Height) * scale
	offsetX := marginLeft + (drawWidth-canvasW)/2
	offsetY := drawAreaTop

	// Backdrop behind transparent pixels.
	pdf.SetFillColor(235, 235, 235)
	pdf.SetDrawColor(100, 100, 100)
	pdf.SetLineWidth(0.3)
	pdf.Rect(offsetX, offsetY, canvasW, canvasH, "FD")

	if len(sheetPNG) > 0 {
		opts := fpdf.ImageOptions{ImageType: "PNG"}
		pdf.RegisterImageOptionsReader("sheet", opts, bytes.NewReader(sheetPNG))
		pdf.ImageOptions("sheet", offsetX, offsetY, canvasW, canvasH, false, opts, 0, "")
	}

	for i, r := range uniqueRects(atlas) {
		col := frameColors[i%len(frameColors)]
		pdf.SetDrawColor(col.R, col.G, col.B)
		pdf.SetLineWidth(0.2)
		pdf.Rect(offsetX+float64(r.X)*scale, offsetY+float64(r.Y)*scale,
			float64(r.Width)*scale, float64(r.Height)*scale, "D")
	}
	pdf.SetDrawColor(0, 0, 0)
}

// renderLegendPage lists every SubTexture in a table, paging as needed.
func renderLegendPage(pdf *fpdf.Fpdf, atlas model.TextureAtlas) {
	colWidths := []float64{70, 25, 25, 25, 25, 25, 25, 25, 22}
	headers := []string{"Name", "X", "Y", "Width", "Height", "Frame X", "Frame Y", "Frame W", "Frame H"}

	header := func(y float64) float64 {
		pdf.SetFont("Helvetica", "B", 16)
		pdf.SetXY(marginLeft, marginTop)
		pdf.CellFormat(pageWidth-marginLeft-marginRight, 10, "Frame Legend", "", 0, "L", false, 0, "")

		pdf.SetFont("Helvetica", "B", 9)
		pdf.SetFillColor(230, 230, 230)
		x := marginLeft
		for i, h := range headers {
			pdf.SetXY(x, y)
			pdf.CellFormat(colWidths[i], 6, h, "1", 0, "C", true, 0, "")
			x += colWidths[i]
		}
		return y + 6
	}

	y := header(marginTop + 14)
	pdf.SetFont("Helvetica", "", 9)
	for i, st := range atlas.SubTextures {
		if y+6 > pageHeight-marginBottom {
			pdf.AddPage()
			y = header(marginTop + 14)
			pdf.SetFont("Helvetica", "", 9)
		}

		row := []string{
			st.Name,
			fmt.Sprintf("%d", st.X),
			fmt.Sprintf("%d", st.Y),
			fmt.Sprintf("%d", st.Width),
			fmt.Sprintf("%d", st.Height),
			optInt(st.FrameX),
			optInt(st.FrameY),
			optInt(st.FrameWidth),
			optInt(st.FrameHeight),
		}

		if i%2 == 0 {
			pdf.SetFillColor(245, 245, 245)
		} else {
			pdf.SetFillColor(255, 255, 255)
		}
		x := marginLeft
		for j, cell := range row {
			pdf.SetXY(x, y)
			align := "C"
			if j == 0 {
				align = "L"
			}
			pdf.CellFormat(colWidths[j], 6, cell, "1", 0, align, true, 0, "")
			x += colWidths[j]
		}
		y += 6
	}

	pdf.SetFont("Helvetica", "I", 8)
	pdf.SetTextColor(120, 120, 120)
	pdf.SetXY(marginLeft, pageHeight-marginBottom)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 4, "Generated by AtlasPack", "", 0, "C", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
}

func optInt(v *int) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *v)
}

type packedRect struct {
	X, Y, Width, Height int
}

// uniqueRects returns the distinct packed rectangles in first-seen order.
// Deduplicated frames share one rectangle.
func uniqueRects(atlas model.TextureAtlas) []packedRect {
	seen := make(map[packedRect]bool)
	var out []packedRect
	for _, st := range atlas.SubTextures {
		r := packedRect{st.X, st.Y, st.Width, st.Height}
		if !seen[r] {
			seen[r] = true
			out = append(out, r)
		}
	}
	return out
}

func atlasEfficiency(atlas model.TextureAtlas) float64 {
	total := atlas.Width * atlas.Height
	if total == 0 {
		return 0
	}
	used := 0
	for _, r := range uniqueRects(atlas) {
		used += r.Width * r.Height
	}
	return float64(used) / float64(total) * 100.0
}
