package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"
	"github.com/piwi3910/AtlasPack/internal/model"
	qrcode "github.com/skip2/go-qrcode"
)

// CardInfo holds the data encoded into each reference card's QR code.
type CardInfo struct {
	Name        string `json:"name"`
	Image       string `json:"image"`
	X           int    `json:"x"`
	Y           int    `json:"y"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	FrameX      *int   `json:"frame_x,omitempty"`
	FrameY      *int   `json:"frame_y,omitempty"`
	FrameWidth  *int   `json:"frame_width,omitempty"`
	FrameHeight *int   `json:"frame_height,omitempty"`
}

// Card layout constants for Avery 5160-compatible labels (3 columns, 10 rows per page).
const (
	cardMarginTop  = 12.7 // mm
	cardMarginLeft = 4.8  // mm
	cardWidth      = 66.7 // mm per card
	cardHeight     = 25.4 // mm per card
	cardCols       = 3
	cardRows       = 10
	cardsPerPage   = cardCols * cardRows
	qrSize         = 20.0 // QR code size in mm
	cardPadding    = 2.0  // mm internal padding
)

// ExportLabels writes one reference card per SubTexture. Each card shows
// the frame name, its packed rectangle and a QR code holding the entry as
// JSON, so artists can scan a printed sheet back to the frame record.
func ExportLabels(w io.Writer, atlas model.TextureAtlas) error {
	cards := CollectCardInfos(atlas)
	if len(cards) == 0 {
		return fmt.Errorf("%w: no frames to generate cards for", ErrNoEntries)
	}

	pdf := fpdf.New("P", "mm", "Letter", "")
	pdf.SetAutoPageBreak(false, 0)

	for i, card := range cards {
		if i%cardsPerPage == 0 {
			pdf.AddPage()
		}

		posOnPage := i % cardsPerPage
		col := posOnPage % cardCols
		row := posOnPage / cardCols

		x := cardMarginLeft + float64(col)*cardWidth
		y := cardMarginTop + float64(row)*cardHeight

		if err := renderCard(pdf, x, y, i, card); err != nil {
			return fmt.Errorf("failed to render card for %q: %w", card.Name, err)
		}
	}

	return pdf.Output(w)
}

func renderCard(pdf *fpdf.Fpdf, x, y float64, idx int, info CardInfo) error {
	pdf.SetDrawColor(200, 200, 200)
	pdf.SetLineWidth(0.1)
	pdf.Rect(x, y, cardWidth, cardHeight, "D")

	qrData, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("failed to marshal card info: %w", err)
	}

	qrPNG, err := qrcode.Encode(string(qrData), qrcode.Medium, 256)
	if err != nil {
		return fmt.Errorf("failed to generate QR code: %w", err)
	}

	imgName := fmt.Sprintf("qr_%d", idx)
	pdf.RegisterImageOptionsReader(imgName, fpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(qrPNG))

	qrX := x + cardWidth - qrSize - cardPadding
	qrY := y + (cardHeight-qrSize)/2
	pdf.ImageOptions(imgName, qrX, qrY, qrSize, qrSize, false, fpdf.ImageOptions{ImageType: "PNG"}, 0, "")

	textX := x + cardPadding
	textW := cardWidth - qrSize - 3*cardPadding

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(textX, y+cardPadding)

	name := info.Name
	if pdf.GetStringWidth(name) > textW {
		for len(name) > 0 && pdf.GetStringWidth(name+"...") > textW {
			name = name[:len(name)-1]
		}
		name += "..."
	}
	pdf.CellFormat(textW, 4.5, name, "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 7)
	pdf.SetXY(textX, y+cardPadding+5)
	dims := fmt.Sprintf("%d x %d px @ (%d, %d)", info.Width, info.Height, info.X, info.Y)
	pdf.CellFormat(textW, 3.5, dims, "", 1, "L", false, 0, "")

	if info.FrameX != nil && info.FrameY != nil && info.FrameWidth != nil && info.FrameHeight != nil {
		pdf.SetFont("Helvetica", "", 6)
		pdf.SetTextColor(100, 100, 100)
		pdf.SetXY(textX, y+cardPadding+9)
		frame := fmt.Sprintf("Frame %d,%d %dx%d", *info.FrameX, *info.FrameY, *info.FrameWidth, *info.FrameHeight)
		pdf.CellFormat(textW, 3, frame, "", 1, "L", false, 0, "")
	}

	pdf.SetTextColor(0, 0, 0)
	return nil
}

// CollectCardInfos extracts card information from an atlas in entry order.
func CollectCardInfos(atlas model.TextureAtlas) []CardInfo {
	cards := make([]CardInfo, 0, len(atlas.SubTextures))
	for _, st := range atlas.SubTextures {
		cards = append(cards, CardInfo{
			Name:        st.Name,
			Image:       atlas.ImagePath,
			X:           st.X,
			Y:           st.Y,
			Width:       st.Width,
			Height:      st.Height,
			FrameX:      st.FrameX,
			FrameY:      st.FrameY,
			FrameWidth:  st.FrameWidth,
			FrameHeight: st.FrameHeight,
		})
	}
	return cards
}
