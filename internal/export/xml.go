package export

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/piwi3910/AtlasPack/internal/model"
)

// ErrNoEntries is returned when there is nothing to export.
var ErrNoEntries = errors.New("nothing to export")

// ToolComments precede the SubTexture entries of every written atlas.
var ToolComments = []string{
	" Created using AtlasPack ",
	" https://github.com/piwi3910/AtlasPack ",
}

// XMLOptions tweaks WriteXML.
type XMLOptions struct {
	OmitComments bool
}

// WriteXML writes atlas as Sparrow / Starling TextureAtlas XML. Entries are
// written in slice order; names are written as given.
func WriteXML(w io.Writer, atlas model.TextureAtlas, opts XMLOptions) error {
	if _, err := io.WriteString(w, `<?xml version="1.0" encoding="utf-8"?>`+"\n"); err != nil {
		return fmt.Errorf("writing xml declaration: %w", err)
	}

	enc := xml.NewEncoder(w)
	enc.Indent("", "\t")

	root := xml.StartElement{
		Name: xml.Name{Local: "TextureAtlas"},
		Attr: []xml.Attr{{Name: xml.Name{Local: "imagePath"}, Value: atlas.ImagePath}},
	}
	if err := enc.EncodeToken(root); err != nil {
		return fmt.Errorf("writing TextureAtlas: %w", err)
	}
	if !opts.OmitComments {
		// The encoder neither indents comments nor writes raw tabs, so the
		// comments go straight to w between flushes.
		if err := enc.Flush(); err != nil {
			return err
		}
		for _, c := range ToolComments {
			if _, err := fmt.Fprintf(w, "\n\t<!--%s-->", c); err != nil {
				return fmt.Errorf("writing comment: %w", err)
			}
		}
	}
	for _, st := range atlas.SubTextures {
		if err := enc.EncodeElement(struct{}{}, subTextureStart(st)); err != nil {
			return fmt.Errorf("writing SubTexture %q: %w", st.Name, err)
		}
	}
	if err := enc.EncodeToken(root.End()); err != nil {
		return fmt.Errorf("closing TextureAtlas: %w", err)
	}
	if err := enc.Flush(); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

func subTextureStart(st model.SubTexture) xml.StartElement {
	attr := func(name string, v int) xml.Attr {
		return xml.Attr{Name: xml.Name{Local: name}, Value: strconv.Itoa(v)}
	}
	attrs := []xml.Attr{
		{Name: xml.Name{Local: "name"}, Value: st.Name},
		attr("x", st.X),
		attr("y", st.Y),
		attr("width", st.Width),
		attr("height", st.Height),
	}
	if st.FrameX != nil {
		attrs = append(attrs, attr("frameX", *st.FrameX))
	}
	if st.FrameY != nil {
		attrs = append(attrs, attr("frameY", *st.FrameY))
	}
	if st.FrameWidth != nil {
		attrs = append(attrs, attr("frameWidth", *st.FrameWidth))
	}
	if st.FrameHeight != nil {
		attrs = append(attrs, attr("frameHeight", *st.FrameHeight))
	}
	return xml.StartElement{Name: xml.Name{Local: "SubTexture"}, Attr: attrs}
}

type xmlAtlas struct {
	XMLName     xml.Name        `xml:"TextureAtlas"`
	ImagePath   string          `xml:"imagePath,attr"`
	SubTextures []xmlSubTexture `xml:"SubTexture"`
}

type xmlSubTexture struct {
	Name        string `xml:"name,attr"`
	X           int    `xml:"x,attr"`
	Y           int    `xml:"y,attr"`
	Width       int    `xml:"width,attr"`
	Height      int    `xml:"height,attr"`
	FrameX      *int   `xml:"frameX,attr"`
	FrameY      *int   `xml:"frameY,attr"`
	FrameWidth  *int   `xml:"frameWidth,attr"`
	FrameHeight *int   `xml:"frameHeight,attr"`
}

// ParseXML reads a TextureAtlas document. Unknown attributes such as
// flipX and flipY are ignored. Entry order is preserved.
func ParseXML(r io.Reader) (model.TextureAtlas, error) {
	var doc xmlAtlas
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return model.TextureAtlas{}, fmt.Errorf("parsing texture atlas: %w", err)
	}

	atlas := model.TextureAtlas{
		ImagePath:   doc.ImagePath,
		SubTextures: make([]model.SubTexture, 0, len(doc.SubTextures)),
	}
	for _, st := range doc.SubTextures {
		atlas.SubTextures = append(atlas.SubTextures, model.SubTexture{
			Name:        st.Name,
			X:           st.X,
			Y:           st.Y,
			Width:       st.Width,
			Height:      st.Height,
			FrameX:      st.FrameX,
			FrameY:      st.FrameY,
			FrameWidth:  st.FrameWidth,
			FrameHeight: st.FrameHeight,
		})
		atlas.Width = max(atlas.Width, st.X+st.Width)
		atlas.Height = max(atlas.Height, st.Y+st.Height)
	}
	return atlas, nil
}
