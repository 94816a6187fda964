package export

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/piwi3910/AtlasPack/internal/model"
)

// JSON hash format as read by TexturePacker compatible loaders.

type jsonRect struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

type jsonSize struct {
	W int `json:"w"`
	H int `json:"h"`
}

type jsonFrame struct {
	Frame            jsonRect `json:"frame"`
	Rotated          bool     `json:"rotated"`
	Trimmed          bool     `json:"trimmed"`
	SpriteSourceSize jsonRect `json:"spriteSourceSize"`
	SourceSize       jsonSize `json:"sourceSize"`
}

type jsonMeta struct {
	App    string   `json:"app"`
	Image  string   `json:"image"`
	Format string   `json:"format"`
	Size   jsonSize `json:"size"`
	Scale  string   `json:"scale"`
}

type jsonAtlas struct {
	Frames map[string]jsonFrame `json:"frames"`
	Meta   jsonMeta             `json:"meta"`
}

// WriteJSON writes atlas in the TexturePacker JSON hash format. Frame
// offsets become spriteSourceSize; an entry without offsets is written
// untrimmed with sourceSize equal to its packed size.
func WriteJSON(w io.Writer, atlas model.TextureAtlas) error {
	doc := jsonAtlas{
		Frames: make(map[string]jsonFrame, len(atlas.SubTextures)),
		Meta: jsonMeta{
			App:    "AtlasPack",
			Image:  atlas.ImagePath,
			Format: "RGBA8888",
			Size:   jsonSize{W: atlas.Width, H: atlas.Height},
			Scale:  "1",
		},
	}

	for _, st := range atlas.SubTextures {
		f := jsonFrame{
			Frame:            jsonRect{X: st.X, Y: st.Y, W: st.Width, H: st.Height},
			SpriteSourceSize: jsonRect{W: st.Width, H: st.Height},
			SourceSize:       jsonSize{W: st.Width, H: st.Height},
		}
		if st.HasFrame() {
			// frameX/frameY are the negated position of the trimmed image
			// inside the original frame.
			f.Trimmed = true
			f.SpriteSourceSize.X = -*st.FrameX
			f.SpriteSourceSize.Y = -*st.FrameY
			f.SourceSize = jsonSize{W: *st.FrameWidth, H: *st.FrameHeight}
		}
		doc.Frames[st.Name] = f
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encoding json atlas: %w", err)
	}
	return nil
}
