package model

import "github.com/google/uuid"

// FrameSource tells where the pixels of a frame request come from.
type FrameSource int

const (
	SourceImage FrameSource = iota // A standalone image file
	SourceSheet                    // A sub-rectangle of a registered sheet
)

func (s FrameSource) String() string {
	switch s {
	case SourceSheet:
		return "Sheet"
	default:
		return "Image"
	}
}

// CropRect is a pixel rectangle inside a registered sheet.
type CropRect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Empty reports whether the rectangle has no area.
func (c CropRect) Empty() bool {
	return c.Width <= 0 || c.Height <= 0
}

// Transform describes the scale and flip applied to a frame before cropping.
// A zero Width or Height keeps the source size along that axis.
type Transform struct {
	Width  int  `json:"width,omitempty"`
	Height int  `json:"height,omitempty"`
	FlipX  bool `json:"flip_x,omitempty"`
	FlipY  bool `json:"flip_y,omitempty"`
}

// FrameRect is the original (untrimmed) frame rectangle of a logical frame,
// expressed relative to the origin of its trimmed image.
type FrameRect struct {
	FrameX      int `json:"frame_x"`
	FrameY      int `json:"frame_y"`
	FrameWidth  int `json:"frame_width"`  // 0 = size of the transformed image
	FrameHeight int `json:"frame_height"` // 0 = size of the transformed image
}

// Sheet is a named source image that frames can be cut from.
type Sheet struct {
	Key  string `json:"key"`
	Path string `json:"path"`
}

// FrameRequest is one logical frame to place on the atlas.
type FrameRequest struct {
	ID        string      `json:"id"`
	Label     string      `json:"label"` // Animation prefix, e.g. "idle" or "run"
	Source    FrameSource `json:"source"`
	Path      string      `json:"path,omitempty"`      // Image file for SourceImage
	SheetKey  string      `json:"sheet_key,omitempty"` // Sheet key for SourceSheet
	Crop      CropRect    `json:"crop"`                // Region of the sheet for SourceSheet
	Transform Transform   `json:"transform"`
	Frame     FrameRect   `json:"frame"`
}

func NewImageFrame(label, path string) FrameRequest {
	return FrameRequest{
		ID:     uuid.New().String()[:8],
		Label:  label,
		Source: SourceImage,
		Path:   path,
	}
}

func NewSheetFrame(label, sheetKey string, crop CropRect) FrameRequest {
	return FrameRequest{
		ID:       uuid.New().String()[:8],
		Label:    label,
		Source:   SourceSheet,
		SheetKey: sheetKey,
		Crop:     crop,
	}
}

// SubTexture is one entry of an atlas description. The frame fields are nil
// when original-frame tracking is disabled.
type SubTexture struct {
	Name        string `json:"name"`
	X           int    `json:"x"`
	Y           int    `json:"y"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	FrameX      *int   `json:"frame_x,omitempty"`
	FrameY      *int   `json:"frame_y,omitempty"`
	FrameWidth  *int   `json:"frame_width,omitempty"`
	FrameHeight *int   `json:"frame_height,omitempty"`
}

// HasFrame reports whether all four frame fields are present.
func (s SubTexture) HasFrame() bool {
	return s.FrameX != nil && s.FrameY != nil && s.FrameWidth != nil && s.FrameHeight != nil
}

// TextureAtlas is the description of a packed sheet.
type TextureAtlas struct {
	ImagePath   string       `json:"image_path"`
	Width       int          `json:"width"`
	Height      int          `json:"height"`
	SubTextures []SubTexture `json:"sub_textures"`
}

// Project ties a set of sheets and frame requests together for save/load.
type Project struct {
	Name     string         `json:"name"`
	Sheets   []Sheet        `json:"sheets"`
	Frames   []FrameRequest `json:"frames"`
	Settings Settings       `json:"settings"`
}

func NewProject() Project {
	return Project{
		Name:     "atlas",
		Sheets:   []Sheet{},
		Frames:   []FrameRequest{},
		Settings: DefaultSettings(),
	}
}

// Labels returns the distinct frame labels of the project in first-seen order.
func (p Project) Labels() []string {
	seen := make(map[string]bool)
	var labels []string
	for _, f := range p.Frames {
		if !seen[f.Label] {
			seen[f.Label] = true
			labels = append(labels, f.Label)
		}
	}
	return labels
}

// IntPtr returns a pointer to v. Used for the optional SubTexture fields.
func IntPtr(v int) *int {
	return &v
}
