package model

// Resample selects the filter used when a frame is scaled.
type Resample string

const (
	ResampleNearest    Resample = "nearest"    // Pixel art friendly, the default
	ResampleBilinear   Resample = "bilinear"   // Smooth, fast
	ResampleCatmullRom Resample = "catmullrom" // Smooth, sharp, slow
)

// DescriptionFormat selects the companion description written next to the sheet.
type DescriptionFormat string

const (
	FormatXML  DescriptionFormat = "xml"  // Sparrow / Starling TextureAtlas XML
	FormatJSON DescriptionFormat = "json" // TexturePacker JSON hash
)

// Compression selects the zip method used for archives.
type Compression string

const (
	CompressionDeflate Compression = "deflate"
	CompressionZstd    Compression = "zstd"
	CompressionStore   Compression = "store"
)

// DefaultSuffixWidth is the zero-padded width of frame name suffixes ("run0003").
const DefaultSuffixWidth = 4

// Settings holds packing and output configuration for one atlas build.
type Settings struct {
	// Frame ingestion
	Padding        int      `json:"padding"`         // Transparent border added around every trimmed frame
	AlphaThreshold uint8    `json:"alpha_threshold"` // Pixels with alpha above this value are opaque
	Resample       Resample `json:"resample"`        // Filter used when scaling frames

	// Packing
	Heuristic string `json:"heuristic"` // Sort heuristic name, see engine.HeuristicNames

	// Description
	Format            DescriptionFormat `json:"format"`
	TrackFrameOffsets bool              `json:"track_frame_offsets"` // Emit frameX/frameY/frameWidth/frameHeight
	SuffixWidth       int               `json:"suffix_width"`        // Zero padding of name suffixes

	// Output
	Compression Compression `json:"compression"`
	Workers     int         `json:"workers"` // Compositing workers, 0 = GOMAXPROCS
}

func DefaultSettings() Settings {
	return Settings{
		Padding:           0,
		AlphaThreshold:    0,
		Resample:          ResampleNearest,
		Heuristic:         "area",
		Format:            FormatXML,
		TrackFrameOffsets: true,
		SuffixWidth:       DefaultSuffixWidth,
		Compression:       CompressionDeflate,
		Workers:           0,
	}
}

// Normalize fills zero values that have no meaning with their defaults.
func (s Settings) Normalize() Settings {
	d := DefaultSettings()
	if s.Padding < 0 {
		s.Padding = 0
	}
	if s.Resample == "" {
		s.Resample = d.Resample
	}
	if s.Heuristic == "" {
		s.Heuristic = d.Heuristic
	}
	if s.Format == "" {
		s.Format = d.Format
	}
	if s.SuffixWidth <= 0 {
		s.SuffixWidth = d.SuffixWidth
	}
	if s.Compression == "" {
		s.Compression = d.Compression
	}
	if s.Workers < 0 {
		s.Workers = 0
	}
	return s
}
