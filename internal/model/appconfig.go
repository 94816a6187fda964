package model

// AppConfig holds application-wide preferences and default settings.
type AppConfig struct {
	// Default atlas settings applied to new projects
	DefaultPadding        int               `json:"default_padding"`
	DefaultAlphaThreshold uint8             `json:"default_alpha_threshold"`
	DefaultResample       Resample          `json:"default_resample"`
	DefaultHeuristic      string            `json:"default_heuristic"`
	DefaultFormat         DescriptionFormat `json:"default_format"`
	DefaultCompression    Compression       `json:"default_compression"`
	TrackFrameOffsets     bool              `json:"track_frame_offsets"`

	// Application preferences
	OutputDir      string   `json:"output_dir"` // Where the CLI writes archives when -out is not given
	RecentProjects []string `json:"recent_projects"`
	Verbose        bool     `json:"verbose"`
}

// DefaultAppConfig returns an AppConfig populated with sensible defaults
// matching the values from DefaultSettings().
func DefaultAppConfig() AppConfig {
	defaults := DefaultSettings()
	return AppConfig{
		DefaultPadding:        defaults.Padding,
		DefaultAlphaThreshold: defaults.AlphaThreshold,
		DefaultResample:       defaults.Resample,
		DefaultHeuristic:      defaults.Heuristic,
		DefaultFormat:         defaults.Format,
		DefaultCompression:    defaults.Compression,
		TrackFrameOffsets:     defaults.TrackFrameOffsets,
		OutputDir:             ".",
		RecentProjects:        []string{},
		Verbose:               false,
	}
}

// ApplyToSettings copies the default values from AppConfig into a Settings struct.
// This is used when creating a new project so it inherits the user's saved defaults.
func (c AppConfig) ApplyToSettings(s *Settings) {
	s.Padding = c.DefaultPadding
	s.AlphaThreshold = c.DefaultAlphaThreshold
	s.Resample = c.DefaultResample
	s.Heuristic = c.DefaultHeuristic
	s.Format = c.DefaultFormat
	s.Compression = c.DefaultCompression
	s.TrackFrameOffsets = c.TrackFrameOffsets
}

// AddRecentProject records path as the most recently used project,
// keeping at most max entries and no duplicates.
func (c *AppConfig) AddRecentProject(path string, max int) {
	recent := []string{path}
	for _, p := range c.RecentProjects {
		if p != path {
			recent = append(recent, p)
		}
	}
	if max > 0 && len(recent) > max {
		recent = recent[:max]
	}
	c.RecentProjects = recent
}
