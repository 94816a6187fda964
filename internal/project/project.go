package project

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/piwi3910/AtlasPack/internal/model"
)

// FileExtension is the extension used for saved projects.
const FileExtension = ".atlasproj"

// SaveProject writes p to path as indented JSON, creating parent directories.
func SaveProject(path string, p model.Project) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create project directory: %w", err)
	}
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal project: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write project file: %w", err)
	}
	return nil
}

// LoadProject reads a project saved by SaveProject. Settings are
// normalized, and relative frame and sheet paths are resolved against the
// directory of the project file.
func LoadProject(path string) (model.Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.Project{}, fmt.Errorf("failed to read project file: %w", err)
	}
	p := model.NewProject()
	if err := json.Unmarshal(data, &p); err != nil {
		return model.Project{}, fmt.Errorf("failed to parse project file: %w", err)
	}
	if p.Sheets == nil {
		p.Sheets = []model.Sheet{}
	}
	if p.Frames == nil {
		p.Frames = []model.FrameRequest{}
	}
	p.Settings = p.Settings.Normalize()

	ResolvePaths(&p, filepath.Dir(path))
	return p, nil
}

// ResolvePaths makes relative sheet and image paths of p relative to base.
func ResolvePaths(p *model.Project, base string) {
	resolve := func(s string) string {
		if s == "" || filepath.IsAbs(s) {
			return s
		}
		return filepath.Join(base, s)
	}
	for i := range p.Sheets {
		p.Sheets[i].Path = resolve(p.Sheets[i].Path)
	}
	for i := range p.Frames {
		if p.Frames[i].Source == model.SourceImage {
			p.Frames[i].Path = resolve(p.Frames[i].Path)
		}
	}
}
