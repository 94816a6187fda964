// AtlasPack packs animation frames into a single texture atlas.
//
// Frames come from a CSV or Excel manifest, or from a saved project. The
// result is a zip holding <name>.png and its Sparrow XML (or TexturePacker
// JSON) description, optionally accompanied by a PDF preview, QR frame
// cards and a zip of the trimmed unique frames.
//
// Build:
//   go build -o atlaspack ./cmd/atlaspack
//
// Examples:
//   atlaspack -manifest frames.csv -name hero -padding 1 -out build
//   atlaspack -project hero.atlasproj -compare -pdf
//   atlaspack -strip strip.png a.png b.png c.png
package main

import (
	"bytes"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/piwi3910/AtlasPack/internal/atlas"
	"github.com/piwi3910/AtlasPack/internal/engine"
	"github.com/piwi3910/AtlasPack/internal/export"
	"github.com/piwi3910/AtlasPack/internal/importer"
	"github.com/piwi3910/AtlasPack/internal/imaging"
	"github.com/piwi3910/AtlasPack/internal/model"
	"github.com/piwi3910/AtlasPack/internal/project"
)

type options struct {
	configPath  string
	manifest    string
	projectPath string
	saveProject string
	name        string
	padding     int
	outDir      string
	format      string
	compression string
	heuristic   string
	compare     bool
	pdf         bool
	labels      bool
	frames      bool
	perFrame    bool
	strip       string
	verbose     bool
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", project.DefaultConfigPath(), "application config file")
	flag.StringVar(&opts.manifest, "manifest", "", "CSV or Excel frame manifest")
	flag.StringVar(&opts.projectPath, "project", "", "saved project ("+project.FileExtension+")")
	flag.StringVar(&opts.saveProject, "save-project", "", "write the loaded frames to this project file")
	flag.StringVar(&opts.name, "name", "", "atlas name, used for <name>.png and its description")
	flag.IntVar(&opts.padding, "padding", 0, "transparent pixels around each trimmed frame")
	flag.StringVar(&opts.outDir, "out", "", "output directory")
	flag.StringVar(&opts.format, "format", "", "description format: xml or json")
	flag.StringVar(&opts.compression, "compression", "", "archive compression: deflate, zstd or store")
	flag.StringVar(&opts.heuristic, "heuristic", "", "sort heuristic: "+strings.Join(engine.HeuristicNames(), ", "))
	flag.BoolVar(&opts.compare, "compare", false, "try every heuristic and keep the smallest sheet")
	flag.BoolVar(&opts.pdf, "pdf", false, "also write a PDF preview of the sheet")
	flag.BoolVar(&opts.labels, "labels", false, "also write printable QR frame cards")
	flag.BoolVar(&opts.frames, "frames", false, "also write a zip of the trimmed unique frames")
	flag.BoolVar(&opts.perFrame, "per-frame", false, "with -frames, write one image per logical frame")
	flag.StringVar(&opts.strip, "strip", "", "write the images given as arguments side by side to this PNG and exit")
	flag.BoolVar(&opts.verbose, "v", false, "verbose logging")
	flag.Parse()

	set := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })

	if err := run(opts, set, flag.Args()); err != nil {
		fmt.Fprintf(os.Stderr, "atlaspack: %v\n", err)
		os.Exit(1)
	}
}

func run(opts options, set map[string]bool, args []string) error {
	cfg, err := project.LoadAppConfig(opts.configPath)
	if err != nil {
		return err
	}

	level := slog.LevelInfo
	if opts.verbose || cfg.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	atlas.SetLogger(logger)

	if opts.strip != "" {
		return writeStrip(opts.strip, args)
	}

	p, err := loadProject(opts, cfg, logger)
	if err != nil {
		return err
	}
	applyFlags(&p.Settings, opts, set)
	if opts.name != "" {
		p.Name = opts.name
	}

	outDir := opts.outDir
	if outDir == "" {
		outDir = cfg.OutputDir
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	b := atlas.NewBuilder(p.Name, p.Settings.Padding, atlas.WithSettings(p.Settings))
	for _, s := range p.Sheets {
		data, err := os.ReadFile(s.Path)
		if err != nil {
			return fmt.Errorf("reading sheet %q: %w", s.Key, err)
		}
		if err := b.RegisterSheet(s.Key, data); err != nil {
			return err
		}
	}
	for _, f := range p.Frames {
		if err := b.AddRequest(f, os.ReadFile); err != nil {
			return err
		}
	}

	if opts.compare {
		if err := pickHeuristic(b); err != nil {
			return err
		}
	}

	l, err := b.Layout()
	if err != nil {
		return err
	}
	archive, err := b.Archive(l)
	if err != nil {
		return err
	}
	zipPath := filepath.Join(outDir, p.Name+".zip")
	if err := os.WriteFile(zipPath, archive, 0644); err != nil {
		return err
	}
	printEstimate(l)
	fmt.Printf("wrote %s\n", zipPath)

	if opts.pdf || opts.labels {
		if err := writeDocuments(opts, outDir, p.Name, l); err != nil {
			return err
		}
	}

	if opts.frames {
		data, err := b.ExportUniqueFrames(opts.perFrame)
		if err != nil {
			return err
		}
		path := filepath.Join(outDir, p.Name+"-frames.zip")
		if err := os.WriteFile(path, data, 0644); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", path)
	}

	if opts.saveProject != "" {
		p.Settings = b.Settings()
		if err := project.SaveProject(opts.saveProject, p); err != nil {
			return err
		}
		abs, err := filepath.Abs(opts.saveProject)
		if err != nil {
			abs = opts.saveProject
		}
		cfg.AddRecentProject(abs, project.MaxRecentProjects)
		if err := project.SaveAppConfig(opts.configPath, cfg); err != nil {
			logger.Warn("could not update recent projects", "error", err)
		}
	}
	return nil
}

// loadProject builds the project from -project or -manifest. Settings
// start from the application config defaults.
func loadProject(opts options, cfg model.AppConfig, logger *slog.Logger) (model.Project, error) {
	switch {
	case opts.projectPath != "":
		return project.LoadProject(opts.projectPath)
	case opts.manifest != "":
		p := model.NewProject()
		cfg.ApplyToSettings(&p.Settings)
		p.Name = strings.TrimSuffix(filepath.Base(opts.manifest), filepath.Ext(opts.manifest))

		result := importer.Import(opts.manifest)
		for _, w := range result.Warnings {
			logger.Debug("manifest", "warning", w)
		}
		if len(result.Errors) > 0 {
			return p, fmt.Errorf("manifest %s:\n  %s", opts.manifest, strings.Join(result.Errors, "\n  "))
		}
		p.Frames = result.Frames
		p.Sheets = result.Sheets
		project.ResolvePaths(&p, filepath.Dir(opts.manifest))
		return p, nil
	default:
		return model.Project{}, fmt.Errorf("one of -manifest, -project or -strip is required")
	}
}

// applyFlags overrides settings with the flags given on the command line.
func applyFlags(s *model.Settings, opts options, set map[string]bool) {
	if set["padding"] {
		s.Padding = opts.padding
	}
	if set["format"] {
		s.Format = model.DescriptionFormat(opts.format)
	}
	if set["compression"] {
		s.Compression = model.Compression(opts.compression)
	}
	if set["heuristic"] {
		s.Heuristic = opts.heuristic
	}
	*s = s.Normalize()
}

func pickHeuristic(b *atlas.Builder) error {
	results, err := b.CompareHeuristics(nil)
	if err != nil {
		return err
	}
	for _, r := range results {
		if r.Err != nil {
			fmt.Printf("  %-10s failed: %v\n", r.Heuristic, r.Err)
			continue
		}
		fmt.Printf("  %-10s %5dx%-5d %6.1f%%\n", r.Heuristic, r.Result.Width, r.Result.Height, r.Efficiency)
	}
	best, err := engine.BestHeuristic(results)
	if err != nil {
		return err
	}
	fmt.Printf("using heuristic %s\n", best.Heuristic)
	return b.SetHeuristic(best.Heuristic)
}

func printEstimate(l *atlas.Layout) {
	e := l.Estimate
	fmt.Printf("%d frames, %d unique, sheet %dx%d (%dx%d pow2), %.1f%% used\n",
		l.Occurrences, e.FrameCount, e.SheetWidth, e.SheetHeight,
		e.PowerOfTwoWidth, e.PowerOfTwoHeight, e.Efficiency)
}

func writeDocuments(opts options, outDir, name string, l *atlas.Layout) error {
	if opts.pdf {
		png, err := imaging.EncodePNG(l.Image)
		if err != nil {
			return err
		}
		var buf bytes.Buffer
		if err := export.ExportPDF(&buf, png, l.Atlas); err != nil {
			return err
		}
		path := filepath.Join(outDir, name+".pdf")
		if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", path)
	}
	if opts.labels {
		var buf bytes.Buffer
		if err := export.ExportLabels(&buf, l.Atlas); err != nil {
			return err
		}
		path := filepath.Join(outDir, name+"-cards.pdf")
		if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", path)
	}
	return nil
}

func writeStrip(out string, inputs []string) error {
	if len(inputs) == 0 {
		return fmt.Errorf("-strip needs at least one input image")
	}
	images := make([][]byte, len(inputs))
	for i, path := range inputs {
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		images[i] = data
	}
	png, err := atlas.BuildStrip(images)
	if err != nil {
		return err
	}
	if err := os.WriteFile(out, png, 0644); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", out)
	return nil
}
