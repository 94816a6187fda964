// Package importer reads frame manifests from CSV and Excel files. It
// supports automatic delimiter detection, flexible column mapping, and
// case-insensitive header recognition.
//
// A manifest row describes one frame: its animation label, where the pixels
// come from (an image path, or a sheet key plus crop rectangle), an optional
// resize and flip, and an optional original frame rectangle.
package importer

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/piwi3910/AtlasPack/internal/model"
	"github.com/xuri/excelize/v2"
)

// ImportResult holds the results of an import operation.
type ImportResult struct {
	Frames   []model.FrameRequest
	Sheets   []model.Sheet // Sheets named by rows carrying both a sheet key and a path
	Errors   []string
	Warnings []string
}

// ColumnMapping maps semantic column roles to their indices in the data.
// -1 marks a column that is not present.
type ColumnMapping struct {
	Label       int
	Path        int
	Sheet       int
	CropX       int
	CropY       int
	CropWidth   int
	CropHeight  int
	Width       int
	Height      int
	FlipX       int
	FlipY       int
	FrameX      int
	FrameY      int
	FrameWidth  int
	FrameHeight int
}

// positionalMapping is used when the first row is not a header.
var positionalMapping = ColumnMapping{
	Label: 0, Path: 1, Sheet: 2,
	CropX: 3, CropY: 4, CropWidth: 5, CropHeight: 6,
	Width: 7, Height: 8, FlipX: 9, FlipY: 10,
	FrameX: 11, FrameY: 12, FrameWidth: 13, FrameHeight: 14,
}

// headerAliases maps canonical column names to their accepted aliases (all lowercase).
var headerAliases = map[string][]string{
	"label":        {"label", "name", "animation", "anim", "prefix", "animation prefix"},
	"path":         {"path", "file", "image", "filename", "src"},
	"sheet":        {"sheet", "sheet key", "spritesheet", "sheet_key"},
	"crop_x":       {"crop_x", "crop x", "rect_x", "sx"},
	"crop_y":       {"crop_y", "crop y", "rect_y", "sy"},
	"crop_width":   {"crop_width", "crop width", "crop_w", "crop w", "rect_width", "sw"},
	"crop_height":  {"crop_height", "crop height", "crop_h", "crop h", "rect_height", "sh"},
	"width":        {"width", "w", "new_width", "target width"},
	"height":       {"height", "h", "new_height", "target height"},
	"flip_x":       {"flip_x", "flipx", "flip x", "mirror"},
	"flip_y":       {"flip_y", "flipy", "flip y"},
	"frame_x":      {"frame_x", "framex", "frame x"},
	"frame_y":      {"frame_y", "framey", "frame y"},
	"frame_width":  {"frame_width", "framewidth", "frame width", "frame_w"},
	"frame_height": {"frame_height", "frameheight", "frame height", "frame_h"},
}

// roleField returns the mapping field for a canonical role.
func (m *ColumnMapping) roleField(role string) *int {
	switch role {
	case "label":
		return &m.Label
	case "path":
		return &m.Path
	case "sheet":
		return &m.Sheet
	case "crop_x":
		return &m.CropX
	case "crop_y":
		return &m.CropY
	case "crop_width":
		return &m.CropWidth
	case "crop_height":
		return &m.CropHeight
	case "width":
		return &m.Width
	case "height":
		return &m.Height
	case "flip_x":
		return &m.FlipX
	case "flip_y":
		return &m.FlipY
	case "frame_x":
		return &m.FrameX
	case "frame_y":
		return &m.FrameY
	case "frame_width":
		return &m.FrameWidth
	case "frame_height":
		return &m.FrameHeight
	}
	return nil
}

// DetectCSVDelimiter reads the file content and determines the most likely CSV delimiter.
// It tries comma, semicolon, tab, and pipe. The delimiter that produces the most
// consistent (non-one) column count across lines wins.
func DetectCSVDelimiter(data []byte) rune {
	candidates := []rune{',', ';', '\t', '|'}
	bestDelimiter := ','
	bestScore := 0

	for _, delim := range candidates {
		reader := csv.NewReader(bytes.NewReader(data))
		reader.Comma = delim
		reader.LazyQuotes = true
		reader.FieldsPerRecord = -1

		records, err := reader.ReadAll()
		if err != nil || len(records) < 1 {
			continue
		}

		firstCols := len(records[0])
		if firstCols < 2 {
			continue
		}

		score := 0
		for _, row := range records {
			if len(row) == firstCols {
				score++
			}
		}

		weighted := score*10 + firstCols
		if weighted > bestScore {
			bestScore = weighted
			bestDelimiter = delim
		}
	}

	return bestDelimiter
}

// DetectColumns examines a header row and returns a ColumnMapping.
// It performs case-insensitive matching against known aliases for each column role.
// Returns the mapping and true if a header was detected, or the positional
// mapping and false if no header was found.
func DetectColumns(row []string) (ColumnMapping, bool) {
	mapping := ColumnMapping{
		Label: -1, Path: -1, Sheet: -1,
		CropX: -1, CropY: -1, CropWidth: -1, CropHeight: -1,
		Width: -1, Height: -1, FlipX: -1, FlipY: -1,
		FrameX: -1, FrameY: -1, FrameWidth: -1, FrameHeight: -1,
	}

	isHeader := false
	for i, cell := range row {
		normalized := strings.ToLower(strings.TrimSpace(cell))
		for role, aliases := range headerAliases {
			for _, alias := range aliases {
				if normalized != alias {
					continue
				}
				isHeader = true
				if f := mapping.roleField(role); f != nil && *f == -1 {
					*f = i
				}
			}
		}
	}

	if !isHeader {
		return positionalMapping, false
	}
	return mapping, true
}

// parseBool accepts the usual spellings of a flag cell. Empty is false.
func parseBool(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "0", "false", "no", "n", "-":
		return false, true
	case "1", "true", "yes", "y", "x":
		return true, true
	default:
		return false, false
	}
}

// getCell safely retrieves a cell value from a row by column index.
// Returns empty string if the index is out of range or negative.
func getCell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// intCell parses an optional integer cell; empty yields 0.
func intCell(row []string, idx int, name, rowLabel string) (int, string) {
	s := getCell(row, idx)
	if s == "" {
		return 0, ""
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Sprintf("%s: Invalid %s '%s'", rowLabel, name, s)
	}
	return v, ""
}

// parseRow extracts a FrameRequest from a row using the given column mapping.
// Returns the frame, any error message, and any warning message.
func parseRow(row []string, mapping ColumnMapping, rowLabel string) (model.FrameRequest, string, string) {
	label := getCell(row, mapping.Label)
	if label == "" {
		return model.FrameRequest{}, fmt.Sprintf("%s: Missing label", rowLabel), ""
	}

	ints := map[string]int{}
	for _, col := range []struct {
		name string
		idx  int
	}{
		{"crop x", mapping.CropX}, {"crop y", mapping.CropY},
		{"crop width", mapping.CropWidth}, {"crop height", mapping.CropHeight},
		{"width", mapping.Width}, {"height", mapping.Height},
		{"frame x", mapping.FrameX}, {"frame y", mapping.FrameY},
		{"frame width", mapping.FrameWidth}, {"frame height", mapping.FrameHeight},
	} {
		v, errMsg := intCell(row, col.idx, col.name, rowLabel)
		if errMsg != "" {
			return model.FrameRequest{}, errMsg, ""
		}
		ints[col.name] = v
	}

	for _, name := range []string{"crop width", "crop height", "width", "height", "frame width", "frame height"} {
		if ints[name] < 0 {
			return model.FrameRequest{}, fmt.Sprintf("%s: %s must not be negative", rowLabel, strings.ToUpper(name[:1])+name[1:]), ""
		}
	}

	path := getCell(row, mapping.Path)
	sheet := getCell(row, mapping.Sheet)

	var frame model.FrameRequest
	var warning string
	switch {
	case sheet != "":
		crop := model.CropRect{X: ints["crop x"], Y: ints["crop y"], Width: ints["crop width"], Height: ints["crop height"]}
		if crop.Empty() {
			return model.FrameRequest{}, fmt.Sprintf("%s: Sheet frame needs a crop width and height", rowLabel), ""
		}
		frame = model.NewSheetFrame(label, sheet, crop)
	case path != "":
		frame = model.NewImageFrame(label, path)
	default:
		return model.FrameRequest{}, fmt.Sprintf("%s: Missing path or sheet", rowLabel), ""
	}

	frame.Transform.Width = ints["width"]
	frame.Transform.Height = ints["height"]
	frame.Frame = model.FrameRect{
		FrameX:      ints["frame x"],
		FrameY:      ints["frame y"],
		FrameWidth:  ints["frame width"],
		FrameHeight: ints["frame height"],
	}

	for _, flip := range []struct {
		name string
		idx  int
		dst  *bool
	}{
		{"flip x", mapping.FlipX, &frame.Transform.FlipX},
		{"flip y", mapping.FlipY, &frame.Transform.FlipY},
	} {
		s := getCell(row, flip.idx)
		v, ok := parseBool(s)
		if !ok {
			w := fmt.Sprintf("%s: Unknown %s value '%s', defaulting to false", rowLabel, flip.name, s)
			if warning != "" {
				warning += "; " + w
			} else {
				warning = w
			}
		}
		*flip.dst = v
	}

	return frame, "", warning
}

// isEmptyRow returns true if the row has no meaningful content.
func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// ImportCSV imports frames from a CSV manifest.
// It automatically detects the delimiter and maps columns by header names.
// Supports comma, semicolon, tab, and pipe delimiters.
func ImportCSV(path string) ImportResult {
	result := ImportResult{}

	data, err := os.ReadFile(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot open file: %v", err))
		return result
	}

	if len(bytes.TrimSpace(data)) == 0 {
		result.Errors = append(result.Errors, "File is empty")
		return result
	}

	delimiter := DetectCSVDelimiter(data)
	if delimiter != ',' {
		delimName := map[rune]string{';': "semicolon", '\t': "tab", '|': "pipe"}[delimiter]
		result.Warnings = append(result.Warnings, fmt.Sprintf("Detected %s delimiter", delimName))
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = delimiter
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot read CSV: %v", err))
		return result
	}

	if len(records) == 0 {
		result.Errors = append(result.Errors, "File is empty")
		return result
	}

	return importFromRows(records, "Line", result.Warnings)
}

// ImportCSVFromReader imports frames from a CSV reader with a specific delimiter.
func ImportCSVFromReader(reader io.Reader, delimiter rune) ImportResult {
	result := ImportResult{}

	csvReader := csv.NewReader(reader)
	csvReader.Comma = delimiter
	csvReader.LazyQuotes = true
	csvReader.FieldsPerRecord = -1

	records, err := csvReader.ReadAll()
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot read CSV: %v", err))
		return result
	}

	if len(records) == 0 {
		result.Errors = append(result.Errors, "File is empty")
		return result
	}

	return importFromRows(records, "Line", nil)
}

// ImportExcel imports frames from an Excel (.xlsx) manifest.
// Reads the first sheet and auto-detects column mapping from headers.
func ImportExcel(path string) ImportResult {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return ImportResult{Errors: []string{fmt.Sprintf("Cannot open Excel file: %v", err)}}
	}
	defer f.Close()
	return importWorkbook(f)
}

// ImportExcelFromReader imports frames from an Excel workbook stream.
func ImportExcelFromReader(r io.Reader) ImportResult {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return ImportResult{Errors: []string{fmt.Sprintf("Cannot open Excel data: %v", err)}}
	}
	defer f.Close()
	return importWorkbook(f)
}

func importWorkbook(f *excelize.File) ImportResult {
	result := ImportResult{}

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		result.Errors = append(result.Errors, "Excel file has no sheets")
		return result
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot read Excel data: %v", err))
		return result
	}

	if len(rows) == 0 {
		result.Errors = append(result.Errors, "Sheet is empty")
		return result
	}

	return importFromRows(rows, "Row", nil)
}

// Import dispatches on the file extension: .xlsx and .xlsm go to
// ImportExcel, everything else to ImportCSV.
func Import(path string) ImportResult {
	lower := strings.ToLower(path)
	if strings.HasSuffix(lower, ".xlsx") || strings.HasSuffix(lower, ".xlsm") {
		return ImportExcel(path)
	}
	return ImportCSV(path)
}

// importFromRows is the shared import logic for both CSV and Excel data.
// It detects headers, maps columns, and parses each row into frames.
func importFromRows(rows [][]string, rowPrefix string, initialWarnings []string) ImportResult {
	result := ImportResult{
		Warnings: initialWarnings,
	}

	if len(rows) == 0 {
		result.Errors = append(result.Errors, "No data rows found")
		return result
	}

	mapping, hasHeader := DetectColumns(rows[0])
	startRow := 0
	if hasHeader {
		startRow = 1
		result.Warnings = append(result.Warnings, "Detected header row, skipping")

		if mapping.Label == -1 {
			result.Errors = append(result.Errors, "Required column not found in header: Label")
			return result
		}
		if mapping.Path == -1 && mapping.Sheet == -1 {
			result.Errors = append(result.Errors, "Required columns not found in header: Path or Sheet")
			return result
		}
	}

	sheetPaths := make(map[string]string)
	for i := startRow; i < len(rows); i++ {
		row := rows[i]
		lineNum := i + 1

		if isEmptyRow(row) {
			continue
		}

		rowLabel := fmt.Sprintf("%s %d", rowPrefix, lineNum)
		frame, errMsg, warning := parseRow(row, mapping, rowLabel)

		if errMsg != "" {
			result.Errors = append(result.Errors, errMsg)
			continue
		}
		if warning != "" {
			result.Warnings = append(result.Warnings, warning)
		}

		if frame.Source == model.SourceSheet {
			if path := getCell(row, mapping.Path); path != "" {
				prev, seen := sheetPaths[frame.SheetKey]
				switch {
				case !seen:
					sheetPaths[frame.SheetKey] = path
					result.Sheets = append(result.Sheets, model.Sheet{Key: frame.SheetKey, Path: path})
				case prev != path:
					result.Errors = append(result.Errors, fmt.Sprintf("%s: Sheet '%s' already bound to '%s'", rowLabel, frame.SheetKey, prev))
					continue
				}
			}
		}

		result.Frames = append(result.Frames, frame)
	}

	return result
}
