package model

import "math"

// SheetEstimate summarises how well a set of frames fills a packed sheet.
type SheetEstimate struct {
	FrameCount       int     `json:"frame_count"`         // Number of unique packed frames
	TotalFrameArea   int     `json:"total_frame_area"`    // Sum of frame areas (px²)
	SheetWidth       int     `json:"sheet_width"`         // Packed sheet width (px)
	SheetHeight      int     `json:"sheet_height"`        // Packed sheet height (px)
	SheetArea        int     `json:"sheet_area"`          // Packed sheet area (px²)
	Efficiency       float64 `json:"efficiency"`          // Frame area / sheet area, in percent
	MinSquareSide    int     `json:"min_square_side"`     // Side of the smallest square holding the frame area
	PowerOfTwoWidth  int     `json:"power_of_two_width"`  // Next power of two >= SheetWidth
	PowerOfTwoHeight int     `json:"power_of_two_height"` // Next power of two >= SheetHeight
}

// CalculateSheetEstimate computes usage statistics for frames of the given
// sizes packed into a sheetWidth x sheetHeight sheet.
func CalculateSheetEstimate(sizes [][2]int, sheetWidth, sheetHeight int) SheetEstimate {
	var totalArea int
	for _, s := range sizes {
		totalArea += s[0] * s[1]
	}

	est := SheetEstimate{
		FrameCount:       len(sizes),
		TotalFrameArea:   totalArea,
		SheetWidth:       sheetWidth,
		SheetHeight:      sheetHeight,
		SheetArea:        sheetWidth * sheetHeight,
		MinSquareSide:    int(math.Ceil(math.Sqrt(float64(totalArea)))),
		PowerOfTwoWidth:  NextPowerOfTwo(sheetWidth),
		PowerOfTwoHeight: NextPowerOfTwo(sheetHeight),
	}
	if est.SheetArea > 0 {
		est.Efficiency = float64(totalArea) / float64(est.SheetArea) * 100.0
	}
	return est
}

// NextPowerOfTwo returns the smallest power of two >= n. Zero and negative
// values return 0.
func NextPowerOfTwo(n int) int {
	if n <= 0 {
		return 0
	}
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
