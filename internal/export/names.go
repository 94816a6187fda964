package export

import (
	"fmt"
	"strconv"
)

// SuffixName appends n to label, zero-padded to width digits. When n has
// more digits than width the number is appended unpadded.
func SuffixName(label string, n, width int) string {
	num := strconv.Itoa(n)
	if width <= 0 || len(num) >= width {
		return label + num
	}
	return fmt.Sprintf("%s%0*d", label, width, n)
}

// Counter hands out per-label occurrence numbers starting at zero.
type Counter map[string]int

// Next returns the next number for label.
func (c Counter) Next(label string) int {
	n := c[label]
	c[label] = n + 1
	return n
}
