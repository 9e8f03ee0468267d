package cli

import (
	"strings"

	"ttraster/pkg/raster"
)

// shades maps coverage to characters, from empty to fully covered.
const shades = " .:-=+*#%@"

// asciiArt renders a coverage bitmap as text, one line per row.
func asciiArt(bm *raster.Bitmap) []string {
	lines := make([]string, bm.Height)
	var sb strings.Builder
	for y := 0; y < bm.Height; y++ {
		sb.Reset()
		for _, c := range bm.Row(y) {
			sb.WriteByte(shades[int(c)*(len(shades)-1)/255])
		}
		lines[y] = strings.TrimRight(sb.String(), " ")
	}
	return lines
}
