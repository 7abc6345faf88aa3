package hexdump

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"strconv"
	"strings"

	"heapedit/coloransi"
	"heapedit/process"
	"heapedit/search"
)

// Options defines options for customizing the hexdump output
type Options struct {
	// BytesPerLine defines the number of bytes to display per line
	BytesPerLine int

	// ShowASCII determines whether to show the ASCII representation
	ShowASCII bool

	// StartOffset is added to every offset, usually the region start address
	StartOffset uint64

	// OffsetWidth is the width of the offset column in hex digits
	OffsetWidth int

	OffsetColor       coloransi.ColorCode
	HexColor          coloransi.ColorCode
	ASCIIColor        coloransi.ColorCode
	NonPrintableColor coloransi.ColorCode
	ZeroColor         coloransi.ColorCode

	// Highlight is painted wherever it occurs in the dumped data
	Highlight                []byte
	HighlightColor           coloransi.ColorCode
	HighlightBackgroundColor coloransi.ColorCode

	// MaxLines is the maximum number of lines to show (0 for no limit)
	MaxLines int

	// Pointers, when set, annotates every aligned 8-byte little-endian value
	// that points into one of the regions
	Pointers []process.MemoryRegion

	Palette coloransi.Palette
}

// DefaultOptions returns the default hexdump options, uncolored
func DefaultOptions() Options {
	return Options{
		BytesPerLine:             16,
		ShowASCII:                true,
		OffsetWidth:              8,
		OffsetColor:              coloransi.Cyan,
		HexColor:                 coloransi.Green,
		ASCIIColor:               coloransi.White,
		NonPrintableColor:        coloransi.Red,
		ZeroColor:                coloransi.BrightBlack,
		HighlightColor:           coloransi.Yellow,
		HighlightBackgroundColor: coloransi.Black,
	}
}

// Dump creates a hex dump of the given data with specified options
func Dump(data []byte, options Options) string {
	var buffer bytes.Buffer
	DumpToWriter(&buffer, data, options)
	return buffer.String()
}

// Heap dumps a heap capture at its real addresses and marks pointers back into the heap
func Heap(region process.MemoryRegion, data []byte, options Options) string {
	options.StartOffset = uint64(region.Start)
	options.OffsetWidth = 12
	options.Pointers = []process.MemoryRegion{region}
	return Dump(data, options)
}

// DumpToWriter writes a hex dump of the given data to the specified writer
func DumpToWriter(writer io.Writer, data []byte, options Options) {
	if options.BytesPerLine <= 0 {
		options.BytesPerLine = 16
	}
	if options.OffsetWidth <= 0 {
		options.OffsetWidth = 8
	}

	mask := highlightMask(data, options.Highlight)

	lineCount := 0
	for offset := 0; offset < len(data); offset += options.BytesPerLine {
		if options.MaxLines > 0 && lineCount >= options.MaxLines {
			fmt.Fprintf(writer, "... %d more bytes\n", len(data)-offset)
			break
		}

		end := offset + options.BytesPerLine
		if end > len(data) {
			end = len(data)
		}

		var lineMask []bool
		if mask != nil {
			lineMask = mask[offset:end]
		}
		formatLine(writer, data[offset:end], lineMask, uint64(offset)+options.StartOffset, options)
		lineCount++
	}
}

// highlightMask marks every byte covered by an occurrence of pattern
func highlightMask(data, pattern []byte) []bool {
	offsets, err := search.FindAll(data, pattern)
	if err != nil {
		return nil
	}
	mask := make([]bool, len(data))
	for _, start := range offsets {
		for i := start; i < start+len(pattern); i++ {
			mask[i] = true
		}
	}
	return mask
}

// formatLine formats a single line of the hex dump
//
// 00000000  00 01 02 03 04 05 06 07 | 08 09 0a 0b 0c 0d 0e 0f | ........ ........ | 0x56000010
func formatLine(writer io.Writer, data []byte, mask []bool, offset uint64, options Options) {
	p := options.Palette

	offsetStr := fmt.Sprintf("%0"+strconv.Itoa(options.OffsetWidth)+"x", offset)
	fmt.Fprint(writer, p.Foreground(options.OffsetColor, offsetStr), "  ")

	// short lines are padded with blank cells to keep the ASCII column aligned
	cells := make([]string, options.BytesPerLine)
	for i := range cells {
		if i >= len(data) {
			cells[i] = "  "
			continue
		}
		hexValue := fmt.Sprintf("%02x", data[i])
		switch {
		case mask != nil && mask[i]:
			cells[i] = p.Color(options.HighlightColor, options.HighlightBackgroundColor, hexValue)
		case data[i] == 0:
			cells[i] = p.Foreground(options.ZeroColor, hexValue)
		default:
			cells[i] = p.Foreground(options.HexColor, hexValue)
		}
	}

	half := options.BytesPerLine / 2
	if options.BytesPerLine >= 8 {
		fmt.Fprint(writer, strings.Join(cells[:half], " "), " | ", strings.Join(cells[half:], " "))
	} else {
		fmt.Fprint(writer, strings.Join(cells, " "))
	}

	if options.ShowASCII {
		fmt.Fprint(writer, " | ")
		for i, b := range data {
			if options.BytesPerLine >= 8 && i == half {
				fmt.Fprint(writer, " ")
			}
			fmt.Fprint(writer, formatASCII(b, mask != nil && mask[i], options))
		}
	}

	if pointers := findPointers(data, options.Pointers); len(pointers) > 0 {
		fmt.Fprint(writer, " | ", p.Foreground(coloransi.Yellow, strings.Join(pointers, " ")))
	}

	fmt.Fprintln(writer)
}

func formatASCII(b byte, highlighted bool, options Options) string {
	c := "."
	if b >= 0x20 && b < 0x7f {
		c = string(rune(b))
	}

	p := options.Palette
	switch {
	case highlighted:
		return p.Color(options.HighlightColor, options.HighlightBackgroundColor, c)
	case b == 0:
		return p.Foreground(options.ZeroColor, c)
	case c == ".":
		return p.Foreground(options.NonPrintableColor, c)
	}
	return p.Foreground(options.ASCIIColor, c)
}

func findPointers(data []byte, regions []process.MemoryRegion) []string {
	if len(regions) == 0 {
		return nil
	}

	var out []string
	for i := 0; i+8 <= len(data); i += 8 {
		ptr := process.ProcessMemoryAddress(binary.LittleEndian.Uint64(data[i : i+8]))
		for _, region := range regions {
			if ptr >= region.Start && ptr < region.End {
				out = append(out, fmt.Sprintf("0x%x", uint64(ptr)))
				break
			}
		}
	}
	return out
}
