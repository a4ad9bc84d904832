// Package stats computes character statistics for the input and output of a
// conversion.
package stats

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/olekukonko/tablewriter"
)

// Text holds the counts for one side of a conversion.
type Text struct {
	Characters int `json:"characters"`
	Bytes      int `json:"bytes"`
	Lines      int `json:"lines"`
	Words      int `json:"words"`
	Whitespace int `json:"whitespace"`
}

// Stats compares input and output of a conversion.
type Stats struct {
	Input  Text `json:"input"`
	Output Text `json:"output"`
	// Ratio is output bytes per input byte, zero for empty input.
	Ratio float64 `json:"ratio"`
}

// Count returns the statistics of s. Characters are unicode code points;
// invalid UTF-8 bytes count as one character each.
func Count(s string) Text {
	t := Text{
		Characters: utf8.RuneCountInString(s),
		Bytes:      len(s),
		Words:      len(strings.Fields(s)),
	}
	if s != "" {
		t.Lines = strings.Count(s, "\n") + 1
		if strings.HasSuffix(s, "\n") {
			t.Lines--
		}
	}
	for _, r := range s {
		if unicode.IsSpace(r) {
			t.Whitespace++
		}
	}
	return t
}

// Compute returns the statistics of a conversion from input to output.
func Compute(input, output string) Stats {
	s := Stats{
		Input:  Count(input),
		Output: Count(output),
	}
	if s.Input.Bytes > 0 {
		s.Ratio = float64(s.Output.Bytes) / float64(s.Input.Bytes)
	}
	return s
}

// Render writes s as a table.
func Render(w io.Writer, s Stats, noHeaders bool) {
	table := tablewriter.NewWriter(w)
	if !noHeaders {
		table.SetHeader([]string{"", "Input", "Output"})
	}
	table.SetBorder(false)
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_RIGHT)

	row := func(name string, in, out int) {
		table.Append([]string{name, strconv.Itoa(in), strconv.Itoa(out)})
	}
	row("Characters", s.Input.Characters, s.Output.Characters)
	row("Bytes", s.Input.Bytes, s.Output.Bytes)
	row("Lines", s.Input.Lines, s.Output.Lines)
	row("Words", s.Input.Words, s.Output.Words)
	row("Whitespace", s.Input.Whitespace, s.Output.Whitespace)
	table.Append([]string{"Ratio", "", fmt.Sprintf("%.2f", s.Ratio)})

	table.Render()
}
