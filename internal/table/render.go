package table

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	columnGap    = "  "
	ellipsis     = "..."
	continuation = "  \\"
	timeLayout   = "2006-01-02 15:04:05-07:00"
	maxDecimals  = 6
	missingValue = "NaN"
	missingTime  = "NaT"
)

type renderedColumn struct {
	header string
	cells  []string
	width  int
}

// Render formats the frame as text using the given options
func (f *Frame) Render(opts DisplayOptions) string {
	if f.rows == 0 {
		return fmt.Sprintf("Empty DataFrame\nColumns: [%s]\nIndex: []", strings.Join(f.Columns(), ", "))
	}

	rowIdx, rowsCut := visibleIndices(f.rows, opts.MaxRows)
	colIdx, colsCut := visibleIndices(len(f.fields), opts.MaxColumns)

	labels := make([]string, len(rowIdx))
	indexWidth := 0
	for i, r := range rowIdx {
		if r < 0 {
			labels[i] = ellipsis
		} else {
			labels[i] = strconv.Itoa(r)
		}
		indexWidth = max(indexWidth, textWidth(labels[i]))
	}

	columns := make([]renderedColumn, 0, len(colIdx))
	for _, c := range colIdx {
		var col renderedColumn
		if c < 0 {
			col = renderedColumn{header: ellipsis, cells: repeat(ellipsis, len(rowIdx))}
		} else {
			col = renderedColumn{
				header: f.fields[c].Name,
				cells:  formatCells(f.fields[c].Kind, f.cells[c], rowIdx),
			}
		}

		col.width = textWidth(col.header)
		for i, cell := range col.cells {
			col.cells[i] = clip(cell, opts.MaxColWidth)
			col.width = max(col.width, textWidth(col.cells[i]))
		}
		columns = append(columns, col)
	}

	blocks := splitBlocks(columns, indexWidth, opts.Width)

	var b strings.Builder
	for i, block := range blocks {
		if i > 0 {
			b.WriteString("\n\n")
		}
		writeBlock(&b, block, labels, indexWidth, i < len(blocks)-1)
	}

	if rowsCut || colsCut {
		fmt.Fprintf(&b, "\n\n[%d rows x %d columns]", f.rows, len(f.fields))
	}

	return b.String()
}

func writeBlock(b *strings.Builder, columns []renderedColumn, labels []string, indexWidth int, continued bool) {
	b.WriteString(strings.Repeat(" ", indexWidth))
	for _, col := range columns {
		b.WriteString(columnGap)
		b.WriteString(padLeft(col.header, col.width))
	}
	if continued {
		b.WriteString(continuation)
	}

	for row, label := range labels {
		b.WriteByte('\n')
		b.WriteString(padRight(label, indexWidth))
		for _, col := range columns {
			b.WriteString(columnGap)
			b.WriteString(padLeft(col.cells[row], col.width))
		}
	}
}

// splitBlocks groups columns so that each printed line fits into width.
// Every block holds at least one column.
func splitBlocks(columns []renderedColumn, indexWidth, width int) [][]renderedColumn {
	if width <= Unlimited {
		return [][]renderedColumn{columns}
	}

	var blocks [][]renderedColumn
	var current []renderedColumn
	used := indexWidth

	for _, col := range columns {
		need := len(columnGap) + col.width
		if len(current) > 0 && used+need+len(continuation) > width {
			blocks = append(blocks, current)
			current = nil
			used = indexWidth
		}
		current = append(current, col)
		used += need
	}
	if len(current) > 0 {
		blocks = append(blocks, current)
	}
	return blocks
}

// visibleIndices returns the positions to show; -1 marks the elided gap
func visibleIndices(n, limit int) ([]int, bool) {
	if limit <= Unlimited || n <= limit {
		idx := make([]int, n)
		for i := range idx {
			idx[i] = i
		}
		return idx, false
	}

	head := limit / 2
	tail := limit - head
	idx := make([]int, 0, limit+1)
	for i := 0; i < head; i++ {
		idx = append(idx, i)
	}
	idx = append(idx, -1)
	for i := n - tail; i < n; i++ {
		idx = append(idx, i)
	}
	return idx, true
}

func formatCells(kind Kind, cells []any, rowIdx []int) []string {
	out := make([]string, len(rowIdx))

	decimals := 1
	if kind == Float {
		for _, r := range rowIdx {
			if r < 0 || cells[r] == nil {
				continue
			}
			decimals = max(decimals, decimalPlaces(cells[r].(float64)))
		}
	}

	for i, r := range rowIdx {
		if r < 0 {
			out[i] = ellipsis
			continue
		}
		out[i] = formatCell(kind, cells[r], decimals)
	}
	return out
}

func formatCell(kind Kind, v any, decimals int) string {
	if v == nil {
		if kind == Time {
			return missingTime
		}
		return missingValue
	}

	switch kind {
	case Float:
		return strconv.FormatFloat(v.(float64), 'f', decimals, 64)
	case Int:
		return strconv.FormatInt(v.(int64), 10)
	case Time:
		return v.(time.Time).Format(timeLayout)
	default:
		return v.(string)
	}
}

func decimalPlaces(v float64) int {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	dot := strings.IndexByte(s, '.')
	if dot < 0 {
		return 0
	}
	return min(len(s)-dot-1, maxDecimals)
}

func clip(s string, limit int) string {
	if limit <= Unlimited || textWidth(s) <= limit {
		return s
	}
	if limit <= len(ellipsis) {
		return ellipsis[:limit]
	}
	runes := []rune(s)
	return string(runes[:limit-len(ellipsis)]) + ellipsis
}

func repeat(s string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = s
	}
	return out
}

func textWidth(s string) int {
	return utf8.RuneCountInString(s)
}

func padLeft(s string, width int) string {
	if gap := width - textWidth(s); gap > 0 {
		return strings.Repeat(" ", gap) + s
	}
	return s
}

func padRight(s string, width int) string {
	if gap := width - textWidth(s); gap > 0 {
		return s + strings.Repeat(" ", gap)
	}
	return s
}
