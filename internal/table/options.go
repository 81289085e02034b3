package table

import "sync/atomic"

// Unlimited disables a display limit
const Unlimited = 0

// DisplayOptions control how frames are rendered as text
type DisplayOptions struct {
	// MaxRows is the number of rows shown before the output collapses to head and tail
	MaxRows int

	// MaxColumns is the number of columns shown before the output collapses to left and right halves
	MaxColumns int

	// Width is the line width in characters before columns wrap into blocks
	Width int

	// MaxColWidth is the maximum width of a single cell
	MaxColWidth int
}

// DefaultDisplayOptions returns the options used until SetDisplayOptions is called
func DefaultDisplayOptions() DisplayOptions {
	return DisplayOptions{
		MaxRows:     60,
		MaxColumns:  20,
		Width:       80,
		MaxColWidth: 50,
	}
}

// UnlimitedDisplayOptions shows every row, every column and every character
func UnlimitedDisplayOptions() DisplayOptions {
	return DisplayOptions{
		MaxRows:     Unlimited,
		MaxColumns:  Unlimited,
		Width:       Unlimited,
		MaxColWidth: Unlimited,
	}
}

var displayOptions atomic.Pointer[DisplayOptions]

func init() {
	opts := DefaultDisplayOptions()
	displayOptions.Store(&opts)
}

// SetDisplayOptions replaces the process-wide display options
func SetDisplayOptions(opts DisplayOptions) {
	displayOptions.Store(&opts)
}

// CurrentDisplayOptions returns the process-wide display options
func CurrentDisplayOptions() DisplayOptions {
	return *displayOptions.Load()
}
