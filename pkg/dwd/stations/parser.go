package stations

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/encoding/charmap"
)

// missingMarker fills empty cells of the catalogue
const missingMarker = "----"

// Column positions within the catalogue. The separator line under the
// header ("===== ===== ...") defines the character spans.
const (
	colID = iota + 2
	colICAO
	colName
	colLatitude
	colLongitude
	colHeight
)

type span struct {
	start, end int
}

// defaultSpans match the published layout and are used when the
// catalogue has no separator line
var defaultSpans = []span{
	{0, 5}, {6, 11}, {12, 17}, {18, 22}, {23, 43}, {44, 50}, {51, 58}, {59, 64}, {65, 71}, {72, 76},
}

// Parser handles parsing of the MOSMIX station catalogue
type Parser struct {
	now func() time.Time
}

// NewParser creates a new station catalogue parser
func NewParser() *Parser {
	return &Parser{now: time.Now}
}

// Parse parses a catalogue encoded in ISO-8859-1
func (p *Parser) Parse(reader io.Reader) (*Collection, error) {
	return p.parseText(charmap.ISO8859_1.NewDecoder().Reader(reader))
}

func (p *Parser) parseText(reader io.Reader) (*Collection, error) {
	scanner := bufio.NewScanner(reader)

	var lines []string
	spans := defaultSpans
	separatorSeen := false

	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if !separatorSeen {
			if isSeparator(line) {
				spans = separatorSpans(line)
				separatorSeen = true
				lines = nil
				continue
			}
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read station catalogue: %w", err)
	}
	if len(spans) <= colHeight {
		return nil, fmt.Errorf("station catalogue has %d columns, need at least %d", len(spans), colHeight+1)
	}

	collection := &Collection{LastUpdated: p.now()}
	for _, line := range lines {
		station, ok := parseLine(line, spans)
		if !ok {
			continue
		}
		collection.Stations = append(collection.Stations, station)
	}

	return collection, nil
}

// parseLine converts one fixed-width row. Rows without an identifier or
// valid coordinates are skipped.
func parseLine(line string, spans []span) (Station, bool) {
	if strings.TrimSpace(line) == "" {
		return Station{}, false
	}

	runes := []rune(line)
	field := func(col int) string {
		s := spans[col]
		if s.start >= len(runes) {
			return ""
		}
		end := min(s.end, len(runes))
		value := strings.TrimSpace(string(runes[s.start:end]))
		if value == missingMarker {
			return ""
		}
		return value
	}

	id := field(colID)
	if id == "" {
		return Station{}, false
	}

	lat, err := parseDegreesMinutes(field(colLatitude))
	if err != nil {
		return Station{}, false
	}
	lon, err := parseDegreesMinutes(field(colLongitude))
	if err != nil {
		return Station{}, false
	}

	station := Station{
		ID:        id,
		ICAO:      field(colICAO),
		Name:      field(colName),
		Latitude:  lat,
		Longitude: lon,
	}
	if h, err := strconv.ParseFloat(field(colHeight), 64); err == nil {
		station.Height = &h
	}

	return station, true
}

// parseDegreesMinutes converts the catalogue notation DD.MM into decimal
// degrees rounded to two places, e.g. "53.33" -> 53.55
func parseDegreesMinutes(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}

	degrees := math.Trunc(v)
	minutes := (v - degrees) * 100
	dd := degrees + minutes/60
	return math.Round(dd*100) / 100, nil
}

// isSeparator reports whether line consists of '=' runs separated by spaces
func isSeparator(line string) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return false
	}
	for _, c := range trimmed {
		if c != '=' && c != ' ' {
			return false
		}
	}
	return strings.Count(trimmed, " ") > 0
}

func separatorSpans(line string) []span {
	var spans []span
	start := -1
	for i, c := range []rune(line) {
		switch {
		case c == '=' && start < 0:
			start = i
		case c != '=' && start >= 0:
			spans = append(spans, span{start, i})
			start = -1
		}
	}
	if start >= 0 {
		spans = append(spans, span{start, len([]rune(line))})
	}
	return spans
}
