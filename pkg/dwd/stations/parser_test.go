package stations

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const catalogSeparator = "===== ===== ===== ==== ==================== ====== ======= ===== ====== ===="

func catalogRow(id, icao, name, lat, lon, elev string) string {
	return fmt.Sprintf("%-5s %-5s %-5s %-4s %-20s %6s %7s %5s %6s %-4s",
		"99999", "10000", id, icao, name, lat, lon, elev, "-13", "LAND")
}

func testCatalog() string {
	return strings.Join([]string{
		"TABLE FOR MOSMIX STATIONS",
		"",
		"clu   CofX  id    ICAO name                 nb.    el.     elev Hmod-H type",
		catalogSeparator,
		catalogRow("01001", "ENJA", "JAN MAYEN", "70.56", "-8.40", "10"),
		catalogRow("P0489", "----", "HAMBURG INNENSTADT", "53.33", "10.00", "8"),
		catalogRow("10007", "----", "SPEZIALSTATION", "53.32", "9.59", "----"),
		"",
	}, "\n")
}

func TestParseCatalog(t *testing.T) {
	parser := NewParser()
	fixed := time.Date(2021, 3, 18, 5, 0, 0, 0, time.UTC)
	parser.now = func() time.Time { return fixed }

	collection, err := parser.Parse(strings.NewReader(testCatalog()))
	require.NoError(t, err)
	require.Len(t, collection.Stations, 3)
	assert.Equal(t, fixed, collection.LastUpdated)

	janMayen := collection.Stations[0]
	assert.Equal(t, "01001", janMayen.ID)
	assert.Equal(t, "ENJA", janMayen.ICAO)
	assert.Equal(t, "JAN MAYEN", janMayen.Name)
	assert.InDelta(t, 70.93, janMayen.Latitude, 1e-9)
	assert.InDelta(t, -8.67, janMayen.Longitude, 1e-9)
	require.NotNil(t, janMayen.Height)
	assert.Equal(t, 10.0, *janMayen.Height)

	hamburg := collection.ByID("P0489")
	require.NotNil(t, hamburg)
	assert.Empty(t, hamburg.ICAO, "---- marks a missing ICAO code")
	assert.Equal(t, "HAMBURG INNENSTADT", hamburg.Name)
	assert.InDelta(t, 53.55, hamburg.Latitude, 1e-9)
	assert.InDelta(t, 10.0, hamburg.Longitude, 1e-9)

	assert.Nil(t, collection.ByID("10007").Height)
}

func TestParseCatalogLatin1(t *testing.T) {
	// "MÜNCHEN" encoded as ISO-8859-1
	name := "M\xdcNCHEN"
	catalog := strings.Join([]string{catalogSeparator, catalogRow("10865", "EDDM", name, "48.21", "11.35", "446")}, "\n")

	collection, err := NewParser().Parse(strings.NewReader(catalog))
	require.NoError(t, err)
	require.Len(t, collection.Stations, 1)
	assert.Equal(t, "MÜNCHEN", collection.Stations[0].Name)
}

func TestParseCatalogWithoutSeparator(t *testing.T) {
	catalog := catalogRow("P0489", "----", "HAMBURG INNENSTADT", "53.33", "10.00", "8")

	collection, err := NewParser().Parse(strings.NewReader(catalog))
	require.NoError(t, err)
	require.Len(t, collection.Stations, 1)
	assert.Equal(t, "P0489", collection.Stations[0].ID)
}

func TestParseDegreesMinutes(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected float64
		wantErr  bool
	}{
		{"Northern", "53.33", 53.55, false},
		{"Whole_Degrees", "10.00", 10.0, false},
		{"Negative", "-8.40", -8.67, false},
		{"Invalid", "abc", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseDegreesMinutes(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.expected, got, 1e-9)
		})
	}
}

func TestSeparatorSpans(t *testing.T) {
	spans := separatorSpans(catalogSeparator)
	assert.Equal(t, defaultSpans, spans)
	assert.True(t, isSeparator(catalogSeparator))
	assert.False(t, isSeparator("====="), "a single run is not a column separator")
	assert.False(t, isSeparator("01001 ENJA"))
}

func TestCollectionFilter(t *testing.T) {
	collection := &Collection{Stations: []Station{
		{ID: "01001", Name: "JAN MAYEN"},
		{ID: "P0489", Name: "HAMBURG INNENSTADT"},
	}}

	found, missing := collection.Filter([]string{"P0489", "XXXXX", "01001"})
	require.Len(t, found, 2)
	assert.Equal(t, "P0489", found[0].ID, "filter keeps request order")
	assert.Equal(t, "01001", found[1].ID)
	assert.Equal(t, []string{"XXXXX"}, missing)
}

func TestFrame(t *testing.T) {
	height := 8.0
	frame := Frame([]Station{{ID: "P0489", Name: "HAMBURG INNENSTADT", Latitude: 53.55, Longitude: 10.0, Height: &height}})

	assert.Equal(t, []string{"station_id", "icao_id", "from_date", "to_date", "height", "latitude", "longitude", "name", "state"}, frame.Columns())
	require.Equal(t, 1, frame.NumRows())

	id, ok := frame.Cell(0, "station_id")
	require.True(t, ok)
	assert.Equal(t, "P0489", id)

	_, ok = frame.Cell(0, "icao_id")
	assert.False(t, ok)
	_, ok = frame.Cell(0, "from_date")
	assert.False(t, ok)
}
