package mosmix

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/require"

	"mosmix/pkg/dwd"
)

const (
	testBaseURL    = "https://example.invalid/mos"
	testCatalogURL = "https://example.invalid/catalog.cfg"
)

// MockGetter serves fixed bodies by URL and records every request
type MockGetter struct {
	mu     sync.Mutex
	Bodies map[string][]byte
	URLs   []string
}

func (m *MockGetter) Get(ctx context.Context, url string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.URLs = append(m.URLs, url)

	body, ok := m.Bodies[url]
	if !ok {
		return nil, &dwd.Error{Code: dwd.ErrCodeNotFound, Message: "file not found", URL: url, StatusCode: 404}
	}
	return io.NopCloser(bytes.NewReader(body)), nil
}

func (m *MockGetter) Requested() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]string, len(m.URLs))
	copy(result, m.URLs)
	return result
}

func catalogRow(id, icao, name, lat, lon, elev string) string {
	return fmt.Sprintf("%-5s %-5s %-5s %-4s %-20s %6s %7s %5s %6s %-4s",
		"99999", "10000", id, icao, name, lat, lon, elev, "-13", "LAND")
}

func testCatalog() string {
	return strings.Join([]string{
		"clu   CofX  id    ICAO name                 nb.    el.     elev Hmod-H type",
		"===== ===== ===== ==== ==================== ====== ======= ===== ====== ====",
		catalogRow("01001", "ENJA", "JAN MAYEN", "70.56", "-8.40", "10"),
		catalogRow("P0489", "----", "HAMBURG INNENSTADT", "53.33", "10.00", "8"),
		catalogRow("10865", "EDDM", "MUENCHEN", "48.21", "11.35", "446"),
	}, "\n")
}

type testElement struct {
	name   string
	values string
}

func placemark(id, description, coordinates string, elements ...testElement) string {
	var b strings.Builder
	b.WriteString("<kml:Placemark>\n")
	fmt.Fprintf(&b, "<kml:name>%s</kml:name>\n<kml:description>%s</kml:description>\n<kml:ExtendedData>\n", id, description)
	for _, e := range elements {
		fmt.Fprintf(&b, "<dwd:Forecast dwd:elementName=\"%s\">\n<dwd:value>%s</dwd:value>\n</dwd:Forecast>\n", e.name, e.values)
	}
	fmt.Fprintf(&b, "</kml:ExtendedData>\n<kml:Point>\n<kml:coordinates>%s</kml:coordinates>\n</kml:Point>\n", coordinates)
	b.WriteString("</kml:Placemark>\n")
	return b.String()
}

func kmlDocument(placemarks ...string) string {
	return `<?xml version="1.0" encoding="ISO-8859-1" standalone="yes"?>
<kml:kml xmlns:dwd="https://opendata.dwd.de/weather/lib/pointforecast_dwd_extension_V1_0.xsd" xmlns:kml="http://www.opengis.net/kml/2.2">
<kml:Document>
<kml:ExtendedData>
<dwd:ProductDefinition>
<dwd:Issuer>Deutscher Wetterdienst</dwd:Issuer>
<dwd:ProductID>MOSMIX</dwd:ProductID>
<dwd:GeneratingProcess>DWD MOSMIX hourly, Version 1.0</dwd:GeneratingProcess>
<dwd:IssueTime>2021-03-18T05:00:00.000Z</dwd:IssueTime>
<dwd:ReferencedModel>
<dwd:Model dwd:name="ICON" dwd:referenceTime="2021-03-18T00:00:00Z"/>
<dwd:Model dwd:name="ECMWF/IFS" dwd:referenceTime="2021-03-18T00:00:00Z"/>
</dwd:ReferencedModel>
<dwd:ForecastTimeSteps>
<dwd:TimeStep>2021-03-18T06:00:00.000Z</dwd:TimeStep>
<dwd:TimeStep>2021-03-18T07:00:00.000Z</dwd:TimeStep>
<dwd:TimeStep>2021-03-18T08:00:00.000Z</dwd:TimeStep>
</dwd:ForecastTimeSteps>
<dwd:FormatCfg>
<dwd:DefaultUndefSign>-</dwd:DefaultUndefSign>
</dwd:FormatCfg>
</dwd:ProductDefinition>
</kml:ExtendedData>
` + strings.Join(placemarks, "") + `</kml:Document>
</kml:kml>
`
}

func hamburgPlacemark() string {
	return placemark("P0489", "HAMBURG INNENSTADT", "10.0,53.55,8.0",
		testElement{"TTT", "   280.15   281.05        -"},
		testElement{"FF", "     3.09     3.60     4.12"},
		testElement{"Rad1h", "     0.00   112.00   405.00"},
	)
}

func janMayenPlacemark() string {
	return placemark("01001", "JAN MAYEN", "-8.67,70.93,10.0",
		testElement{"TTT", "   270.15   270.55   271.05"},
		testElement{"FF", "    10.29    11.32    11.83"},
		testElement{"Rad1h", "        -        -        -"},
	)
}

func kmzArchive(t *testing.T, name, document string) []byte {
	t.Helper()

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	f, err := w.Create(name)
	require.NoError(t, err)
	_, err = f.Write([]byte(document))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}
