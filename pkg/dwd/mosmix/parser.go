package mosmix

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/klauspost/compress/zip"
	"golang.org/x/text/encoding/ianaindex"
)

// ErrStop may be returned by a callback to end parsing early without error
var ErrStop = errors.New("mosmix: stop parsing")

// Callbacks receive the parsed parts of a MOSMIX document in file order.
// OnProduct is called once, before the first placemark.
type Callbacks struct {
	OnProduct   func(ProductInfo) error
	OnPlacemark func(StationForecast) error

	// Want selects placemarks by station id before their values are
	// parsed. Nil accepts every placemark.
	Want func(stationID string) bool
}

// Parser decodes MOSMIX KMZ/KML documents
type Parser struct{}

// NewParser creates a new MOSMIX parser
func NewParser() *Parser {
	return &Parser{}
}

// ParseKMZ reads a KMZ archive and parses its KML document. The archive is
// buffered in memory because the zip directory sits at the end of the file.
func (p *Parser) ParseKMZ(r io.Reader, cb Callbacks) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read archive: %w", err)
	}

	archive, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return fmt.Errorf("failed to open KMZ archive: %w", err)
	}

	for _, file := range archive.File {
		if !strings.HasSuffix(strings.ToLower(file.Name), ".kml") {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", file.Name, err)
		}
		defer rc.Close()
		return p.ParseKML(rc, cb)
	}

	return fmt.Errorf("KMZ archive contains no KML document")
}

// ParseKML streams a KML document, decoding one placemark at a time
func (p *Parser) ParseKML(r io.Reader, cb Callbacks) error {
	decoder := xml.NewDecoder(r)
	decoder.CharsetReader = charsetReader

	var product *ProductInfo
	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to decode XML: %w", err)
		}

		start, ok := token.(xml.StartElement)
		if !ok {
			continue
		}

		switch start.Name.Local {
		case "ProductDefinition":
			var def kmlProductDefinition
			if err := decoder.DecodeElement(&def, &start); err != nil {
				return fmt.Errorf("failed to decode product definition: %w", err)
			}
			info, err := productInfo(def)
			if err != nil {
				return err
			}
			product = &info
			if cb.OnProduct != nil {
				if err := cb.OnProduct(info); err != nil {
					return stopOrError(err)
				}
			}

		case "Placemark":
			if product == nil {
				return fmt.Errorf("placemark before product definition")
			}
			var pm kmlPlacemark
			if err := decoder.DecodeElement(&pm, &start); err != nil {
				return fmt.Errorf("failed to decode placemark: %w", err)
			}
			if cb.Want != nil && !cb.Want(strings.TrimSpace(pm.Name)) {
				continue
			}
			forecast, err := stationForecast(pm, *product)
			if err != nil {
				return err
			}
			if cb.OnPlacemark != nil {
				if err := cb.OnPlacemark(forecast); err != nil {
					return stopOrError(err)
				}
			}
		}
	}

	if product == nil {
		return fmt.Errorf("document has no product definition")
	}
	return nil
}

func stopOrError(err error) error {
	if errors.Is(err, ErrStop) {
		return nil
	}
	return err
}

// charsetReader resolves the encoding named in the XML declaration,
// DWD publishes MOSMIX as ISO-8859-1
func charsetReader(charset string, input io.Reader) (io.Reader, error) {
	enc, err := ianaindex.IANA.Encoding(charset)
	if err != nil {
		return nil, fmt.Errorf("unknown charset %q: %w", charset, err)
	}
	if enc == nil {
		return nil, fmt.Errorf("unsupported charset %q", charset)
	}
	return enc.NewDecoder().Reader(input), nil
}

func productInfo(def kmlProductDefinition) (ProductInfo, error) {
	info := ProductInfo{
		Issuer:    strings.TrimSpace(def.Issuer),
		ProductID: strings.TrimSpace(def.ProductID),
		UndefSign: strings.TrimSpace(def.UndefSign),
	}
	if info.UndefSign == "" {
		info.UndefSign = "-"
	}

	issued, err := parseTime(def.IssueTime)
	if err != nil {
		return ProductInfo{}, fmt.Errorf("invalid issue time: %w", err)
	}
	info.IssueTime = issued

	info.TimeSteps = make([]time.Time, 0, len(def.TimeSteps))
	for _, step := range def.TimeSteps {
		ts, err := parseTime(step)
		if err != nil {
			return ProductInfo{}, fmt.Errorf("invalid time step: %w", err)
		}
		info.TimeSteps = append(info.TimeSteps, ts)
	}

	for _, m := range def.ReferencedModels {
		info.Models = append(info.Models, ReferencedModel{Name: m.Name, ReferenceTime: m.ReferenceTime})
	}

	return info, nil
}

func stationForecast(pm kmlPlacemark, product ProductInfo) (StationForecast, error) {
	forecast := StationForecast{
		StationID: strings.TrimSpace(pm.Name),
		Name:      strings.TrimSpace(pm.Description),
	}

	lon, lat, height, err := parseCoordinates(pm.Coordinates)
	if err != nil {
		return StationForecast{}, fmt.Errorf("station %s: %w", forecast.StationID, err)
	}
	forecast.Longitude, forecast.Latitude, forecast.Height = lon, lat, height

	forecast.Elements = make([]Element, 0, len(pm.Forecasts))
	for _, f := range pm.Forecasts {
		values, err := parseValues(f.Value, product.UndefSign, len(product.TimeSteps))
		if err != nil {
			return StationForecast{}, fmt.Errorf("station %s element %s: %w", forecast.StationID, f.ElementName, err)
		}
		forecast.Elements = append(forecast.Elements, Element{
			Code:   Parameter(strings.ToLower(strings.TrimSpace(f.ElementName))),
			Values: values,
		})
	}

	return forecast, nil
}

// parseValues splits a whitespace separated series. The undefined sign
// becomes NaN.
func parseValues(s, undef string, expected int) ([]float64, error) {
	fields := strings.Fields(s)
	if len(fields) != expected {
		return nil, fmt.Errorf("got %d values for %d time steps", len(fields), expected)
	}

	values := make([]float64, len(fields))
	for i, field := range fields {
		if field == undef || field == "-" {
			values[i] = math.NaN()
			continue
		}
		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid value %q: %w", field, err)
		}
		values[i] = v
	}
	return values, nil
}

// parseCoordinates parses KML "lon,lat[,height]"
func parseCoordinates(s string) (lon, lat, height float64, err error) {
	parts := strings.Split(strings.TrimSpace(s), ",")
	if len(parts) < 2 {
		return 0, 0, 0, fmt.Errorf("invalid coordinates %q", s)
	}

	nums := make([]float64, 3)
	for i := 0; i < len(parts) && i < 3; i++ {
		nums[i], err = strconv.ParseFloat(strings.TrimSpace(parts[i]), 64)
		if err != nil {
			return 0, 0, 0, fmt.Errorf("invalid coordinates %q: %w", s, err)
		}
	}
	return nums[0], nums[1], nums[2], nil
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
