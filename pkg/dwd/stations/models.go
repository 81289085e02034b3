package stations

import (
	"time"

	"mosmix/internal/table"
)

// Station represents a MOSMIX forecast site from the DWD station catalogue
type Station struct {
	ID        string   `json:"station_id"`
	ICAO      string   `json:"icao_id,omitempty"`
	Name      string   `json:"name"`
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	Height    *float64 `json:"height,omitempty"`
}

// Collection holds the parsed station catalogue
type Collection struct {
	// When this data was fetched from DWD
	LastUpdated time.Time `json:"lastUpdated"`

	Stations []Station `json:"stations"`
}

// ByID returns a station by its identifier, or nil if not found
func (c *Collection) ByID(id string) *Station {
	for i := range c.Stations {
		if c.Stations[i].ID == id {
			return &c.Stations[i]
		}
	}
	return nil
}

// Filter returns the stations matching ids in the order of ids.
// Unknown identifiers are returned separately.
func (c *Collection) Filter(ids []string) (found []Station, missing []string) {
	for _, id := range ids {
		if station := c.ByID(id); station != nil {
			found = append(found, *station)
		} else {
			missing = append(missing, id)
		}
	}
	return found, missing
}

// Fields lists the columns of the station metadata table
var Fields = []table.Field{
	{Name: "station_id", Kind: table.String},
	{Name: "icao_id", Kind: table.String},
	{Name: "from_date", Kind: table.Time},
	{Name: "to_date", Kind: table.Time},
	{Name: "height", Kind: table.Float},
	{Name: "latitude", Kind: table.Float},
	{Name: "longitude", Kind: table.Float},
	{Name: "name", Kind: table.String},
	{Name: "state", Kind: table.String},
}

// Frame builds the station metadata table. MOSMIX stations carry no
// operating period or federal state, those cells stay missing.
func Frame(list []Station) *table.Frame {
	f := table.NewFrame(Fields...)
	for _, s := range list {
		var icao any
		if s.ICAO != "" {
			icao = s.ICAO
		}
		// Cell kinds match Fields, AppendRow cannot fail here
		_ = f.AppendRow(s.ID, icao, nil, nil, s.Height, s.Latitude, s.Longitude, s.Name, nil)
	}
	return f
}
