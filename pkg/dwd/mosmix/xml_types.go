package mosmix

// MOSMIX KML parsing types. Elements are matched by local name, the
// kml: and dwd: namespaces are not checked.

// kmlProductDefinition is dwd:ProductDefinition in the document header
type kmlProductDefinition struct {
	Issuer            string               `xml:"Issuer"`
	ProductID         string               `xml:"ProductID"`
	GeneratingProcess string               `xml:"GeneratingProcess"`
	IssueTime         string               `xml:"IssueTime"`
	ReferencedModels  []kmlReferencedModel `xml:"ReferencedModel>Model"`
	TimeSteps         []string             `xml:"ForecastTimeSteps>TimeStep"`
	UndefSign         string               `xml:"FormatCfg>DefaultUndefSign"`
}

type kmlReferencedModel struct {
	Name          string `xml:"name,attr"`
	ReferenceTime string `xml:"referenceTime,attr"`
}

// kmlPlacemark is one station
type kmlPlacemark struct {
	Name        string        `xml:"name"`
	Description string        `xml:"description"`
	Forecasts   []kmlForecast `xml:"ExtendedData>Forecast"`
	Coordinates string        `xml:"Point>coordinates"`
}

// kmlForecast is dwd:Forecast, a whitespace separated series for one element
type kmlForecast struct {
	ElementName string `xml:"elementName,attr"`
	Value       string `xml:"value"`
}

// ReferencedModel names a numerical model the run is based on
type ReferencedModel struct {
	Name          string
	ReferenceTime string
}
