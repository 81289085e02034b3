package mosmix

import "strings"

// Common MOSMIX element codes
const (
	TemperatureAirMean200 Parameter = "ttt"
	TemperatureDewPoint   Parameter = "td"
	WindSpeed             Parameter = "ff"
	WindDirection         Parameter = "dd"
	WindGustMaxLast1h     Parameter = "fx1"
	RadiationGlobal       Parameter = "rad1h"
	PressureAirReduced    Parameter = "pppp"
	CloudCoverTotal       Parameter = "n"
	SunshineDuration      Parameter = "sund1"
)

// ParameterInfo describes a MOSMIX element
type ParameterInfo struct {
	Code      Parameter
	HumanName string
	Unit      string
}

// parameterCatalog maps element codes to descriptive names and units as
// published by DWD. Codes are lower case.
var parameterCatalog = map[Parameter]ParameterInfo{
	"ttt":   {"ttt", "temperature_air_mean_200", "K"},
	"td":    {"td", "temperature_dew_point_mean_200", "K"},
	"tx":    {"tx", "temperature_air_max_200", "K"},
	"tn":    {"tn", "temperature_air_min_200", "K"},
	"t5cm":  {"t5cm", "temperature_air_mean_005", "K"},
	"tg":    {"tg", "temperature_air_min_005_last_12h", "K"},
	"dd":    {"dd", "wind_direction", "°"},
	"ff":    {"ff", "wind_speed", "m/s"},
	"fx1":   {"fx1", "wind_gust_max_last_1h", "m/s"},
	"fx3":   {"fx3", "wind_gust_max_last_3h", "m/s"},
	"fxh":   {"fxh", "wind_gust_max_last_12h", "m/s"},
	"fx625": {"fx625", "probability_wind_gust_ge_25_kn_last_12h", "%"},
	"fx640": {"fx640", "probability_wind_gust_ge_40_kn_last_12h", "%"},
	"fx655": {"fx655", "probability_wind_gust_ge_55_kn_last_12h", "%"},
	"rr1c":  {"rr1c", "precipitation_height_significant_weather_last_1h", "kg/m²"},
	"rr3c":  {"rr3c", "precipitation_height_significant_weather_last_3h", "kg/m²"},
	"rrs1c": {"rrs1c", "precipitation_height_liquid_significant_weather_last_1h", "kg/m²"},
	"rrs3c": {"rrs3c", "precipitation_height_liquid_significant_weather_last_3h", "kg/m²"},
	"r101":  {"r101", "probability_precipitation_height_gt_0_1_mm_last_12h", "%"},
	"r102":  {"r102", "probability_precipitation_height_gt_0_2_mm_last_12h", "%"},
	"r105":  {"r105", "probability_precipitation_height_gt_0_5_mm_last_12h", "%"},
	"r110":  {"r110", "probability_precipitation_height_gt_1_0_mm_last_12h", "%"},
	"r150":  {"r150", "probability_precipitation_height_gt_5_0_mm_last_12h", "%"},
	"ww":    {"ww", "weather_significant", "-"},
	"ww3":   {"ww3", "weather_significant_last_3h", "-"},
	"w1w2":  {"w1w2", "weather_last_6h", "-"},
	"n":     {"n", "cloud_cover_total", "%"},
	"neff":  {"neff", "cloud_cover_effective", "%"},
	"nh":    {"nh", "cloud_cover_above_7_km", "%"},
	"nm":    {"nm", "cloud_cover_between_2_to_7_km", "%"},
	"nl":    {"nl", "cloud_cover_below_2_km", "%"},
	"n05":   {"n05", "cloud_cover_below_500_ft", "%"},
	"pppp":  {"pppp", "pressure_air_site_reduced", "Pa"},
	"vv":    {"vv", "visibility_range", "m"},
	"sund1": {"sund1", "sunshine_duration", "s"},
	"sund3": {"sund3", "sunshine_duration_last_3h", "s"},
	"rsund": {"rsund", "sunshine_duration_relative_last_24h", "%"},
	"rad1h": {"rad1h", "radiation_global", "kJ/m²"},
	"e_ttt": {"e_ttt", "error_absolute_temperature_air_mean_200", "K"},
	"e_td":  {"e_td", "error_absolute_temperature_dew_point_mean_200", "K"},
	"e_ff":  {"e_ff", "error_absolute_wind_speed", "m/s"},
	"e_dd":  {"e_dd", "error_absolute_wind_direction", "°"},
	"e_ppp": {"e_ppp", "error_absolute_pressure_air_site", "Pa"},
}

// LookupParameter returns the catalogue entry for a code, case-insensitively
func LookupParameter(code Parameter) (ParameterInfo, bool) {
	info, ok := parameterCatalog[Parameter(strings.ToLower(string(code)))]
	return info, ok
}

// columnName returns the column label for code
func columnName(code Parameter, humanize bool) string {
	if humanize {
		if info, ok := LookupParameter(code); ok {
			return info.HumanName
		}
	}
	return string(code)
}
