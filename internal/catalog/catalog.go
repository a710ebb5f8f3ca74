// Package catalog holds the fixed set of World Bank indicator codes and
// comparison countries the dashboard works with.
package catalog

import "sort"

// Indicator describes one World Bank indicator series.
type Indicator struct {
	Key   string `json:"key"`   // stable slug used in API requests, e.g. "gdp_growth"
	Code  string `json:"code"`  // World Bank indicator code, e.g. "NY.GDP.MKTP.KD.ZG"
	Name  string `json:"name"`  // display name
	Group string `json:"group"` // "economy", "social", "infrastructure", "environment"
}

var indicators = []Indicator{
	// Economic indicators
	{Key: "gdp", Code: "NY.GDP.MKTP.CD", Name: "GDP (current US$)", Group: "economy"},
	{Key: "gdp_growth", Code: "NY.GDP.MKTP.KD.ZG", Name: "GDP growth (annual %)", Group: "economy"},
	{Key: "gdp_per_capita", Code: "NY.GDP.PCAP.CD", Name: "GDP per capita (current US$)", Group: "economy"},
	{Key: "inflation", Code: "FP.CPI.TOTL.ZG", Name: "Inflation, consumer prices (annual %)", Group: "economy"},
	{Key: "unemployment", Code: "SL.UEM.TOTL.ZS", Name: "Unemployment (% of labor force)", Group: "economy"},
	{Key: "fdi", Code: "BX.KLT.DINV.CD.WD", Name: "Foreign direct investment, net inflows", Group: "economy"},
	{Key: "trade", Code: "NE.TRD.GNFS.ZS", Name: "Trade (% of GDP)", Group: "economy"},
	{Key: "agriculture_gdp", Code: "NV.AGR.TOTL.ZS", Name: "Agriculture, value added (% of GDP)", Group: "economy"},
	{Key: "industry_gdp", Code: "NV.IND.TOTL.ZS", Name: "Industry, value added (% of GDP)", Group: "economy"},
	{Key: "services_gdp", Code: "NV.SRV.TOTL.ZS", Name: "Services, value added (% of GDP)", Group: "economy"},

	// Social indicators
	{Key: "population", Code: "SP.POP.TOTL", Name: "Population, total", Group: "social"},
	{Key: "life_expectancy", Code: "SP.DYN.LE00.IN", Name: "Life expectancy at birth", Group: "social"},
	{Key: "infant_mortality", Code: "SP.DYN.IMRT.IN", Name: "Infant mortality rate", Group: "social"},
	{Key: "literacy", Code: "SE.ADT.LITR.ZS", Name: "Literacy rate, adult total", Group: "social"},
	{Key: "school_enrollment_primary", Code: "SE.PRM.NENR", Name: "School enrollment, primary", Group: "social"},
	{Key: "school_enrollment_secondary", Code: "SE.SEC.NENR", Name: "School enrollment, secondary", Group: "social"},
	{Key: "poverty_headcount", Code: "SI.POV.DDAY", Name: "Poverty headcount ratio at $2.15 a day", Group: "social"},
	{Key: "gini_index", Code: "SI.POV.GINI", Name: "Gini index", Group: "social"},

	// Infrastructure & technology
	{Key: "electricity_access", Code: "EG.ELC.ACCS.ZS", Name: "Access to electricity (% of population)", Group: "infrastructure"},
	{Key: "internet_users", Code: "IT.NET.USER.ZS", Name: "Individuals using the Internet (% of population)", Group: "infrastructure"},
	{Key: "mobile_subscriptions", Code: "IT.CEL.SETS.P2", Name: "Mobile cellular subscriptions (per 100 people)", Group: "infrastructure"},
	{Key: "roads_paved", Code: "IS.ROD.PVED.ZS", Name: "Roads, paved (% of total roads)", Group: "infrastructure"},
	{Key: "renewable_energy", Code: "EG.FEC.RNEW.ZS", Name: "Renewable energy consumption", Group: "infrastructure"},

	// Governance & environment
	{Key: "co2_emissions", Code: "EN.ATM.CO2E.PC", Name: "CO2 emissions (metric tons per capita)", Group: "environment"},
	{Key: "forest_area", Code: "AG.LND.FRST.ZS", Name: "Forest area (% of land area)", Group: "environment"},
	{Key: "water_access", Code: "SH.H2O.SMDW.ZS", Name: "Safely managed drinking water services", Group: "environment"},
}

// Countries maps ISO3 codes to display names for the comparison set.
var Countries = map[string]string{
	"NGA": "Nigeria",
	"ZAF": "South Africa",
	"EGY": "Egypt",
	"KEN": "Kenya",
	"GHA": "Ghana",
	"ETH": "Ethiopia",
}

// pre-compute for fast lookup
var byKey map[string]Indicator

func init() {
	byKey = make(map[string]Indicator, len(indicators))
	for _, ind := range indicators {
		byKey[ind.Key] = ind
	}
}

// Lookup resolves an indicator slug to its catalog entry.
func Lookup(key string) (Indicator, bool) {
	ind, ok := byKey[key]
	return ind, ok
}

// All returns the full catalog sorted by key.
func All() []Indicator {
	out := make([]Indicator, len(indicators))
	copy(out, indicators)
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// CountryCodes returns the comparison country codes sorted alphabetically.
func CountryCodes() []string {
	codes := make([]string, 0, len(Countries))
	for code := range Countries {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
