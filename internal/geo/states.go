package geo

import "strings"

// Point is a WGS84 coordinate.
type Point struct {
	Lat float64
	Lon float64
}

// stateSeats maps Indian states and union territories to the coordinates of
// their administrative seat. Used to place postings that only name a state.
var stateSeats = map[string]Point{
	"andhra pradesh":    {16.5062, 80.6480},
	"arunachal pradesh": {27.0844, 93.6053},
	"assam":             {26.1433, 91.7898},
	"bihar":             {25.5941, 85.1376},
	"chhattisgarh":      {21.2514, 81.6296},
	"goa":               {15.4909, 73.8278},
	"gujarat":           {23.2156, 72.6369},
	"haryana":           {30.7333, 76.7794},
	"himachal pradesh":  {31.1048, 77.1734},
	"jharkhand":         {23.3441, 85.3096},
	"karnataka":         {12.9716, 77.5946},
	"kerala":            {8.5241, 76.9366},
	"madhya pradesh":    {23.2599, 77.4126},
	"maharashtra":       {19.0760, 72.8777},
	"manipur":           {24.8170, 93.9368},
	"meghalaya":         {25.5788, 91.8933},
	"mizoram":           {23.7271, 92.7176},
	"nagaland":          {25.6751, 94.1086},
	"odisha":            {20.2961, 85.8245},
	"punjab":            {30.7333, 76.7794},
	"rajasthan":         {26.9124, 75.7873},
	"sikkim":            {27.3389, 88.6065},
	"tamil nadu":        {13.0827, 80.2707},
	"telangana":         {17.3850, 78.4867},
	"tripura":           {23.8315, 91.2868},
	"uttar pradesh":     {26.8467, 80.9462},
	"uttarakhand":       {30.3165, 78.0322},
	"west bengal":       {22.5726, 88.3639},

	"andaman and nicobar islands": {11.6234, 92.7265},
	"chandigarh":                  {30.7333, 76.7794},
	"dadra and nagar haveli and daman and diu": {20.3974, 72.8328},
	"delhi":             {28.6139, 77.2090},
	"jammu and kashmir": {34.0837, 74.7973},
	"ladakh":            {34.1526, 77.5771},
	"lakshadweep":       {10.5667, 72.6417},
	"puducherry":        {11.9416, 79.8083},
}

var stateAliases = map[string]string{
	"orissa":       "odisha",
	"new delhi":    "delhi",
	"nct of delhi": "delhi",
	"pondicherry":  "puducherry",
	"j&k":          "jammu and kashmir",
	"uttaranchal":  "uttarakhand",
}

// StateSeat returns the reference coordinate for a state name, matched
// case-insensitively.
func StateSeat(state string) (Point, bool) {
	key := strings.ToLower(strings.Join(strings.Fields(state), " "))
	if alias, ok := stateAliases[key]; ok {
		key = alias
	}
	p, ok := stateSeats[key]
	return p, ok
}
