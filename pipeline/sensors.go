// Package pipeline builds the annual NDVI composite series for a region: it
// turns a study description into lazy earthengine expressions and materializes
// only what the viewer needs.
package pipeline

import (
	"fmt"
	"time"
)

// Generation identifies a Landsat sensor generation.
type Generation int

const (
	Landsat5 Generation = iota + 1 // Thematic Mapper, narrower bands
	Landsat8                       // OLI/TIRS, wider band set
)

func (g Generation) String() string {
	if s, ok := sensorTable[g]; ok {
		return s.Name
	}
	return fmt.Sprintf("Generation(%d)", int(g))
}

// Reflectance and surface temperature rescaling of Collection 2 Level-2 products.
const (
	OpticalScale  = 0.0000275
	OpticalOffset = -0.2
	ThermalScale  = 0.00341802
	ThermalOffset = 149.0
)

// IndexBand is the name of the vegetation index band added to every image.
const IndexBand = "NDVI"

// SensorSpec is everything that differs between sensor generations.
type SensorSpec struct {
	Generation Generation
	Name       string
	Archive    string
	// Start and End bound the archive's usable acquisitions, [Start, End).
	Start time.Time
	End   time.Time

	Red string
	NIR string
	// Optical and Thermal are band selectors (regular expressions).
	Optical string
	Thermal string

	QABand         string
	CloudBit       uint
	ShadowBit      uint
	SaturationBand string
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

var sensorTable = map[Generation]SensorSpec{
	Landsat5: {
		Generation:     Landsat5,
		Name:           "Landsat 5 TM",
		Archive:        "LANDSAT/LT05/C02/T1_L2",
		Start:          date(1984, time.January, 1),
		End:            date(2012, time.January, 1),
		Red:            "SR_B3",
		NIR:            "SR_B4",
		Optical:        "SR_B.",
		Thermal:        "ST_B6",
		QABand:         "QA_PIXEL",
		CloudBit:       3,
		ShadowBit:      4,
		SaturationBand: "QA_RADSAT",
	},
	Landsat8: {
		Generation:     Landsat8,
		Name:           "Landsat 8 OLI/TIRS",
		Archive:        "LANDSAT/LC08/C02/T1_L2",
		Start:          date(2013, time.January, 1),
		End:            date(2025, time.January, 1),
		Red:            "SR_B4",
		NIR:            "SR_B5",
		Optical:        "SR_B.",
		Thermal:        "ST_B10",
		QABand:         "QA_PIXEL",
		CloudBit:       3,
		ShadowBit:      4,
		SaturationBand: "QA_RADSAT",
	},
}

// Generations lists the sensor generations in chronological order.
func Generations() []Generation { return []Generation{Landsat5, Landsat8} }

// Sensor returns the table entry for g.
func Sensor(g Generation) (SensorSpec, error) {
	s, ok := sensorTable[g]
	if !ok {
		return SensorSpec{}, fmt.Errorf("unknown sensor generation %d", int(g))
	}
	return s, nil
}

// IndexBands returns the red and near-infrared band names. Band selection and
// the index calculation both go through here.
func (s SensorSpec) IndexBands() (red, nir string) { return s.Red, s.NIR }

// IndexBands looks up the red and near-infrared band names of g. Like Sensor,
// it fails for an unknown generation.
func IndexBands(g Generation) (red, nir string, err error) {
	s, err := Sensor(g)
	if err != nil {
		return "", "", err
	}
	red, nir = s.IndexBands()
	return red, nir, nil
}
