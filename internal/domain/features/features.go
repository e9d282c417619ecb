// Package features maps soil readings onto the input rows the crop and
// fertilizer models were trained on.
package features

import (
	"strings"

	"github.com/okian/cropadvisor/internal/domain/classifier"
	"github.com/okian/cropadvisor/internal/domain/model"
)

const (
	// DefaultSoilType is used when the caller does not name one.
	DefaultSoilType = "Loamy"
	// DefaultCropType is used for crops the fertilizer dataset does not know.
	DefaultCropType = "Maize"
)

// Column names of the fertilizer training dataset, spelling included.
const (
	ColTemperature = "Temparature"
	ColHumidity    = "Humidity"
	ColMoisture    = "Moisture"
	ColSoilType    = "Soil Type"
	ColCropType    = "Crop Type"
	ColNitrogen    = "Nitrogen"
	ColPotassium   = "Potassium"
	ColPhosphorous = "Phosphorous"
)

// cropTypes groups crop model labels into the fertilizer dataset's crop types.
var cropTypes = map[string]string{
	"rice":        "Paddy",
	"maize":       "Maize",
	"chickpea":    "Pulses",
	"kidneybeans": "Pulses",
	"pigeonpeas":  "Pulses",
	"mothbeans":   "Pulses",
	"mungbean":    "Pulses",
	"blackgram":   "Pulses",
	"lentil":      "Pulses",
	"pomegranate": "Fruits",
	"banana":      "Fruits",
	"mango":       "Fruits",
	"grapes":      "Fruits",
	"watermelon":  "Fruits",
	"muskmelon":   "Fruits",
	"apple":       "Fruits",
	"orange":      "Fruits",
	"papaya":      "Fruits",
	"coconut":     "Oil seeds",
	"cotton":      "Cotton",
	"jute":        "Fiber",
	"coffee":      "Beverages",
}

// CropRecord returns the crop model row for r.
func CropRecord(r model.SoilReading) classifier.Record {
	v := r.Values()
	rec := make(classifier.Record, len(v))
	for i := range v {
		rec[i] = classifier.Num(model.FieldNames[i], v[i])
	}
	return rec
}

// CropType maps a crop label to its fertilizer crop type. Unknown labels map
// to DefaultCropType.
func CropType(label string) string {
	if t, ok := cropTypes[strings.ToLower(strings.TrimSpace(label))]; ok {
		return t
	}
	return DefaultCropType
}

// Fertilizer builds the fertilizer query for a predicted crop.
// There is no moisture reading, so soil pH stands in for it.
func Fertilizer(crop string, r model.SoilReading, soilType string) model.FertilizerQuery {
	if strings.TrimSpace(soilType) == "" {
		soilType = DefaultSoilType
	}
	return model.FertilizerQuery{
		Temperature: r.Temperature,
		Humidity:    r.Humidity,
		Moisture:    r.PH,
		SoilType:    soilType,
		CropType:    CropType(crop),
		Nitrogen:    r.N,
		Potassium:   r.K,
		Phosphorous: r.P,
	}
}

// FertilizerRecord returns the fertilizer model row for q.
func FertilizerRecord(q model.FertilizerQuery) classifier.Record {
	return classifier.Record{
		classifier.Num(ColTemperature, q.Temperature),
		classifier.Num(ColHumidity, q.Humidity),
		classifier.Num(ColMoisture, q.Moisture),
		classifier.Cat(ColSoilType, q.SoilType),
		classifier.Cat(ColCropType, q.CropType),
		classifier.Num(ColNitrogen, q.Nitrogen),
		classifier.Num(ColPotassium, q.Potassium),
		classifier.Num(ColPhosphorous, q.Phosphorous),
	}
}
