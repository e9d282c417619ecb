// Package model contains domain models passed between layers.
package model

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidReading marks a reading the client must correct.
var ErrInvalidReading = errors.New("invalid reading")

// FieldNames lists the soil reading fields in the order the crop model expects.
var FieldNames = [7]string{"N", "P", "K", "temperature", "humidity", "ph", "rainfall"}

// SoilReading is one soil/climate sample submitted by a client.
// Field order mirrors FieldNames.
type SoilReading struct {
	N           float64 // nitrogen ratio in soil
	P           float64 // phosphorous ratio in soil
	K           float64 // potassium ratio in soil
	Temperature float64 // degrees Celsius
	Humidity    float64 // relative humidity, %
	PH          float64 // soil pH
	Rainfall    float64 // mm
}

// Values returns the reading as an ordered feature vector.
func (r SoilReading) Values() [7]float64 {
	return [7]float64{r.N, r.P, r.K, r.Temperature, r.Humidity, r.PH, r.Rainfall}
}

// ReadingFromValues builds a reading from an ordered vector.
func ReadingFromValues(v [7]float64) SoilReading {
	return SoilReading{
		N:           v[0],
		P:           v[1],
		K:           v[2],
		Temperature: v[3],
		Humidity:    v[4],
		PH:          v[5],
		Rainfall:    v[6],
	}
}

// Validate reports the first non-finite field. Negative or zero values are accepted.
func (r SoilReading) Validate() error {
	for i, v := range r.Values() {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s must be a finite number", ErrInvalidReading, FieldNames[i])
		}
	}
	return nil
}

// FertilizerQuery is the fertilizer model's view of a reading plus the crop.
type FertilizerQuery struct {
	Temperature float64
	Humidity    float64
	Moisture    float64 // approximated by soil pH; there is no moisture sensor
	SoilType    string
	CropType    string
	Nitrogen    float64
	Potassium   float64
	Phosphorous float64
}
