package testutil

import (
	"os"
	"path/filepath"
)

// CropModelJSON is a small three-tree crop forest. For the reading
// {50, 40, 30, 25, 60, 6.5, 100} every tree votes "maize".
const CropModelJSON = `{
  "name": "crop",
  "columns": [
    {"name": "N", "kind": "numeric"},
    {"name": "P", "kind": "numeric"},
    {"name": "K", "kind": "numeric"},
    {"name": "temperature", "kind": "numeric"},
    {"name": "humidity", "kind": "numeric"},
    {"name": "ph", "kind": "numeric"},
    {"name": "rainfall", "kind": "numeric"}
  ],
  "classes": ["rice", "maize", "chickpea", "kidneybeans", "cotton", "coffee", "apple", "banana"],
  "trees": [
    {"nodes": [
      {"column": 6, "threshold": 150, "left": 1, "right": 4},
      {"column": 4, "threshold": 40, "left": 2, "right": 3},
      {"leaf": true, "class": 2},
      {"leaf": true, "class": 1},
      {"column": 4, "threshold": 75, "left": 5, "right": 6},
      {"leaf": true, "class": 5},
      {"leaf": true, "class": 0}
    ]},
    {"nodes": [
      {"column": 0, "threshold": 100, "left": 1, "right": 4},
      {"column": 2, "threshold": 100, "left": 2, "right": 3},
      {"leaf": true, "class": 1},
      {"leaf": true, "class": 6},
      {"column": 3, "threshold": 28, "left": 5, "right": 6},
      {"leaf": true, "class": 0},
      {"leaf": true, "class": 4}
    ]},
    {"nodes": [
      {"column": 5, "threshold": 5.5, "left": 1, "right": 2},
      {"leaf": true, "class": 5},
      {"column": 6, "threshold": 180, "left": 3, "right": 4},
      {"leaf": true, "class": 1},
      {"leaf": true, "class": 0}
    ]}
  ]
}`

// FertilizerModelJSON is a small three-tree fertilizer forest. For a Loamy,
// Maize query with Nitrogen 50, Potassium 30, Phosphorous 40 every tree votes
// "28-28"; the same query on Sandy soil gets "17-17-17".
const FertilizerModelJSON = `{
  "name": "fertilizer",
  "columns": [
    {"name": "Temparature", "kind": "numeric"},
    {"name": "Humidity ", "kind": "numeric"},
    {"name": "Moisture", "kind": "numeric"},
    {"name": "Soil Type", "kind": "categorical"},
    {"name": "Crop Type", "kind": "categorical"},
    {"name": "Nitrogen", "kind": "numeric"},
    {"name": "Potassium", "kind": "numeric"},
    {"name": "Phosphorous", "kind": "numeric"}
  ],
  "classes": ["Urea", "DAP", "14-35-14", "28-28", "17-17-17", "20-20", "10-26-26"],
  "trees": [
    {"nodes": [
      {"column": 5, "threshold": 30, "left": 1, "right": 2},
      {"leaf": true, "class": 1},
      {"column": 4, "category": "Paddy", "left": 3, "right": 4},
      {"leaf": true, "class": 0},
      {"column": 7, "threshold": 20, "left": 5, "right": 6},
      {"leaf": true, "class": 0},
      {"leaf": true, "class": 3}
    ]},
    {"nodes": [
      {"column": 3, "category": "Sandy", "left": 1, "right": 2},
      {"leaf": true, "class": 4},
      {"column": 6, "threshold": 20, "left": 3, "right": 4},
      {"leaf": true, "class": 1},
      {"leaf": true, "class": 3}
    ]},
    {"nodes": [
      {"column": 3, "category": "Sandy", "left": 1, "right": 2},
      {"leaf": true, "class": 4},
      {"leaf": true, "class": 3}
    ]}
  ]
}`

// WriteModels writes both fixture models into dir and returns their paths.
func WriteModels(dir string) (cropPath, fertilizerPath string, err error) {
	cropPath = filepath.Join(dir, "crop_model.json")
	fertilizerPath = filepath.Join(dir, "fertilizer_model.json")
	if err := os.WriteFile(cropPath, []byte(CropModelJSON), 0o600); err != nil {
		return "", "", err
	}
	if err := os.WriteFile(fertilizerPath, []byte(FertilizerModelJSON), 0o600); err != nil {
		return "", "", err
	}
	return cropPath, fertilizerPath, nil
}
