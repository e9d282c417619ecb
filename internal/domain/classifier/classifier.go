// Package classifier evaluates pre-trained decision forests exported from the
// offline training pipeline.
package classifier

import (
	"context"
	"fmt"
	"math"
	"strings"
)

// Kind is the type of a model input column.
type Kind string

const (
	KindNumeric     Kind = "numeric"
	KindCategorical Kind = "categorical"
)

// Column describes one input column the model was trained on.
type Column struct {
	Name string `json:"name" yaml:"name"`
	Kind Kind   `json:"kind" yaml:"kind"`
}

// Cell is one named input value.
type Cell struct {
	Name   string
	Kind   Kind
	Number float64
	Text   string
}

// Num builds a numeric cell.
func Num(name string, v float64) Cell { return Cell{Name: name, Kind: KindNumeric, Number: v} }

// Cat builds a categorical cell.
func Cat(name, v string) Cell { return Cell{Name: name, Kind: KindCategorical, Text: v} }

// Record is an ordered row of cells fed to a model.
type Record []Cell

// Prediction is a model's answer for one record.
type Prediction struct {
	Label string
	// Confidence is the share of trees that voted for Label, in (0, 1].
	Confidence float64
}

// Predictor classifies records. Implementations must be safe for concurrent use.
type Predictor interface {
	Predict(ctx context.Context, rec Record) (Prediction, error)
}

// Forest is a bagged ensemble of decision trees. It is read-only after Load.
type Forest struct {
	Name    string   `json:"name" yaml:"name"`
	Columns []Column `json:"columns" yaml:"columns"`
	Classes []string `json:"classes" yaml:"classes"`
	Trees   []Tree   `json:"trees" yaml:"trees"`
}

// Tree stores nodes in a flat slice; node 0 is the root and children always
// come after their parent.
type Tree struct {
	Nodes []Node `json:"nodes" yaml:"nodes"`
}

// Node is either a split or a leaf.
// Numeric splits go left when value <= Threshold; categorical splits go left
// when the value equals Category.
type Node struct {
	Leaf      bool    `json:"leaf,omitempty" yaml:"leaf,omitempty"`
	Class     int     `json:"class,omitempty" yaml:"class,omitempty"`
	Column    int     `json:"column,omitempty" yaml:"column,omitempty"`
	Threshold float64 `json:"threshold,omitempty" yaml:"threshold,omitempty"`
	Category  string  `json:"category,omitempty" yaml:"category,omitempty"`
	Left      int     `json:"left,omitempty" yaml:"left,omitempty"`
	Right     int     `json:"right,omitempty" yaml:"right,omitempty"`
}

var _ Predictor = (*Forest)(nil)

// Predict runs every tree and returns the majority class. Ties go to the
// class listed first in Classes.
func (f *Forest) Predict(ctx context.Context, rec Record) (Prediction, error) {
	if err := ctx.Err(); err != nil {
		return Prediction{}, err
	}
	if err := f.checkSchema(rec); err != nil {
		return Prediction{}, err
	}

	votes := make([]int, len(f.Classes))
	for i := range f.Trees {
		votes[f.Trees[i].eval(f.Columns, rec)]++
	}

	best := 0
	for c := 1; c < len(votes); c++ {
		if votes[c] > votes[best] {
			best = c
		}
	}
	return Prediction{
		Label:      f.Classes[best],
		Confidence: float64(votes[best]) / float64(len(f.Trees)),
	}, nil
}

// checkSchema verifies arity, column names, kinds and numeric finiteness.
func (f *Forest) checkSchema(rec Record) error {
	if len(rec) != len(f.Columns) {
		return fmt.Errorf("%w: model %q expects %d columns, got %d", ErrSchemaMismatch, f.Name, len(f.Columns), len(rec))
	}
	for i, col := range f.Columns {
		cell := rec[i]
		if normalizeName(cell.Name) != normalizeName(col.Name) {
			return fmt.Errorf("%w: column %d is %q, model %q expects %q", ErrSchemaMismatch, i, cell.Name, f.Name, col.Name)
		}
		if cell.Kind != col.Kind {
			return fmt.Errorf("%w: column %q is %s, model %q expects %s", ErrSchemaMismatch, cell.Name, cell.Kind, f.Name, col.Kind)
		}
		if cell.Kind == KindNumeric && (math.IsNaN(cell.Number) || math.IsInf(cell.Number, 0)) {
			return fmt.Errorf("%w: column %q must be a finite number", ErrInvalidInput, cell.Name)
		}
	}
	return nil
}

func (t *Tree) eval(cols []Column, rec Record) int {
	i := 0
	for {
		n := &t.Nodes[i]
		if n.Leaf {
			return n.Class
		}
		cell := rec[n.Column]
		var left bool
		if cols[n.Column].Kind == KindCategorical {
			left = strings.EqualFold(strings.TrimSpace(cell.Text), n.Category)
		} else {
			left = cell.Number <= n.Threshold
		}
		if left {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

// normalizeName makes column matching tolerant of stray whitespace and case,
// which exported datasets are prone to ("Humidity " vs "Humidity").
func normalizeName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
