package model

// Stage is the furthest point a prediction request reached.
type Stage int

const (
	StageInit Stage = iota
	StageModelsLoaded
	StageCropPredicted
	StageFertilizerAttempted
	StageEnrichmentAttempted
	StageDone
	StageAborted
)

var stageNames = map[Stage]string{
	StageInit:                "init",
	StageModelsLoaded:        "models_loaded",
	StageCropPredicted:       "crop_predicted",
	StageFertilizerAttempted: "fertilizer_attempted",
	StageEnrichmentAttempted: "enrichment_attempted",
	StageDone:                "done",
	StageAborted:             "aborted",
}

func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return "unknown"
}

// PredictionResult is assembled fresh for every request. Nil fields are absent.
type PredictionResult struct {
	Crop       *string `json:"crop"`
	Fertilizer *string `json:"fertilizer"`
	Enrichment *string `json:"enrichment"`
	Error      *string `json:"error"`

	Stage Stage `json:"-"`
}

// Aborted returns a result that carries only an error message.
func Aborted(msg string) PredictionResult {
	return PredictionResult{Error: &msg, Stage: StageAborted}
}

// Ptr returns a pointer to s.
func Ptr(s string) *string { return &s }
