package enrichment

import (
	"fmt"
	"strconv"

	"github.com/okian/cropadvisor/internal/domain/model"
)

const promptTemplate = `Given the following agricultural conditions:
- Nitrogen (N) ratio in soil: %s
- Phosphorus (P) ratio in soil: %s
- Potassium (K) ratio in soil: %s
- Temperature: %s°C
- Relative Humidity: %s%%
- pH value of soil: %s
- Rainfall: %s mm

Explain why %s is a suitable crop choice for these specific conditions.
Focus on how the crop's requirements align with these soil and climate parameters.
Provide a concise, farmer-friendly justification in one paragraph.
Also recommend some other crop if it is more suitable and explain why too.
`

// BuildPrompt renders the explanation request for crop grown under r.
func BuildPrompt(crop string, r model.SoilReading) string {
	return fmt.Sprintf(promptTemplate,
		num(r.N), num(r.P), num(r.K),
		num(r.Temperature), num(r.Humidity), num(r.PH), num(r.Rainfall),
		crop,
	)
}

func num(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
