package cli

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"

	"github.com/spf13/cobra"

	service "github.com/okian/cropadvisor/internal/app"
	"github.com/okian/cropadvisor/internal/config"
	"github.com/okian/cropadvisor/internal/domain/model"
	"github.com/okian/cropadvisor/pkg/logger"
)

const (
	msgInvalidInput = "Error: Invalid input. Please enter numerical values only."
	rule            = "--------------------------------------------------"
)

// ErrInvalidInput is returned when a prompted value is not a number.
var ErrInvalidInput = errors.New("invalid input")

type predictFlags struct {
	values   [7]float64
	soilType string
	asJSON   bool
}

func newPredictCommand() *cobra.Command {
	f := &predictFlags{}
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Recommend a crop and fertilizer for one reading",
		Long: "Runs the prediction workflow locally against the configured model files.\n" +
			"Values not given as flags are prompted for on stdin.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPredict(cmd, f)
		},
	}
	for i, name := range model.FieldNames {
		cmd.Flags().Float64Var(&f.values[i], flagName(name), 0, fieldHelp[i])
	}
	cmd.Flags().StringVar(&f.soilType, "soil-type", "", "Soil type for the fertilizer model (default from config)")
	cmd.Flags().BoolVar(&f.asJSON, "json", false, "Print the result as JSON")
	return cmd
}

var fieldHelp = [7]string{
	"Ratio of nitrogen content in soil",
	"Ratio of phosphorous content in soil",
	"Ratio of potassium content in soil",
	"Temperature in degrees Celsius",
	"Relative humidity in %",
	"pH value of the soil",
	"Rainfall in mm",
}

func flagName(field string) string { return strings.ToLower(field) }

func runPredict(cmd *cobra.Command, f *predictFlags) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	reading, err := collectReading(cmd, f, out)
	if err != nil {
		fmt.Fprintln(out, msgInvalidInput)
		return err
	}

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	c, err := service.FromConfig(ctx, cfg, logger.Get())
	if err != nil {
		return err
	}

	res, err := c.Service.Predict(ctx, service.Request{Reading: reading, SoilType: f.soilType})
	if f.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if encErr := enc.Encode(res); encErr != nil {
			return encErr
		}
		return err
	}
	printResult(out, res)
	return err
}

// collectReading takes flag values and prompts for the rest.
func collectReading(cmd *cobra.Command, f *predictFlags, out io.Writer) (model.SoilReading, error) {
	var (
		in       = bufio.NewScanner(cmd.InOrStdin())
		prompted bool
	)
	for i, name := range model.FieldNames {
		if cmd.Flags().Changed(flagName(name)) {
			continue
		}
		if !prompted {
			fmt.Fprintf(out, "\n%s\nEnter Soil and Climate Details for Recommendation\n%s\n", rule, rule)
			prompted = true
		}
		fmt.Fprintf(out, "%s: ", capitalize(name))
		if !in.Scan() {
			if err := in.Err(); err != nil {
				return model.SoilReading{}, err
			}
			return model.SoilReading{}, fmt.Errorf("%w: no value for %s", ErrInvalidInput, name)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(in.Text()), 64)
		if err != nil {
			return model.SoilReading{}, fmt.Errorf("%w: %s: %v", ErrInvalidInput, name, err)
		}
		f.values[i] = v
	}
	return model.ReadingFromValues(f.values), nil
}

func printResult(out io.Writer, res model.PredictionResult) {
	fmt.Fprintf(out, "\n%s\n", rule)
	if res.Crop != nil {
		fmt.Fprintf(out, "Local Model Recommendation: %s\n", *res.Crop)
	}
	if res.Fertilizer != nil {
		fmt.Fprintf(out, "Recommended Fertilizer: %s\n", *res.Fertilizer)
	}
	fmt.Fprintln(out, rule)
	if res.Error != nil {
		fmt.Fprintln(out, *res.Error)
	}
	if res.Enrichment != nil {
		fmt.Fprintf(out, "\nAdditional Info:\n%s\n", *res.Enrichment)
	}
	fmt.Fprintln(out, rule)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r := []rune(strings.ToLower(s))
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
