package cli

import (
	"fmt"
	"runtime"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/cropadvisor/internal/smoke"
)

func newSmokeCommand() *cobra.Command {
	cfg := smoke.Config{}
	cmd := &cobra.Command{
		Use:   "smoke",
		Short: "Check a running service with sample predictions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			stats, err := smoke.Run(cmd.Context(), cfg)
			if stats != nil {
				printSmokeStats(cmd, stats)
			}
			return err
		},
	}
	cmd.Flags().StringVar(&cfg.BaseURL, "url", smoke.DefaultBaseURL, "Base URL of the service")
	cmd.Flags().IntVar(&cfg.Requests, "requests", smoke.DefaultRequests, "Number of predictions to submit")
	cmd.Flags().IntVar(&cfg.Workers, "workers", runtime.NumCPU(), "Number of concurrent workers")
	cmd.Flags().DurationVar(&cfg.Timeout, "timeout", smoke.DefaultTimeout, "HTTP request timeout")
	cmd.Flags().StringVar(&cfg.SoilType, "soil-type", "", "soil_type query value")
	return cmd
}

func printSmokeStats(cmd *cobra.Command, s *smoke.Stats) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "submitted: %d\nsucceeded: %d\nfailed: %d\nrate limited: %d\nfield errors: %d\nduration: %s\n",
		s.Submitted, s.Succeeded, s.Failed, s.RateLimited, s.FieldErrors, s.Duration.Round(time.Millisecond))
	for _, k := range sortedKeys(s.Crops) {
		fmt.Fprintf(out, "crop %s: %d\n", k, s.Crops[k])
	}
	for _, k := range sortedKeys(s.Fertilizers) {
		fmt.Fprintf(out, "fertilizer %s: %d\n", k, s.Fertilizers[k])
	}
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
