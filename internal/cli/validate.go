package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/hapsync/internal/config"
	"github.com/roach88/hapsync/internal/timeline"
)

// TimelineCheck is the validation outcome for one timeline file.
type TimelineCheck struct {
	Path     string  `json:"path"`
	Valid    bool    `json:"valid"`
	Entries  int     `json:"entries,omitempty"`
	Duration float64 `json:"duration,omitempty"`
	Code     string  `json:"code,omitempty"`
	Message  string  `json:"message,omitempty"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid        bool            `json:"valid"`
	ConfigErrors []string        `json:"config_errors,omitempty"`
	Timelines    []TimelineCheck `json:"timelines"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [timeline...]",
		Short: "Validate configuration and timelines without sending anything",
		Long: `Validate the configuration and one or more timeline files.

Timelines are checked against the timeline schema: every entry needs a
non-negative time and an integer duty in 0..255. With no arguments the
timeline named in the configuration is checked.

Exit codes:
  0 - Everything valid
  1 - One or more timelines invalid
  2 - Configuration invalid`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args, cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, paths []string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	result := ValidationResult{Valid: true}

	cfg, err := config.Load(opts.Config)
	if err != nil {
		result.Valid = false
		fields := config.FieldErrors(err)
		for _, fe := range fields {
			result.ConfigErrors = append(result.ConfigErrors, fe.Error())
		}
		if len(fields) == 0 {
			result.ConfigErrors = append(result.ConfigErrors, err.Error())
		}
		outputValidation(formatter, result)
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}
	formatter.VerboseLog("configuration valid")

	if len(paths) == 0 {
		paths = []string{cfg.Timeline}
	}

	for _, path := range paths {
		check := TimelineCheck{Path: path}
		tl, err := timeline.LoadFile(path)
		if err != nil {
			result.Valid = false
			check.Code = timeline.LoadErrorCode(err)
			check.Message = err.Error()
		} else {
			check.Valid = true
			check.Entries = tl.Len()
			check.Duration = tl.Duration()
		}
		result.Timelines = append(result.Timelines, check)
	}

	outputValidation(formatter, result)
	if !result.Valid {
		return NewExitError(ExitFailure, "validation failed")
	}
	return nil
}

func outputValidation(f *OutputFormatter, result ValidationResult) {
	if f.JSON() {
		if result.Valid {
			_ = f.Success(result)
			return
		}
		code := ErrCodeTimeline
		if len(result.ConfigErrors) > 0 {
			code = ErrCodeConfig
		}
		_ = f.Error(code, "validation failed", result)
		return
	}

	for _, msg := range result.ConfigErrors {
		fmt.Fprintf(f.Writer, "✗ config: %s\n", msg)
	}
	for _, c := range result.Timelines {
		if c.Valid {
			printer.Fprintf(f.Writer, "✓ %s: %d entries, %.2fs\n", c.Path, c.Entries, c.Duration)
			continue
		}
		fmt.Fprintf(f.Writer, "✗ %s: %s\n", c.Path, c.Message)
	}
}
