package commands

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// versionInfo is the structured output of the version command.
type versionInfo struct {
	Version   string `json:"version" yaml:"version"`
	Commit    string `json:"commit" yaml:"commit"`
	BuildDate string `json:"build_date" yaml:"build_date"`
	GoVersion string `json:"go_version" yaml:"go_version"`
}

// NewVersionCommand creates the version command.
func NewVersionCommand(version, commit, date string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display uvcalc version and build information.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r := NewCommandContext(cmd).Renderer
			info := versionInfo{Version: version, Commit: commit, BuildDate: date, GoVersion: runtime.Version()}
			if written, err := r.Data(info); written || err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "uvcalc v%s\n", version)
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "commit %s, built %s with %s\n", commit, date, info.GoVersion)
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Molar mass and UV-Vis calibration calculator")
			return nil
		},
	}
}
