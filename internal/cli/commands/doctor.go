package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/uvcalc/internal/cli/config"
	"github.com/leapstack-labs/uvcalc/internal/cli/output"
	"github.com/leapstack-labs/uvcalc/internal/state"
	"github.com/leapstack-labs/uvcalc/internal/worksheet"
)

// Thresholds for calibration checks.
const (
	MinR2             = 0.995
	MinStandardPoints = 5
)

// Check statuses.
const (
	statusPass  = "pass"
	statusWarn  = "warn"
	statusError = "error"
)

// NewDoctorCommand creates the doctor command.
func NewDoctorCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check the uvcalc setup and saved calibrations",
		Long: `Check the project configuration, the calibration database, saved
calibrations and worksheets, and report a health score (0-100).

Calibrations are flagged when R² is below 0.995 or fewer than 5 standards
were fitted.`,
		Example: `  uvcalc doctor
  uvcalc doctor -o json`,
		Args: cobra.NoArgs,
		RunE: runDoctor,
	}
}

// DoctorOutput is the structured output of the doctor command.
type DoctorOutput struct {
	Summary         ProjectSummary `json:"summary" yaml:"summary"`
	HealthChecks    []HealthCheck  `json:"health_checks" yaml:"health_checks"`
	Score           int            `json:"score" yaml:"score"`
	Recommendations []string       `json:"recommendations,omitempty" yaml:"recommendations,omitempty"`
}

// ProjectSummary contains project-level facts.
type ProjectSummary struct {
	ConfigFile    string `json:"config_file,omitempty" yaml:"config_file,omitempty"`
	StatePath     string `json:"state_path" yaml:"state_path"`
	SchemaVersion int64  `json:"schema_version" yaml:"schema_version"`
	Calibrations  int    `json:"calibrations" yaml:"calibrations"`
	Worksheets    int    `json:"worksheets" yaml:"worksheets"`
}

// HealthCheck is the result of one check.
type HealthCheck struct {
	ID      string   `json:"id" yaml:"id"`
	Name    string   `json:"name" yaml:"name"`
	Group   string   `json:"group" yaml:"group"`
	Status  string   `json:"status" yaml:"status"`
	Details []string `json:"details,omitempty" yaml:"details,omitempty"`
}

func runDoctor(cmd *cobra.Command, _ []string) error {
	cmdCtx := NewCommandContext(cmd)
	out := buildDoctorOutput(cmd.Context(), cmdCtx)

	r := cmdCtx.Renderer
	if written, err := r.Data(out); written || err != nil {
		return err
	}
	renderDoctor(r, out)
	return nil
}

func buildDoctorOutput(ctx context.Context, cmdCtx *CommandContext) *DoctorOutput {
	cfg := cmdCtx.Cfg
	out := &DoctorOutput{Summary: ProjectSummary{ConfigFile: config.GetConfigFileUsed(), StatePath: cfg.StatePath}}

	out.HealthChecks = append(out.HealthChecks, checkConfigFile(out.Summary.ConfigFile))

	store := state.NewSQLiteStore(cmdCtx.Logger)
	if err := store.Open(cfg.StatePath); err != nil {
		out.HealthChecks = append(out.HealthChecks, HealthCheck{
			ID: "ST01", Name: "State database opens", Group: "state",
			Status: statusError, Details: []string{err.Error()},
		})
	} else {
		defer func() { _ = store.Close() }()
		out.HealthChecks = append(out.HealthChecks, HealthCheck{
			ID: "ST01", Name: "State database opens", Group: "state", Status: statusPass,
		})
		if v, err := store.GetMigrationVersion(); err == nil {
			out.Summary.SchemaVersion = v
		}

		cals, err := store.ListCalibrations(ctx, 0)
		if err != nil {
			out.HealthChecks = append(out.HealthChecks, HealthCheck{
				ID: "ST02", Name: "Calibrations readable", Group: "state",
				Status: statusError, Details: []string{err.Error()},
			})
		} else {
			out.Summary.Calibrations = len(cals)
			out.HealthChecks = append(out.HealthChecks, checkCalibrations(cals)...)
		}
	}

	files := findWorksheets(cfg.ProjectRoot)
	out.Summary.Worksheets = len(files)
	out.HealthChecks = append(out.HealthChecks, checkWorksheets(cfg.ProjectRoot, files))

	sort.SliceStable(out.HealthChecks, func(i, j int) bool {
		return out.HealthChecks[i].ID < out.HealthChecks[j].ID
	})
	out.Score = calculateHealthScore(out.HealthChecks)
	out.Recommendations = generateRecommendations(out.HealthChecks)
	return out
}

func checkConfigFile(path string) HealthCheck {
	c := HealthCheck{ID: "CF01", Name: "Project configuration", Group: "configuration", Status: statusPass}
	if path == "" {
		c.Status = statusWarn
		c.Details = []string{"no " + config.ConfigFileName + " found, using defaults"}
	}
	return c
}

func checkCalibrations(cals []*state.Calibration) []HealthCheck {
	saved := HealthCheck{ID: "CA01", Name: "Saved calibrations", Group: "calibrations", Status: statusPass}
	if len(cals) == 0 {
		saved.Status = statusWarn
		saved.Details = []string{"no saved calibrations"}
	}

	linearity := HealthCheck{ID: "CA02", Name: fmt.Sprintf("Linearity (R² ≥ %g)", MinR2), Group: "calibrations", Status: statusPass}
	points := HealthCheck{ID: "CA03", Name: fmt.Sprintf("At least %d standards", MinStandardPoints), Group: "calibrations", Status: statusPass}
	for _, c := range cals {
		// equation-only calibrations carry no points or R²
		if len(c.Fit.Points) == 0 {
			continue
		}
		if c.Fit.R2 < MinR2 {
			linearity.Status = statusWarn
			linearity.Details = append(linearity.Details, fmt.Sprintf("%s: R² = %.4f", calibrationLabel(c), c.Fit.R2))
		}
		if len(c.Fit.Points) < MinStandardPoints {
			points.Status = statusWarn
			points.Details = append(points.Details, fmt.Sprintf("%s: %d standards", calibrationLabel(c), len(c.Fit.Points)))
		}
	}
	return []HealthCheck{saved, linearity, points}
}

func calibrationLabel(c *state.Calibration) string {
	if c.Name != "" {
		return c.ShortID() + " (" + c.Name + ")"
	}
	return c.ShortID()
}

// findWorksheets returns worksheet.yaml and worksheets/*.yaml under root.
func findWorksheets(root string) []string {
	if root == "" {
		return nil
	}
	var files []string
	if _, err := os.Stat(filepath.Join(root, "worksheet.yaml")); err == nil {
		files = append(files, filepath.Join(root, "worksheet.yaml"))
	}
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, _ := filepath.Glob(filepath.Join(root, "worksheets", pattern))
		files = append(files, matches...)
	}
	sort.Strings(files)
	return files
}

func checkWorksheets(root string, files []string) HealthCheck {
	c := HealthCheck{ID: "WS01", Name: "Worksheets parse", Group: "worksheets", Status: statusPass}
	for _, f := range files {
		if _, err := worksheet.Load(f); err != nil {
			rel, relErr := filepath.Rel(root, f)
			if relErr != nil {
				rel = f
			}
			c.Status = statusError
			c.Details = append(c.Details, fmt.Sprintf("%s: %v", filepath.ToSlash(rel), err))
		}
	}
	return c
}

// calculateHealthScore starts at 100 and subtracts 10 per warning and 25 per error.
func calculateHealthScore(checks []HealthCheck) int {
	score := 100
	for _, c := range checks {
		switch c.Status {
		case statusWarn:
			score -= 10
		case statusError:
			score -= 25
		}
	}
	return max(score, 0)
}

func generateRecommendations(checks []HealthCheck) []string {
	var recs []string
	for _, c := range checks {
		if c.Status == statusPass {
			continue
		}
		if rec := getRecommendation(c.ID); rec != "" {
			recs = append(recs, rec)
		}
	}
	return recs
}

func getRecommendation(id string) string {
	switch id {
	case "CF01":
		return "Run 'uvcalc init' to create a project configuration"
	case "ST01", "ST02":
		return "Check state_path in " + config.ConfigFileName + " or remove a corrupt state database"
	case "CA01":
		return "Fit and save a calibration with 'uvcalc calibrate --save'"
	case "CA02":
		return "Re-measure standards or narrow the concentration range to improve linearity"
	case "CA03":
		return "Fit calibrations with at least five standards"
	case "WS01":
		return "Fix worksheet errors, then check them with 'uvcalc run'"
	default:
		return ""
	}
}

func renderDoctor(r *output.Renderer, out *DoctorOutput) {
	r.Header(1, "uvcalc health report")

	configFile := out.Summary.ConfigFile
	if configFile == "" {
		configFile = "(none)"
	}
	r.KeyValue("Config", configFile)
	r.KeyValue("State", fmt.Sprintf("%s (schema v%d)", out.Summary.StatePath, out.Summary.SchemaVersion))
	r.KeyValue("Calibrations", fmt.Sprintf("%d", out.Summary.Calibrations))
	r.KeyValue("Worksheets", fmt.Sprintf("%d", out.Summary.Worksheets))
	r.Println()

	currentGroup := ""
	for _, check := range out.HealthChecks {
		if check.Group != currentGroup {
			if currentGroup != "" {
				r.Println()
			}
			currentGroup = check.Group
			r.Header(2, output.Label(currentGroup))
		}
		r.StatusLine(check.ID+" "+check.Name, check.Status, strings.Join(check.Details, "; "))
	}
	r.Println()

	r.KeyValue("Health score", fmt.Sprintf("%d/100", out.Score))
	if len(out.Recommendations) > 0 {
		r.Println()
		r.Header(2, "Recommendations")
		for i, rec := range out.Recommendations {
			r.Printf("%d. %s\n", i+1, rec)
		}
	}
}
