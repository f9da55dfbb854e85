package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/uvcalc/internal/cli/config"
	"github.com/leapstack-labs/uvcalc/internal/cli/output"
)

// NewInitCommand creates the init command.
func NewInitCommand() *cobra.Command {
	var force bool
	var example bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new uvcalc project",
		Long: `Initialize a new uvcalc project.

This creates:
  - uvcalc.yaml configuration file
  - .gitignore excluding the .uvcalc/ state directory
  - worksheet.yaml, a starter worksheet

Use --example to create worksheets for complete iron and nitrite analyses
instead of the starter worksheet.`,
		Example: `  # Initialize in current directory
  uvcalc init

  # Initialize with example worksheets
  uvcalc init --example

  # Initialize in a new directory
  uvcalc init my-lab --example

  # Overwrite existing files
  uvcalc init --force`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			r := NewCommandContext(cmd).Renderer
			template := "minimal"
			if example {
				template = "example"
			}
			return runInit(r, dir, template, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing files")
	cmd.Flags().BoolVar(&example, "example", false, "Create example worksheets for complete analyses")

	return cmd
}

func runInit(r *output.Renderer, dir, template string, force bool) error {
	if dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	configPath := filepath.Join(dir, config.ConfigFileName)
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("%s already exists. Use --force to overwrite", config.ConfigFileName)
	}

	if err := copyTemplate(template, dir, force); err != nil {
		return fmt.Errorf("failed to initialize project: %w", err)
	}

	files, err := listTemplateFiles(template)
	if err != nil {
		return err
	}
	groups := groupTemplateFiles(files)

	r.Header(2, "Configuration")
	for _, f := range groups["config"] {
		r.StatusLine(f, "success", "")
	}
	r.Println()
	r.Header(2, "Worksheets")
	for _, f := range groups["worksheets"] {
		r.StatusLine(f, "success", "")
	}

	r.Println()
	r.Success("uvcalc project initialized!")
	r.Println()
	r.Println("Next steps:")
	if template == "example" {
		r.Println("  uvcalc run worksheets/iron.yaml       Evaluate a complete analysis")
		r.Println("  uvcalc run worksheets/iron.yaml -w    Re-evaluate on every save")
	} else {
		r.Println("  1. Edit worksheet.yaml with your method")
		r.Println("  2. Run 'uvcalc run worksheet.yaml'")
	}
	r.Println("  uvcalc repl                           Interactive molar mass calculator")

	return nil
}
