package app

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/repohealth/internal/config"
	"github.com/blackwell-systems/repohealth/internal/metrics"
	"github.com/blackwell-systems/repohealth/internal/output"
	"github.com/blackwell-systems/repohealth/internal/store"
	"github.com/blackwell-systems/repohealth/internal/tools"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor [path]",
	Short: "Check which data sources are available for scoring",
	Long: `Run a series of checks against the repohealth configuration and the
environment: external tools on PATH, CI credentials, the coverage report
and the history database. A failed check means the related metric will
degrade to its default; scoring still works.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

// doctorCheck holds the result of a single health check.
type doctorCheck struct {
	Name    string `json:"name"`
	Passed  bool   `json:"passed"`
	Message string `json:"message"`
}

// doctorOutput is the JSON-serializable result of the doctor command.
type doctorOutput struct {
	Checks      []doctorCheck `json:"checks"`
	PassedCount int           `json:"passed"`
	TotalCount  int           `json:"total"`
}

func runDoctor(cmd *cobra.Command, args []string) error {
	path := "."
	if len(args) == 1 {
		path = args[0]
	}
	root, err := resolveRoot(path)
	if err != nil {
		return err
	}

	cfg, err := config.Load(flagConfig, root)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if !output.ColorEnabled(cfg.Output.Color) {
		output.SetNoColor(true)
	}

	checks := collectDoctorChecks(cfg, root, tools.Available)

	passed := 0
	for _, c := range checks {
		if c.Passed {
			passed++
		}
	}

	if flagJSON {
		out := doctorOutput{
			Checks:      checks,
			PassedCount: passed,
			TotalCount:  len(checks),
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	fmt.Println(output.Section("Doctor"))
	fmt.Println()
	for _, c := range checks {
		renderDoctorCheck(c)
	}
	fmt.Println()

	summary := fmt.Sprintf("%d/%d checks passed", passed, len(checks))
	if passed == len(checks) {
		fmt.Printf(" %s\n\n", output.StyleSuccess.Render(summary))
	} else {
		fmt.Printf(" %s\n\n", output.StyleWarning.Render(summary))
	}
	return nil
}

// collectDoctorChecks runs every check. lookPath resolves tool names.
func collectDoctorChecks(cfg *config.Config, root string, lookPath func(string) (string, bool)) []doctorCheck {
	var checks []doctorCheck

	checks = append(checks, checkToolCommand("Coverage runner", cfg.Tests.RunCommand, lookPath))
	checks = append(checks, checkToolCommand("Coverage exporter", cfg.Tests.ReportCommand, lookPath))
	checks = append(checks, checkToolCommand("Dead-code detector", cfg.DeadCode.Command, lookPath))
	checks = append(checks, checkToolCommand("Security scanner", cfg.Security.Command, lookPath))
	checks = append(checks, checkCoverageReport(cfg, root))
	checks = append(checks, checkRepository(cfg.Repository))
	checks = append(checks, checkToken(cfg.Token))
	checks = append(checks, checkDatabase(cfg.DBPath))

	return checks
}

// renderDoctorCheck prints a single check result line.
func renderDoctorCheck(c doctorCheck) {
	var indicator string
	if c.Passed {
		indicator = output.StyleSuccess.Render("✓")
	} else {
		indicator = output.StyleWarning.Render("✗")
	}

	label := output.StyleBold.Render(c.Name)
	detail := output.StyleMuted.Render(c.Message)
	fmt.Printf("  %s  %-30s %s\n", indicator, label, detail)
}

// checkToolCommand verifies that the executable of command is on PATH.
func checkToolCommand(name string, command []string, lookPath func(string) (string, bool)) doctorCheck {
	if len(command) == 0 {
		return doctorCheck{Name: name, Passed: false, Message: "no command configured"}
	}
	path, ok := lookPath(command[0])
	if !ok {
		return doctorCheck{Name: name, Passed: false, Message: fmt.Sprintf("%s not found on PATH", command[0])}
	}
	return doctorCheck{Name: name, Passed: true, Message: path}
}

// checkCoverageReport reports whether a pre-generated coverage report exists.
func checkCoverageReport(cfg *config.Config, root string) doctorCheck {
	candidates := append([]string{cfg.Tests.CoveragePath}, cfg.Tests.FallbackPaths...)
	for _, c := range candidates {
		if c == "" {
			continue
		}
		p := c
		if !filepath.IsAbs(p) {
			p = filepath.Join(root, p)
		}
		if _, err := os.Stat(p); err == nil {
			return doctorCheck{Name: "Coverage report", Passed: true, Message: p}
		}
	}
	return doctorCheck{
		Name:    "Coverage report",
		Passed:  false,
		Message: "no pre-generated report; tests will be run under coverage",
	}
}

// checkRepository verifies the owner/name identity used for CI.
func checkRepository(repository string) doctorCheck {
	if repository == "" {
		return doctorCheck{Name: "Repository identity", Passed: false, Message: "GITHUB_REPOSITORY not set"}
	}
	if _, _, err := metrics.SplitRepository(repository); err != nil {
		return doctorCheck{Name: "Repository identity", Passed: false, Message: err.Error()}
	}
	return doctorCheck{Name: "Repository identity", Passed: true, Message: repository}
}

// checkToken verifies that a CI credential is configured without printing it.
func checkToken(token string) doctorCheck {
	if token == "" {
		return doctorCheck{Name: "CI credential", Passed: false, Message: "GITHUB_TOKEN not set"}
	}
	return doctorCheck{Name: "CI credential", Passed: true, Message: "GITHUB_TOKEN is set"}
}

// checkDatabase verifies that the history database opens and migrates.
func checkDatabase(dbPath string) doctorCheck {
	if _, err := os.Stat(dbPath); err != nil {
		return doctorCheck{
			Name:    "History database",
			Passed:  false,
			Message: fmt.Sprintf("not found: %s (created on first score)", dbPath),
		}
	}
	db, err := store.Open(dbPath)
	if err != nil {
		return doctorCheck{Name: "History database", Passed: false, Message: fmt.Sprintf("open failed: %v", err)}
	}
	_ = db.Close()
	return doctorCheck{Name: "History database", Passed: true, Message: dbPath}
}
