package app

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/repohealth/internal/fixer"
	"github.com/blackwell-systems/repohealth/internal/output"
)

var (
	fixFlagDryRun bool
	fixFlagYes    bool
)

var fixCmd = &cobra.Command{
	Use:   "fix [path]",
	Short: "Propose README sections the docs metric is missing",
	Long: `Fix compares the README with the configured documentation sections and
proposes a markdown section for each missing one, filled in from
pyproject.toml, LICENSE and the test layout where possible.

Existing content is never changed: sections are appended, or a README is
created. The preview shows exactly the lines that will be written.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runFix,
}

func init() {
	fixCmd.Flags().BoolVar(&fixFlagDryRun, "dry-run", false, "Show the proposed additions without writing them")
	fixCmd.Flags().BoolVarP(&fixFlagYes, "yes", "y", false, "Write without asking for confirmation")
	rootCmd.AddCommand(fixCmd)
}

func runFix(cmd *cobra.Command, args []string) error {
	var path string
	if len(args) == 1 {
		path = args[0]
	}
	cfg, root, err := loadRepoConfig(path)
	if err != nil {
		return err
	}
	if !output.ColorEnabled(cfg.Output.Color && !flagNoColor) {
		output.SetNoColor(true)
	}

	ctx, err := fixer.BuildFixContext(root, cfg)
	if err != nil {
		return fmt.Errorf("inspecting repository: %w", err)
	}
	fix, err := fixer.GenerateFix(ctx)
	if err != nil {
		return fmt.Errorf("generating fix: %w", err)
	}

	if flagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(fix)
	}
	if len(fix.Additions) == 0 {
		fmt.Printf(" %s covers every configured section.\n", filepath.Base(fix.ReadmePath))
		return nil
	}

	markdown := readmeAppendText(fix, ctx)
	renderFixPreview(os.Stdout, fix, ctx, markdown)
	if fixFlagDryRun {
		return nil
	}
	if !fixFlagYes && !confirm(os.Stdin, os.Stdout, "Write these sections?") {
		fmt.Println(" Nothing written.")
		return nil
	}
	if err := writeReadme(fix.ReadmePath, ctx.ExistingReadme != "", markdown); err != nil {
		return err
	}
	fmt.Printf("\n %s %s updated\n", output.StyleSuccess.Render("✓"), fix.ReadmePath)
	return nil
}

// readmeAppendText is the exact text written for fix: the rendered sections,
// separated from an existing README that lacks a trailing newline.
func readmeAppendText(fix *fixer.ProposedFix, ctx *fixer.FixContext) string {
	existing := ctx.ExistingReadme != ""
	markdown := fixer.RenderMarkdown(fix, existing, ctx.Description)
	if existing && !strings.HasSuffix(ctx.ExistingReadme, "\n") {
		markdown = "\n" + markdown
	}
	return markdown
}

// renderFixPreview prints the README score change, why each section is
// proposed, and the appended lines in diff form.
func renderFixPreview(w io.Writer, fix *fixer.ProposedFix, ctx *fixer.FixContext, markdown string) {
	fmt.Fprintln(w, output.Section("README fix: "+fix.ProjectName))
	fmt.Fprintln(w)
	fmt.Fprintf(w, " %s %s -> %s\n", output.StyleLabel.Render("README sections:"),
		output.MetricValue(fix.ReadmeScore), output.MetricValue(fix.ProjectedScore))
	fmt.Fprintln(w)

	tbl := output.NewTable("Section", "Rule", "Reason")
	for _, a := range fix.Additions {
		tbl.AddRow(strings.TrimPrefix(a.Section, "## "), output.StyleMuted.Render(a.Source), a.Reason)
	}
	fmt.Fprint(w, tbl.Render())
	fmt.Fprintln(w)

	name := filepath.Base(fix.ReadmePath)
	if ctx.ExistingReadme == "" {
		fmt.Fprintln(w, output.StyleMuted.Render("--- /dev/null"))
	} else {
		fmt.Fprintln(w, output.StyleMuted.Render("--- "+name))
	}
	fmt.Fprintln(w, output.StyleMuted.Render("+++ "+name))
	for _, line := range strings.Split(strings.TrimSuffix(markdown, "\n"), "\n") {
		fmt.Fprintln(w, output.StyleSuccess.Render("+"+line))
	}
	fmt.Fprintln(w)
}

// confirm asks question on w and reads a yes/no answer from r.
func confirm(r io.Reader, w io.Writer, question string) bool {
	fmt.Fprintf(w, " %s [y/N] ", question)
	answer, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && answer == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

// writeReadme appends markdown to the README at path, or creates it.
func writeReadme(path string, existing bool, markdown string) error {
	if !existing {
		if err := os.WriteFile(path, []byte(markdown), 0o644); err != nil {
			return fmt.Errorf("creating README: %w", err)
		}
		return nil
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening README: %w", err)
	}
	if _, err := f.WriteString(markdown); err != nil {
		_ = f.Close()
		return fmt.Errorf("appending to README: %w", err)
	}
	return f.Close()
}
