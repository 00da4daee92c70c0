package fixer

import (
	"fmt"
	"strings"
)

// rule produces the addition for one missing README section.
type rule func(ctx *FixContext, section string) Addition

// sectionRules maps a lowercase section name to its specialised rule.
// Sections without an entry use ruleGenericSection.
var sectionRules = map[string]rule{
	"installation": ruleInstallation,
	"usage":        ruleUsage,
	"license":      ruleLicense,
	"contributing": ruleContributing,
}

func heading(section string) string {
	if section == "" {
		return "##"
	}
	return "## " + strings.ToUpper(section[:1]) + section[1:]
}

func missingReason(section string) string {
	return fmt.Sprintf("The README does not mention %q.", strings.ToLower(section))
}

func ruleInstallation(ctx *FixContext, section string) Addition {
	install := "pip install ."
	if ctx.PackageName != "" {
		install = "pip install " + ctx.PackageName
	}
	return Addition{
		Section: heading(section),
		Content: "```bash\n" + install + "\n```",
		Reason:  missingReason(section),
		Source:  "installation",
	}
}

func ruleUsage(ctx *FixContext, section string) Addition {
	content := "Describe the main entry points of the project here."
	if ctx.PackageName != "" {
		module := strings.ReplaceAll(ctx.PackageName, "-", "_")
		content = "```python\nimport " + module + "\n```"
	}
	return Addition{
		Section: heading(section),
		Content: content,
		Reason:  missingReason(section),
		Source:  "usage",
	}
}

func ruleLicense(ctx *FixContext, section string) Addition {
	content := "See `LICENSE`."
	reason := missingReason(section)
	switch {
	case ctx.LicenseName != "":
		content = fmt.Sprintf("Distributed under the %s. See `LICENSE`.", strings.TrimSuffix(ctx.LicenseName, "."))
	default:
		reason += " No LICENSE file exists either."
	}
	return Addition{
		Section: heading(section),
		Content: content,
		Reason:  reason,
		Source:  "license",
	}
}

func ruleContributing(ctx *FixContext, section string) Addition {
	var lines []string
	if ctx.HasContributing {
		lines = append(lines, "See `CONTRIBUTING.md` for guidelines.")
	} else {
		lines = append(lines, "Pull requests are welcome. For major changes, open an issue first.")
	}
	if ctx.HasTests {
		lines = append(lines, "", fmt.Sprintf("Run the test suite with `%s` before submitting.", ctx.TestCommand))
	}
	return Addition{
		Section: heading(section),
		Content: strings.Join(lines, "\n"),
		Reason:  missingReason(section),
		Source:  "contributing",
	}
}

func ruleGenericSection(_ *FixContext, section string) Addition {
	return Addition{
		Section: heading(section),
		Content: fmt.Sprintf("_Document %s here._", strings.ToLower(section)),
		Reason:  missingReason(section),
		Source:  "generic",
	}
}
