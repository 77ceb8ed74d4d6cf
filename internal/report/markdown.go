package report

import (
	"fmt"
	"path"
	"strings"

	"github.com/drewdunne/difftale/internal/explain"
)

// Markdown renders the report document.
func Markdown(in Input) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s: comparing %s with %s\n\n", in.Project, in.From, in.To)
	if in.CompareURL != "" {
		fmt.Fprintf(&b, "[View the comparison](%s)\n\n", in.CompareURL)
	}
	if in.Commits > 0 {
		fmt.Fprintf(&b, "Commits between the refs: %d\n\n", in.Commits)
	}
	if len(in.Languages) > 0 {
		fmt.Fprintf(&b, "Languages: %s\n\n", strings.Join(in.Languages, ", "))
	}
	fmt.Fprintf(&b, "Files with differences: %d\n\n", len(in.Files))
	if len(in.Files) > 0 {
		fmt.Fprintf(&b, "Common directory: `%s`\n\n", commonDir(in.Files))
	}

	b.WriteString("## Files\n\n")
	if len(in.Files) == 0 {
		b.WriteString("No files differ between the two refs.\n\n")
	}
	for _, f := range in.Files {
		fmt.Fprintf(&b, "### %s\n\n", f.Path)
		status := f.Kind()
		if f.OldPath != "" {
			status += " from `" + f.OldPath + "`"
		}
		fmt.Fprintf(&b, "**Status:** %s\n\n", status)
		c := f.Lines.Code
		fmt.Fprintf(&b, "**Code lines:** +%s -%s ~%s\n\n", c.Added, c.Removed, c.Modified)
		b.WriteString(strings.TrimSpace(f.Explanation))
		b.WriteString("\n\n")
	}

	b.WriteString("## Summary\n\n")
	b.WriteString(strings.TrimSpace(in.Summary))
	b.WriteString("\n")
	return b.String()
}

// commonDir returns the deepest directory containing every file, or ".".
func commonDir(files []explain.ExplainedFile) string {
	common := strings.Split(path.Dir(files[0].Path), "/")
	for _, f := range files[1:] {
		parts := strings.Split(path.Dir(f.Path), "/")
		n := 0
		for n < len(common) && n < len(parts) && common[n] == parts[n] {
			n++
		}
		common = common[:n]
	}
	if len(common) == 0 || common[0] == "." {
		return "."
	}
	return strings.Join(common, "/")
}
