package compare

import (
	"path/filepath"
	"strings"
)

// languages maps file extensions to the language names the line counter uses.
var languages = map[string]string{
	".c":     "C",
	".h":     "C/C++ Header",
	".cc":    "C++",
	".cpp":   "C++",
	".cxx":   "C++",
	".hpp":   "C/C++ Header",
	".cs":    "C#",
	".css":   "CSS",
	".scss":  "SCSS",
	".go":    "Go",
	".html":  "HTML",
	".htm":   "HTML",
	".java":  "Java",
	".js":    "JavaScript",
	".mjs":   "JavaScript",
	".cjs":   "JavaScript",
	".jsx":   "JSX",
	".ts":    "TypeScript",
	".tsx":   "TypeScript",
	".json":  "JSON",
	".kt":    "Kotlin",
	".md":    "Markdown",
	".php":   "PHP",
	".py":    "Python",
	".rb":    "Ruby",
	".rs":    "Rust",
	".scala": "Scala",
	".sh":    "Bourne Shell",
	".bash":  "Bourne Again Shell",
	".sql":   "SQL",
	".swift": "Swift",
	".xml":   "XML",
	".yaml":  "YAML",
	".yml":   "YAML",
	".toml":  "TOML",
	".vue":   "Vuejs Component",
	".dart":  "Dart",
	".lua":   "Lua",
}

// LanguageOf returns the language for path by extension, or "" if unknown.
func LanguageOf(path string) string {
	return languages[strings.ToLower(filepath.Ext(path))]
}

// ParseLanguages trims every entry and drops empty ones. A nil result means
// no filtering.
func ParseLanguages(in []string) []string {
	var out []string
	for _, l := range in {
		for _, part := range strings.Split(l, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// matchesLanguage reports whether path belongs to one of langs. Every path
// matches an empty list.
func matchesLanguage(path string, langs []string) bool {
	if len(langs) == 0 {
		return true
	}
	lang := LanguageOf(path)
	if lang == "" {
		return false
	}
	for _, l := range langs {
		if strings.EqualFold(l, lang) {
			return true
		}
	}
	return false
}
