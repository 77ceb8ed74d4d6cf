package prompt

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Name identifies a template file without its .txt extension.
type Name string

const (
	ExplainDiff    Name = "explain-diff"
	ExplainAdded   Name = "explain-added"
	ExplainRemoved Name = "explain-removed"
	ExplainRenamed Name = "explain-renamed"
	SummarizeDiffs Name = "summarize-diffs"
	Chat           Name = "chat-template"
	IdentifyFiles  Name = "identify-files-template"
	ChatAboutFiles Name = "chat-about-files-template"
)

// Placeholder keys.
const (
	KeyLanguage    = "language"
	KeyFileName    = "fileName"
	KeyOldFileName = "oldFileName"
	KeyFileContent = "fileContent"
	KeyDiffs       = "diffs"
	KeyLanguages   = "languages"
	KeyProject     = "project"
	KeyQuestion    = "question"
	KeyContext     = "context"
	KeyFiles       = "files"
)

// required lists the placeholders each template must contain.
var required = map[Name][]string{
	ExplainDiff:    {KeyFileName, KeyDiffs},
	ExplainAdded:   {KeyFileName, KeyFileContent},
	ExplainRemoved: {KeyFileName},
	ExplainRenamed: {KeyFileName},
	SummarizeDiffs: {KeyDiffs},
	Chat:           {KeyQuestion},
	IdentifyFiles:  {KeyQuestion, KeyFiles},
	ChatAboutFiles: {KeyQuestion, KeyFiles},
}

// MissingPlaceholderError reports a template without a placeholder it needs.
type MissingPlaceholderError struct {
	Template    Name
	Placeholder string
}

func (e *MissingPlaceholderError) Error() string {
	return fmt.Sprintf("prompt template %s is missing {{%s}}", e.Template, e.Placeholder)
}

// UnresolvedPlaceholderError reports a placeholder no value was supplied for.
type UnresolvedPlaceholderError struct {
	Token string
}

func (e *UnresolvedPlaceholderError) Error() string {
	return fmt.Sprintf("prompt template has unresolved placeholder %s", e.Token)
}

// Validate checks that text contains every placeholder name requires.
func Validate(name Name, text string) error {
	for _, key := range required[name] {
		if !strings.Contains(text, "{{"+key+"}}") {
			return &MissingPlaceholderError{Template: name, Placeholder: key}
		}
	}
	return nil
}

// LoadTemplate reads <dir>/<name>.txt and validates it.
func LoadTemplate(dir string, name Name) (string, error) {
	data, err := os.ReadFile(filepath.Join(dir, string(name)+".txt"))
	if err != nil {
		return "", fmt.Errorf("reading prompt template %s: %w", name, err)
	}
	text := string(data)
	if err := Validate(name, text); err != nil {
		return "", err
	}
	return text, nil
}

func loadOptional(dir string, name Name) (string, error) {
	text, err := LoadTemplate(dir, name)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	return text, err
}

var tokenPattern = regexp.MustCompile(`\{\{[^{}]*\}\}|\{\{`)

// Render substitutes values into tmpl in a single pass, so substituted text
// is never scanned for placeholders. Any placeholder in tmpl without a
// value is an error.
func Render(tmpl string, values map[string]string) (string, error) {
	pairs := make([]string, 0, len(values)*2)
	for k, v := range values {
		pairs = append(pairs, "{{"+k+"}}", v)
	}

	for _, tok := range tokenPattern.FindAllString(tmpl, -1) {
		key := strings.TrimSuffix(strings.TrimPrefix(tok, "{{"), "}}")
		if _, ok := values[key]; !ok || !strings.HasSuffix(tok, "}}") {
			return "", &UnresolvedPlaceholderError{Token: tok}
		}
	}

	return strings.NewReplacer(pairs...).Replace(tmpl), nil
}
