// Package prompt loads the prompt templates and renders them.
package prompt

// Set holds the templates used to explain and summarize a comparison.
// Renamed is optional; an empty value means renamed and copied files are
// not sent to the model.
type Set struct {
	Diff    string
	Added   string
	Removed string
	Renamed string
	Summary string
}

// LoadSet loads and validates the report templates from dir.
func LoadSet(dir string) (*Set, error) {
	var (
		s   Set
		err error
	)
	if s.Diff, err = LoadTemplate(dir, ExplainDiff); err != nil {
		return nil, err
	}
	if s.Added, err = LoadTemplate(dir, ExplainAdded); err != nil {
		return nil, err
	}
	if s.Removed, err = LoadTemplate(dir, ExplainRemoved); err != nil {
		return nil, err
	}
	if s.Renamed, err = loadOptional(dir, ExplainRenamed); err != nil {
		return nil, err
	}
	if s.Summary, err = LoadTemplate(dir, SummarizeDiffs); err != nil {
		return nil, err
	}
	return &s, nil
}

// ChatSet holds the templates used for chat.
type ChatSet struct {
	Chat           string
	IdentifyFiles  string
	ChatAboutFiles string
}

// LoadChatSet loads and validates the chat templates from dir.
func LoadChatSet(dir string) (*ChatSet, error) {
	var (
		s   ChatSet
		err error
	)
	if s.Chat, err = LoadTemplate(dir, Chat); err != nil {
		return nil, err
	}
	if s.IdentifyFiles, err = LoadTemplate(dir, IdentifyFiles); err != nil {
		return nil, err
	}
	if s.ChatAboutFiles, err = LoadTemplate(dir, ChatAboutFiles); err != nil {
		return nil, err
	}
	return &s, nil
}
