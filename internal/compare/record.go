package compare

import "github.com/drewdunne/difftale/internal/linecount"

// ChangedFile is one file that differs between the two refs.
type ChangedFile struct {
	Path      string `json:"path"`
	FullPath  string `json:"fullPath"`
	Extension string `json:"extension"`
	OldPath   string `json:"oldPath,omitempty"`

	Added   bool `json:"added"`
	Deleted bool `json:"deleted"`
	Renamed bool `json:"renamed"`
	Copied  bool `json:"copied"`

	Lines linecount.Stats `json:"lines"`

	// Diff and Content feed the explanation prompt and are never persisted.
	Diff    string `json:"-"`
	Content string `json:"-"`
}

// Kind names the change, checking added, removed, renamed and copied in that order.
func (f ChangedFile) Kind() string {
	switch {
	case f.Added:
		return "added"
	case f.Deleted:
		return "removed"
	case f.Renamed:
		return "renamed"
	case f.Copied:
		return "copied"
	default:
		return "changed"
	}
}

// Language returns the file's language name, or "" if unknown.
func (f ChangedFile) Language() string {
	return LanguageOf(f.Path)
}
