package provider

// Repository represents a git repository.
type Repository struct {
	ID            int
	Name          string
	FullName      string // owner/repo
	CloneURL      string
	SSHURL        string
	WebURL        string
	DefaultBranch string
}

// Comparison summarises the commits between two refs.
type Comparison struct {
	TotalCommits int
	AheadBy      int
	BehindBy     int
	WebURL       string
}
