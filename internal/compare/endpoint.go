package compare

import (
	"strings"

	"github.com/drewdunne/difftale/internal/gitremote"
)

const (
	// DefaultRemote is the remote used for the primary repository.
	DefaultRemote = "origin"
	// SecondRemote is the remote used when the "to" side lives in another repository.
	SecondRemote = "second-repo"
)

// Endpoint is one side of a comparison.
type Endpoint struct {
	RepoURL string `json:"repoUrl"`
	Remote  string `json:"remote"`
	Ref     string `json:"ref"`
}

// NewEndpoints builds the from and to endpoints. The to side gets its own
// remote only when secondRepoURL names a different repository.
func NewEndpoints(repoURL, fromRef, secondRepoURL, toRef string) (from, to Endpoint) {
	from = Endpoint{RepoURL: repoURL, Remote: DefaultRemote, Ref: fromRef}
	to = Endpoint{RepoURL: repoURL, Remote: DefaultRemote, Ref: toRef}
	if secondRepoURL != "" && secondRepoURL != repoURL {
		to.RepoURL = secondRepoURL
		to.Remote = SecondRemote
	}
	return from, to
}

// Normalized returns the ref expression git and the line counter understand.
func (e Endpoint) Normalized() string {
	return NormalizeRef(e.Remote, e.Ref)
}

// DisplayRef returns the ref without tag or remote prefixes.
func (e Endpoint) DisplayRef() string {
	ref := e.Ref
	for _, prefix := range []string{"refs/tags/", "tags/", "refs/heads/", e.Remote + "/"} {
		ref = strings.TrimPrefix(ref, prefix)
	}
	return ref
}

// Credentials authenticate https remotes.
type Credentials struct {
	Username string
	Token    string
}

func (c *Credentials) apply(repoURL string) (string, error) {
	if c == nil {
		return repoURL, nil
	}
	return gitremote.WithCredentials(repoURL, c.Username, c.Token)
}

// remoteURL returns the URL the remote for e is configured with. Credentials
// are only added for endpoints on the same host as the from repository.
func (p Params) remoteURL(e Endpoint) (string, error) {
	if p.Credentials == nil || gitremote.Host(e.RepoURL) != gitremote.Host(p.From.RepoURL) {
		return e.RepoURL, nil
	}
	return p.Credentials.apply(e.RepoURL)
}

// Params describes one comparison run.
type Params struct {
	Dir         string
	RepoURL     string
	From        Endpoint
	To          Endpoint
	Credentials *Credentials
	UseSSH      bool
	Languages   []string
	// Checkout switches the working tree to the from ref before counting.
	// Disable it when Dir is a developer's own checkout.
	Checkout bool
}
