package compare

import (
	"strings"

	"github.com/go-git/go-git/v5/plumbing"
)

// NormalizeRef turns a user-supplied ref into a concrete ref expression:
// "tags/x" becomes "refs/tags/x", a full commit hash is kept as is and
// anything else is treated as a branch on remote.
func NormalizeRef(remote, ref string) string {
	if name, ok := strings.CutPrefix(ref, "tags/"); ok {
		return "refs/tags/" + name
	}
	if plumbing.IsHash(ref) {
		return ref
	}
	return remote + "/" + ref
}
