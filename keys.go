package grader

import (
	"path"
	"regexp"
	"strings"
)

// Blob file suffixes under a group's resource directory.
const (
	suffixTopComplaints = "_top3.csv"
	suffixSummary       = "_llamasum.txt"
	suffixTrims         = "_ymmtscount.csv"
	suffixHistory       = "_cby.csv"
)

var separatorRun = regexp.MustCompile(`[/\\]+`)

// ComponentKey derives the key segment for a complaint component name.
// The name is upper-cased and each run of path separators becomes "_", so a
// name like "BRAKES/ABS" cannot form an unintended sub-path.
func ComponentKey(component string) string {
	return separatorRun.ReplaceAllString(strings.ToUpper(component), "_")
}

// validGroupID rejects ids that are empty or would escape their directory.
func validGroupID(groupID string) (string, error) {
	g := strings.TrimSpace(groupID)
	if g == "" {
		return "", &ValidationError{Field: "group_id", Reason: "required"}
	}
	if strings.ContainsAny(g, `/\`) || g == "." || g == ".." {
		return "", &ValidationError{Field: "group_id", Reason: "must not contain path separators"}
	}
	return g, nil
}

// groupKeys renders the blob keys for one group.
type groupKeys struct {
	prefix  string
	groupID string
}

func (k groupKeys) dir() string {
	return path.Join(k.prefix, k.groupID) + "/"
}

func (k groupKeys) file(name string) string {
	return path.Join(k.prefix, k.groupID, name)
}

func (k groupKeys) topComplaints() string {
	return k.file(k.groupID + suffixTopComplaints)
}

func (k groupKeys) summary(component string) string {
	return k.file(ComponentKey(component) + suffixSummary)
}

func (k groupKeys) trims() string {
	return k.file(k.groupID + suffixTrims)
}

func (k groupKeys) history() string {
	return k.file(k.groupID + suffixHistory)
}
