// Package artifact holds the on-disk naming contract shared by the
// synthesis dispatcher and the merger. Part names must stay bit-stable:
// external tools pre- and post-process part files by name.
package artifact

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/papervoice/papervoice/internal/fault"
)

// MaxParts is the highest part index the zero-padded 3-digit naming scheme
// can express without lexical-sort ambiguity.
const MaxParts = 999

// partSuffix matches a trailing part index on a file stem, e.g.
// "doc_part003". Up to six digits are accepted on read so externally
// produced parts beyond our own write cap still order correctly.
var partSuffix = regexp.MustCompile(`_part(\d{1,6})$`)

// Artifact is one synthesized audio file on disk. Index is 0 when the file
// is a single (unsplit) or merged output.
type Artifact struct {
	Path  string
	Stem  string
	Index int
}

// SingleName returns the output name for an unsplit document: {stem}.{ext}.
func SingleName(dir, stem, ext string) string {
	return filepath.Join(dir, stem+"."+ext)
}

// PartName returns the output name for part index (1-based) of a multi-chunk
// document: {stem}_part{NNN}.{ext}.
func PartName(dir, stem, ext string, index int) (string, error) {
	if index < 1 || index > MaxParts {
		return "", fault.Validation("artifact", fmt.Sprintf("part index %d outside 1..%d", index, MaxParts))
	}
	return filepath.Join(dir, fmt.Sprintf("%s_part%03d.%s", stem, index, ext)), nil
}

// ParseIndex extracts the part index from a path's stem. ok is false when
// the stem carries no part suffix.
func ParseIndex(path string) (index int, ok bool) {
	stem := Stem(path)
	m := partSuffix.FindStringSubmatch(stem)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// Stem returns the base name of path without its extension.
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
