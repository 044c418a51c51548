// Package naming derives artifact filenames from source URLs.
package naming

import (
	"crypto/md5" // #nosec G501 -- filename derivation, not a security boundary.
	"encoding/hex"

	"github.com/fasrc/a2rchi-sitemap-ripper/internal/ripper"
)

const suffix = ".html"

// Namer implements ripper.Namer. The digest is MD5 of the UTF-8 URL string;
// existing url_mapping.csv files from earlier runs join on this exact scheme,
// so the algorithm must not change.
type Namer struct{}

var _ ripper.Namer = (*Namer)(nil)

// New returns an MD5-based artifact namer.
func New() *Namer {
	return &Namer{}
}

// NameFor returns the hex digest of the URL plus the content-type suffix.
func (n *Namer) NameFor(url string) string {
	sum := md5.Sum([]byte(url)) // #nosec G401
	return hex.EncodeToString(sum[:]) + suffix
}
