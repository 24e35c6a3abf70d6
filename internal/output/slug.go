package output

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

const slugMaxLen = 40

var (
	slugInvalid = regexp.MustCompile(`[^A-Za-z0-9-]+`)
	slugDashes  = regexp.MustCompile(`-{2,}`)
)

// Slugify turns a model name into a filename-safe tag of at most 40 chars.
// The result always matches [a-z0-9-]+ and Slugify(Slugify(s)) == Slugify(s).
func Slugify(s string) string {
	s = slugInvalid.ReplaceAllString(strings.TrimSpace(s), "-")
	s = strings.Trim(slugDashes.ReplaceAllString(s, "-"), "-")
	if len(s) > slugMaxLen {
		s = strings.TrimRight(s[:slugMaxLen], "-")
	}
	if s == "" {
		return "model"
	}
	return strings.ToLower(s)
}

// HashText returns the first 12 hex chars of the SHA-256 of s.
func HashText(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])[:12]
}

// NewRunID returns the RUN_ID environment override, or a fresh random id.
func NewRunID() string {
	if id := os.Getenv("RUN_ID"); id != "" {
		return id
	}
	u := uuid.New()
	return hex.EncodeToString(u[:])
}
