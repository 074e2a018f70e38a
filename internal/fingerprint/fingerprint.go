// Package fingerprint derives identity and similarity keys for jobs.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/agext/levenshtein"

	"github.com/amishk599/jobscout/internal/model"
)

// Fingerprint is used for duplicate detection only; it is never persisted as
// a job's identity.
type Fingerprint struct {
	URLHash   string // empty when the job has no URL
	Signature string // alphanumeric lower-cased title+company
}

// Of computes the fingerprint of job.
func Of(job model.Job) Fingerprint {
	return Fingerprint{
		URLHash:   URLHash(job.URL),
		Signature: Signature(job.Title, job.Company),
	}
}

// URLHash returns the hex SHA-256 of the trimmed URL, or "" for an empty URL.
func URLHash(url string) string {
	url = strings.TrimSpace(url)
	if url == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(url))
	return hex.EncodeToString(sum[:])
}

// Signature keeps only [a-z0-9] of the lower-cased title and company.
func Signature(title, company string) string {
	s := strings.ToLower(title + company)
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Similarity scores two signatures in [0, 1], 1 meaning identical.
func Similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	return levenshtein.Similarity(a, b, nil)
}

const (
	minTitleLen  = 5
	unknownTitle = "unknown"
)

// Comparable reports whether a title carries enough text for signature
// matching. Short titles and "unknown" say nothing about the posting.
func Comparable(title string) bool {
	t := strings.TrimSpace(title)
	return len(t) >= minTitleLen && !strings.EqualFold(t, unknownTitle)
}

// Key is the storage identity of a job: its URL, or a signature key for jobs
// without one. Titles too generic to compare also carry a digest of location
// and description, so distinct "BA" postings at one company keep distinct
// keys while the same posting still maps to the same key on every run.
func Key(job model.Job) string {
	if url := strings.TrimSpace(job.URL); url != "" {
		return url
	}
	key := "sig:" + Signature(job.Title, job.Company)
	if Comparable(job.Title) {
		return key
	}
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(job.Location)) + "\x00" + strings.TrimSpace(job.Description)))
	return key + "#" + hex.EncodeToString(sum[:6])
}
