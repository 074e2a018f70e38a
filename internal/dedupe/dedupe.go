// Package dedupe removes same-run duplicates from a batch of jobs.
package dedupe

import (
	"github.com/amishk599/jobscout/internal/fingerprint"
	"github.com/amishk599/jobscout/internal/model"
)

// SimilarityThreshold is the signature similarity at or above which two
// jobs are considered the same posting.
const SimilarityThreshold = 0.95

// Deduplicator holds the seen-sets of a single run. Create one per run with
// New and discard it afterwards.
type Deduplicator struct {
	urls       map[string]struct{}
	signatures []string
	threshold  float64
}

// New returns an empty Deduplicator.
func New() *Deduplicator {
	return &Deduplicator{
		urls:      make(map[string]struct{}),
		threshold: SimilarityThreshold,
	}
}

// Dedupe keeps the first occurrence of every job and drops later duplicates,
// preserving input order.
func (d *Deduplicator) Dedupe(jobs []model.Job) []model.Job {
	out := make([]model.Job, 0, len(jobs))
	for _, j := range jobs {
		if d.Keep(j) {
			out = append(out, j)
		}
	}
	return out
}

// Keep remembers job and returns true unless it duplicates a kept job.
func (d *Deduplicator) Keep(job model.Job) bool {
	if d.IsDuplicate(job) {
		return false
	}
	d.remember(job)
	return true
}

// IsDuplicate reports whether job matches an already kept job by URL or by
// signature. Short or unknown titles are only compared by URL.
func (d *Deduplicator) IsDuplicate(job model.Job) bool {
	fp := fingerprint.Of(job)
	if fp.URLHash != "" {
		if _, ok := d.urls[fp.URLHash]; ok {
			return true
		}
	}
	if !fingerprint.Comparable(job.Title) {
		return false
	}
	for _, seen := range d.signatures {
		if fingerprint.Similarity(fp.Signature, seen) >= d.threshold {
			return true
		}
	}
	return false
}

func (d *Deduplicator) remember(job model.Job) {
	fp := fingerprint.Of(job)
	if fp.URLHash != "" {
		d.urls[fp.URLHash] = struct{}{}
	}
	if fingerprint.Comparable(job.Title) {
		d.signatures = append(d.signatures, fp.Signature)
	}
}
