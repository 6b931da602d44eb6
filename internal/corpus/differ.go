package corpus

import (
	mapset "github.com/deckarep/golang-set/v2"
)

// DiffResult partitions a directory listing into the documents that still
// need uploading and the ones skipped, preserving enumeration order.
type DiffResult struct {
	ToUpload                  []*Document
	SkippedDuplicateFilenames []string
	SkippedAlreadyUploaded    []string
}

// ComputeUploadSet deduplicates files by name (first occurrence wins) and,
// in resume mode, drops everything the ledger already records for the
// target store. Two files registering under the same name would collide in
// both the remote index and the ledger, so in-directory duplicates are
// skipped rather than uploaded.
func ComputeUploadSet(files []*Document, uploaded mapset.Set[string], resume bool) *DiffResult {
	result := &DiffResult{}
	seen := mapset.NewThreadUnsafeSet[string]()

	for _, doc := range files {
		if !seen.Add(doc.FileName) {
			result.SkippedDuplicateFilenames = append(result.SkippedDuplicateFilenames, doc.FileName)
			continue
		}
		if resume && uploaded != nil && uploaded.Contains(doc.FileName) {
			result.SkippedAlreadyUploaded = append(result.SkippedAlreadyUploaded, doc.FileName)
			continue
		}
		result.ToUpload = append(result.ToUpload, doc)
	}

	return result
}
