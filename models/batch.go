package models

// Identity is the marketplace account that imported listings are attributed to.
type Identity struct {
	ID       int64
	Username string
}

// LinkFailure records why one detail link could not be imported.
type LinkFailure struct {
	URL    string `json:"url"`
	Reason string `json:"reason"`
}

// ImportBatchResult is the aggregate outcome of one import run. It is created
// when the run starts, finalized when the run ends, and never persisted.
type ImportBatchResult struct {
	Attempted int           `json:"attempted"`
	Imported  int           `json:"imported"`
	Failures  []LinkFailure `json:"failures"`

	// Drafts holds the successfully imported listings so the caller can
	// compute a post-run summary. Ownership of the persisted records has
	// already transferred to the store.
	Drafts []*ListingDraft `json:"-"`
}

// Failed returns the number of links that did not import.
func (r *ImportBatchResult) Failed() int {
	return len(r.Failures)
}
