package model

import "time"

// CategoryItem is the summary record a run or job contributes to a category
// bucket. Timestamp is the sort key: job start time for job-derived items,
// run start time for run-derived items.
type CategoryItem struct {
	ID         int64      `json:"id"`
	Name       string     `json:"name"`
	Status     string     `json:"status"`
	Conclusion Conclusion `json:"conclusion"`
	URL        string     `json:"url"`
	Branch     string     `json:"branch"`
	Event      string     `json:"event"`
	RunNumber  int        `json:"run_number"`
	Actor      *Actor     `json:"actor,omitempty"`
	Timestamp  time.Time  `json:"timestamp"`
}

// CategoryBucket groups the classified items for one category in one
// repository. Items are always sorted newest-first; Latest is the first item
// or nil; Conclusion is derived from Latest alone, never from anything else.
// Buckets are recomputed fully on every refresh.
type CategoryBucket struct {
	Items      []CategoryItem `json:"items"`
	Latest     *CategoryItem  `json:"latest"`
	Conclusion Conclusion     `json:"conclusion"`
}
