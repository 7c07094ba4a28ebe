package model

// Conclusion represents the final outcome of a workflow run or job.
type Conclusion string

const (
	ConclusionSuccess    Conclusion = "success"
	ConclusionFailure    Conclusion = "failure"
	ConclusionCancelled  Conclusion = "cancelled"
	ConclusionSkipped    Conclusion = "skipped"
	ConclusionInProgress Conclusion = "in_progress"
	ConclusionUnknown    Conclusion = "unknown"
)

// CoerceConclusion maps a raw conclusion string into the fixed Conclusion set.
// Values outside the set (timed_out, action_required, neutral, stale) collapse
// to unknown. Only success feeds pass-rate, streak, and health math.
func CoerceConclusion(raw string) Conclusion {
	switch Conclusion(raw) {
	case ConclusionSuccess, ConclusionFailure, ConclusionCancelled,
		ConclusionSkipped, ConclusionInProgress:
		return Conclusion(raw)
	default:
		return ConclusionUnknown
	}
}

// Category is the classification grouping used to present status per
// functional concern rather than per raw job name.
type Category string

const (
	CategoryLint     Category = "lint"
	CategoryTest     Category = "test"
	CategorySecurity Category = "security"
	CategoryRelease  Category = "release"
)

// Categories lists all categories in classification order. A job name is
// tested against each category's patterns in this order and the first match
// wins.
var Categories = []Category{CategoryLint, CategoryTest, CategorySecurity, CategoryRelease}

// SnapshotSource records which data source produced a repository snapshot.
type SnapshotSource string

const (
	SourceLive   SnapshotSource = "live"   // Fresh GitHub API fetch.
	SourceStatic SnapshotSource = "static" // Pre-generated JSON artifact.
	SourceCache  SnapshotSource = "cache"  // Last-good snapshot within TTL.
	SourceNone   SnapshotSource = "none"   // All sources failed; empty snapshot.
)
