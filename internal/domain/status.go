package domain

// AggregateJobStatus derives the overall job status from the multiset of its
// items' statuses:
//
//   - all items completed            -> completed
//   - all items failed               -> failed
//   - all terminal, mixed outcome    -> partial
//   - anything still in flight       -> processing
//
// The function is pure; callers only write the result back when it differs
// from the stored status. An empty slice yields processing: a job with no
// items never reaches a terminal state through aggregation.
func AggregateJobStatus(itemStatuses []string) string {
	if len(itemStatuses) == 0 {
		return JobStatusProcessing
	}

	completed := 0
	failed := 0
	for _, s := range itemStatuses {
		switch s {
		case ItemStatusCompleted:
			completed++
		case ItemStatusFailed:
			failed++
		}
	}

	total := len(itemStatuses)
	switch {
	case completed == total:
		return JobStatusCompleted
	case failed == total:
		return JobStatusFailed
	case completed+failed == total:
		return JobStatusPartial
	default:
		return JobStatusProcessing
	}
}
