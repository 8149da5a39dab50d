package entity

// ResearchJob asks the worker pool to run the pipeline for a session.
// EventID becomes the correlation ID of the run; RequestCID is the
// correlation ID of the HTTP request that queued it, when there was one.
type ResearchJob struct {
	EventID    string
	SessionID  string
	RequestCID string
}
