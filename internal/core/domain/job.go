package domain

// JobState is the state of an ingestion job.
type JobState string

// Job lifecycle states. Done and Error are terminal.
const (
	JobQueued     JobState = "queued"
	JobProcessing JobState = "processing"
	JobDone       JobState = "done"
	JobError      JobState = "error"
)

// Terminal reports whether the state is final.
func (s JobState) Terminal() bool {
	return s == JobDone || s == JobError
}

// Job tracks the progress of one ingestion run. The document list is
// fixed at creation; jobs live only for the process lifetime, which is
// acceptable because re-ingestion is idempotent.
type Job struct {
	// ID is the unique job identifier.
	ID string

	// State is the current lifecycle state.
	State JobState

	// QueuedDocs is the full set of document IDs the job will attempt.
	QueuedDocs []string

	// ProcessedDocs is the subset attempted so far, in processing order.
	ProcessedDocs []string

	// TotalChunks counts chunks queued for embedding across the job.
	TotalChunks int

	// EmbeddedChunks counts chunks embedded so far.
	EmbeddedChunks int

	// Error holds the message and trace for a whole-job failure.
	Error string
}

// Clone returns a deep copy safe to hand to pollers.
func (j *Job) Clone() *Job {
	c := *j
	c.QueuedDocs = append([]string(nil), j.QueuedDocs...)
	c.ProcessedDocs = append([]string(nil), j.ProcessedDocs...)
	return &c
}
