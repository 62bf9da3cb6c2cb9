package queue

import (
	"encoding/json"
	"fmt"
)

// DefaultQueue is the queue name used when a job is submitted without one.
const DefaultQueue = "conform:jobs"

// Job is a single validation request submitted to a queue.
type Job struct {
	// ID is a UUID correlating the job with its result
	ID string `json:"id"`

	// SchemaName is the registry name of the schema to validate against
	SchemaName string `json:"schema_name"`

	// Document is the JSON-encoded value to validate
	Document json.RawMessage `json:"document"`

	// Strip requests a schema-pruned copy of the document in the result
	// in addition to the conformance verdict
	Strip bool `json:"strip,omitempty"`

	// ReplyChannel is the pub/sub channel for the result. Empty means the
	// submitter does not want a reply.
	ReplyChannel string `json:"reply_channel,omitempty"`

	// SubmittedAt is the Unix timestamp in milliseconds when the job was
	// submitted
	SubmittedAt int64 `json:"submitted_at,omitempty"`
}

// Validate checks that a job is complete enough to process.
func (j Job) Validate() error {
	if j.ID == "" {
		return fmt.Errorf("job ID cannot be empty")
	}
	if j.SchemaName == "" {
		return fmt.Errorf("job %s has no schema name", j.ID)
	}
	if len(j.Document) == 0 {
		return fmt.Errorf("job %s has no document", j.ID)
	}
	return nil
}

// Result is the outcome of one validation job.
type Result struct {
	// JobID correlates this result with the original job
	JobID string `json:"job_id"`

	// Valid is the conformance verdict
	Valid bool `json:"valid"`

	// Stripped is the schema-pruned document, present only when the job
	// requested stripping and the document was valid
	Stripped json.RawMessage `json:"stripped,omitempty"`

	// Error is set when the job could not be processed at all (unknown
	// schema, unreadable document). An invalid document is not an error;
	// it is Valid=false.
	Error string `json:"error,omitempty"`

	// WorkerID identifies the worker that processed the job
	WorkerID string `json:"worker_id,omitempty"`

	// CompletedAt is the Unix timestamp in milliseconds when processing
	// finished
	CompletedAt int64 `json:"completed_at,omitempty"`
}
