package errs

import "github.com/m-mizutani/goerr/v2"

// Error tags classify every failure the engine can surface. Callers branch
// on tags, not on error message text.
var (
	// Collaborator failures: the record is never modified by a failed call,
	// so the same turn can be retried with identical input.
	TagExtractionFailed         = goerr.NewTag("extraction_failed")
	TagQuestionGenerationFailed = goerr.NewTag("question_generation_failed")
	TagSummarizationFailed      = goerr.NewTag("summarization_failed")
	TagCollaboratorTimeout      = goerr.NewTag("collaborator_timeout")

	// Record-level failures.
	TagFieldCoercion = goerr.NewTag("field_coercion")

	// Structural failures: fatal to the call, caller must start over.
	TagSessionNotFound  = goerr.NewTag("session_not_found")
	TagDuplicateSession = goerr.NewTag("duplicate_session")

	// Transient: back off and retry.
	TagSessionBusy = goerr.NewTag("session_busy")

	// Policy: the configured follow-up budget was exhausted.
	TagAttemptsExhausted = goerr.NewTag("attempts_exhausted")
)

// Context keys attached to errors so logs and retries carry enough
// information to identify the exact turn that failed.
var (
	SessionIDKey = goerr.NewTypedKey[string]("session_id")
	FieldKey     = goerr.NewTypedKey[string]("field")
	AttemptKey   = goerr.NewTypedKey[int]("attempt")
)
