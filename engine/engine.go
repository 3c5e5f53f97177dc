// Package engine drives the turn-by-turn collection of a booking request:
// extract, merge, check completeness, then either ask a follow-up question
// or finalize with a summary.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"

	"github.com/movetics/transflow/booking"
	"github.com/movetics/transflow/errs"
	"github.com/movetics/transflow/extract"
	"github.com/movetics/transflow/question"
	"github.com/movetics/transflow/session"
	"github.com/movetics/transflow/summary"
	"github.com/movetics/transflow/types"
)

const (
	// Extraction context is the up-to-3 most recent prior messages. Fixed,
	// not configurable: it bounds prompt size while keeping short-range
	// context.
	contextWindow = 3

	// A follow-up question covers at most this many missing fields; asking
	// for more at once degrades answer quality.
	maxQuestionFields = 3

	defaultTimeout = 60 * time.Second
)

type Engine struct {
	store      session.Store
	extractor  extract.Extractor
	questions  question.Generator
	summarizer summary.Summarizer

	// timeout applies to each collaborator call individually.
	timeout time.Duration

	// maxAttempts bounds question-asking turns; 0 means unbounded.
	maxAttempts int
}

type Option func(*Engine)

// WithTimeout sets the per-collaborator-call timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(e *Engine) {
		e.timeout = timeout
	}
}

// WithMaxAttempts bounds how many follow-up questions a session may consume
// before it is marked failed. Zero keeps the source behavior of unbounded
// retries.
func WithMaxAttempts(n int) Option {
	return func(e *Engine) {
		e.maxAttempts = n
	}
}

func New(
	store session.Store,
	extractor extract.Extractor,
	questions question.Generator,
	summarizer summary.Summarizer,
	opts ...Option,
) *Engine {
	engine := &Engine{
		store:      store,
		extractor:  extractor,
		questions:  questions,
		summarizer: summarizer,
		timeout:    defaultTimeout,
	}
	for _, opt := range opts {
		opt(engine)
	}
	return engine
}

// StartSession creates a session up front, optionally seeding the record
// from an RFC 7386 merge patch of already-known sender data. The patch is
// validated before anything is stored, so a bad prefill leaves no session
// behind.
func (e *Engine) StartSession(ctx context.Context, senderID string, prefill []byte) (*session.Session, error) {
	var seeded *booking.Request
	if len(prefill) > 0 {
		var err error
		seeded, err = (&booking.Request{}).ApplyMergePatch(prefill)
		if err != nil {
			return nil, goerr.Wrap(err, "prefill session")
		}
	}

	id := uuid.NewString()
	release, err := e.store.Acquire(ctx, id)
	if err != nil {
		return nil, err
	}
	defer release()

	sess, err := e.store.Create(ctx, id, senderID)
	if err != nil {
		return nil, err
	}
	if seeded != nil {
		sess.Request = seeded
		sess.Missing = seeded.MissingFields()
	}
	if err := e.store.Save(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// HandleMessage runs one turn for the session. An empty sessionID starts a
// new conversation under a generated id.
//
// On a summarizer failure the record is already complete, so both a complete
// Result (with an empty summary) and a summarization_failed error are
// returned; the summary can be retried independently.
func (e *Engine) HandleMessage(ctx context.Context, sessionID, senderID, text string) (result *Result, err error) {
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = goerr.New(fmt.Sprintf("panic in turn: %v", r),
				goerr.TV(errs.SessionIDKey, sessionID))
		}
	}()

	release, err := e.store.Acquire(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	defer release()

	sess, err := e.store.Resume(ctx, sessionID, senderID)
	if err != nil {
		return nil, err
	}
	if sess.Status.Terminal() {
		return e.handleTerminal(ctx, sess)
	}

	sess.Append(types.RoleUser, text)
	convContext := types.FormatContext(sess.ContextWindow(contextWindow))

	slog.Debug("extracting fields", "session_id", sess.ID, "context_len", len(convContext))
	partial, err := e.extract(ctx, text, convContext)
	if err != nil {
		// Nothing was merged; the caller can retry the identical turn.
		return nil, goerr.Wrap(err, "extraction failed",
			e.failureTag(ctx, err, goerr.Tag(errs.TagExtractionFailed)),
			goerr.TV(errs.SessionIDKey, sess.ID),
			goerr.TV(errs.AttemptKey, sess.Attempts),
		)
	}

	// The record only changes once extraction produced a parseable result,
	// so a failed turn can be retried verbatim.
	sess.Request.RawMessage = text
	applied, mergeErr := sess.ApplyPartial(partial)
	if mergeErr != nil {
		// Coercion failures leave their field unset; the next question
		// re-asks for it, so this is a disambiguation need, not a failure.
		slog.Warn("some extracted values were not applied",
			"session_id", sess.ID, "error", mergeErr)
	}
	if len(applied) > 0 {
		// Only a merged answer satisfies the pending question; a value that
		// failed coercion does not.
		sess.PendingQuestion = ""
	}
	slog.Debug("merged extraction", "session_id", sess.ID, "missing", sess.Missing)

	if sess.Status == types.StatusComplete {
		return e.finalize(ctx, sess)
	}
	return e.askNext(ctx, sess)
}

// askNext runs step 8 of the turn: transition to awaiting_answer, pick up to
// maxQuestionFields missing fields in declaration order, and ask for them.
func (e *Engine) askNext(ctx context.Context, sess *session.Session) (*Result, error) {
	if e.maxAttempts > 0 && sess.Attempts >= e.maxAttempts {
		sess.Status = types.StatusFailed
		if err := e.store.Save(ctx, sess); err != nil {
			return nil, err
		}
		return nil, goerr.New("follow-up attempts exhausted",
			goerr.Tag(errs.TagAttemptsExhausted),
			goerr.TV(errs.SessionIDKey, sess.ID),
			goerr.TV(errs.AttemptKey, sess.Attempts),
		)
	}

	prevStatus, prevAttempts := sess.Status, sess.Attempts
	sess.Status = types.StatusAwaitingAnswer
	sess.Attempts++

	selected := sess.Missing
	if len(selected) > maxQuestionFields {
		selected = selected[:maxQuestionFields]
	}

	slog.Debug("generating question", "session_id", sess.ID, "fields", selected)
	text, err := e.generateQuestion(ctx, sess.Request.Known(), booking.FieldInfos(selected))
	if err != nil {
		if timedOut(ctx, err) {
			// Timeout rolls the session back to its pre-call status.
			sess.Status, sess.Attempts = prevStatus, prevAttempts
			return nil, goerr.Wrap(err, "question generation timed out",
				goerr.Tag(errs.TagCollaboratorTimeout),
				goerr.TV(errs.SessionIDKey, sess.ID),
			)
		}
		// Pending question stays unset; retrying the turn re-selects the
		// same fields deterministically.
		if saveErr := e.store.Save(ctx, sess); saveErr != nil {
			return nil, saveErr
		}
		return nil, goerr.Wrap(err, "question generation failed",
			goerr.Tag(errs.TagQuestionGenerationFailed),
			goerr.TV(errs.SessionIDKey, sess.ID),
			goerr.TV(errs.AttemptKey, sess.Attempts),
		)
	}

	sess.PendingQuestion = text
	sess.Append(types.RoleAssistant, text)
	if err := e.store.Save(ctx, sess); err != nil {
		return nil, err
	}
	return &Result{
		Status:        StatusWaitingForResponse,
		SessionID:     sess.ID,
		Question:      text,
		MissingFields: sess.Missing,
	}, nil
}

// finalize runs once the record is complete: summarize, append the
// confirmation, and return the collected data. A summarizer failure is
// non-fatal; the record stays complete and only the summary is missing.
func (e *Engine) finalize(ctx context.Context, sess *session.Session) (*Result, error) {
	sess.PendingQuestion = ""
	result := &Result{
		Status:      StatusComplete,
		SessionID:   sess.ID,
		RequestData: sess.Request.Clone(),
	}

	slog.Debug("summarizing request", "session_id", sess.ID)
	text, err := e.summarize(ctx, sess.Request.Known())
	if err != nil {
		if saveErr := e.store.Save(ctx, sess); saveErr != nil {
			return nil, saveErr
		}
		return result, goerr.Wrap(err, "summarization failed",
			e.failureTag(ctx, err, goerr.Tag(errs.TagSummarizationFailed)),
			goerr.TV(errs.SessionIDKey, sess.ID),
		)
	}

	result.Summary = text
	sess.Summary = text
	sess.Append(types.RoleAssistant, text)
	if err := e.store.Save(ctx, sess); err != nil {
		return nil, err
	}
	return result, nil
}

// handleTerminal answers messages sent to an already-finished session. A
// complete session without a summary retries finalization, since a failed
// summarizer call never invalidates the collected record.
func (e *Engine) handleTerminal(ctx context.Context, sess *session.Session) (*Result, error) {
	if sess.Status == types.StatusFailed {
		return nil, goerr.New("session failed after exhausting follow-up attempts",
			goerr.Tag(errs.TagAttemptsExhausted),
			goerr.TV(errs.SessionIDKey, sess.ID),
		)
	}
	if sess.Summary == "" {
		return e.finalize(ctx, sess)
	}
	return &Result{
		Status:      StatusComplete,
		SessionID:   sess.ID,
		Summary:     sess.Summary,
		RequestData: sess.Request.Clone(),
	}, nil
}

func (e *Engine) extract(ctx context.Context, text, convContext string) (map[string]any, error) {
	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	return e.extractor.Extract(callCtx, text, convContext)
}

func (e *Engine) generateQuestion(ctx context.Context, known map[string]any, missing []types.FieldInfo) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	return e.questions.Generate(callCtx, known, missing)
}

func (e *Engine) summarize(ctx context.Context, fields map[string]any) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	return e.summarizer.Summarize(callCtx, fields)
}

// failureTag picks the timeout tag when the collaborator call exceeded its
// deadline, the given tag otherwise.
func (e *Engine) failureTag(ctx context.Context, err error, tag goerr.Option) goerr.Option {
	if timedOut(ctx, err) {
		return goerr.Tag(errs.TagCollaboratorTimeout)
	}
	return tag
}

func timedOut(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	return ctx.Err() == nil && errors.Is(err, context.Canceled)
}
