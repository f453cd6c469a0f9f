package service

import "errors"

// ErrOpportunityNotFound indicates the opportunity was not located.
var ErrOpportunityNotFound = errors.New("opportunity not found")

// ErrProposalNotFound indicates the proposal was not located.
var ErrProposalNotFound = errors.New("proposal not found")

// ErrEvaluationNotFound indicates no evaluation exists for the requested key.
var ErrEvaluationNotFound = errors.New("evaluation not found")

// ErrNotPanelEvaluator indicates the principal is not an evaluator on the
// opportunity's current panel.
var ErrNotPanelEvaluator = errors.New("not an evaluator on this opportunity")

// ErrNotPanelChair indicates the principal is not the chair of the
// opportunity's current panel.
var ErrNotPanelChair = errors.New("not the chair of this opportunity")

// ErrEvaluationExists indicates an evaluation already exists for the key and
// creation must not overwrite it.
var ErrEvaluationExists = errors.New("evaluation already exists")

// ErrEvaluationImmutable indicates the evaluation has been submitted and can
// no longer be edited.
var ErrEvaluationImmutable = errors.New("submitted evaluations cannot be modified")

// ErrScoreOutOfRange indicates a score is negative or exceeds the question's
// maximum.
var ErrScoreOutOfRange = errors.New("score out of range")

// ErrQuestionSetMismatch indicates the submitted scores do not line up one to
// one with the opportunity version's questions.
var ErrQuestionSetMismatch = errors.New("scores do not match the question set")

// ErrInvalidStatusChange indicates the requested transition is not an edge of
// the lifecycle graph, or the principal may not perform it.
var ErrInvalidStatusChange = errors.New("invalid status change")

// Principal is the authenticated caller as seen by the services.
type Principal struct {
	UserID uint
	Role   string
}
