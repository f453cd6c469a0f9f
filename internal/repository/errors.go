package repository

import "errors"

// ErrEvaluationRowMissing indicates an update targeted a question row that
// was never created; the question set of an update must exactly match the
// rows written at create time.
var ErrEvaluationRowMissing = errors.New("evaluation question row missing")

// ErrEvaluationInconsistent indicates question rows exist without a status
// row (or vice versa). Normal user action cannot produce this state.
var ErrEvaluationInconsistent = errors.New("unable to process evaluation")

// ErrEvaluationsIncomplete indicates the consensus phase advance was
// attempted before every evaluator submitted every score.
var ErrEvaluationsIncomplete = errors.New("evaluator evaluations incomplete")
