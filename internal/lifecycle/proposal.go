package lifecycle

import (
	"time"

	"github.com/bcgov/digital-marketplace-sub005/internal/models"
)

// Actor is the role of the principal requesting a transition.
type Actor string

const (
	ActorAdmin  Actor = "admin"
	ActorGov    Actor = "gov"
	ActorVendor Actor = "vendor"
)

// IsVendor reports whether the actor is a vendor. Unrecognised actors are
// treated as vendors so an unknown role never gains government transitions.
func (a Actor) IsVendor() bool {
	return a != ActorAdmin && a != ActorGov
}

// FirstReviewStatus is the status a submitted proposal enters when the
// government begins reviewing it, per kind.
func FirstReviewStatus(kind models.OpportunityKind) models.ProposalStatus {
	if kind == models.KindCodeWithUs {
		return models.ProposalUnderReview
	}
	return models.ProposalUnderReviewQuestions
}

// reviewTransitions holds the government-only portion of the proposal graph
// per kind, everything downstream of Submitted. Vendor-reachable states
// (Draft, Submitted, Withdrawn) are handled separately because they are
// role- and deadline-gated.
var reviewTransitions = map[models.OpportunityKind]map[models.ProposalStatus][]models.ProposalStatus{
	models.KindCodeWithUs: {
		models.ProposalUnderReview: {
			models.ProposalEvaluated,
			models.ProposalDisqualified,
		},
		models.ProposalEvaluated: {
			models.ProposalAwarded,
			models.ProposalNotAwarded,
			models.ProposalDisqualified,
		},
		models.ProposalNotAwarded: {
			models.ProposalAwarded,
		},
	},
	models.KindSprintWithUs: {
		models.ProposalUnderReviewQuestions: {
			models.ProposalEvaluatedQuestions,
			models.ProposalDisqualified,
		},
		models.ProposalEvaluatedQuestions: {
			models.ProposalUnderReviewChallenge,
			models.ProposalDisqualified,
		},
		models.ProposalUnderReviewChallenge: {
			models.ProposalEvaluatedChallenge,
			// Screening back out of the code challenge.
			models.ProposalEvaluatedQuestions,
			models.ProposalDisqualified,
		},
		models.ProposalEvaluatedChallenge: {
			models.ProposalUnderReviewScenario,
			models.ProposalDisqualified,
		},
		models.ProposalUnderReviewScenario: {
			models.ProposalEvaluatedScenario,
			// Screening back out of the team scenario.
			models.ProposalEvaluatedChallenge,
			models.ProposalDisqualified,
		},
		models.ProposalEvaluatedScenario: {
			models.ProposalAwarded,
			models.ProposalNotAwarded,
			models.ProposalDisqualified,
		},
		models.ProposalNotAwarded: {
			models.ProposalAwarded,
		},
	},
	models.KindTeamWithUs: {
		models.ProposalUnderReviewQuestions: {
			models.ProposalEvaluatedQuestions,
			models.ProposalDisqualified,
		},
		models.ProposalEvaluatedQuestions: {
			models.ProposalUnderReviewChallenge,
			models.ProposalDisqualified,
		},
		models.ProposalUnderReviewChallenge: {
			models.ProposalEvaluatedChallenge,
			// Screening back out of the challenge.
			models.ProposalEvaluatedQuestions,
			models.ProposalDisqualified,
		},
		models.ProposalEvaluatedChallenge: {
			models.ProposalAwarded,
			models.ProposalNotAwarded,
			models.ProposalDisqualified,
		},
		models.ProposalNotAwarded: {
			models.ProposalAwarded,
		},
	},
}

// IsValidProposalStatusChange reports whether a proposal of the given
// opportunity kind may move between the two statuses when requested by the
// given actor at the given time. Vendors may only submit a draft, withdraw a
// submission, and resubmit a withdrawal before the deadline; every other
// transition requires a government actor, and moving out of Submitted
// additionally requires the proposal deadline to have passed. Total: unknown
// inputs return false.
func IsValidProposalStatusChange(kind models.OpportunityKind, from, to models.ProposalStatus, actor Actor, deadline, now time.Time) bool {
	deadlinePassed := !now.Before(deadline)

	switch from {
	case models.ProposalDraft:
		return actor == ActorVendor && to == models.ProposalSubmitted && !deadlinePassed
	case models.ProposalSubmitted:
		if actor == ActorVendor {
			return to == models.ProposalWithdrawn
		}
		if actor.IsVendor() {
			return false
		}
		return to == FirstReviewStatus(kind) && deadlinePassed
	case models.ProposalWithdrawn:
		return actor == ActorVendor && to == models.ProposalSubmitted && !deadlinePassed
	}

	if actor.IsVendor() {
		return false
	}

	targets, ok := reviewTransitions[kind][from]
	if !ok {
		return false
	}
	for _, target := range targets {
		if target == to {
			return true
		}
	}
	return false
}
