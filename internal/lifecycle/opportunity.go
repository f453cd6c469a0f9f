// Package lifecycle holds the status state machines for opportunities and
// proposals. The adjacency tables here are the single source of truth for
// status transitions; services must consult them before persisting any
// status change and no other code path may hand-roll a check.
package lifecycle

import "github.com/bcgov/digital-marketplace-sub005/internal/models"

// opportunityTransitions maps each kind's current status to the set of
// statuses it may move to. Absent statuses have no legal outbound moves.
var opportunityTransitions = map[models.OpportunityKind]map[models.OpportunityStatus][]models.OpportunityStatus{
	models.KindCodeWithUs: {
		models.OpportunityDraft: {
			models.OpportunityPublished,
		},
		models.OpportunityPublished: {
			models.OpportunityCanceled,
			models.OpportunitySuspended,
			models.OpportunityEvaluation,
		},
		models.OpportunityEvaluation: {
			models.OpportunityCanceled,
			models.OpportunitySuspended,
			models.OpportunityAwarded,
		},
		models.OpportunitySuspended: {
			models.OpportunityPublished,
			models.OpportunityCanceled,
		},
	},
	models.KindSprintWithUs: {
		models.OpportunityDraft: {
			models.OpportunityUnderReview,
			models.OpportunityPublished,
		},
		models.OpportunityUnderReview: {
			models.OpportunityPublished,
			models.OpportunitySuspended,
		},
		models.OpportunityPublished: {
			models.OpportunityCanceled,
			models.OpportunitySuspended,
			models.OpportunityEvaluationQuestionsIndividual,
		},
		models.OpportunityEvaluationQuestionsIndividual: {
			models.OpportunityCanceled,
			models.OpportunitySuspended,
			models.OpportunityEvaluationQuestionsConsensus,
		},
		models.OpportunityEvaluationQuestionsConsensus: {
			models.OpportunityCanceled,
			models.OpportunitySuspended,
			models.OpportunityEvaluationCodeChallenge,
		},
		models.OpportunityEvaluationCodeChallenge: {
			models.OpportunityCanceled,
			models.OpportunitySuspended,
			models.OpportunityEvaluationTeamScenario,
		},
		models.OpportunityEvaluationTeamScenario: {
			models.OpportunityCanceled,
			models.OpportunitySuspended,
			models.OpportunityAwarded,
		},
		models.OpportunitySuspended: {
			models.OpportunityPublished,
			models.OpportunityCanceled,
		},
	},
	models.KindTeamWithUs: {
		models.OpportunityDraft: {
			models.OpportunityUnderReview,
			models.OpportunityPublished,
		},
		models.OpportunityUnderReview: {
			models.OpportunityPublished,
		},
		models.OpportunityPublished: {
			models.OpportunityCanceled,
			models.OpportunityEvaluationQuestionsIndividual,
		},
		models.OpportunityEvaluationQuestionsIndividual: {
			models.OpportunityCanceled,
			models.OpportunityEvaluationQuestionsConsensus,
		},
		models.OpportunityEvaluationQuestionsConsensus: {
			models.OpportunityCanceled,
			models.OpportunityEvaluationChallenge,
		},
		models.OpportunityEvaluationChallenge: {
			models.OpportunityCanceled,
			models.OpportunityProcessing,
		},
		models.OpportunityProcessing: {
			models.OpportunityCanceled,
			models.OpportunityAwarded,
		},
	},
}

// IsValidOpportunityStatusChange reports whether an opportunity of the given
// kind may move from one status to another. Total: unknown kinds or statuses
// return false.
func IsValidOpportunityStatusChange(kind models.OpportunityKind, from, to models.OpportunityStatus) bool {
	targets, ok := opportunityTransitions[kind][from]
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

// IndividualEvaluationStatus returns the kind's individual-evaluation status,
// the phase whose exit is gated by the completion predicate.
func IndividualEvaluationStatus(kind models.OpportunityKind) models.OpportunityStatus {
	switch kind {
	case models.KindSprintWithUs, models.KindTeamWithUs:
		return models.OpportunityEvaluationQuestionsIndividual
	default:
		return ""
	}
}

// ConsensusEvaluationStatus returns the kind's consensus status, or an empty
// string for kinds without a consensus phase.
func ConsensusEvaluationStatus(kind models.OpportunityKind) models.OpportunityStatus {
	switch kind {
	case models.KindSprintWithUs, models.KindTeamWithUs:
		return models.OpportunityEvaluationQuestionsConsensus
	default:
		return ""
	}
}

// IsConsensusAdvance reports whether the requested opportunity transition is
// the individual-to-consensus phase advance that must be gated by the
// evaluation completion predicate.
func IsConsensusAdvance(kind models.OpportunityKind, from, to models.OpportunityStatus) bool {
	individual := IndividualEvaluationStatus(kind)
	consensus := ConsensusEvaluationStatus(kind)
	return individual != "" && from == individual && to == consensus
}
