package dto

import "github.com/campushq/college-admin-api/internal/models"

// TransitionOption is a planner recommendation annotated with live counts.
type TransitionOption struct {
	From        int                     `json:"from"`
	To          models.TransitionTarget `json:"to"`
	Label       string                  `json:"label"`
	Students    int                     `json:"students"`
	PendingDues int                     `json:"pending_dues"`
}

// PromotionStatsResponse is the planner output for the operator UI.
type PromotionStatsResponse struct {
	Counts                 map[int]int         `json:"counts"`
	CurrentType            models.SemesterType `json:"current_type"`
	RecommendedTransitions []TransitionOption  `json:"recommended_transitions"`
}

// PromoteRequest selects the transitions to execute and the students to
// year-back instead of promote.
type PromoteRequest struct {
	Transitions  []models.Transition `json:"transitions"`
	SemesterType models.SemesterType `json:"semester_type"`
	YearBackIDs  []string            `json:"year_back_ids"`
}

// PromoteResponse reports what the batch did.
type PromoteResponse struct {
	Message  string `json:"message"`
	Promoted int    `json:"promoted"`
	Archived int    `json:"archived"`
	YearBack int    `json:"year_back"`
}

// UndoResponse acknowledges a successful undo.
type UndoResponse struct {
	Message string `json:"message"`
}
