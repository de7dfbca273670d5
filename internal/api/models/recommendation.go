package models

import (
	"github.com/nutricare/nutricare/internal/recommendation"
)

// PeriodicRequest is the body of POST /recommendations/periodic. Date
// defaults to today.
type PeriodicRequest struct {
	UserID string `json:"user_id" validate:"required,max=64"`
	Period string `json:"period" validate:"required,max=16"`
	Date   *Date  `json:"date,omitempty"`
}

// RecommendationList is a user's recommendation log, newest first.
type RecommendationList struct {
	Items []*recommendation.Recommendation `json:"items"`
}
