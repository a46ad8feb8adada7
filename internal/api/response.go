package api

import (
	"time"

	"github.com/amishk599/jobatlas/internal/model"
)

type postingResponse struct {
	ID                    int64                     `json:"id"`
	Title                 string                    `json:"title"`
	Description           string                    `json:"description,omitempty"`
	Labels                []string                  `json:"labels"`
	AgencyShort           string                    `json:"agencyShort"`
	AgencyLong            string                    `json:"agencyLong,omitempty"`
	DutyStation           string                    `json:"dutyStation,omitempty"`
	DutyCountry           string                    `json:"dutyCountry,omitempty"`
	DutyContinent         string                    `json:"dutyContinent,omitempty"`
	Grade                 string                    `json:"grade,omitempty"`
	PostingDate           *time.Time                `json:"postingDate,omitempty"`
	ApplyUntil            *time.Time                `json:"applyUntil,omitempty"`
	Archived              bool                      `json:"archived"`
	URL                   string                    `json:"url,omitempty"`
	PrimaryCategory       string                    `json:"primaryCategory"`
	SecondaryCategories   []model.CategoryScore     `json:"secondaryCategories"`
	Confidence            int                       `json:"classificationConfidence"`
	Reasoning             []string                  `json:"classificationReasoning"`
	Flags                 model.ClassificationFlags `json:"classificationFlags"`
	SeniorityLevel        string                    `json:"seniorityLevel"`
	LocationType          string                    `json:"locationType"`
	Status                string                    `json:"status"`
	IsActive              bool                      `json:"isActive"`
	IsExpired             bool                      `json:"isExpired"`
	DaysRemaining         int                       `json:"daysRemaining"`
	Urgency               string                    `json:"urgency"`
	ApplicationWindowDays int                       `json:"applicationWindowDays"`
	ProcessedAt           time.Time                 `json:"processedAt"`
}

func toPostingResponse(p model.ClassifiedPosting) postingResponse {
	labels := p.Labels
	if labels == nil {
		labels = []string{}
	}
	secondary := p.SecondaryCategories
	if secondary == nil {
		secondary = []model.CategoryScore{}
	}
	return postingResponse{
		ID:                    p.ID,
		Title:                 p.Title,
		Description:           p.Description,
		Labels:                labels,
		AgencyShort:           p.AgencyShort,
		AgencyLong:            p.AgencyLong,
		DutyStation:           p.DutyStation,
		DutyCountry:           p.DutyCountry,
		DutyContinent:         p.DutyContinent,
		Grade:                 p.Grade,
		PostingDate:           p.PostingDate,
		ApplyUntil:            p.ApplyUntil,
		Archived:              p.Archived,
		URL:                   p.URL,
		PrimaryCategory:       p.PrimaryCategory,
		SecondaryCategories:   secondary,
		Confidence:            p.Confidence,
		Reasoning:             p.Reasoning,
		Flags:                 p.Flags,
		SeniorityLevel:        p.SeniorityLevel,
		LocationType:          p.LocationType,
		Status:                p.Status,
		IsActive:              p.IsActive,
		IsExpired:             p.IsExpired,
		DaysRemaining:         p.DaysRemaining,
		Urgency:               p.Urgency,
		ApplicationWindowDays: p.ApplicationWindowDays,
		ProcessedAt:           p.ProcessedAt,
	}
}
