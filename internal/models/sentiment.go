package models

import "time"

// SentimentCategory classifies what part of campus life a submission concerns.
type SentimentCategory string

const (
	CategoryFacilities      SentimentCategory = "Physical Facilities & Equipment"
	CategoryAdministration  SentimentCategory = "Administration"
	CategoryInstruction     SentimentCategory = "Instruction"
	CategoryStudentServices SentimentCategory = "Student Services"
	CategoryCampusSafety    SentimentCategory = "Campus Safety"
	CategoryOther           SentimentCategory = "Other"
)

// SentimentCategories lists every accepted category value.
var SentimentCategories = []SentimentCategory{
	CategoryFacilities,
	CategoryAdministration,
	CategoryInstruction,
	CategoryStudentServices,
	CategoryCampusSafety,
	CategoryOther,
}

// ValidSentimentCategory reports whether the value is an accepted category.
func ValidSentimentCategory(v string) bool {
	for _, c := range SentimentCategories {
		if string(c) == v {
			return true
		}
	}
	return false
}

// SentimentPolarity is the detected tone of a submission.
type SentimentPolarity string

const (
	PolarityPositive SentimentPolarity = "Positive"
	PolarityNeutral  SentimentPolarity = "Neutral"
	PolarityNegative SentimentPolarity = "Negative"
)

// ValidSentimentPolarity reports whether the value is an accepted polarity.
func ValidSentimentPolarity(v string) bool {
	switch SentimentPolarity(v) {
	case PolarityPositive, PolarityNeutral, PolarityNegative:
		return true
	}
	return false
}

// SentimentStatus tracks the review workflow state of a record.
type SentimentStatus string

const (
	StatusOnProcess SentimentStatus = "On Process"
	StatusResolved  SentimentStatus = "Resolved"
)

// ValidSentimentStatus reports whether the value is an accepted status.
func ValidSentimentStatus(v string) bool {
	switch SentimentStatus(v) {
	case StatusOnProcess, StatusResolved:
		return true
	}
	return false
}

// Sentiment is a reviewed feedback record. Category and polarity are fixed at
// creation; only the status field transitions afterwards.
type Sentiment struct {
	ID           string            `db:"id" json:"id"`
	Code         string            `db:"code" json:"code"`
	StudentLabel string            `db:"student_label" json:"student"`
	Content      string            `db:"content" json:"content"`
	Category     SentimentCategory `db:"category" json:"category"`
	Polarity     SentimentPolarity `db:"polarity" json:"sentiment"`
	Status       SentimentStatus   `db:"status" json:"status"`
	CreatedAt    time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time         `db:"updated_at" json:"updated_at"`
}

// SentimentFilter narrows list queries.
type SentimentFilter struct {
	Status   *SentimentStatus
	Category *SentimentCategory
	Page     int
	PageSize int
}

// SentimentStats aggregates workflow counters for the admin overview.
type SentimentStats struct {
	Total     int `db:"total" json:"total"`
	OnProcess int `db:"on_process" json:"on_process"`
	Resolved  int `db:"resolved" json:"resolved"`
	ThisMonth int `db:"this_month" json:"this_month"`
}

// ResolutionRate returns the resolved share in percent, zero when empty.
func (s SentimentStats) ResolutionRate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Resolved) / float64(s.Total) * 100
}

// MonthlyCount is a raw month bucket as returned by the database.
type MonthlyCount struct {
	Month time.Time `db:"month" json:"month"`
	Count int       `db:"count" json:"count"`
}

// TrendPoint is one month bucket of the trailing submission trend.
type TrendPoint struct {
	Month string `json:"month"`
	Count int    `json:"count"`
}

// CategoryCount pairs a category with its record count.
type CategoryCount struct {
	Category SentimentCategory `db:"category" json:"category"`
	Count    int               `db:"count" json:"count"`
}

// PolarityCount pairs a polarity with its record count.
type PolarityCount struct {
	Polarity SentimentPolarity `db:"polarity" json:"polarity"`
	Count    int               `db:"count" json:"count"`
}
