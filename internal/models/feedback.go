package models

import "time"

// Feedback is a single student's rating and optional comment for a teacher.
type Feedback struct {
	ID        string    `db:"id" json:"id"`
	StudentID string    `db:"student_id" json:"studentId"`
	TeacherID string    `db:"teacher_id" json:"teacherId"`
	Rating    int       `db:"rating" json:"rating"`
	Comment   *string   `db:"comment" json:"comment,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// FeedbackView joins feedback with the names a teacher dashboard displays.
type FeedbackView struct {
	Feedback
	StudentName string `db:"student_name" json:"studentName"`
	TeacherName string `db:"teacher_name" json:"teacherName"`
	Subject     string `db:"subject" json:"subject"`
}

// CommentText returns the comment or an empty string.
func (f Feedback) CommentText() string {
	if f.Comment == nil {
		return ""
	}
	return *f.Comment
}

// Feedback sort keys accepted by the received-feedback endpoint.
const (
	FeedbackSortRecent     = "recent"
	FeedbackSortOldest     = "oldest"
	FeedbackSortRatingHigh = "rating-high"
	FeedbackSortRatingLow  = "rating-low"
)

// Rating bounds.
const (
	MinRating = 1
	MaxRating = 5
)

// FeedbackFilter captures filtering options for received feedback.
type FeedbackFilter struct {
	Search    string
	MinRating int
	SortBy    string
}

// SubmitFeedbackRequest is the student payload for rating a teacher.
type SubmitFeedbackRequest struct {
	TeacherID string `json:"teacherId" validate:"required"`
	Rating    int    `json:"rating" validate:"required,min=1,max=5"`
	Comment   string `json:"comment"`
}

// RatingBucket counts feedback for one star value.
type RatingBucket struct {
	Rating  int `json:"rating"`
	Count   int `json:"count"`
	Percent int `json:"percent"`
}

// FeedbackSummary aggregates the feedback a teacher received.
type FeedbackSummary struct {
	TeacherID       string         `json:"teacherId"`
	TotalFeedback   int            `json:"totalFeedback"`
	AverageRating   float64        `json:"averageRating"`
	UniqueStudents  int            `json:"uniqueStudents"`
	FiveStarCount   int            `json:"fiveStarCount"`
	FiveStarPercent int            `json:"fiveStarPercent"`
	Distribution    []RatingBucket `json:"distribution"`
}

// ReceivedFeedback is the teacher dashboard listing: the caller's roster entry
// and the feedback about it after filtering.
type ReceivedFeedback struct {
	Teacher  Teacher        `json:"teacher"`
	Feedback []FeedbackView `json:"feedback"`
}
