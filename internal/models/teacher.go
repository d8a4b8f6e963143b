package models

import "time"

// Teacher is a roster entry students can rate.
type Teacher struct {
	ID            string    `db:"id" json:"id"`
	Name          string    `db:"name" json:"name"`
	Department    string    `db:"department" json:"department"`
	Subject       string    `db:"subject" json:"subject"`
	Email         *string   `db:"email" json:"email,omitempty"`
	UserID        *string   `db:"user_id" json:"userId,omitempty"`
	AverageRating float64   `db:"average_rating" json:"averageRating"`
	TotalFeedback int       `db:"total_feedback" json:"totalFeedback"`
	CreatedAt     time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time `db:"updated_at" json:"updatedAt"`
}

// Teacher sort keys accepted by the listing endpoints.
const (
	TeacherSortNameAsc      = "name-asc"
	TeacherSortNameDesc     = "name-desc"
	TeacherSortRatingHigh   = "rating-high"
	TeacherSortRatingLow    = "rating-low"
	TeacherSortFeedbackMost = "feedback-most"
)

// DepartmentAll disables department filtering.
const DepartmentAll = "all"

// TeacherFilter captures filtering options for listing teachers.
type TeacherFilter struct {
	Search     string
	MinRating  int
	Department string
	SortBy     string
	Page       int
	PageSize   int
}

// Paginated reports whether the caller asked for a page window.
func (f TeacherFilter) Paginated() bool {
	return f.Page > 0 || f.PageSize > 0
}

// TeacherListResult bundles a filtered roster page with derived data.
type TeacherListResult struct {
	Teachers    []Teacher   `json:"teachers"`
	Departments []string    `json:"departments"`
	Pagination  *Pagination `json:"-"`
}

// DepartmentsResponse lists departments in use and those an admin may assign.
type DepartmentsResponse struct {
	InUse     []string `json:"inUse"`
	Available []string `json:"available"`
}

// CreateTeacherRequest is the admin payload for adding a roster entry.
type CreateTeacherRequest struct {
	Name       string `json:"name" validate:"required,max=120"`
	Department string `json:"department" validate:"required,max=120"`
	Subject    string `json:"subject" validate:"required,max=120"`
	Email      string `json:"email" validate:"omitempty,email"`
}
