package models

// StudentDashboard holds the stat cards shown to students.
type StudentDashboard struct {
	TotalTeachers       int      `json:"totalTeachers"`
	FeedbackGiven       int      `json:"feedbackGiven"`
	AverageRating       float64  `json:"averageRating"`
	SubmittedTeacherIDs []string `json:"submittedTeacherIds"`
}

// DepartmentStats aggregates the roster for one department.
type DepartmentStats struct {
	Department    string  `json:"department"`
	Teachers      int     `json:"teachers"`
	TotalFeedback int     `json:"totalFeedback"`
	AverageRating float64 `json:"averageRating"`
}

// AdminDashboard holds the stat cards and breakdown shown to admins.
type AdminDashboard struct {
	TotalTeachers int               `json:"totalTeachers"`
	TotalFeedback int               `json:"totalFeedback"`
	AverageRating float64           `json:"averageRating"`
	Departments   int               `json:"departments"`
	ByDepartment  []DepartmentStats `json:"byDepartment"`
}
