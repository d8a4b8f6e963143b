package service

import (
	"math"
	"sort"
	"strings"

	"github.com/noah-isme/teacher-feedback-api/internal/models"
)

// FilterTeachers applies the search, minimum rating and department predicates
// conjunctively and orders the survivors by filter.SortBy. The input slice is
// left untouched.
func FilterTeachers(teachers []models.Teacher, filter models.TeacherFilter) []models.Teacher {
	search := strings.ToLower(strings.TrimSpace(filter.Search))
	minRating := normalizeMinRating(filter.MinRating)
	department := strings.TrimSpace(filter.Department)
	if strings.EqualFold(department, models.DepartmentAll) {
		department = ""
	}

	out := make([]models.Teacher, 0, len(teachers))
	for _, t := range teachers {
		if search != "" &&
			!strings.Contains(strings.ToLower(t.Name), search) &&
			!strings.Contains(strings.ToLower(t.Subject), search) {
			continue
		}
		if minRating > 0 && t.AverageRating < float64(minRating) {
			continue
		}
		if department != "" && t.Department != department {
			continue
		}
		out = append(out, t)
	}

	SortTeachers(out, filter.SortBy)
	return out
}

// SortTeachers orders teachers in place. Unknown keys sort by name ascending.
// Ties always fall back to name ascending and then id.
func SortTeachers(teachers []models.Teacher, sortBy string) {
	primary := teacherComparator(sortBy)
	sort.SliceStable(teachers, func(i, j int) bool {
		a, b := &teachers[i], &teachers[j]
		if c := primary(a, b); c != 0 {
			return c < 0
		}
		if c := compareFold(a.Name, b.Name); c != 0 {
			return c < 0
		}
		return a.ID < b.ID
	})
}

// NormalizeTeacherSort maps unknown sort keys to the default.
func NormalizeTeacherSort(sortBy string) string {
	switch sortBy {
	case models.TeacherSortNameAsc, models.TeacherSortNameDesc, models.TeacherSortRatingHigh,
		models.TeacherSortRatingLow, models.TeacherSortFeedbackMost:
		return sortBy
	}
	return models.TeacherSortNameAsc
}

func teacherComparator(sortBy string) func(a, b *models.Teacher) int {
	switch NormalizeTeacherSort(sortBy) {
	case models.TeacherSortNameDesc:
		return func(a, b *models.Teacher) int { return compareFold(b.Name, a.Name) }
	case models.TeacherSortRatingHigh:
		return func(a, b *models.Teacher) int { return compareFloat(b.AverageRating, a.AverageRating) }
	case models.TeacherSortRatingLow:
		return func(a, b *models.Teacher) int { return compareFloat(a.AverageRating, b.AverageRating) }
	case models.TeacherSortFeedbackMost:
		return func(a, b *models.Teacher) int { return b.TotalFeedback - a.TotalFeedback }
	default:
		return func(a, b *models.Teacher) int { return compareFold(a.Name, b.Name) }
	}
}

// FilterFeedback narrows received feedback by search text and minimum rating
// and orders the result by filter.SortBy.
func FilterFeedback(items []models.FeedbackView, filter models.FeedbackFilter) []models.FeedbackView {
	search := strings.ToLower(strings.TrimSpace(filter.Search))
	minRating := normalizeMinRating(filter.MinRating)

	out := make([]models.FeedbackView, 0, len(items))
	for _, f := range items {
		if search != "" &&
			!strings.Contains(strings.ToLower(f.StudentName), search) &&
			!strings.Contains(strings.ToLower(f.CommentText()), search) &&
			!strings.Contains(strings.ToLower(f.Subject), search) {
			continue
		}
		if minRating > 0 && f.Rating < minRating {
			continue
		}
		out = append(out, f)
	}

	SortFeedback(out, filter.SortBy)
	return out
}

// SortFeedback orders feedback in place, newest first by default. Ties fall
// back to newest first and then id.
func SortFeedback(items []models.FeedbackView, sortBy string) {
	var primary func(a, b *models.FeedbackView) int
	switch sortBy {
	case models.FeedbackSortOldest:
		primary = func(a, b *models.FeedbackView) int { return a.CreatedAt.Compare(b.CreatedAt) }
	case models.FeedbackSortRatingHigh:
		primary = func(a, b *models.FeedbackView) int { return b.Rating - a.Rating }
	case models.FeedbackSortRatingLow:
		primary = func(a, b *models.FeedbackView) int { return a.Rating - b.Rating }
	default:
		primary = func(a, b *models.FeedbackView) int { return b.CreatedAt.Compare(a.CreatedAt) }
	}

	sort.SliceStable(items, func(i, j int) bool {
		a, b := &items[i], &items[j]
		if c := primary(a, b); c != 0 {
			return c < 0
		}
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c < 0
		}
		return a.ID < b.ID
	})
}

// Departments returns the distinct departments in first-seen order.
func Departments(teachers []models.Teacher) []string {
	seen := make(map[string]struct{}, len(teachers))
	out := []string{}
	for _, t := range teachers {
		if _, ok := seen[t.Department]; ok || t.Department == "" {
			continue
		}
		seen[t.Department] = struct{}{}
		out = append(out, t.Department)
	}
	return out
}

// MeanTeacherRating averages the per-teacher averages; 0 for an empty roster.
func MeanTeacherRating(teachers []models.Teacher) float64 {
	if len(teachers) == 0 {
		return 0
	}
	var sum float64
	for _, t := range teachers {
		sum += t.AverageRating
	}
	return roundRating(sum / float64(len(teachers)))
}

// SummarizeFeedback computes the received-feedback stat cards and the five
// bucket rating distribution.
func SummarizeFeedback(teacherID string, items []models.FeedbackView) models.FeedbackSummary {
	summary := models.FeedbackSummary{
		TeacherID:     teacherID,
		TotalFeedback: len(items),
		Distribution:  make([]models.RatingBucket, 0, models.MaxRating),
	}

	counts := make([]int, models.MaxRating+1)
	students := make(map[string]struct{}, len(items))
	var sum int
	for _, f := range items {
		if f.Rating >= models.MinRating && f.Rating <= models.MaxRating {
			counts[f.Rating]++
		}
		sum += f.Rating
		students[f.StudentID] = struct{}{}
	}

	for rating := models.MinRating; rating <= models.MaxRating; rating++ {
		summary.Distribution = append(summary.Distribution, models.RatingBucket{
			Rating:  rating,
			Count:   counts[rating],
			Percent: percent(counts[rating], len(items)),
		})
	}

	if len(items) > 0 {
		summary.AverageRating = roundRating(float64(sum) / float64(len(items)))
	}
	summary.UniqueStudents = len(students)
	summary.FiveStarCount = counts[models.MaxRating]
	summary.FiveStarPercent = percent(counts[models.MaxRating], len(items))
	return summary
}

// normalizeMinRating keeps 1..5 and disables the filter for anything else.
func normalizeMinRating(v int) int {
	if v < models.MinRating || v > models.MaxRating {
		return 0
	}
	return v
}

func percent(part, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(part) * 100 / float64(total)))
}

func roundRating(v float64) float64 {
	return math.Round(v*100) / 100
}

func compareFold(a, b string) int {
	return strings.Compare(strings.ToLower(a), strings.ToLower(b))
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
