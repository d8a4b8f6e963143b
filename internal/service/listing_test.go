package service

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/teacher-feedback-api/internal/models"
)

func sampleRoster() []models.Teacher {
	return []models.Teacher{
		{ID: "t1", Name: "Shweta Kaushik", Department: "Computer Science", Subject: "Web Technology", AverageRating: 4.5, TotalFeedback: 42},
		{ID: "t2", Name: "Tripti Pandey", Department: "Computer Science", Subject: "Machine Learning Techniques", AverageRating: 4.7, TotalFeedback: 38},
		{ID: "t3", Name: "Ayush Aggarwal", Department: "Computer Science", Subject: "DBMS", AverageRating: 4.2, TotalFeedback: 35},
		{ID: "t4", Name: "Bharat Bhardwaj", Department: "Electronics", Subject: "COA", AverageRating: 3.9, TotalFeedback: 27},
		{ID: "t5", Name: "Meenakshi Vishnoi", Department: "Information Technology", Subject: "OOPs with Java", AverageRating: 0, TotalFeedback: 0},
	}
}

func ids(teachers []models.Teacher) []string {
	out := make([]string, len(teachers))
	for i, t := range teachers {
		out[i] = t.ID
	}
	return out
}

func TestFilterTeachersDefaultsToNameAscending(t *testing.T) {
	got := FilterTeachers(sampleRoster(), models.TeacherFilter{})
	assert.Equal(t, []string{"t3", "t4", "t5", "t1", "t2"}, ids(got))

	got = FilterTeachers(sampleRoster(), models.TeacherFilter{SortBy: "bogus"})
	assert.Equal(t, []string{"t3", "t4", "t5", "t1", "t2"}, ids(got))
}

func TestFilterTeachersSortKeys(t *testing.T) {
	cases := map[string][]string{
		models.TeacherSortNameDesc:     {"t2", "t1", "t5", "t4", "t3"},
		models.TeacherSortRatingHigh:   {"t2", "t1", "t3", "t4", "t5"},
		models.TeacherSortRatingLow:    {"t5", "t4", "t3", "t1", "t2"},
		models.TeacherSortFeedbackMost: {"t1", "t2", "t3", "t4", "t5"},
	}
	for sortBy, want := range cases {
		t.Run(sortBy, func(t *testing.T) {
			assert.Equal(t, want, ids(FilterTeachers(sampleRoster(), models.TeacherFilter{SortBy: sortBy})))
		})
	}
}

func TestFilterTeachersPredicates(t *testing.T) {
	roster := sampleRoster()

	got := FilterTeachers(roster, models.TeacherFilter{Search: "  machine "})
	assert.Equal(t, []string{"t2"}, ids(got))

	got = FilterTeachers(roster, models.TeacherFilter{Search: "AYUSH"})
	assert.Equal(t, []string{"t3"}, ids(got))

	got = FilterTeachers(roster, models.TeacherFilter{MinRating: 4, SortBy: models.TeacherSortRatingHigh})
	assert.Equal(t, []string{"t2", "t1", "t3"}, ids(got))

	got = FilterTeachers(roster, models.TeacherFilter{Department: "Electronics"})
	assert.Equal(t, []string{"t4"}, ids(got))

	got = FilterTeachers(roster, models.TeacherFilter{Department: "All"})
	assert.Len(t, got, len(roster))

	got = FilterTeachers(roster, models.TeacherFilter{Department: "Computer Science", MinRating: 5})
	assert.Empty(t, got)

	// out-of-range ratings disable the predicate instead of excluding everyone
	got = FilterTeachers(roster, models.TeacherFilter{MinRating: 9})
	assert.Len(t, got, len(roster))

	assert.Equal(t, "Shweta Kaushik", roster[0].Name, "input must not be reordered")
}

func TestFilterTeachersTiesAreDeterministic(t *testing.T) {
	roster := []models.Teacher{
		{ID: "b", Name: "Zed", AverageRating: 4},
		{ID: "a", Name: "Zed", AverageRating: 4},
		{ID: "c", Name: "Amy", AverageRating: 4},
	}
	got := FilterTeachers(roster, models.TeacherFilter{SortBy: models.TeacherSortRatingHigh})
	assert.Equal(t, []string{"c", "a", "b"}, ids(got))
}

func randomRoster(r *rand.Rand, n int) []models.Teacher {
	departments := []string{"Computer Science", "Electronics", "Civil"}
	out := make([]models.Teacher, n)
	for i := range out {
		out[i] = models.Teacher{
			ID:            fmt.Sprintf("id-%03d", i),
			Name:          fmt.Sprintf("Teacher %c", 'A'+r.Intn(6)),
			Department:    departments[r.Intn(len(departments))],
			Subject:       fmt.Sprintf("Subject %d", r.Intn(4)),
			AverageRating: float64(r.Intn(51)) / 10,
			TotalFeedback: r.Intn(50),
		}
	}
	return out
}

func TestFilterTeachersOrderingProperties(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for round := 0; round < 50; round++ {
		roster := randomRoster(r, r.Intn(30))
		filter := models.TeacherFilter{MinRating: r.Intn(6), Department: []string{"", "Civil", "all"}[r.Intn(3)]}

		filter.SortBy = models.TeacherSortRatingHigh
		high := FilterTeachers(roster, filter)
		for i := 1; i < len(high); i++ {
			require.GreaterOrEqual(t, high[i-1].AverageRating, high[i].AverageRating)
		}

		filter.SortBy = models.TeacherSortRatingLow
		low := FilterTeachers(roster, filter)
		for i := 1; i < len(low); i++ {
			require.LessOrEqual(t, low[i-1].AverageRating, low[i].AverageRating)
		}

		filter.SortBy = models.TeacherSortFeedbackMost
		most := FilterTeachers(roster, filter)
		for i := 1; i < len(most); i++ {
			require.GreaterOrEqual(t, most[i-1].TotalFeedback, most[i].TotalFeedback)
		}

		require.LessOrEqual(t, len(high), len(roster))
		require.ElementsMatch(t, ids(high), ids(low))
		require.ElementsMatch(t, ids(high), ids(most))
		for _, teacher := range high {
			if filter.MinRating > 0 {
				require.GreaterOrEqual(t, teacher.AverageRating, float64(filter.MinRating))
			}
		}
	}
}

func feedbackFixture() []models.FeedbackView {
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	comment := func(s string) *string { return &s }
	return []models.FeedbackView{
		{Feedback: models.Feedback{ID: "f1", StudentID: "s1", Rating: 5, Comment: comment("Brilliant lectures"), CreatedAt: base}, StudentName: "Asha", Subject: "Web Technology"},
		{Feedback: models.Feedback{ID: "f2", StudentID: "s2", Rating: 2, CreatedAt: base.Add(2 * time.Hour)}, StudentName: "Ravi", Subject: "Web Technology"},
		{Feedback: models.Feedback{ID: "f3", StudentID: "s3", Rating: 4, Comment: comment("Good pace"), CreatedAt: base.Add(time.Hour)}, StudentName: "Meera", Subject: "Web Technology"},
		{Feedback: models.Feedback{ID: "f4", StudentID: "s4", Rating: 5, CreatedAt: base.Add(time.Hour)}, StudentName: "Kabir", Subject: "Web Technology"},
	}
}

func feedbackIDs(items []models.FeedbackView) []string {
	out := make([]string, len(items))
	for i, f := range items {
		out[i] = f.ID
	}
	return out
}

func TestFilterFeedbackSorts(t *testing.T) {
	cases := map[string][]string{
		"":                            {"f2", "f3", "f4", "f1"},
		models.FeedbackSortOldest:     {"f1", "f3", "f4", "f2"},
		models.FeedbackSortRatingHigh: {"f4", "f1", "f3", "f2"},
		models.FeedbackSortRatingLow:  {"f2", "f3", "f4", "f1"},
	}
	for sortBy, want := range cases {
		t.Run("sort="+sortBy, func(t *testing.T) {
			assert.Equal(t, want, feedbackIDs(FilterFeedback(feedbackFixture(), models.FeedbackFilter{SortBy: sortBy})))
		})
	}
}

func TestFilterFeedbackPredicates(t *testing.T) {
	items := feedbackFixture()
	assert.Equal(t, []string{"f1"}, feedbackIDs(FilterFeedback(items, models.FeedbackFilter{Search: "brilliant"})))
	assert.Equal(t, []string{"f2"}, feedbackIDs(FilterFeedback(items, models.FeedbackFilter{Search: "RAVI"})))
	assert.Len(t, FilterFeedback(items, models.FeedbackFilter{Search: "web tech"}), 4)
	assert.Equal(t, []string{"f4", "f1"}, feedbackIDs(FilterFeedback(items, models.FeedbackFilter{MinRating: 5})))
}

func TestSummarizeFeedback(t *testing.T) {
	summary := SummarizeFeedback("t1", feedbackFixture())
	assert.Equal(t, 4, summary.TotalFeedback)
	assert.Equal(t, 4.0, summary.AverageRating)
	assert.Equal(t, 4, summary.UniqueStudents)
	assert.Equal(t, 2, summary.FiveStarCount)
	assert.Equal(t, 50, summary.FiveStarPercent)
	require.Len(t, summary.Distribution, 5)
	assert.Equal(t, models.RatingBucket{Rating: 1, Count: 0, Percent: 0}, summary.Distribution[0])
	assert.Equal(t, models.RatingBucket{Rating: 2, Count: 1, Percent: 25}, summary.Distribution[1])
	assert.Equal(t, models.RatingBucket{Rating: 5, Count: 2, Percent: 50}, summary.Distribution[4])
}

func TestSummarizeFeedbackEmpty(t *testing.T) {
	summary := SummarizeFeedback("t1", nil)
	assert.Zero(t, summary.AverageRating)
	assert.Zero(t, summary.FiveStarPercent)
	require.Len(t, summary.Distribution, 5)
	for i, bucket := range summary.Distribution {
		assert.Equal(t, i+1, bucket.Rating)
		assert.Zero(t, bucket.Count)
	}
}

func TestDepartmentsAndMean(t *testing.T) {
	roster := sampleRoster()
	assert.Equal(t, []string{"Computer Science", "Electronics", "Information Technology"}, Departments(roster))
	assert.Equal(t, 3.46, MeanTeacherRating(roster))
	assert.Zero(t, MeanTeacherRating(nil))
	assert.Empty(t, Departments(nil))
}
