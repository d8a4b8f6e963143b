package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/teacher-feedback-api/internal/models"
)

// FeedbackRepository persists feedback and keeps teacher aggregates in step.
type FeedbackRepository struct {
	db *sqlx.DB
}

// NewFeedbackRepository constructs a feedback repository.
func NewFeedbackRepository(db *sqlx.DB) *FeedbackRepository {
	return &FeedbackRepository{db: db}
}

// Create stores feedback and recomputes the teacher's average and count in the
// same transaction. The refreshed teacher row is returned. A second rating for
// the same (student, teacher) pair yields ErrDuplicate; a missing teacher
// yields sql.ErrNoRows.
func (r *FeedbackRepository) Create(ctx context.Context, feedback *models.Feedback) (*models.Teacher, error) {
	if feedback.ID == "" {
		feedback.ID = uuid.NewString()
	}
	if feedback.CreatedAt.IsZero() {
		feedback.CreatedAt = time.Now().UTC()
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin create feedback: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	const insert = `INSERT INTO feedback (id, student_id, teacher_id, rating, comment, created_at) VALUES (:id, :student_id, :teacher_id, :rating, :comment, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, tx, insert, feedback); err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("create feedback: %w", ErrDuplicate)
		}
		if isForeignKeyViolation(err) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("create feedback: %w", err)
	}

	const recompute = `UPDATE teachers SET
		average_rating = COALESCE((SELECT AVG(rating)::float8 FROM feedback WHERE teacher_id = $1), 0),
		total_feedback = (SELECT COUNT(*) FROM feedback WHERE teacher_id = $1),
		updated_at = $2
		WHERE id = $1
		RETURNING ` + teacherColumns
	var teacher models.Teacher
	if err := tx.GetContext(ctx, &teacher, recompute, feedback.TeacherID, feedback.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("recompute teacher aggregates: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit create feedback: %w", err)
	}
	return &teacher, nil
}

// Exists reports whether the student already rated the teacher.
func (r *FeedbackRepository) Exists(ctx context.Context, studentID, teacherID string) (bool, error) {
	const query = `SELECT 1 FROM feedback WHERE student_id = $1 AND teacher_id = $2 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, studentID, teacherID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check feedback exists: %w", err)
	}
	return true, nil
}

// SubmittedTeacherIDs lists the teachers a student has rated, oldest first.
func (r *FeedbackRepository) SubmittedTeacherIDs(ctx context.Context, studentID string) ([]string, error) {
	const query = `SELECT teacher_id FROM feedback WHERE student_id = $1 ORDER BY created_at ASC, teacher_id ASC`
	ids := []string{}
	if err := r.db.SelectContext(ctx, &ids, query, studentID); err != nil {
		return nil, fmt.Errorf("list submitted teachers: %w", err)
	}
	return ids, nil
}

// ListReceived returns every feedback row for a teacher joined with display names.
func (r *FeedbackRepository) ListReceived(ctx context.Context, teacherID string) ([]models.FeedbackView, error) {
	const query = `SELECT f.id, f.student_id, f.teacher_id, f.rating, f.comment, f.created_at,
		u.name AS student_name, t.name AS teacher_name, t.subject
		FROM feedback f
		JOIN users u ON u.id = f.student_id
		JOIN teachers t ON t.id = f.teacher_id
		WHERE f.teacher_id = $1
		ORDER BY f.created_at DESC, f.id ASC`
	views := []models.FeedbackView{}
	if err := r.db.SelectContext(ctx, &views, query, teacherID); err != nil {
		return nil, fmt.Errorf("list received feedback: %w", err)
	}
	return views, nil
}

// Count returns the number of feedback rows stored.
func (r *FeedbackRepository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM feedback`); err != nil {
		return 0, fmt.Errorf("count feedback: %w", err)
	}
	return total, nil
}
