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

const teacherColumns = `id, name, department, subject, email, user_id, average_rating, total_feedback, created_at, updated_at`

// TeacherRepository handles persistence for the teacher roster.
type TeacherRepository struct {
	db *sqlx.DB
}

// NewTeacherRepository constructs a new repository.
func NewTeacherRepository(db *sqlx.DB) *TeacherRepository {
	return &TeacherRepository{db: db}
}

// ListAll returns the whole roster ordered by name. Filtering happens in memory.
func (r *TeacherRepository) ListAll(ctx context.Context) ([]models.Teacher, error) {
	query := `SELECT ` + teacherColumns + ` FROM teachers ORDER BY LOWER(name) ASC, id ASC`
	teachers := []models.Teacher{}
	if err := r.db.SelectContext(ctx, &teachers, query); err != nil {
		return nil, fmt.Errorf("list teachers: %w", err)
	}
	return teachers, nil
}

// FindByID returns a teacher by id.
func (r *TeacherRepository) FindByID(ctx context.Context, id string) (*models.Teacher, error) {
	return r.findOne(ctx, "find teacher by id", `SELECT `+teacherColumns+` FROM teachers WHERE id = $1`, id)
}

// FindByUserID returns the roster entry linked to a teacher account.
func (r *TeacherRepository) FindByUserID(ctx context.Context, userID string) (*models.Teacher, error) {
	return r.findOne(ctx, "find teacher by user", `SELECT `+teacherColumns+` FROM teachers WHERE user_id = $1`, userID)
}

func (r *TeacherRepository) findOne(ctx context.Context, op, query string, arg interface{}) (*models.Teacher, error) {
	var teacher models.Teacher
	if err := r.db.GetContext(ctx, &teacher, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &teacher, nil
}

// ExistsByNameSubject reports whether a roster entry already teaches subject under name.
func (r *TeacherRepository) ExistsByNameSubject(ctx context.Context, name, subject string) (bool, error) {
	const query = `SELECT 1 FROM teachers WHERE LOWER(name) = LOWER($1) AND LOWER(subject) = LOWER($2) LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, name, subject); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check teacher name and subject: %w", err)
	}
	return true, nil
}

// Create inserts a new roster entry with zeroed aggregates.
func (r *TeacherRepository) Create(ctx context.Context, teacher *models.Teacher) error {
	return insertTeacher(ctx, r.db, teacher)
}

func insertTeacher(ctx context.Context, exec sqlx.ExtContext, teacher *models.Teacher) error {
	if teacher.ID == "" {
		teacher.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	teacher.CreatedAt = now
	teacher.UpdatedAt = now
	teacher.AverageRating = 0
	teacher.TotalFeedback = 0

	const query = `INSERT INTO teachers (id, name, department, subject, email, user_id, average_rating, total_feedback, created_at, updated_at) VALUES (:id, :name, :department, :subject, :email, :user_id, :average_rating, :total_feedback, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, exec, query, teacher); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("create teacher: %w", ErrDuplicate)
		}
		return fmt.Errorf("create teacher: %w", err)
	}
	return nil
}

// Delete removes a teacher and its feedback atomically. It returns
// sql.ErrNoRows when the teacher does not exist.
func (r *TeacherRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete teacher: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM feedback WHERE teacher_id = $1`, id); err != nil {
		return fmt.Errorf("delete teacher feedback: %w", err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM teachers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete teacher: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete teacher rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete teacher: %w", err)
	}
	return nil
}

// Count returns the roster size.
func (r *TeacherRepository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM teachers`); err != nil {
		return 0, fmt.Errorf("count teachers: %w", err)
	}
	return total, nil
}
