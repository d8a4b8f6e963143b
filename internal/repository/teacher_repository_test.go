package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/teacher-feedback-api/internal/models"
)

func TestTeacherRepositoryListAll(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTeacherRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(teacherRowColumns).
		AddRow("t1", "Ayush Aggarwal", "Computer Science", "DBMS", nil, nil, 4.2, 30, now, now).
		AddRow("t2", "Tripti Pandey", "Computer Science", "Machine Learning Techniques", "tripti@edu.com", nil, 4.7, 38, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM teachers ORDER BY LOWER(name) ASC, id ASC")).WillReturnRows(rows)

	list, err := repo.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, 4.7, list[1].AverageRating)
	require.NotNil(t, list[1].Email)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTeacherRepositoryCreateZeroesAggregates(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTeacherRepository(db)

	mock.ExpectExec("INSERT INTO teachers").
		WithArgs(sqlmock.AnyArg(), "Pratik Singh", "Computer Science", "DSA", nil, nil, float64(0), 0, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	teacher := &models.Teacher{Name: "Pratik Singh", Department: "Computer Science", Subject: "DSA", AverageRating: 3, TotalFeedback: 9}
	require.NoError(t, repo.Create(context.Background(), teacher))
	assert.NotEmpty(t, teacher.ID)
	assert.Zero(t, teacher.AverageRating)
	assert.Zero(t, teacher.TotalFeedback)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTeacherRepositoryExistsByNameSubject(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTeacherRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM teachers WHERE LOWER(name) = LOWER($1) AND LOWER(subject) = LOWER($2) LIMIT 1")).
		WithArgs("Pratik Singh", "DSA").
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	mock.ExpectQuery("SELECT 1 FROM teachers").
		WithArgs("Nobody", "DSA").
		WillReturnError(sql.ErrNoRows)

	exists, err := repo.ExistsByNameSubject(context.Background(), "Pratik Singh", "DSA")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.ExistsByNameSubject(context.Background(), "Nobody", "DSA")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTeacherRepositoryDeleteCascades(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTeacherRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM feedback WHERE teacher_id = $1")).WithArgs("t1").WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM teachers WHERE id = $1")).WithArgs("t1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Delete(context.Background(), "t1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTeacherRepositoryDeleteMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTeacherRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM feedback").WithArgs("nope").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM teachers").WithArgs("nope").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.Delete(context.Background(), "nope")
	assert.True(t, errors.Is(err, sql.ErrNoRows))
	assert.NoError(t, mock.ExpectationsWereMet())
}
