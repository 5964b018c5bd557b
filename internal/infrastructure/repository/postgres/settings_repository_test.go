package postgres

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestSettingsRepositoryUpsertsInterestText(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	repo := NewSettingsRepository(db)
	mock.ExpectExec("INSERT INTO settings").
		WithArgs(interestTextKey, "Medical Imaging, Robotics", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.SaveInterestText(context.Background(), "Medical Imaging, Robotics"); err != nil {
		t.Fatalf("SaveInterestText() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestSettingsRepositoryReturnsEmptyWhenUnset(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	repo := NewSettingsRepository(db)
	mock.ExpectQuery("SELECT value FROM settings").
		WithArgs(interestTextKey).
		WillReturnRows(sqlmock.NewRows([]string{"value"}))

	text, err := repo.InterestText(context.Background())
	if err != nil {
		t.Fatalf("InterestText() error = %v", err)
	}
	if text != "" {
		t.Fatalf("expected empty text, got %q", text)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
