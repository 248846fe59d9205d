package repositories_test

import (
	"context"
	"testing"
	"vmtracker/internal/database"
	"vmtracker/internal/models"
	"vmtracker/internal/repositories"
	"vmtracker/internal/types"
	"vmtracker/internal/utils"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/juju/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), database.GormConfig())
	if err != nil {
		t.Fatalf("failed to open gorm db: %v", err)
	}

	return gormDB, mock
}

func TestMaintenanceServiceRepository_Delete(t *testing.T) {
	t.Run("Foreign key violation is reported as in use", func(t *testing.T) {
		gormDB, mock := setupTestDB(t)
		repo := repositories.NewMaintenanceServiceRepository(nil)

		mock.ExpectExec(`DELETE FROM "maintenance_services"`).
			WillReturnError(&pgconn.PgError{Code: "23503", Message: "violates foreign key constraint"})

		err := repo.Delete(context.Background(), gormDB, 4)

		require.Error(t, err)
		assert.True(t, errors.Is(err, types.ErrInUse))
		assert.NotContains(t, err.Error(), "violates foreign key")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Missing row is not found", func(t *testing.T) {
		gormDB, mock := setupTestDB(t)
		repo := repositories.NewMaintenanceServiceRepository(nil)

		mock.ExpectExec(`DELETE FROM "maintenance_services"`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.Delete(context.Background(), gormDB, 99)

		assert.True(t, errors.Is(err, errors.NotFound))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Deletes an unreferenced service", func(t *testing.T) {
		gormDB, mock := setupTestDB(t)
		repo := repositories.NewMaintenanceServiceRepository(nil)

		mock.ExpectExec(`DELETE FROM "maintenance_services"`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.Delete(context.Background(), gormDB, 4))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestMaintenanceServiceRepository_CreateDuplicate(t *testing.T) {
	gormDB, mock := setupTestDB(t)
	repo := repositories.NewMaintenanceServiceRepository(nil)

	mock.ExpectQuery(`INSERT INTO "maintenance_services"`).
		WillReturnError(&pgconn.PgError{Code: "23505", Message: "duplicate key value"})

	err := repo.Create(context.Background(), gormDB, &models.MaintenanceService{
		ServiceName:     "Oil Change",
		ServiceCost:     decimal.NewFromInt(50),
		MinimumOdometer: 0,
		MaximumOdometer: 5000,
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.AlreadyExists))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMaintenanceServiceRepository_GetByIDNotFound(t *testing.T) {
	gormDB, mock := setupTestDB(t)
	repo := repositories.NewMaintenanceServiceRepository(nil)

	mock.ExpectQuery(`SELECT \* FROM "maintenance_services"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	service, err := repo.GetByID(context.Background(), gormDB, 12)

	assert.Nil(t, service)
	assert.True(t, errors.Is(err, errors.NotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMaintenanceServiceRepository_CountReferences(t *testing.T) {
	gormDB, mock := setupTestDB(t)
	repo := repositories.NewMaintenanceServiceRepository(nil)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "maintenance_request_services"`).
		WithArgs(3).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	count, err := repo.CountReferences(context.Background(), gormDB, 3)

	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMaintenanceRequestRepository_CompareAndSetStatus(t *testing.T) {
	tests := []struct {
		name     string
		affected int64
		expected bool
	}{
		{name: "Row still in expected status", affected: 1, expected: true},
		{name: "Row changed underneath", affected: 0, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gormDB, mock := setupTestDB(t)
			repo := repositories.NewMaintenanceRequestRepository()

			mock.ExpectExec(`UPDATE "maintenance_requests" SET`).
				WillReturnResult(sqlmock.NewResult(0, tt.affected))

			updated, err := repo.CompareAndSetStatus(
				context.Background(),
				gormDB,
				5,
				models.RequestStatusPending,
				models.RequestStatusApproved,
				nil,
			)

			require.NoError(t, err)
			assert.Equal(t, tt.expected, updated)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestMaintenanceRequestRepository_SetCompletionDate(t *testing.T) {
	gormDB, mock := setupTestDB(t)
	repo := repositories.NewMaintenanceRequestRepository()

	date, err := utils.ParseCalendarDate("2024-04-03")
	require.NoError(t, err)

	mock.ExpectExec(`UPDATE "maintenance_requests" SET "completion_date"=`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	updated, err := repo.SetCompletionDate(
		context.Background(),
		gormDB,
		5,
		models.RequestStatusInProgress,
		date,
	)

	require.NoError(t, err)
	assert.False(t, updated)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMaintenanceRequestRepository_SetAdminNotesMissing(t *testing.T) {
	gormDB, mock := setupTestDB(t)
	repo := repositories.NewMaintenanceRequestRepository()

	mock.ExpectExec(`UPDATE "maintenance_requests" SET "admin_notes"=`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.SetAdminNotes(context.Background(), gormDB, 77, "parts ordered")

	assert.True(t, errors.Is(err, errors.NotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVehicleRepository_UpdateStatus(t *testing.T) {
	gormDB, mock := setupTestDB(t)
	repo := repositories.NewVehicleRepository()

	mock.ExpectExec(`UPDATE "vehicles" SET "status"=`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateStatus(context.Background(), gormDB, 2, models.VehicleStatusUnderMaintenance)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVehicleRepository_CreateDuplicatePlate(t *testing.T) {
	gormDB, mock := setupTestDB(t)
	repo := repositories.NewVehicleRepository()

	mock.ExpectQuery(`INSERT INTO "vehicles"`).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	err := repo.Create(context.Background(), gormDB, &models.Vehicle{
		UserID:             1,
		VehicleType:        "Truck",
		LicensePlateNumber: "ABC123",
	})

	assert.True(t, errors.Is(err, errors.AlreadyExists))
	assert.NoError(t, mock.ExpectationsWereMet())
}
