package transducer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/nerrad567/gray-logic-transducers/internal/measure"
)

// Driver failures that a real SQLite file will not produce on demand.

var errDisk = errors.New("disk I/O error")

func newMockRepo(t *testing.T) (*SQLiteRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
		db.Close() //nolint:errcheck // Test cleanup
	})
	return NewSQLiteRepository(db), mock
}

func TestSQLiteRepository_Create_DriverErrors(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(sqlmock.Sqlmock)
		wantIs  error
		wantNot error
	}{
		{
			name: "insert fails",
			setup: func(m sqlmock.Sqlmock) {
				m.ExpectBegin()
				m.ExpectExec("INSERT INTO transducers").WillReturnError(errDisk)
				m.ExpectRollback()
			},
			wantIs:  errDisk,
			wantNot: ErrTransducerExists,
		},
		{
			name: "unique violation maps to exists",
			setup: func(m sqlmock.Sqlmock) {
				m.ExpectBegin()
				m.ExpectExec("INSERT INTO transducers").
					WillReturnError(errors.New("UNIQUE constraint failed: transducers.name"))
				m.ExpectRollback()
			},
			wantIs: ErrTransducerExists,
		},
		{
			name: "commit fails",
			setup: func(m sqlmock.Sqlmock) {
				m.ExpectBegin()
				m.ExpectExec("INSERT INTO transducers").WillReturnResult(sqlmock.NewResult(1, 1))
				m.ExpectCommit().WillReturnError(errDisk)
			},
			wantIs: errDisk,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newMockRepo(t)
			tt.setup(mock)

			err := repo.Create(context.Background(), mustNew(t, "ahu", ""))
			if !errors.Is(err, tt.wantIs) {
				t.Errorf("Create() error = %v, want %v", err, tt.wantIs)
			}
			if tt.wantNot != nil && errors.Is(err, tt.wantNot) {
				t.Errorf("Create() error = %v, must not be %v", err, tt.wantNot)
			}
		})
	}
}

func TestSQLiteRepository_Create_DataInsertRollsBack(t *testing.T) {
	repo, mock := newMockRepo(t)

	tr := mustNew(t, "ahu", "")
	if err := tr.AddData([]measure.Record{measure.NewSensorData(1, time.Time{})}); err != nil {
		t.Fatalf("AddData() error = %v", err)
	}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO transducers").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectPrepare("INSERT INTO transducer_data").
		ExpectExec().WillReturnError(errDisk)
	mock.ExpectRollback()

	if err := repo.Create(context.Background(), tr); !errors.Is(err, errDisk) {
		t.Errorf("Create() error = %v, want disk error", err)
	}
}

func TestSQLiteRepository_Update_NoRows(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectExec("UPDATE transducers").WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.Update(context.Background(), mustNew(t, "ghost", "")); !errors.Is(err, ErrTransducerNotFound) {
		t.Errorf("Update() error = %v, want ErrTransducerNotFound", err)
	}
}

func TestSQLiteRepository_GetByID_QueryError(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery("FROM transducers").WillReturnError(errDisk)

	_, err := repo.GetByID(context.Background(), "id-1")
	if !errors.Is(err, errDisk) || errors.Is(err, ErrTransducerNotFound) {
		t.Errorf("GetByID() error = %v, want wrapped disk error", err)
	}
}

func TestSQLiteRepository_GetByID_CorruptMetadata(t *testing.T) {
	repo, mock := newMockRepo(t)
	rows := sqlmock.NewRows([]string{"id", "name", "registry_id", "set_point", "metadata"}).
		AddRow("id-1", "ahu", nil, nil, "{not json")
	mock.ExpectQuery("FROM transducers").WithArgs("id-1").WillReturnRows(rows)

	if _, err := repo.GetByID(context.Background(), "id-1"); err == nil {
		t.Error("GetByID() should fail on corrupt metadata")
	}
}

func TestSQLiteRepository_AppendData_CheckFails(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT 1 FROM transducers").WithArgs("id-1").WillReturnError(errDisk)
	mock.ExpectRollback()

	err := repo.AppendData(context.Background(), "id-1", []measure.Record{measure.NewSensorData(1, time.Time{})})
	if !errors.Is(err, errDisk) {
		t.Errorf("AppendData() error = %v, want disk error", err)
	}
}

func TestSQLiteRepository_PruneData_ExecError(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectExec("DELETE FROM transducer_data WHERE observed_at").WillReturnError(errDisk)

	if _, err := repo.PruneData(context.Background(), time.Hour); !errors.Is(err, errDisk) {
		t.Errorf("PruneData() error = %v, want disk error", err)
	}
}
