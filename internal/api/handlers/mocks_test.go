package handlers_test

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/zatekoja/eyetimeline/backend/internal/application/services"
	"github.com/zatekoja/eyetimeline/backend/internal/domain/entities"
	"github.com/zatekoja/eyetimeline/backend/internal/domain/repositories"
)

type MockPatientService struct {
	mock.Mock
}

func (m *MockPatientService) Get(ctx context.Context, uid string) (*entities.PatientRecord, error) {
	args := m.Called(ctx, uid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.PatientRecord), args.Error(1)
}

func (m *MockPatientService) List(ctx context.Context, filter repositories.PatientFilter) (*services.PatientPage, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.PatientPage), args.Error(1)
}

func (m *MockPatientService) Upsert(ctx context.Context, record *entities.PatientRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockPatientService) Delete(ctx context.Context, uid string) error {
	args := m.Called(ctx, uid)
	return args.Error(0)
}

func (m *MockPatientService) Search(ctx context.Context, params repositories.PatientSearchParams) (*entities.PatientSearchResult, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.PatientSearchResult), args.Error(1)
}

type MockPatientRecordRepo struct {
	mock.Mock
}

func (m *MockPatientRecordRepo) GetByUID(ctx context.Context, uid string) (*entities.PatientRecord, error) {
	args := m.Called(ctx, uid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.PatientRecord), args.Error(1)
}

func (m *MockPatientRecordRepo) GetByUIDs(ctx context.Context, uids []string) ([]*entities.PatientRecord, error) {
	args := m.Called(ctx, uids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.PatientRecord), args.Error(1)
}

func (m *MockPatientRecordRepo) List(ctx context.Context, filter repositories.PatientFilter) ([]*entities.PatientSummary, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.PatientSummary), args.Error(1)
}

func (m *MockPatientRecordRepo) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockPatientRecordRepo) Upsert(ctx context.Context, record *entities.PatientRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockPatientRecordRepo) Delete(ctx context.Context, uid string) error {
	args := m.Called(ctx, uid)
	return args.Error(0)
}

func sampleRecord(uid string) *entities.PatientRecord {
	return &entities.PatientRecord{
		UID:  uid,
		MRNo: "MR-" + uid,
		Visits: []entities.Visit{
			{VisitNo: 2, Date: "2023-06-01", Opinion: "Stable"},
			{VisitNo: 1, Date: "2023-01-01", FollowUp: "Review 1 month"},
		},
	}
}
