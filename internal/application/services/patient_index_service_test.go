package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/eyetimeline/backend/internal/application/services"
	"github.com/zatekoja/eyetimeline/backend/internal/domain/entities"
	"github.com/zatekoja/eyetimeline/backend/internal/domain/repositories"
)

func TestPatientIndexService_ReindexAll(t *testing.T) {
	repo := new(MockPatientRecordRepo)
	index := new(MockSearchRepo)
	svc := services.NewPatientIndexService(repo, index, 2)

	repo.On("List", mock.Anything, repositories.PatientFilter{Limit: 2, Offset: 0}).
		Return([]*entities.PatientSummary{{UID: "P1"}, {UID: "P2"}}, nil)
	repo.On("List", mock.Anything, repositories.PatientFilter{Limit: 2, Offset: 2}).
		Return([]*entities.PatientSummary{{UID: "P3"}}, nil)
	repo.On("GetByUIDs", mock.Anything, []string{"P1", "P2"}).
		Return([]*entities.PatientRecord{sampleRecord("P1"), sampleRecord("P2")}, nil)
	repo.On("GetByUIDs", mock.Anything, []string{"P3"}).
		Return([]*entities.PatientRecord{sampleRecord("P3")}, nil)

	index.On("Index", mock.Anything, mock.MatchedBy(func(d *entities.PatientIndexDocument) bool { return d.UID == "P2" })).
		Return(errors.New("rejected"))
	index.On("Index", mock.Anything, mock.Anything).Return(nil)

	summary, err := svc.ReindexAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Indexed)
	assert.Equal(t, 1, summary.Failed)
}

func TestPatientIndexService_ReindexAll_ListError(t *testing.T) {
	repo := new(MockPatientRecordRepo)
	svc := services.NewPatientIndexService(repo, new(MockSearchRepo), 2)
	repo.On("List", mock.Anything, mock.Anything).Return(nil, errors.New("db down"))

	_, err := svc.ReindexAll(context.Background())
	assert.Error(t, err)
}
