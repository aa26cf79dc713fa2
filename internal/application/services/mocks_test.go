package services_test

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"
	"github.com/zatekoja/eyetimeline/backend/internal/domain/entities"
	"github.com/zatekoja/eyetimeline/backend/internal/domain/repositories"
)

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

type MockSearchRepo struct {
	mock.Mock
}

func (m *MockSearchRepo) Index(ctx context.Context, doc *entities.PatientIndexDocument) error {
	args := m.Called(ctx, doc)
	return args.Error(0)
}

func (m *MockSearchRepo) Search(ctx context.Context, params repositories.PatientSearchParams) (*entities.PatientSearchResult, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.PatientSearchResult), args.Error(1)
}

func (m *MockSearchRepo) Delete(ctx context.Context, uid string) error {
	args := m.Called(ctx, uid)
	return args.Error(0)
}

// fakeEventBus delivers published events to in-process subscribers
type fakeEventBus struct {
	mu        sync.Mutex
	published []*entities.RecordEvent
	subs      map[string][]chan *entities.RecordEvent
}

func newFakeEventBus() *fakeEventBus {
	return &fakeEventBus{subs: make(map[string][]chan *entities.RecordEvent)}
}

func (b *fakeEventBus) Publish(_ context.Context, channel string, event *entities.RecordEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.published = append(b.published, event)
	for _, ch := range b.subs[channel] {
		ch <- event
	}
	return nil
}

func (b *fakeEventBus) Subscribe(_ context.Context, channel string) (<-chan *entities.RecordEvent, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan *entities.RecordEvent, 10)
	b.subs[channel] = append(b.subs[channel], ch)
	return ch, nil
}

func (b *fakeEventBus) Unsubscribe(context.Context, string) error { return nil }

func (b *fakeEventBus) Close() error { return nil }

func (b *fakeEventBus) Published() []*entities.RecordEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]*entities.RecordEvent(nil), b.published...)
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
