package loaders

import (
	"context"
	"net/http"
	"time"

	"github.com/graph-gophers/dataloader/v7"
	"github.com/zatekoja/eyetimeline/backend/internal/domain/entities"
	"github.com/zatekoja/eyetimeline/backend/internal/domain/repositories"
	apperrors "github.com/zatekoja/eyetimeline/backend/pkg/errors"
)

type ctxKey string

const loadersKey ctxKey = "dataloaders"

// batchWait is how long a loader collects keys before dispatching a batch
const batchWait = 2 * time.Millisecond

// Loaders contains the request-scoped dataloaders
type Loaders struct {
	RecordLoader *dataloader.Loader[string, *entities.PatientRecord]
}

// NewLoaders creates loaders backed by the record repository. maxBatch caps the
// number of UIDs fetched per query; values below 1 leave batches unbounded.
func NewLoaders(records repositories.PatientRecordRepository, maxBatch int) *Loaders {
	opts := []dataloader.Option[string, *entities.PatientRecord]{
		dataloader.WithWait[string, *entities.PatientRecord](batchWait),
	}
	if maxBatch > 0 {
		opts = append(opts, dataloader.WithBatchCapacity[string, *entities.PatientRecord](maxBatch))
	}

	return &Loaders{
		RecordLoader: dataloader.NewBatchedLoader(func(ctx context.Context, keys []string) []*dataloader.Result[*entities.PatientRecord] {
			results := make([]*dataloader.Result[*entities.PatientRecord], len(keys))
			found, err := records.GetByUIDs(ctx, keys)

			recordMap := make(map[string]*entities.PatientRecord, len(found))
			if err == nil {
				for _, r := range found {
					recordMap[r.UID] = r
				}
			}

			for i, key := range keys {
				if err != nil {
					results[i] = &dataloader.Result[*entities.PatientRecord]{Error: err}
				} else if r, ok := recordMap[key]; ok {
					results[i] = &dataloader.Result[*entities.PatientRecord]{Data: r}
				} else {
					results[i] = &dataloader.Result[*entities.PatientRecord]{Error: apperrors.NewNotFoundError("patient " + key + " not found")}
				}
			}
			return results
		}, opts...),
	}
}

// LoadRecords resolves every uid through the record loader. The returned slices are
// aligned with uids.
func (l *Loaders) LoadRecords(ctx context.Context, uids []string) ([]*entities.PatientRecord, []error) {
	records, errs := l.RecordLoader.LoadMany(ctx, uids)()
	if errs == nil {
		errs = make([]error, len(uids))
	}
	return records, errs
}

// For returns the loaders attached to ctx, or nil
func For(ctx context.Context) *Loaders {
	l, _ := ctx.Value(loadersKey).(*Loaders)
	return l
}

// WithLoaders returns a new context with the loaders attached
func WithLoaders(ctx context.Context, loaders *Loaders) context.Context {
	return context.WithValue(ctx, loadersKey, loaders)
}

// Middleware attaches a fresh set of loaders to every request so batches and the
// loader cache never outlive one response
func Middleware(records repositories.PatientRecordRepository, maxBatch int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := WithLoaders(r.Context(), NewLoaders(records, maxBatch))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
