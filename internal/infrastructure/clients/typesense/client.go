package typesense

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/typesense/typesense-go/v2/typesense"
	"github.com/typesense/typesense-go/v2/typesense/api"
	"github.com/typesense/typesense-go/v2/typesense/api/pointer"
	"github.com/zatekoja/eyetimeline/backend/pkg/config"
	"github.com/zatekoja/eyetimeline/backend/pkg/retry"
)

// DefaultPatientsCollection is used when no collection name is configured
const DefaultPatientsCollection = "patients"

// Client represents a Typesense client
type Client struct {
	client     *typesense.Client
	collection string
}

// NewClient creates a new Typesense client with exponential backoff retry
func NewClient(cfg *config.TypesenseConfig) (*Client, error) {
	client := typesense.NewClient(
		typesense.WithServer(cfg.URL),
		typesense.WithAPIKey(cfg.APIKey),
		typesense.WithConnectionTimeout(5*time.Second),
	)

	err := retry.DoWithLog(
		context.Background(),
		retry.DefaultConfig(),
		"Typesense",
		func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_, err := client.Health(ctx, 2*time.Second)
			return err
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Typesense after retries: %w", err)
	}

	collection := cfg.Collection
	if collection == "" {
		collection = DefaultPatientsCollection
	}

	log.Info().Str("url", cfg.URL).Str("collection", collection).Msg("connected to Typesense")
	return &Client{client: client, collection: collection}, nil
}

// Client returns the underlying Typesense client
func (c *Client) Client() *typesense.Client {
	return c.client
}

// Collection returns the patients collection name
func (c *Client) Collection() string {
	return c.collection
}

// PatientSchema describes the patient summary documents
func PatientSchema(name string) *api.CollectionSchema {
	return &api.CollectionSchema{
		Name: name,
		Fields: []api.Field{
			{Name: "id", Type: "string"},
			{Name: "mr_no", Type: "string"},
			{Name: "name", Type: "string", Optional: pointer.True()},
			{Name: "diagnoses", Type: "string[]", Facet: pointer.True(), Optional: pointer.True()},
			{Name: "procedures", Type: "string[]", Facet: pointer.True(), Optional: pointer.True()},
			{Name: "procedure_categories", Type: "string[]", Facet: pointer.True(), Optional: pointer.True()},
			{Name: "medications", Type: "string[]", Optional: pointer.True()},
			{Name: "visit_count", Type: "int32"},
			{Name: "first_visit", Type: "string", Optional: pointer.True()},
			{Name: "last_visit", Type: "string", Optional: pointer.True()},
			{Name: "last_visit_ts", Type: "int64"},
		},
		DefaultSortingField: pointer.String("last_visit_ts"),
	}
}

// InitSchema ensures the patients collection exists
func (c *Client) InitSchema(ctx context.Context) error {
	collections, err := c.client.Collections().Retrieve(ctx)
	if err != nil {
		return fmt.Errorf("failed to retrieve collections: %w", err)
	}

	for _, col := range collections {
		if col.Name == c.collection {
			log.Debug().Str("collection", c.collection).Msg("Typesense collection already exists")
			return nil
		}
	}

	if _, err := c.client.Collections().Create(ctx, PatientSchema(c.collection)); err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	log.Info().Str("collection", c.collection).Msg("created Typesense collection")
	return nil
}

// DropCollection deletes the patients collection; used by full reindexing
func (c *Client) DropCollection(ctx context.Context) error {
	if _, err := c.client.Collection(c.collection).Delete(ctx); err != nil {
		return fmt.Errorf("failed to drop collection: %w", err)
	}
	return nil
}

// Ping verifies the Typesense node reports itself healthy
func (c *Client) Ping(ctx context.Context) error {
	ok, err := c.client.Health(ctx, 2*time.Second)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("typesense node is not healthy")
	}
	return nil
}
