package leads

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/option"
)

type FirestoreConfig struct {
	ProjectID       string
	CredentialsPath string
	Collection      string
}

// FirestoreSink appends lead documents to a collection with auto ids.
type FirestoreSink struct {
	client     *firestore.Client
	collection string
}

func NewFirestoreSink(ctx context.Context, cfg FirestoreConfig) (*FirestoreSink, error) {
	var opts []option.ClientOption
	if cfg.CredentialsPath != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsPath))
	}
	projectID := cfg.ProjectID
	if projectID == "" {
		projectID = firestore.DetectProjectID
	}

	client, err := firestore.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}
	collection := cfg.Collection
	if collection == "" {
		collection = "leads"
	}
	return &FirestoreSink{client: client, collection: collection}, nil
}

func (*FirestoreSink) Name() string { return "firestore" }

func (f *FirestoreSink) Record(ctx context.Context, lead Lead) Outcome {
	ref, _, err := f.client.Collection(f.collection).Add(ctx, lead.Document())
	if err != nil {
		return failed(fmt.Errorf("add lead document: %w", err))
	}
	return stored(ref.ID)
}

func (f *FirestoreSink) Close() error { return f.client.Close() }
