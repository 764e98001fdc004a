package repository

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/bankrag/bankrag/pkg/model"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/iterator"
)

// Firestore stores chunks in a Firestore collection and uses its vector search.
// Filtering by category requires a composite vector index on (Category, Embedding).
type Firestore struct {
	client     *firestore.Client
	collection string
}

type FirestoreOption func(*Firestore)

func WithCollection(name string) FirestoreOption {
	return func(r *Firestore) {
		r.collection = name
	}
}

// New creates a new Firestore repository
func New(ctx context.Context, projectID, databaseID string, opts ...FirestoreOption) (*Firestore, error) {
	client, err := firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client",
			goerr.V("project", projectID),
			goerr.V("database", databaseID))
	}

	r := &Firestore{
		client:     client,
		collection: DefaultCollection,
	}
	for _, opt := range opts {
		opt(r)
	}

	return r, nil
}

// Close closes the Firestore client
func (r *Firestore) Close() error {
	return r.client.Close()
}

func (r *Firestore) PutChunks(ctx context.Context, chunks []*model.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	coll := r.client.Collection(r.collection)
	bw := r.client.BulkWriter(ctx)

	jobs := make([]*firestore.BulkWriterJob, 0, len(chunks))
	for _, c := range chunks {
		job, err := bw.Set(coll.Doc(string(c.ID)), c)
		if err != nil {
			bw.End()
			return goerr.Wrap(err, "failed to enqueue chunk", goerr.V("id", c.ID))
		}
		jobs = append(jobs, job)
	}
	bw.End()

	for i, job := range jobs {
		if _, err := job.Results(); err != nil {
			return goerr.Wrap(err, "failed to write chunk", goerr.V("id", chunks[i].ID))
		}
	}

	return nil
}

func (r *Firestore) SearchChunks(ctx context.Context, embedding []float32, limit int, category model.Category) ([]*model.Fragment, error) {
	q := r.client.Collection(r.collection).Query
	if category.IsSet() {
		q = q.Where("Category", "==", string(category))
	}

	vq := q.FindNearest("Embedding", firestore.Vector32(embedding), limit, firestore.DistanceMeasureCosine,
		&firestore.FindNearestOptions{DistanceResultField: "Distance"})

	iter := vq.Documents(ctx)
	defer iter.Stop()

	var fragments []*model.Fragment
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to search chunks",
				goerr.V("collection", r.collection),
				goerr.V("category", category))
		}

		var c model.Chunk
		if err := doc.DataTo(&c); err != nil {
			return nil, goerr.Wrap(err, "failed to decode chunk", goerr.V("id", doc.Ref.ID))
		}

		fragment := &model.Fragment{
			Text:     c.Content,
			Category: c.Category,
			Source:   c.Source,
		}
		if d, ok := doc.Data()["Distance"].(float64); ok {
			fragment.Score = 1 - d
		}
		fragments = append(fragments, fragment)
	}

	return fragments, nil
}

func (r *Firestore) DeleteSource(ctx context.Context, source string) error {
	return r.deleteAll(ctx, r.client.Collection(r.collection).Where("Source", "==", source))
}

func (r *Firestore) Clear(ctx context.Context) error {
	return r.deleteAll(ctx, r.client.Collection(r.collection).Query)
}

func (r *Firestore) deleteAll(ctx context.Context, q firestore.Query) error {
	iter := q.Documents(ctx)
	defer iter.Stop()

	bw := r.client.BulkWriter(ctx)

	var jobs []*firestore.BulkWriterJob
	var ids []string
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			bw.End()
			return goerr.Wrap(err, "failed to list chunks", goerr.V("collection", r.collection))
		}

		job, err := bw.Delete(doc.Ref)
		if err != nil {
			bw.End()
			return goerr.Wrap(err, "failed to enqueue delete", goerr.V("id", doc.Ref.ID))
		}
		jobs = append(jobs, job)
		ids = append(ids, doc.Ref.ID)
	}
	bw.End()

	return deleteResults(jobs, ids)
}

// deleteResults reports the first failed delete of a finished bulk write
func deleteResults(jobs []*firestore.BulkWriterJob, ids []string) error {
	for i, job := range jobs {
		if _, err := job.Results(); err != nil {
			return goerr.Wrap(err, "failed to delete chunk", goerr.V("id", ids[i]))
		}
	}
	return nil
}
