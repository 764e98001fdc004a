package adapter

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"cloud.google.com/go/bigquery"
	"github.com/bankrag/bankrag/pkg/model"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"
)

// BigQuery stores and reads query audit records. It implements interfaces.AuditSink.
type BigQuery struct {
	client    *bigquery.Client
	datasetID string
	tableID   string
}

// NewBigQuery creates a new BigQuery audit client
func NewBigQuery(ctx context.Context, projectID, datasetID, tableID string) (*BigQuery, error) {
	if datasetID == "" || tableID == "" {
		return nil, goerr.New("dataset and table are required",
			goerr.V("dataset", datasetID),
			goerr.V("table", tableID))
	}

	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create BigQuery client")
	}

	return &BigQuery{
		client:    client,
		datasetID: datasetID,
		tableID:   tableID,
	}, nil
}

// Close releases the BigQuery client
func (bq *BigQuery) Close() error {
	return bq.client.Close()
}

func (bq *BigQuery) table() *bigquery.Table {
	return bq.client.Dataset(bq.datasetID).Table(bq.tableID)
}

// EnsureTable creates the audit table when it does not exist
func (bq *BigQuery) EnsureTable(ctx context.Context) error {
	tbl := bq.table()
	if _, err := tbl.Metadata(ctx); err == nil {
		return nil
	} else if !isNotFound(err) {
		return goerr.Wrap(err, "failed to get table metadata", goerr.V("table", bq.tableID))
	}

	schema, err := bigquery.InferSchema(model.QueryRecord{})
	if err != nil {
		return goerr.Wrap(err, "failed to infer schema")
	}

	if err := tbl.Create(ctx, &bigquery.TableMetadata{
		Schema: schema,
		TimePartitioning: &bigquery.TimePartitioning{
			Type:  bigquery.DayPartitioningType,
			Field: "timestamp",
		},
	}); err != nil {
		return goerr.Wrap(err, "failed to create table", goerr.V("table", bq.tableID))
	}

	return nil
}

// PutQueryRecord appends one record with the streaming inserter
func (bq *BigQuery) PutQueryRecord(ctx context.Context, record *model.QueryRecord) error {
	if err := bq.table().Inserter().Put(ctx, record); err != nil {
		return goerr.Wrap(err, "failed to insert query record", goerr.V("id", record.ID))
	}
	return nil
}

// RecentQueries returns the latest records, newest first
func (bq *BigQuery) RecentQueries(ctx context.Context, limit int) ([]*model.QueryRecord, error) {
	q := bq.client.Query(fmt.Sprintf(
		"SELECT * FROM `%s.%s.%s` ORDER BY timestamp DESC LIMIT @limit",
		bq.client.Project(), bq.datasetID, bq.tableID,
	))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "limit", Value: limit},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to run query")
	}

	var records []*model.QueryRecord
	for {
		var rec model.QueryRecord
		err := it.Next(&rec)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate query result")
		}
		records = append(records, &rec)
	}

	return records, nil
}

func isNotFound(err error) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound
}
