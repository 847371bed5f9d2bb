// Package dynamo implements the remote document-store client on DynamoDB.
// The whole collection lives in a single item keyed by list id; changes are
// observed by polling the document's LastModified stamp, since plain
// DynamoDB has no push channel to hand to a client.
package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"listacompras/domain"
	"listacompras/infrastructure/syncstore"
	pkgerrors "listacompras/pkg/errors"
)

const docID = "datos-principales"

// API is the subset of the DynamoDB client the sync document needs.
type API interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// Client is a syncstore.RemoteClient backed by a DynamoDB table.
type Client struct {
	db           API
	tableName    string
	listID       string
	logger       *zap.Logger
	pollInterval time.Duration
}

// syncDoc is the DynamoDB item structure for the sync document.
type syncDoc struct {
	PK           string        `dynamodbav:"PK"`
	SK           string        `dynamodbav:"SK"`
	EntityType   string        `dynamodbav:"EntityType"`
	Items        []domain.Item `dynamodbav:"Items"`
	LastModified int64         `dynamodbav:"LastModified"`
}

// NewClient creates a client for the given table and list.
func NewClient(db API, tableName, listID string, pollInterval time.Duration, logger *zap.Logger) *Client {
	return &Client{
		db:           db,
		tableName:    tableName,
		listID:       listID,
		logger:       logger,
		pollInterval: pollInterval,
	}
}

func (c *Client) pk() string { return fmt.Sprintf("LIST#%s", c.listID) }
func (c *Client) sk() string { return fmt.Sprintf("DOC#%s", docID) }

// Get reads the sync document. A missing document maps to
// syncstore.ErrNoData so the backend can fall back cleanly.
func (c *Client) Get(ctx context.Context) (syncstore.Snapshot, error) {
	input := &dynamodb.GetItemInput{
		TableName: aws.String(c.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: c.pk()},
			"SK": &types.AttributeValueMemberS{Value: c.sk()},
		},
	}

	result, err := c.db.GetItem(ctx, input)
	if err != nil {
		return syncstore.Snapshot{}, pkgerrors.NewStorageError("get sync document", err)
	}
	if len(result.Item) == 0 {
		return syncstore.Snapshot{}, syncstore.ErrNoData
	}

	var doc syncDoc
	if err := attributevalue.UnmarshalMap(result.Item, &doc); err != nil {
		return syncstore.Snapshot{}, pkgerrors.NewStorageError("decode sync document", err)
	}

	return syncstore.Snapshot{
		Items:        doc.Items,
		LastModified: doc.LastModified,
	}, nil
}

// Set replaces the sync document with the given snapshot. Last writer wins;
// there is no version check on the remote document.
func (c *Client) Set(ctx context.Context, snap syncstore.Snapshot) error {
	doc := syncDoc{
		PK:           c.pk(),
		SK:           c.sk(),
		EntityType:   "SYNC_DOC",
		Items:        snap.Items,
		LastModified: snap.LastModified,
	}

	av, err := attributevalue.MarshalMap(doc)
	if err != nil {
		return pkgerrors.NewStorageError("encode sync document", err)
	}

	input := &dynamodb.PutItemInput{
		TableName: aws.String(c.tableName),
		Item:      av,
	}

	if _, err := c.db.PutItem(ctx, input); err != nil {
		return pkgerrors.NewStorageError("put sync document", err)
	}

	c.logger.Debug("Saved sync document",
		zap.String("listID", c.listID),
		zap.Int("items", len(snap.Items)),
		zap.Int64("lastModified", snap.LastModified),
	)

	return nil
}

// Subscribe polls the document and invokes cb whenever LastModified moves
// forward. The returned stop function ends the poll loop.
func (c *Client) Subscribe(cb func(syncstore.Snapshot)) (func(), error) {
	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		ticker := time.NewTicker(c.pollInterval)
		defer ticker.Stop()

		var lastSeen int64
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				snap, err := c.Get(ctx)
				if err != nil {
					if err != syncstore.ErrNoData && ctx.Err() == nil {
						c.logger.Warn("Sync document poll failed", zap.Error(err))
					}
					continue
				}
				if snap.LastModified > lastSeen {
					lastSeen = snap.LastModified
					cb(snap)
				}
			}
		}
	}()

	return cancel, nil
}
