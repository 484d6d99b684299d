package s3

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/hupe1980/railrad/blobstore"
)

// CurrentPointer is the blob name whose writes are routed through DynamoDB.
const CurrentPointer = blobstore.CurrentPointer

// Item attribute names of the pointer table.
const (
	attrBase     = "base_uri"
	attrVersion  = "version"
	attrSnapshot = "snapshot"
)

// DDBCommitStore is an S3 store whose CURRENT pointer lives in DynamoDB.
//
// Snapshot containers go to S3 unchanged. Every Put of CURRENT appends a
// pointer row under the next version number with a conditional write, so of
// two writers advancing the pointer concurrently exactly one wins and the
// other gets ErrConcurrentModification. Earlier rows stay in the table and
// are returned by History.
//
// Table schema: partition key base_uri (S), sort key version (N).
//
//	aws dynamodb create-table \
//	  --table-name railrad-commits \
//	  --attribute-definitions AttributeName=base_uri,AttributeType=S AttributeName=version,AttributeType=N \
//	  --key-schema AttributeName=base_uri,KeyType=HASH AttributeName=version,KeyType=RANGE \
//	  --billing-mode PAY_PER_REQUEST
type DDBCommitStore struct {
	*Store
	ddb     DDBClient
	table   string
	baseURI string
}

// DDBClient is the subset of the DynamoDB API the store uses.
type DDBClient interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// ErrConcurrentModification is returned when another writer advanced the
// pointer between our read and our conditional write.
var ErrConcurrentModification = errors.New("s3: concurrent snapshot commit")

// PointerVersion is one row of the pointer history.
type PointerVersion struct {
	Version  uint64
	Snapshot string
}

// NewDDBCommitStore wraps store. baseURI ("s3://bucket/prefix") partitions
// the table so several databases can share it.
func NewDDBCommitStore(store *Store, ddb DDBClient, table, baseURI string) *DDBCommitStore {
	return &DDBCommitStore{Store: store, ddb: ddb, table: table, baseURI: baseURI}
}

// Open serves CURRENT from the latest pointer row and everything else from S3.
func (s *DDBCommitStore) Open(ctx context.Context, name string) (blobstore.Blob, error) {
	if name != CurrentPointer {
		return s.Store.Open(ctx, name)
	}
	rows, err := s.History(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, blobstore.ErrNotFound
	}
	return blobstore.BytesBlob([]byte(rows[0].Snapshot)), nil
}

// Put commits CURRENT conditionally and writes other blobs to S3.
func (s *DDBCommitStore) Put(ctx context.Context, name string, data []byte) error {
	if name != CurrentPointer {
		return s.Store.Put(ctx, name, data)
	}
	return s.commit(ctx, string(data))
}

// Create rejects CURRENT, which is only written with Put.
func (s *DDBCommitStore) Create(ctx context.Context, name string) (blobstore.WritableBlob, error) {
	if name == CurrentPointer {
		return nil, fmt.Errorf("s3: %s must be written with Put", CurrentPointer)
	}
	return s.Store.Create(ctx, name)
}

// Delete removes an S3 blob. Deleting CURRENT is a no-op; the pointer
// history is append-only.
func (s *DDBCommitStore) Delete(ctx context.Context, name string) error {
	if name == CurrentPointer {
		return nil
	}
	return s.Store.Delete(ctx, name)
}

// Version returns the latest pointer version, 0 if none was committed.
func (s *DDBCommitStore) Version(ctx context.Context) (uint64, error) {
	rows, err := s.History(ctx, 1)
	if err != nil || len(rows) == 0 {
		return 0, err
	}
	return rows[0].Version, nil
}

// History returns up to limit pointer rows, newest first.
func (s *DDBCommitStore) History(ctx context.Context, limit int32) ([]PointerVersion, error) {
	resp, err := s.ddb.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.table),
		KeyConditionExpression: aws.String(attrBase + " = :uri"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uri": &types.AttributeValueMemberS{Value: s.baseURI},
		},
		ScanIndexForward: aws.Bool(false),
		Limit:            aws.Int32(limit),
		ConsistentRead:   aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("s3: query pointer table: %w", err)
	}

	out := make([]PointerVersion, 0, len(resp.Items))
	for _, item := range resp.Items {
		row, err := decodePointer(item)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, nil
}

func decodePointer(item map[string]types.AttributeValue) (PointerVersion, error) {
	v, ok := item[attrVersion].(*types.AttributeValueMemberN)
	if !ok {
		return PointerVersion{}, fmt.Errorf("s3: pointer row without %s", attrVersion)
	}
	name, ok := item[attrSnapshot].(*types.AttributeValueMemberS)
	if !ok {
		return PointerVersion{}, fmt.Errorf("s3: pointer row without %s", attrSnapshot)
	}
	version, err := strconv.ParseUint(v.Value, 10, 64)
	if err != nil {
		return PointerVersion{}, fmt.Errorf("s3: pointer version %q: %w", v.Value, err)
	}
	return PointerVersion{Version: version, Snapshot: name.Value}, nil
}

func (s *DDBCommitStore) commit(ctx context.Context, snapshot string) error {
	current, err := s.Version(ctx)
	if err != nil {
		return err
	}

	_, err = s.ddb.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item: map[string]types.AttributeValue{
			attrBase:     &types.AttributeValueMemberS{Value: s.baseURI},
			attrVersion:  &types.AttributeValueMemberN{Value: strconv.FormatUint(current+1, 10)},
			attrSnapshot: &types.AttributeValueMemberS{Value: snapshot},
		},
		ConditionExpression: aws.String("attribute_not_exists(" + attrVersion + ")"),
	})
	var condErr *types.ConditionalCheckFailedException
	switch {
	case errors.As(err, &condErr):
		return ErrConcurrentModification
	case err != nil:
		return fmt.Errorf("s3: commit pointer version %d: %w", current+1, err)
	}
	return nil
}
