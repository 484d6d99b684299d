package s3

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/hupe1980/railrad/blobstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockDDBClient is an in-memory DynamoDB table keyed by (base_uri, version).
type mockDDBClient struct {
	mu    sync.Mutex
	items map[string]map[string]types.AttributeValue
}

func newMockDDBClient() *mockDDBClient {
	return &mockDDBClient{items: make(map[string]map[string]types.AttributeValue)}
}

func (m *mockDDBClient) PutItem(_ context.Context, params *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	baseURI := params.Item["base_uri"].(*types.AttributeValueMemberS).Value
	version := params.Item["version"].(*types.AttributeValueMemberN).Value
	key := baseURI + ":" + version

	if aws.ToString(params.ConditionExpression) == "attribute_not_exists(version)" {
		if _, exists := m.items[key]; exists {
			return nil, &types.ConditionalCheckFailedException{Message: aws.String("condition failed")}
		}
	}
	m.items[key] = params.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (m *mockDDBClient) Query(_ context.Context, params *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	baseURI := params.ExpressionAttributeValues[":uri"].(*types.AttributeValueMemberS).Value

	var items []map[string]types.AttributeValue
	for _, item := range m.items {
		if item["base_uri"].(*types.AttributeValueMemberS).Value == baseURI {
			items = append(items, item)
		}
	}
	version := func(item map[string]types.AttributeValue) uint64 {
		v, _ := strconv.ParseUint(item["version"].(*types.AttributeValueMemberN).Value, 10, 64)
		return v
	}
	sort.Slice(items, func(i, j int) bool { return version(items[i]) > version(items[j]) })

	if params.Limit != nil && int(*params.Limit) < len(items) {
		items = items[:*params.Limit]
	}
	return &dynamodb.QueryOutput{Items: items}, nil
}

func newTestDDBCommitStore(ddb *mockDDBClient, baseURI string) *DDBCommitStore {
	return NewDDBCommitStore(NewStore(&MockS3Client{}, "test-bucket", "line-7/"), ddb, "railrad-commits", baseURI)
}

func readPointer(t *testing.T, store blobstore.BlobStore) string {
	t.Helper()
	data, err := blobstore.Get(context.Background(), store, CurrentPointer)
	require.NoError(t, err)
	return string(data)
}

func TestDDBCommitStore_Commits(t *testing.T) {
	ctx := context.Background()
	store := newTestDDBCommitStore(newMockDDBClient(), "s3://test-bucket/line-7/")

	for i := 1; i <= 12; i++ {
		require.NoError(t, store.Put(ctx, CurrentPointer, []byte(fmt.Sprintf("snap-%05d.rrdb", i))))
	}

	assert.Equal(t, "snap-00012.rrdb", readPointer(t, store))
	v, err := store.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(12), v)
}

func TestDDBCommitStore_ConcurrentCommits(t *testing.T) {
	ctx := context.Background()
	store := newTestDDBCommitStore(newMockDDBClient(), "s3://test-bucket/line-7/")
	require.NoError(t, store.Put(ctx, CurrentPointer, []byte("snap-00001.rrdb")))

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			err := store.Put(ctx, CurrentPointer, []byte(fmt.Sprintf("snap-%05d.rrdb", id+2)))
			mu.Lock()
			defer mu.Unlock()
			switch err {
			case nil:
				successes++
			case ErrConcurrentModification:
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	assert.Greater(t, successes, 0, "at least one writer should succeed")
	v, err := store.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1+successes), v)
}

func TestDDBCommitStore_NotFoundBeforeCommit(t *testing.T) {
	store := newTestDDBCommitStore(newMockDDBClient(), "s3://test-bucket/line-7/")

	_, err := store.Open(context.Background(), CurrentPointer)
	require.ErrorIs(t, err, blobstore.ErrNotFound)
}

func TestDDBCommitStore_IsolatedNamespaces(t *testing.T) {
	ctx := context.Background()
	ddb := newMockDDBClient()

	store1 := newTestDDBCommitStore(ddb, "s3://bucket-a/line-7/")
	store2 := newTestDDBCommitStore(ddb, "s3://bucket-b/line-7/")

	require.NoError(t, store1.Put(ctx, CurrentPointer, []byte("snap-A.rrdb")))
	require.NoError(t, store2.Put(ctx, CurrentPointer, []byte("snap-B.rrdb")))

	assert.Equal(t, "snap-A.rrdb", readPointer(t, store1))
	assert.Equal(t, "snap-B.rrdb", readPointer(t, store2))
}

func TestDDBCommitStore_PointerIsPutOnly(t *testing.T) {
	store := newTestDDBCommitStore(newMockDDBClient(), "s3://test-bucket/line-7/")
	_, err := store.Create(context.Background(), CurrentPointer)
	assert.Error(t, err)
	assert.NoError(t, store.Delete(context.Background(), CurrentPointer))
}

func TestDDBCommitStore_History(t *testing.T) {
	ctx := context.Background()
	store := newTestDDBCommitStore(newMockDDBClient(), "s3://test-bucket/line-7/")

	rows, err := store.History(ctx, 5)
	require.NoError(t, err)
	assert.Empty(t, rows)

	for _, name := range []string{"snap-a", "snap-b", "snap-c"} {
		require.NoError(t, store.Put(ctx, CurrentPointer, []byte(name)))
	}
	rows, err = store.History(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []PointerVersion{{Version: 3, Snapshot: "snap-c"}, {Version: 2, Snapshot: "snap-b"}}, rows)
}

func TestDDBCommitStore_MalformedRow(t *testing.T) {
	ddb := newMockDDBClient()
	ddb.items["s3://x/:1"] = map[string]types.AttributeValue{
		"base_uri": &types.AttributeValueMemberS{Value: "s3://x/"},
		"version":  &types.AttributeValueMemberN{Value: "1"},
	}
	store := newTestDDBCommitStore(ddb, "s3://x/")
	_, err := store.Open(context.Background(), CurrentPointer)
	assert.ErrorContains(t, err, "snapshot")
}
