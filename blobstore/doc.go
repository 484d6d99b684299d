// Package blobstore provides the storage abstraction behind railrad's
// database containers, streamed transfer-function results and snapshots.
//
// BlobStore is the interface for reading and writing named blobs.
// Implementations must be safe for concurrent use.
//
// # Built-in Implementations
//
//   - LocalStore: local filesystem, mmap reads and atomic temp-file writes
//   - MemoryStore: in-process map, for tests and small jobs
//   - s3.Store: Amazon S3 with range reads and multipart uploads
//   - s3.DDBCommitStore: S3 plus DynamoDB conditional writes for pointers
//   - minio.Store: MinIO and other S3-compatible services
//
// # Custom Implementations
//
//	type BlobStore interface {
//	    Open(ctx, name) (Blob, error)
//	    Create(ctx, name) (WritableBlob, error)
//	    Put(ctx, name, data) error
//	    Delete(ctx, name) error
//	    List(ctx, prefix) ([]string, error)
//	}
//
// Remote blobs should implement ReadRange efficiently: container readers
// fetch the trailer, then the directory, then one range per dataset.
package blobstore
