// Package s3 provides Amazon S3 implementations of blobstore.BlobStore.
//
// # Usage
//
//	store, err := s3.New(ctx, "track-databases",
//	    s3.WithPrefix("line-7/"),
//	    s3.WithRegion("eu-central-1"),
//	)
//
//	db, err := railrad.Open(ctx, store, "ballasted.rrdb")
//
// Snapshots advance a "CURRENT" pointer after writing. Plain S3 cannot make
// that swap conditional, so deployments with more than one writer wrap the
// store in a DDBCommitStore, which keeps the pointer in DynamoDB:
//
//	commits, err := s3.NewDDB(ctx, "track-databases", "railrad-commits",
//	    s3.WithPrefix("line-7/"))
//
// # Features
//
//   - Range reads for container directories and individual datasets
//   - Multipart streaming uploads for large transfer-function results
//   - CRC32C integrity checksums on uploads
//   - Automatic pagination for listing
package s3
