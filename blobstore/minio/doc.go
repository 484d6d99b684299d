// Package minio provides a BlobStore on the MinIO client, for MinIO and
// other S3-compatible services (Ceph, Garage, SeaweedFS) hosting railrad
// databases and streamed results.
//
// # Basic Usage
//
//	store, err := minio.Dial("localhost:9000", "track-databases",
//	    minio.WithCredentials("minioadmin", "minioadmin"),
//	    minio.WithPrefix("line-7/"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	db, err := railrad.Open(ctx, store, "ballasted.rrdb")
//
// An existing *minio.Client can be wrapped with NewStore instead.
//
// Unlike s3.DDBCommitStore this store has no conditional pointer update:
// snapshots advance CURRENT with a plain PutObject, so only one writer
// should snapshot into a given prefix at a time.
package minio
