// Package storage holds the upload storage settings and the object storage client.
//
// Uploads always land on the local disk (Config.UploadDirectoryPath, or the working
// directory when empty). When Config.MirrorEnabled is set, every upload is also copied
// into a bucket through the MinIO Go client, which works against AWS S3 and
// self-hosted MinIO alike.
//
// # Client Interface
//
// The Client interface narrows the MinIO client to the calls the mirror makes, so
// tests can substitute the testify mock in core/storage/mocks.
//
//   - BucketExists: Verifies access to the target bucket.
//   - MakeBucket: Creates a new bucket if needed (see EnsureBucket).
//   - PutObject: Uploads content (with size and options).
//
// # Usage
//
//	client, err := storage.NewClient(cfg.Storage)
//	err = storage.EnsureBucket(ctx, client, cfg.Storage.Bucket, cfg.Storage.Region)
package storage
