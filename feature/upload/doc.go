// Package upload persists the bodies of write requests.
//
// Every POST body is written once to `{dir or working directory}/Json/{command}_{yyyyMMddHHmmss.fff}.json`,
// where command is the last non-empty segment of the request URL. Requests without a
// segment are skipped silently. Files are created exclusively; a name already taken
// in the same millisecond moves the timestamp forward by one millisecond.
//
// # Sinks
//
// After the disk write succeeds, the record is handed to the optional sinks:
//   - Mirror: copies the body into an S3/MinIO bucket under Json/.
//   - Journal: inserts the metadata (not the body) into the upload_records table.
//
// Sink failures are logged and never fail the upload.
package upload
