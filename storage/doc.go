// Package storage reads source recordings from pluggable backends so a
// run can stage them into its working directory.
//
// # Backends
//
//   - storage/local: a directory on the local filesystem
//   - storage/s3: Amazon S3 and S3-compatible services (MinIO, R2)
//
// Backends register themselves on import; New picks one by Config.Provider:
//
//	storage:
//	  provider: "s3"
//	  bucket: "recordings"
//	  region: "eu-west-1"
package storage
