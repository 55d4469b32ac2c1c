// Package publish uploads a generated catalog to S3-compatible object
// storage. Objects are keyed {prefix}/{Module}.catalog/{path} and carry a
// sha256 checksum in their metadata.
package publish
