// Package s3 reads release archives from an S3-compatible mirror.
//
// Operators that cannot reach the vendor from the install host can publish
// release zipballs to a bucket; the package fetcher then streams them from
// there instead. Keys are laid out as <prefix><software>/<release>.zip and the
// lexically greatest key under a software prefix is the latest release.
package s3
