// Package retry retries transient failures with exponential backoff.
//
// [Do] runs an operation until it succeeds, returns a [Permanent] error, runs
// out of attempts or the context ends. Vendor license checks, archive
// downloads and hosting-panel calls go through it.
package retry
