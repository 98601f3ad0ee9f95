// Package fetch provides a composable resource fetcher pipeline.
//
// A Fetcher takes a URI and returns either a byte stream or an explicit
// "no result". Expected failures (unreachable host, missing object, rejected
// content) are reported as a nil *Result with a nil error so that callers can
// implement fallback as ordinary control flow. Errors are reserved for
// cancellation and programmer or configuration mistakes.
//
// # Sources
//
//   - FileFetcher reads from a core.FS (file: URIs and bare paths)
//   - HTTPFetcher performs a bounded HTTP GET (http: and https: URIs)
//   - S3Fetcher reads objects through minio-go (s3: URIs)
//   - Chained selects one of the above by URI scheme
//
// # Decorators
//
// Decorators wrap a Fetcher and compose by explicit wrapping:
//
//	// source -> stage -> verify -> canonical
//	binary := fetch.NewCaching(
//	    fetch.NewConditional(
//	        fetch.NewCaching(source, stager, tempPath),
//	        fsys, fetch.SHA384Predicate(hashes),
//	    ),
//	    stager, canonicalPath,
//	)
//
// Caching persists the stream through a Stager, which writes into a private
// staging directory and renames into place, so a final destination never holds
// a partially written file. Conditional validates the bytes with a Predicate
// and yields no result if validation fails.
package fetch
