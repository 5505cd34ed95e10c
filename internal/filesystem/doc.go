/*
Package filesystem provides filesystem operations that retry on NFS stale
file handle errors.

Media libraries are frequently NFS mounts. A source file that exists can
still fail os.Stat with ESTALE for a short while after server-side changes,
so the clip executor and the library listing go through this package instead
of calling os directly.

# Usage

	info, err := filesystem.StatWithRetry(path, filesystem.DefaultRetryConfig())

	ok, err := filesystem.Exists(sourcePath, filesystem.DefaultRetryConfig())
	if err == nil && !ok {
	    // source is missing
	}

Only ESTALE is retried. Every other error is returned on the first attempt.
Backoff starts at InitialBackoff and doubles up to MaxBackoff.

# Metrics

Stale handles, retries and exhausted retries are counted per operation
("stat", "open") in the media_clipper_filesystem_* metrics.
*/
package filesystem
