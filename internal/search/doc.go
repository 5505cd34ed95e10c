/*
Package search keeps an in-memory index of media file paths and answers
multi-term queries against it.

# Index

The index maps each lower-cased absolute path to the path as found on disk.
It is built by walking every configured root with filepath.WalkDir, one
goroutine per root (bounded by workers.ForIO). Only regular files are kept,
optionally filtered by extension.

New builds the first index before returning, so a misconfigured deployment
fails at startup instead of serving empty results.

# Refresh

RefreshIndex is single-flight: it sets the refreshing flag, starts one
background goroutine and returns. A second call while the flag is set gets
ErrRefreshInProgress. The new map replaces the old one in a single write
under the lock; readers see either the old snapshot or the new one. The
flag is cleared in a deferred function, so a failed walk never leaves the
engine stuck.

# Search

	results := engine.Search(search.SplitTerms("matrix 1999"))

A path matches when it contains every term, case-insensitively. Results are
sorted. An empty term list returns an empty result.
*/
package search
