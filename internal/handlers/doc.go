// Package handlers provides HTTP request handlers for the clipper API.
//
// It includes handlers for:
//   - Creating, listing and deleting clips, and their thumbnails
//   - Listing the audio and subtitle tracks of a source file
//   - Searching source files and refreshing the search index
//   - Inspecting pending jobs and the failure log
//   - Health checks and version information
//
// Domain errors are mapped to status codes in one place: invalid input is
// 400, a full queue is 429, a duplicate job or a refresh already in
// progress is 409, and search routes answer 403 when search is disabled.
package handlers
