// Package media generates poster thumbnails for finished video clips.
//
// A frame is grabbed with ffmpeg, scaled with imaging.Fit to at most
// 320x180 and stored as JPEG in the cache directory. The cache key covers
// the clip path and its modification time.
package media
