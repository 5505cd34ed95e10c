// Package transcoder runs ffmpeg to cut clips and ffprobe to list the audio
// and subtitle tracks of a source file.
//
// Transcoder implements clipper.Runner. Every running ffmpeg process is
// tracked so Cleanup can kill them during shutdown.
package transcoder
