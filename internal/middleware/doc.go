// Package middleware provides HTTP middleware for the clipper server.
//
// It includes:
//   - Request logging in W3C Extended Log Format
//   - Prometheus request metrics labelled by route template
//   - gzip compression of JSON and UI responses (clip files are served as-is)
package middleware
