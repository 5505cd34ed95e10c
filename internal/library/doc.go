// Package library lists and deletes the finished clips in the output
// directory.
package library
