// Package logtail follows a single file on disk and hands its content to callbacks
// whenever it changes.
//
// The directory is watched rather than the file so that rotations and editor-style
// renames are picked up. Bursts of events are collapsed by a short debounce, and
// reads are retried a few times because the writer may still hold the file.
package logtail
