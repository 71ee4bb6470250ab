// Package mpegps scans MPEG-2 Program Stream containers for the
// private-stream-1 payload fragments that carry DVD sub-picture data.
package mpegps
