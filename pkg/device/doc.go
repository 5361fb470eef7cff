// Package device provides the single-slot devices sitting on both ends of
// the serial link.
package device

// A device holds at most one pending payload. A write transforms the input
// and replaces whatever is pending, read or not. A read drains the whole
// payload and leaves the device empty, so a second read returns nothing
// until the next write. There's no queue and no partial read.
//
// Writes and reads are serialized by the device, so a read always observes
// the complete result of exactly one write.
