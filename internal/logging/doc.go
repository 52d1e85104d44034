// Package logging provides implementations of the hfsrb.Logger interface.
//
// Available implementations:
//   - ConsoleLogger: writes messages to stderr (or any io.Writer), serialised
//     so lines from concurrent mapping workers never interleave
//   - NullLogger: discards all messages (useful for testing)
package logging
