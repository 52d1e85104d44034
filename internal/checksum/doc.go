// Package checksum hashes documents with two strategies:
//
//   - Raw checksum: hash of the exact bytes (detects every change)
//   - Normalized checksum: hash of the document's canonical form, so that
//     reformatting a JSON document or re-saving a dictionary with different
//     line endings does not count as a change
//
// JSON content is canonicalized by re-encoding it compactly with key order
// preserved. Any other content has line endings unified to \n and trailing
// whitespace removed from every line.
//
// # Example Usage
//
//	calculator := checksum.New()
//	raw := calculator.CalculateRaw(content)
//	normalized := calculator.CalculateNormalized(content)
//
// SHA256 is safe for concurrent use by multiple goroutines.
package checksum
