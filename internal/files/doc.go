// Package files provides file-related functionality organized into sub-packages.
//
//   - filesystem: Filesystem abstraction interfaces and implementations (OS and in-memory)
//   - scanner: Discovery of field dictionaries, entity records and payload envelopes
//
// # Usage
//
//	import (
//	    "github.com/hfsrb/hfsrb/internal/files/filesystem"
//	    "github.com/hfsrb/hfsrb/internal/files/scanner"
//	)
//
//	s := scanner.NewScanner(checksum.New())
//	dicts, err := s.Dictionaries("./schemas")
//	records, err := s.Records("./data", scanner.Filter{Years: []int{2024}})
package files
