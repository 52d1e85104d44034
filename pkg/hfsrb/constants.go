package hfsrb

// Exit codes for semantic error classification.
// These follow Unix/GNU conventions:
//   - 0: Success
//   - 1: General error
//   - 2: CLI usage error (misuse of command line)
//   - 3+: Application-specific errors
const (
	ExitSuccess          = 0  // Run completed successfully
	ExitGeneralError     = 1  // Unknown or unclassified error
	ExitUsageError       = 2  // CLI usage error (missing args, invalid flags)
	ExitPanic            = 3  // Internal panic (unexpected crash)
	ExitConfigError      = 10 // Invalid hfsrb.yaml or flags
	ExitMappingNotFound  = 11 // No mapping document resolves
	ExitSchemaMissing    = 12 // Schema named by a mapping is missing
	ExitValidationFailed = 13 // Payload violates its schema
	ExitMalformedInput   = 14 // Dictionary or JSON document unparseable
	ExitSinkFailed       = 15 // Payload sink rejected a write
	ExitPartialFailure   = 16 // Batch finished with per-item failures
)

const (
	// ConfigFileName is the project configuration file looked up in the project root.
	ConfigFileName = "hfsrb.yaml"

	// DictionaryFileName is the Markdown field dictionary inside each schemas/<name>/ directory.
	DictionaryFileName = "README.md"

	// SchemaFileSuffix is appended to a dictionary name to form its compiled schema file name.
	SchemaFileSuffix = ".schema.json"

	// SchemaDialect is the $schema URI emitted on every compiled schema.
	SchemaDialect = "http://json-schema.org/draft-07/schema#"
)
