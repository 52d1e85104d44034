// Package dictionary parses human-authored Markdown field dictionaries.
//
// # Document Layout
//
// A dictionary is a Markdown file whose first "#" line is its title. The
// "## Fields" section holds one pipe table with the columns:
//
//	field_id | field_label | field_name | type | required | allowed_values | format | unit | section/page | notes
//
// Cells are matched to columns by position against the table's own header
// row, so column order must follow the header. The table ends at the first
// blank line, heading, or line without a pipe.
//
// An optional "## Enumerations" section declares named code sets:
//
//	## Enumerations
//	### Ownership Type
//	- for_profit — For-profit corporation
//	- nonprofit - Not-for-profit corporation
//
// Each bullet contributes the text before its first em-dash or hyphen. The
// set above is registered as "ownership_type".
//
// # Errors
//
// Parse returns a *ParseError (unwrapping to hfsrb.ErrMalformedInput) with the
// file path, line number and a hint when the table is missing, its header
// lacks field_name, or a field_name repeats.
package dictionary
