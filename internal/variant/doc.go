// Package variant picks facility sub-variants: it tags entities from their
// survey answers (bed-count thresholds, question-block categories) and uses
// the tag to choose among a mapping's candidate schemas.
package variant
