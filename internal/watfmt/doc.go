// Package watfmt pretty-prints S-expression text in the layout used for
// WebAssembly text (WAT) and Inference's quantifier blocks.
//
// Formatting is structural: the input is tokenized, parsed into a tree of
// atoms and lists, and re-emitted with per-construct layout rules. Malformed
// input never fails; unmatched parens and unterminated strings degrade to a
// best-effort layout. Use Parse with strict set when the input must be
// validated instead.
package watfmt
