// Package diag defines the diagnostic model shared by every compilation pass.
//
// Passes never print. Non-fatal findings (unsupported types, untranslatable
// nodes, instance calls) go through a Reporter and end up in a Bag; structural
// problems (non-literal export names, duplicate heap sizes, gotos to unknown
// labels, malformed switches) are returned as *Error values and stop emission
// of the program that produced them.
//
// Codes are grouped by pass:
//
//   - 1000 IR decoding (IR)
//   - 2000 intrinsic rewriting (RWR)
//   - 3000 layout (LAY)
//   - 4000 emission (EMI)
//   - 5000 harness execution (HAR)
//
// Rendering lives in internal/diagfmt.
package diag
