// Package intrinsic replaces calls into the wasm support library (heap views,
// test directives, string accessors, Math) with dedicated IR nodes before
// layout and emission.
package intrinsic
