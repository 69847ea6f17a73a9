// Package harness runs emitted module text: it reads the S-expressions,
// instantiates the module against a simulated linear memory and an output
// sink, and executes the directives that follow it.
//
// The evaluator implements exactly the dialect the sexpr backend writes:
// a loop repeats when its body falls through and a br naming the loop
// leaves it, a br naming a block leaves the block, stores yield the stored
// value, and a switch runs the first non-empty arm at or after the match.
package harness
