// Package ir defines the typed method-body tree consumed by the wasm backend.
//
// The tree is produced by an external front end (or built in Go through
// Builder) and is read-only afterwards: passes that need to change it, like
// the intrinsic rewriter, build new nodes with Transform. Side information
// that passes attach to nodes (synthetic loop indices, label indices) lives in
// tables keyed by NodeID.
package ir

// NodeID identifies a statement within a program. IDs are assigned by the
// builder or decoder and are never reused.
type NodeID uint32

// NoNodeID is the zero sentinel.
const NoNodeID NodeID = 0

func (id NodeID) IsValid() bool { return id != NoNodeID }

// LoopIndex is the label index of a loop or switch. Source-level indices are
// small non-negative numbers assigned by the front end; NoLoopIndex on a loop
// means "not assigned", and on break/continue means "innermost".
type LoopIndex int32

const NoLoopIndex LoopIndex = -1

func (i LoopIndex) IsValid() bool { return i >= 0 }
