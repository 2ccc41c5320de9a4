// Package diff classifies changes between two element definitions.
//
// Every definition gets a 64-bit content hash: an own hash over its
// layout and visual properties and a subtree hash folding in the
// ordered child subtree hashes. Hash equality short-circuits deep
// comparison, so the common unchanged path costs one comparison per
// node. Differences are classified into independent layout, visual,
// children and handler flags; the reconcile layer picks the cheapest
// repair for each combination.
package diff
