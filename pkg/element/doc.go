// Package element defines the content description of one UI element.
//
// A Def is a pure value: layout properties, visual properties, event
// handlers and child definitions. It carries no references to live
// render or layout state, so two Defs can be compared and hashed
// without touching the tree they describe. Defs are produced by
// stateful bindings and consumed by the diff and reconcile layers.
package element
