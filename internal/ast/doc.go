// Package ast defines the program representation shared by the semantic
// checker and the magic-set pipeline: declarations, clauses, literals and
// argument terms, together with the traversal, rewriting, cloning,
// equality and printing operations the passes are built from.
//
// Literal, Argument and Type are sealed interfaces; the marker-method
// pattern keeps the variant sets closed so type switches stay exhaustive.
// Argument nodes are handled by pointer and node identity (pointer
// identity) is meaningful: the groundedness analysis keys its results by
// it.
//
// The program owns every node. Cross-references between declarations and
// clauses go through QualifiedName, never through node handles, so passes
// can rebuild arbitrary parts of the tree without dangling references.
package ast
