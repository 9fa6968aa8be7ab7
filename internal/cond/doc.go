// Package cond provides the backend-independent predicate algebra used to
// filter query, update and delete operations.
//
// A Cond is an immutable tree. Leaves compare one field against a literal
// or test it for NULL; the combinators And, Or and Not own their children.
// Field names are plain strings and are not checked at construction time;
// Validate checks a tree against a field list before compilation.
//
// Compilation to SQL lives in package querysql, which switches exhaustively
// over the node types declared here.
package cond
