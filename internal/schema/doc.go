// Package schema describes tables declaratively for DDL compilation.
//
// A Blueprint collects column definitions, parent tables and commands for a
// single table. The ddl package compiles a Blueprint into statements; this
// package performs no SQL rendering.
//
// SEALED INTERFACES:
//
// Command is a sealed interface using the marker method pattern. Only the
// types in this package implement it, so compilers can switch exhaustively:
//
//	switch c := cmd.(type) {
//	case *CreateTable:
//	case *FulltextIndex:
//	case *DropFulltextIndex:
//	}
//
// COMMAND LIFECYCLE:
//
// Commands are created when a caller declares them on a Blueprint, consumed
// once by a compiler and then discarded. Nothing here is persisted.
//
// INDEX NAMING:
//
// A full-text index declared without a name is named after the prefixed
// table and its columns:
//
//	lower(<prefix><table>_<col1>_<col2>_fulltext)
//
// with "-" and "." replaced by "_". DropFulltextColumns derives the same
// name, so an index can be dropped by the columns it was created with.
package schema
