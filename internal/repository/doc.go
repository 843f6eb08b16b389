// Package repository defines the data access interfaces for chipforge.
//
// This package provides the repository abstraction layer for persisting
// designs and the ERC reports run against them. The actual implementation
// is in the sqlite subpackage.
//
// # Repository Interface
//
// Lookups of missing rows return ErrNotFound; creating a design whose id
// is already stored returns ErrConflict. Callers test with errors.Is.
//
// # SQLite Implementation
//
// The sqlite implementation stores each design as one row: indexed columns
// for id, name and counts, and the component/net/bus graph as a JSON
// document. Reports reference their design with ON DELETE CASCADE.
//
// # Schema Migration
//
// The sqlite repository creates its tables on startup and adds missing
// columns in place, preserving existing data.
package repository
