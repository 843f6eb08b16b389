// Package domain defines the core domain types for the chipforge design rule checker.
//
// This package contains the in-memory design graph that the ERC validates and
// the value types it produces.
//
// # Design Graph
//
// Design is the root aggregate. It owns Components (each owning its Pins), Nets,
// Buses and exactly one ConstraintSet. All cross references are by id: a Net
// lists (componentId, pinId) endpoints, a Bus lists NetRefs, a Pin may record
// the id of its Net. Nothing holds a pointer to another entity, so the graph has
// no ownership cycles and copies cheaply with Clone.
//
// Connectivity is kept in two places. Net endpoints are authoritative and
// Pin.NetID is a derived index; Connect, Disconnect, RemoveNet and SyncPinNets
// keep both in step. ConnectivityIssues reports any disagreement and
// CheckReferences rejects graphs with dangling ids.
//
// # Results
//
// ERCResult holds the ordered error and warning sentences of one ERC run.
// Report is a persisted run against a stored design.
//
// # Views
//
// SchematicView is a derived, canvas-friendly projection of a design.
package domain
