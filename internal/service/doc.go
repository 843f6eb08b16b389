// Package service implements business logic for the chipforge application.
//
// DesignService coordinates between the HTTP handlers and the repository:
// it validates designs before storing them, runs the ERC engine against
// stored designs, records each run as a report, and converts designs to and
// from their file formats via the codec package.
//
// # Event System
//
// Mutations and ERC runs are published on an EventBus for real-time updates
// to connected clients via Server-Sent Events (SSE). Publishing never blocks;
// a subscriber whose channel is full misses the event.
package service
