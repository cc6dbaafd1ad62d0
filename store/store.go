// Package store provides persistence backends for rollcall.
// The Backend interface is defined in the parent rollcall package
// (../store_interface.go) so the meeting and attendance stores stay
// independent of any concrete backend.
//
// This package contains concrete implementations:
//   - FileStore: flat JSON files, rewritten in full on every mutation
//   - DynamoDBStore: AWS DynamoDB single-table backend
//   - MongoStore: MongoDB collections shared with the legacy Node service
//   - MemoryStore: In-memory backend for testing
//
// DynamoDB key design is defined in schema.go.
package store
