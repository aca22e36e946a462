// Package models defines the domain types for the songshare relay.
//
// The package contains two categories of types:
//
// 1. Data Transfer Objects (DTOs): Lightweight structs carrying data between services
//   - [TrackMetadata] : Song metadata resolved from the music catalog
//   - [AudioFeatures] : Optional audio analysis attached to a track
//   - [VideoResult] : The top video search match for a track
//   - [InboundMessage] : The parsed fields of an incoming SMS webhook
//
// 2. Persistent Entities: Database-backed models
//   - [Resolution] : A cached track to video resolution keyed by catalog track id
//
// Persistent entities implement the [Model] interface providing ID, timestamps, and validation.
// The [Repository] interface defines standard CRUD operations for database access.
package models
