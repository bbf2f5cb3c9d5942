// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain types to keep the domain layer free from ORM
// concerns.
//
// Orders, return orders and their line items are stored once per version, keyed by
// (id, version_id). Prices, shipping costs and payloads are kept as JSON documents in
// jsonb columns and decoded into ordercalc value objects on read.
package models
