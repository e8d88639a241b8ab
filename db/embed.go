// Package db embeds the schema applied at startup and carries the seed data
// consumed by cmd/seed-db.
package db

import _ "embed"

// Schema holds the DDL for the products, orders, and order_lines tables.
//
//go:embed migrations/001_schema.sql
var Schema string
