// Package db embeds the database schema so binaries can migrate a fresh
// database without shipping separate SQL files.
package db

import _ "embed"

// Schema holds the DDL for the coupons and products tables.
//
//go:embed migrations/001_schema.sql
var Schema string
