package config

import "time"

const (
	// DefaultMongoURI points at a local mongod.
	DefaultMongoURI = "mongodb://localhost:27017/"

	DefaultMongoDatabase = "LibraryDB"

	DefaultMongoConnectTimeout = 5 * time.Second

	// DefaultSQLitePath is used when store_driver is sqlite.
	DefaultSQLitePath = "library.db"
)
