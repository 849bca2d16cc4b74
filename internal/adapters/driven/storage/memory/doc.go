// Package memory provides in-memory implementations of the durable store ports.
//
// Nothing survives the process. The stores back the "memory" storage backend
// used for dry runs, and keep the same ordering and filtering contracts as the
// SQLite adapter.
package memory
