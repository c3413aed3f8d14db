// Package queue defines message payloads exchanged over the message broker.
package queue

// DatasetLoadedQueue is the durable queue dataset events are published to.
const DatasetLoadedQueue = "dataset.loaded"

// DatasetLoadedEvent is published by the loader after a table has been
// (re)built. Running servers use it to drop cached lookup responses that
// may reflect the previous contents.
type DatasetLoadedEvent struct {
	Table    string   `json:"table"`
	Source   string   `json:"source"`
	Columns  []string `json:"columns"`
	Indexes  []string `json:"indexes"`
	Rows     int64    `json:"rows"`
	Replaced bool     `json:"replaced"`
	LoadedAt string   `json:"loaded_at"`
}
