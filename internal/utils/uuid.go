// Package utils provides small helpers shared by the probe, conversion and
// watch packages: a bounded worker pool, identifiers and content
// fingerprints.
package utils

import (
	"github.com/google/uuid"
)

// GenerateJobID returns a random identifier for one conversion job
func GenerateJobID() string {
	return uuid.New().String()
}

// GenerateBatchID returns a time-ordered identifier so batch IDs sort by
// creation time.
func GenerateBatchID() string {
	return uuid.Must(uuid.NewUUID()).String()
}
