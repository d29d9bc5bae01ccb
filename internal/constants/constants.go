package constants

// Advisory lock ids shared by every process that talks to the same database.
const (
	MigrationLock = iota + 7001
	OrphanSweepLock
)

const (
	// DefaultResultPrefix is the first path segment of every output locator.
	DefaultResultPrefix = "transcriptions"

	// DefaultIdentity is returned when no stronger identity signal is available.
	DefaultIdentity = "unknown"

	// JobIDLength is the number of hex characters in a job identifier.
	JobIDLength = 10

	// DefaultListLimit is how many records the query surface lists per identity.
	DefaultListLimit = 5
)

// Object-created event names that denote a completed upload. Anything else
// (multipart initiated, copy, lifecycle) is skipped by both handlers.
const (
	EventObjectCreatedPut                     = "ObjectCreated:Put"
	EventObjectCreatedCompleteMultipartUpload = "ObjectCreated:CompleteMultipartUpload"
)

var CompletedUploadEvents = []string{
	EventObjectCreatedPut,
	EventObjectCreatedCompleteMultipartUpload,
}
