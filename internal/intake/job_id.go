package intake

import (
	"encoding/hex"
	"regexp"

	"github.com/RezaEskandarii/scribeflow/internal/constants"
	"github.com/google/uuid"
)

var jobIDPattern = regexp.MustCompile(`^[0-9a-f]{10}$`)

// NewJobID returns the first ten hex characters of a random UUID. It only
// disambiguates jobs within one identity and is not globally unique.
func NewJobID() string {
	u := uuid.New()
	return hex.EncodeToString(u[:])[:constants.JobIDLength]
}

func IsJobID(s string) bool {
	return jobIDPattern.MatchString(s)
}
