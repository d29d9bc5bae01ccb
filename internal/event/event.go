package event

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/RezaEskandarii/scribeflow/custom_errors"
	"github.com/RezaEskandarii/scribeflow/internal/constants"
	"github.com/aws/aws-lambda-go/events"
)

// EventTimeLayout renders event times with a fixed width so that the string
// order of the job record sort key matches chronological order. Nanoseconds
// are kept so that uploads within the same millisecond get distinct keys.
const EventTimeLayout = "2006-01-02T15:04:05.000000000Z"

// ObjectCreated is one storage-change notification after boundary validation.
type ObjectCreated struct {
	Name      string
	EventTime string
	Bucket    string
	Key       string
	Size      int64

	// Err is set when the record could not be converted. Handlers fail that
	// record only.
	Err error
}

// IsCompletedUpload reports whether the event denotes a fully written object.
func (e ObjectCreated) IsCompletedUpload() bool {
	for _, name := range constants.CompletedUploadEvents {
		if e.Name == name {
			return true
		}
	}
	return false
}

// URI is the source locator of the object.
func (e ObjectCreated) URI() string {
	return fmt.Sprintf("s3://%s/%s", e.Bucket, e.Key)
}

func FormatEventTime(t time.Time) string {
	return t.UTC().Format(EventTimeLayout)
}

// FromS3Event converts a platform notification batch into typed events, one
// per record and in delivery order. Object keys arrive URL-encoded and are
// unescaped here. A record that cannot be converted keeps its position with
// Err set.
func FromS3Event(e events.S3Event) []ObjectCreated {
	out := make([]ObjectCreated, 0, len(e.Records))
	for i, r := range e.Records {
		out = append(out, convert(i, r))
	}
	return out
}

func convert(i int, r events.S3EventRecord) ObjectCreated {
	ev, err := fromRecord(r)
	if err != nil {
		return malformed(i, r.EventName, r.S3.Bucket.Name, r.S3.Object.Key, err)
	}
	return ev
}

func malformed(i int, name, bucket, key string, err error) ObjectCreated {
	return ObjectCreated{
		Name:   strings.TrimPrefix(name, "s3:"),
		Bucket: bucket,
		Key:    key,
		Err:    fmt.Errorf("record %d: %w", i, err),
	}
}

func fromRecord(r events.S3EventRecord) (ObjectCreated, error) {
	if r.S3.Bucket.Name == "" || r.S3.Object.Key == "" {
		return ObjectCreated{}, fmt.Errorf("missing bucket or key: %w", custom_errors.ErrMalformedInput)
	}
	if r.EventTime.IsZero() {
		return ObjectCreated{}, fmt.Errorf("missing event time: %w", custom_errors.ErrMalformedInput)
	}
	key, err := url.QueryUnescape(r.S3.Object.Key)
	if err != nil {
		return ObjectCreated{}, fmt.Errorf("unescape key %q: %w", r.S3.Object.Key, custom_errors.ErrMalformedInput)
	}
	return ObjectCreated{
		// MinIO prefixes event names with "s3:".
		Name:      strings.TrimPrefix(r.EventName, "s3:"),
		EventTime: FormatEventTime(r.EventTime),
		Bucket:    r.S3.Bucket.Name,
		Key:       key,
		Size:      r.S3.Object.Size,
	}, nil
}
