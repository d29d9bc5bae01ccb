package event

import (
	"testing"
	"time"

	"github.com/RezaEskandarii/scribeflow/custom_errors"
	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func s3Record(name, bucket, key string, size int64, at time.Time) events.S3EventRecord {
	return events.S3EventRecord{
		EventName: name,
		EventTime: at,
		S3: events.S3Entity{
			Bucket: events.S3Bucket{Name: bucket},
			Object: events.S3Object{Key: key, Size: size},
		},
	}
}

func TestFromS3Event(t *testing.T) {
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	got := FromS3Event(events.S3Event{Records: []events.S3EventRecord{
		s3Record("ObjectCreated:Put", "media", "raw/bob/my+clip%281%29.mp4", 1000, at),
		s3Record("s3:ObjectCreated:CompleteMultipartUpload", "media", "raw/bob/long.mp4", 5, at.Add(1500*time.Millisecond)),
	}})
	require.Len(t, got, 2)
	require.NoError(t, got[0].Err)
	require.NoError(t, got[1].Err)

	assert.Equal(t, "raw/bob/my clip(1).mp4", got[0].Key)
	assert.Equal(t, "2024-01-01T00:00:00.000000000Z", got[0].EventTime)
	assert.Equal(t, "s3://media/raw/bob/my clip(1).mp4", got[0].URI())
	assert.Equal(t, int64(1000), got[0].Size)
	assert.True(t, got[0].IsCompletedUpload())

	assert.Equal(t, "ObjectCreated:CompleteMultipartUpload", got[1].Name)
	assert.Equal(t, "2024-01-01T00:00:01.500000000Z", got[1].EventTime)
	assert.True(t, got[1].IsCompletedUpload())
}

func TestFromS3Event_MalformedRecordKeepsItsPlace(t *testing.T) {
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	got := FromS3Event(events.S3Event{Records: []events.S3EventRecord{
		s3Record("ObjectCreated:Put", "", "raw/a.mp4", 1, at),
		s3Record("ObjectCreated:Put", "media", "raw/%zz.mp4", 1, at),
		s3Record("ObjectCreated:Put", "media", "raw/b.mp4", 1, time.Time{}),
		s3Record("ObjectCreated:Put", "media", "raw/ok.mp4", 1, at),
	}})
	require.Len(t, got, 4)

	for i := 0; i < 3; i++ {
		assert.ErrorIs(t, got[i].Err, custom_errors.ErrMalformedInput, "record %d", i)
	}
	assert.Contains(t, got[1].Err.Error(), "record 1")
	assert.Equal(t, "raw/%zz.mp4", got[1].Key)

	assert.NoError(t, got[3].Err)
	assert.Equal(t, "raw/ok.mp4", got[3].Key)
}

func TestObjectCreated_IsCompletedUpload(t *testing.T) {
	tests := map[string]bool{
		"ObjectCreated:Put":                     true,
		"ObjectCreated:CompleteMultipartUpload": true,
		"ObjectCreated:Copy":                    false,
		"ObjectCreated:Post":                    false,
		"ObjectRemoved:Delete":                  false,
		"s3:ObjectCreated:Put":                  false,
	}
	for name, want := range tests {
		assert.Equal(t, want, ObjectCreated{Name: name}.IsCompletedUpload(), name)
	}
}

func TestFormatEventTime_SortsChronologically(t *testing.T) {
	base := time.Date(2024, 1, 1, 23, 59, 59, 0, time.FixedZone("UTC+2", 2*3600))
	earlier := FormatEventTime(base)
	later := FormatEventTime(base.Add(10 * time.Millisecond))
	assert.Equal(t, "2024-01-01T21:59:59.000000000Z", earlier)
	assert.Less(t, earlier, later)
}

func TestFormatEventTime_KeepsSubMillisecondPrecision(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	a := FormatEventTime(base.Add(100 * time.Microsecond))
	b := FormatEventTime(base.Add(200 * time.Microsecond))
	c := FormatEventTime(base.Add(time.Second))

	assert.Equal(t, "2024-01-01T00:00:00.000100000Z", a)
	assert.NotEqual(t, a, b)
	assert.Less(t, a, b)
	assert.Less(t, b, c)
	assert.Len(t, c, len(a))
}
