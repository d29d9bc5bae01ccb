package event

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/RezaEskandarii/scribeflow/custom_errors"
	"github.com/aws/aws-lambda-go/events"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

const notificationSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["Records"],
  "properties": {
    "Records": {"type": "array", "items": {"type": "object"}}
  }
}`

const recordSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["eventName", "eventTime", "s3"],
  "properties": {
    "eventName": {"type": "string", "minLength": 1},
    "eventTime": {"type": "string", "format": "date-time"},
    "s3": {
      "type": "object",
      "required": ["bucket", "object"],
      "properties": {
        "bucket": {
          "type": "object",
          "required": ["name"],
          "properties": {"name": {"type": "string", "minLength": 1}}
        },
        "object": {
          "type": "object",
          "required": ["key"],
          "properties": {
            "key": {"type": "string", "minLength": 1},
            "size": {"type": "integer", "minimum": 0}
          }
        }
      }
    }
  }
}`

// Parser validates raw bucket notifications (S3 or MinIO format) before they
// are decoded into typed events.
type Parser struct {
	notification *jsonschema.Schema
	record       *jsonschema.Schema
}

func NewParser() (*Parser, error) {
	notification, err := compileSchema("notification.json", notificationSchema)
	if err != nil {
		return nil, err
	}
	record, err := compileSchema("record.json", recordSchema)
	if err != nil {
		return nil, err
	}
	return &Parser{notification: notification, record: record}, nil
}

func compileSchema(name, schema string) (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, strings.NewReader(schema)); err != nil {
		return nil, fmt.Errorf("add schema %s: %w", name, err)
	}
	compiled, err := compiler.Compile(name)
	if err != nil {
		return nil, fmt.Errorf("compile schema %s: %w", name, err)
	}
	return compiled, nil
}

// Parse decodes one notification message into its batch of events. A message
// that is not a notification at all fails as a whole; a single invalid record
// is returned in place with Err set.
func (p *Parser) Parse(data []byte) ([]ObjectCreated, error) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("decode notification: %v: %w", err, custom_errors.ErrMalformedInput)
	}
	if err := p.notification.Validate(v); err != nil {
		return nil, fmt.Errorf("notification does not match schema: %v: %w", err, custom_errors.ErrMalformedInput)
	}
	var envelope struct {
		Records []json.RawMessage `json:"Records"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("decode notification: %v: %w", err, custom_errors.ErrMalformedInput)
	}

	out := make([]ObjectCreated, 0, len(envelope.Records))
	for i, raw := range envelope.Records {
		out = append(out, p.parseRecord(i, raw))
	}
	return out, nil
}

func (p *Parser) parseRecord(i int, raw json.RawMessage) ObjectCreated {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return malformed(i, "", "", "", fmt.Errorf("decode record: %v: %w", err, custom_errors.ErrMalformedInput))
	}
	var record events.S3EventRecord
	decodeErr := json.Unmarshal(raw, &record)
	if err := p.record.Validate(v); err != nil {
		return malformed(i, record.EventName, record.S3.Bucket.Name, record.S3.Object.Key,
			fmt.Errorf("record does not match schema: %v: %w", err, custom_errors.ErrMalformedInput))
	}
	if decodeErr != nil {
		return malformed(i, record.EventName, record.S3.Bucket.Name, record.S3.Object.Key,
			fmt.Errorf("decode record: %v: %w", decodeErr, custom_errors.ErrMalformedInput))
	}
	return convert(i, record)
}
