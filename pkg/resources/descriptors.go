package resources

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/entrhq/toolhost/pkg/registry"
)

// Resource URIs exposed by the server.
const (
	GreetingURI = "res://greeting.txt"
	TimeURI     = "res://time.json"

	greetingFile = "greeting.txt"
)

// ReadResourceInput represents the parameters for read_resource.
type ReadResourceInput struct {
	Name string `json:"name" jsonschema:"file name relative to the resources directory"`
}

// ReadResourceTool returns the content of a file in the resources directory.
func ReadResourceTool(reader *Reader) registry.Descriptor {
	return registry.NewTool("read_resource", "Read a static file from the resources directory by name.",
		func(_ context.Context, in ReadResourceInput) (string, error) {
			return reader.Read(in.Name)
		})
}

// Greeting is the res://greeting.txt resource.
func Greeting(reader *Reader) registry.Descriptor {
	return registry.NewResource(GreetingURI, "greeting", "A static greeting read from greeting.txt.", registry.MIMETypeText,
		func(context.Context) (string, error) {
			return reader.Read(greetingFile)
		})
}

type timePayload struct {
	UTC   string  `json:"utc"`
	Epoch float64 `json:"epoch"`
}

// Time is the res://time.json resource: the current UTC time as ISO 8601 and as
// fractional Unix seconds. now is injectable for tests.
func Time(now func() time.Time) registry.Descriptor {
	if now == nil {
		now = time.Now
	}
	return registry.NewResource(TimeURI, "time", "The current UTC time.", registry.MIMETypeJSON,
		func(context.Context) (string, error) {
			t := now().UTC()
			data, err := json.MarshalIndent(timePayload{
				UTC:   t.Format(time.RFC3339Nano),
				Epoch: float64(t.UnixNano()) / float64(time.Second),
			}, "", "  ")
			if err != nil {
				return "", fmt.Errorf("failed to encode time: %w", err)
			}
			return string(data), nil
		})
}
