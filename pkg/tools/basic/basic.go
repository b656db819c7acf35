// Package basic provides the stateless echo, add and get_time tools.
package basic

import (
	"context"
	"time"

	"github.com/entrhq/toolhost/pkg/registry"
)

// HumanTimeLayout is the get_time format when iso is false.
const HumanTimeLayout = "2006-01-02 15:04:05 UTC"

// EchoInput represents the parameters for echo.
type EchoInput struct {
	Text string `json:"text" jsonschema:"text to echo back"`
}

// AddInput represents the parameters for add.
type AddInput struct {
	A float64 `json:"a" jsonschema:"first addend"`
	B float64 `json:"b" jsonschema:"second addend"`
}

// GetTimeInput represents the parameters for get_time.
type GetTimeInput struct {
	ISO *bool `json:"iso,omitempty" jsonschema:"return ISO 8601 (default true); false returns a human readable form"`
}

// Echo returns the echo tool.
func Echo() registry.Descriptor {
	return registry.NewTool("echo", "Echo back the provided text.",
		func(_ context.Context, in EchoInput) (string, error) {
			return in.Text, nil
		})
}

// Add returns the add tool.
func Add() registry.Descriptor {
	return registry.NewTool("add", "Add two numbers and return the sum.",
		func(_ context.Context, in AddInput) (float64, error) {
			return in.A + in.B, nil
		})
}

// GetTime returns the get_time tool. now is injectable for tests.
func GetTime(now func() time.Time) registry.Descriptor {
	if now == nil {
		now = time.Now
	}
	return registry.NewTool("get_time", "Get the current UTC time, as ISO 8601 by default or in a human readable form when iso is false.",
		func(_ context.Context, in GetTimeInput) (string, error) {
			t := now().UTC()
			if in.ISO != nil && !*in.ISO {
				return t.Format(HumanTimeLayout), nil
			}
			return t.Format(time.RFC3339Nano), nil
		})
}

// All returns every basic tool.
func All(now func() time.Time) []registry.Descriptor {
	return []registry.Descriptor{Echo(), Add(), GetTime(now)}
}
