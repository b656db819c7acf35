// Package prompts provides the hello, sum and web_scrape prompt templates.
package prompts

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/entrhq/toolhost/pkg/registry"
)

// HelloInput represents the arguments of the hello prompt.
type HelloInput struct {
	Name string `json:"name,omitempty" jsonschema:"who to greet (default world)"`
}

// SumInput represents the arguments of the sum prompt.
type SumInput struct {
	Numbers string `json:"numbers" jsonschema:"numbers to add, comma or space separated or as a JSON array"`
}

// WebScrapeInput represents the arguments of the web_scrape prompt.
type WebScrapeInput struct {
	URL      string `json:"url" jsonschema:"website to analyze"`
	DataType string `json:"data_type,omitempty" jsonschema:"kind of information to extract (default general)"`
}

// Hello returns the hello prompt.
func Hello() registry.Descriptor {
	return registry.NewPrompt("hello", "A simple templated greeting prompt.",
		func(_ context.Context, in HelloInput) (string, error) {
			name := strings.TrimSpace(in.Name)
			if name == "" {
				name = "world"
			}
			return fmt.Sprintf("Hello, %s! I am an MCP server with browser capabilities. How can I help?", name), nil
		})
}

// Sum returns the sum prompt.
func Sum() registry.Descriptor {
	return registry.NewPrompt("sum", "Prompt template that asks the model to sum a list of numbers.",
		func(_ context.Context, in SumInput) (string, error) {
			numbers, err := parseNumbers(in.Numbers)
			if err != nil {
				return "", &registry.InvalidArgumentError{Field: "numbers", Reason: err.Error()}
			}

			formatted := make([]string, len(numbers))
			for i, n := range numbers {
				formatted[i] = strconv.FormatFloat(n, 'f', -1, 64)
			}
			return "You are a calculator. Sum the following numbers and return only the number.\n" +
				"Numbers: " + strings.Join(formatted, ", "), nil
		})
}

// WebScrape returns the web_scrape prompt.
func WebScrape() registry.Descriptor {
	return registry.NewPrompt("web_scrape", "Prompt template for web scraping tasks using the browse_website tool.",
		func(_ context.Context, in WebScrapeInput) (string, error) {
			url := strings.TrimSpace(in.URL)
			if url == "" {
				return "", &registry.InvalidArgumentError{Field: "url", Reason: "cannot be empty"}
			}
			dataType := strings.TrimSpace(in.DataType)
			if dataType == "" {
				dataType = "general"
			}
			return fmt.Sprintf(webScrapeTemplate, url, dataType, dataType), nil
		})
}

const webScrapeTemplate = "You are a web scraping assistant. Please analyze the website at %s and extract %s information. \n" +
	"\n" +
	"Use the browse_website tool to:\n" +
	"1. First take a screenshot to see the layout\n" +
	"2. Get the page content\n" +
	"3. Extract relevant %s data\n" +
	"4. Format the results in a structured way\n" +
	"\n" +
	"Focus on extracting clean, useful data while respecting the website's structure."

// All returns every prompt.
func All() []registry.Descriptor {
	return []registry.Descriptor{Hello(), Sum(), WebScrape()}
}

// parseNumbers accepts a JSON array of numbers or a list separated by commas
// and/or whitespace.
func parseNumbers(s string) ([]float64, error) {
	s = strings.TrimSpace(s)

	var numbers []float64
	if strings.HasPrefix(s, "[") {
		if err := json.Unmarshal([]byte(s), &numbers); err != nil {
			return nil, fmt.Errorf("must be a JSON array of numbers")
		}
	} else {
		fields := strings.FieldsFunc(s, func(r rune) bool {
			return r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
		})
		for _, f := range fields {
			n, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, fmt.Errorf("%q is not a number", f)
			}
			numbers = append(numbers, n)
		}
	}

	if len(numbers) == 0 {
		return nil, fmt.Errorf("must contain at least one number")
	}
	return numbers, nil
}
