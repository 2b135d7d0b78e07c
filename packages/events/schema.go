package events

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// test2jsonSchema describes one line of "go test -json" output.
const test2jsonSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["Action"],
  "properties": {
    "Time": {"type": "string", "format": "date-time"},
    "Action": {
      "type": "string",
      "enum": ["start", "run", "pause", "cont", "pass", "bench", "fail", "output", "skip", "build-output", "build-fail"]
    },
    "Package": {"type": "string"},
    "ImportPath": {"type": "string"},
    "Test": {"type": "string"},
    "Elapsed": {"type": "number", "minimum": 0},
    "Output": {"type": "string"},
    "FailedBuild": {"type": "string"}
  }
}`

var test2jsonLoader = gojsonschema.NewStringLoader(test2jsonSchema)

// Issue is a stream line that does not match the test2json schema.
type Issue struct {
	Line    int
	Message string
}

func (i Issue) String() string {
	return fmt.Sprintf("line %d: %s", i.Line, i.Message)
}

// ValidateStream checks every non-empty line of a go test -json stream and
// returns the lines that are not valid test2json events.
func ValidateStream(r io.Reader) ([]Issue, error) {
	schema, err := gojsonschema.NewSchema(test2jsonLoader)
	if err != nil {
		return nil, fmt.Errorf("compiling test2json schema: %w", err)
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var issues []Issue
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		result, err := schema.Validate(gojsonschema.NewStringLoader(line))
		if err != nil {
			issues = append(issues, Issue{Line: lineNum, Message: fmt.Sprintf("invalid JSON: %v", err)})
			continue
		}
		if result.Valid() {
			continue
		}

		var msgs []string
		for _, desc := range result.Errors() {
			msgs = append(msgs, desc.String())
		}
		issues = append(issues, Issue{Line: lineNum, Message: strings.Join(msgs, "; ")})
	}

	if err := scanner.Err(); err != nil {
		return issues, fmt.Errorf("reading stream: %w", err)
	}
	return issues, nil
}
