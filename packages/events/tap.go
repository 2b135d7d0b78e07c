package events

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/abdul-hamid-achik/dotrun/packages/listener"
	"gopkg.in/yaml.v3"
)

// ErrBailOut is returned when a TAP producer aborts with "Bail out!".
var ErrBailOut = errors.New("tap producer bailed out")

var tapTestLine = regexp.MustCompile(`^(not )?ok\b(?:\s+(\d+))?(?:\s*-)?\s*([^#]*?)\s*(?:#\s*(.*))?$`)

// TAPDecoder decodes Test Anything Protocol streams. Every test point is
// emitted as soon as its line is read; a YAML diagnostic block that follows
// fills in the Message of the already emitted Result. A block ends at "..."
// or at the next unindented line.
type TAPDecoder struct {
	rawLine func(string)
}

// tapState tracks the last emitted result and the YAML block that may
// follow it.
type tapState struct {
	last   *listener.Result
	inYAML bool
	yaml   []string
}

func (s *tapState) endYAML() {
	if s.last != nil && len(s.yaml) > 0 {
		s.last.Message = tapDiagnosticMessage(s.yaml, s.last.Message)
	}
	s.inYAML = false
	s.yaml = nil
}

func isIndented(line string) bool {
	return strings.HasPrefix(line, " ") || strings.HasPrefix(line, "\t")
}

func (d *TAPDecoder) Decode(ctx context.Context, r io.Reader, emit EmitFunc) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	state := &tapState{}
	testCount := 0

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		raw := scanner.Text()

		if state.inYAML {
			switch {
			case strings.TrimSpace(raw) == "...":
				state.endYAML()
				continue
			case isIndented(raw), strings.TrimSpace(raw) == "":
				state.yaml = append(state.yaml, raw)
				continue
			}
			state.endYAML()
		}

		// indented lines are subtests or diagnostics of the current test
		if isIndented(raw) {
			if state.last != nil && strings.TrimSpace(raw) == "---" {
				state.inYAML = true
			}
			continue
		}

		line := strings.TrimSpace(raw)
		switch {
		case line == "":
			continue
		case strings.HasPrefix(line, "Bail out!"):
			reason := strings.TrimSpace(strings.TrimPrefix(line, "Bail out!"))
			if reason == "" {
				return ErrBailOut
			}
			return fmt.Errorf("%w: %s", ErrBailOut, reason)
		case strings.HasPrefix(line, "TAP version"),
			strings.HasPrefix(line, "1.."),
			strings.HasPrefix(line, "#"):
			continue
		}

		m := tapTestLine.FindStringSubmatch(line)
		if m == nil {
			state.last = nil
			if d.rawLine != nil {
				d.rawLine(raw)
			}
			continue
		}

		testCount++
		name := m[3]
		if name == "" {
			number := m[2]
			if number == "" {
				number = fmt.Sprint(testCount)
			}
			name = "test " + number
		}

		kind, reason := tapKind(m[1] == "", m[4])
		state.last = &listener.Result{Name: name, Message: reason}
		if err := emit(Event{Kind: kind, Result: state.last}); err != nil {
			return err
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading tap stream: %w", err)
	}
	if state.inYAML {
		state.endYAML()
	}
	return nil
}

// tapKind applies the SKIP and TODO directives to an ok / not ok line.
func tapKind(ok bool, directive string) (listener.Kind, string) {
	directive = strings.TrimSpace(directive)
	upper := strings.ToUpper(directive)

	switch {
	case strings.HasPrefix(upper, "SKIP"):
		return listener.KindSkipped, strings.TrimSpace(directive[len("SKIP"):])
	case strings.HasPrefix(upper, "TODO") && !ok:
		return listener.KindSkipped, strings.TrimSpace(directive[len("TODO"):])
	case ok:
		return listener.KindSuccess, ""
	}
	return listener.KindFailure, ""
}

// tapDiagnosticMessage extracts the message from a YAML diagnostic block,
// falling back to the block itself when it has no message key.
func tapDiagnosticMessage(lines []string, fallback string) string {
	block := strings.Join(lines, "\n")

	var diag map[string]any
	if err := yaml.Unmarshal([]byte(block), &diag); err == nil {
		if msg, ok := diag["message"].(string); ok && msg != "" {
			return msg
		}
		if failures, ok := diag["failures"].([]any); ok && len(failures) > 0 {
			parts := make([]string, 0, len(failures))
			for _, f := range failures {
				parts = append(parts, fmt.Sprint(f))
			}
			return strings.Join(parts, "; ")
		}
	}

	if fallback != "" {
		return fallback
	}
	return strings.TrimSpace(block)
}
