package events

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/dotrun/packages/listener"
	"github.com/tidwall/gjson"
)

// test2json actions that finish a test.
const (
	actionPass   = "pass"
	actionFail   = "fail"
	actionSkip   = "skip"
	actionOutput = "output"
)

// GoTestDecoder decodes the output of "go test -json".
type GoTestDecoder struct {
	rawLine func(string)
}

func (d *GoTestDecoder) Decode(ctx context.Context, r io.Reader, emit EmitFunc) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	// test output accumulated until the test finishes, keyed by package and name
	outputs := make(map[string]*strings.Builder)

	lineNum := 0
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		lineNum++

		line := scanner.Bytes()
		if len(strings.TrimSpace(string(line))) == 0 {
			continue
		}
		if !gjson.ValidBytes(line) || line[0] != '{' {
			if d.rawLine != nil {
				d.rawLine(string(line))
			}
			continue
		}

		fields := gjson.GetManyBytes(line, "Action", "Package", "Test", "Elapsed", "Output")
		action := fields[0].String()
		pkg := fields[1].String()
		test := fields[2].String()

		// package level events carry no test name
		if test == "" {
			continue
		}

		key := pkg + "\x00" + test
		switch action {
		case actionOutput:
			b, ok := outputs[key]
			if !ok {
				b = &strings.Builder{}
				outputs[key] = b
			}
			b.WriteString(fields[4].String())
			continue
		case actionPass, actionFail, actionSkip:
		default:
			continue
		}

		result := &listener.Result{
			Package: pkg,
			Name:    test,
			Elapsed: time.Duration(fields[3].Float() * float64(time.Second)),
		}
		if b, ok := outputs[key]; ok {
			result.Output = b.String()
			delete(outputs, key)
		}

		var kind listener.Kind
		switch action {
		case actionFail:
			kind = listener.KindFailure
			result.Message = locationLine(result.Output)
		case actionSkip:
			kind = listener.KindSkipped
			result.Message = locationLine(result.Output)
		default:
			kind = listener.KindSuccess
		}

		if err := emit(Event{Kind: kind, Result: result}); err != nil {
			return err
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading go test stream at line %d: %w", lineNum, err)
	}
	return nil
}

// locationLine returns the first "file_test.go:NN: message" line of a test's
// output, which is where t.Error, t.Fatal and t.Skip report.
func locationLine(output string) string {
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "---") || strings.HasPrefix(line, "===") {
			continue
		}
		if i := strings.Index(line, ".go:"); i > 0 {
			return line
		}
	}
	return ""
}
