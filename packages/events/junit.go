package events

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/dotrun/packages/listener"
)

// JUnit XML structures

// JUnitTestSuites is the root element of multi-suite reports
type JUnitTestSuites struct {
	XMLName    xml.Name         `xml:"testsuites"`
	Name       string           `xml:"name,attr,omitempty"`
	TestSuites []JUnitTestSuite `xml:"testsuite"`
}

// JUnitTestSuite is a suite of test cases. Some producers nest suites.
type JUnitTestSuite struct {
	XMLName    xml.Name         `xml:"testsuite"`
	Name       string           `xml:"name,attr"`
	TestSuites []JUnitTestSuite `xml:"testsuite"`
	TestCases  []JUnitTestCase  `xml:"testcase"`
}

// JUnitTestCase represents a single test case
type JUnitTestCase struct {
	Name      string        `xml:"name,attr"`
	ClassName string        `xml:"classname,attr"`
	Time      float64       `xml:"time,attr"`
	Failure   *JUnitFailure `xml:"failure"`
	Error     *JUnitFailure `xml:"error"`
	Skipped   *JUnitSkipped `xml:"skipped"`
	SystemOut string        `xml:"system-out"`
}

// JUnitFailure represents a test failure or error
type JUnitFailure struct {
	Message string `xml:"message,attr"`
	Type    string `xml:"type,attr"`
	Content string `xml:",chardata"`
}

// JUnitSkipped represents a skipped test
type JUnitSkipped struct {
	Message string `xml:"message,attr"`
}

// JUnitDecoder decodes JUnit XML reports. The whole document is read before
// any event is emitted. A suite's own test cases are emitted before those of
// its nested suites.
type JUnitDecoder struct{}

func (d *JUnitDecoder) Decode(ctx context.Context, r io.Reader, emit EmitFunc) error {
	dec := xml.NewDecoder(r)

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading junit report: %w", err)
		}

		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}

		var suites []JUnitTestSuite
		switch start.Name.Local {
		case "testsuites":
			var root JUnitTestSuites
			if err := dec.DecodeElement(&root, &start); err != nil {
				return fmt.Errorf("decoding junit testsuites: %w", err)
			}
			suites = root.TestSuites
		case "testsuite":
			var suite JUnitTestSuite
			if err := dec.DecodeElement(&suite, &start); err != nil {
				return fmt.Errorf("decoding junit testsuite: %w", err)
			}
			suites = []JUnitTestSuite{suite}
		default:
			return fmt.Errorf("unexpected junit root element <%s>", start.Name.Local)
		}

		for _, suite := range suites {
			if err := emitSuite(ctx, suite, emit); err != nil {
				return err
			}
		}
		return nil
	}
}

func emitSuite(ctx context.Context, suite JUnitTestSuite, emit EmitFunc) error {
	for _, tc := range suite.TestCases {
		if err := ctx.Err(); err != nil {
			return err
		}

		pkg := tc.ClassName
		if pkg == "" {
			pkg = suite.Name
		}
		result := &listener.Result{
			Package: pkg,
			Name:    tc.Name,
			Elapsed: time.Duration(tc.Time * float64(time.Second)),
			Output:  tc.SystemOut,
		}

		kind := listener.KindSuccess
		switch {
		case tc.Failure != nil:
			kind = listener.KindFailure
			result.Message = failureMessage(tc.Failure)
		case tc.Error != nil:
			kind = listener.KindFailure
			result.Message = failureMessage(tc.Error)
		case tc.Skipped != nil:
			kind = listener.KindSkipped
			result.Message = tc.Skipped.Message
		}

		if err := emit(Event{Kind: kind, Result: result}); err != nil {
			return err
		}
	}

	for _, nested := range suite.TestSuites {
		if err := emitSuite(ctx, nested, emit); err != nil {
			return err
		}
	}
	return nil
}

func failureMessage(f *JUnitFailure) string {
	if f.Message != "" {
		return f.Message
	}
	content := strings.TrimSpace(f.Content)
	first, _, _ := strings.Cut(content, "\n")
	return first
}
