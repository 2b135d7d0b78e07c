package runner

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/abdul-hamid-achik/dotrun/packages/events"
	"github.com/abdul-hamid-achik/dotrun/packages/listener"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const stream = `{"Action":"run","Package":"p","Test":"TestA"}
{"Action":"pass","Package":"p","Test":"TestA","Elapsed":0.01}
{"Action":"output","Package":"p","Test":"TestB","Output":"    b_test.go:9: boom\n"}
{"Action":"fail","Package":"p","Test":"TestB","Elapsed":0.02}
{"Action":"skip","Package":"p","Test":"TestC"}
{"Action":"pass","Package":"p","Test":"TestD"}
{"Action":"fail","Package":"p","Elapsed":0.1}
`

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// recorder captures callbacks as a symbol string.
type recorder struct {
	symbols strings.Builder
	names   []string
}

func (r *recorder) listener() listener.Listener {
	add := func(sym string) func(*listener.Result) {
		return func(res *listener.Result) {
			r.symbols.WriteString(sym)
			r.names = append(r.names, res.Name)
		}
	}
	return listener.Funcs{Failure: add("F"), Skipped: add("S"), Success: add(".")}
}

func writeStream(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "stream.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestNewRunner(t *testing.T) {
	t.Run("with nil config", func(t *testing.T) {
		r := NewRunner(nil)
		assert.NotNil(t, r)
		assert.NotNil(t, r.logger)
		assert.Equal(t, events.FormatGo, r.config.Format)
	})

	t.Run("with custom config", func(t *testing.T) {
		r := NewRunner(&Config{Format: events.FormatTAP, Bail: true})
		assert.Equal(t, events.FormatTAP, r.config.Format)
		assert.True(t, r.config.Bail)
	})
}

func TestRunner_Run(t *testing.T) {
	path := writeStream(t, stream)
	rec := &recorder{}

	r := NewRunner(&Config{Command: []string{"sh", "-c", "cat " + path + "; exit 1"}}, WithLogger(quietLogger()))
	result, err := r.Run(context.Background(), rec.listener())

	require.NoError(t, err)
	assert.Equal(t, ".FS.", rec.symbols.String())
	assert.Equal(t, []string{"TestA", "TestB", "TestC", "TestD"}, rec.names)
	assert.Equal(t, 2, result.Passed)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, 4, result.Total())
	assert.Equal(t, 1, result.ExitCode)
	assert.NotEmpty(t, result.Session)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, "b_test.go:9: boom", result.Failures[0].Message)
}

func TestRunner_Run_EmptyCommand(t *testing.T) {
	_, err := NewRunner(&Config{}).Run(context.Background(), listener.Adapter{})
	assert.ErrorIs(t, err, ErrEmptyCommand)
}

func TestRunner_Run_CommandNotFound(t *testing.T) {
	r := NewRunner(&Config{Command: []string{"dotrun-definitely-missing-binary"}}, WithLogger(quietLogger()))
	_, err := r.Run(context.Background(), listener.Adapter{})
	assert.ErrorIs(t, err, ErrCommandStart)
}

func TestRunner_Run_NonZeroExitWithoutFailures(t *testing.T) {
	var stderr bytes.Buffer
	r := NewRunner(&Config{
		Command: []string{"sh", "-c", "echo 'build failed' >&2; exit 3"},
		Stderr:  &stderr,
	}, WithLogger(quietLogger()))

	result, err := r.Run(context.Background(), listener.Adapter{})
	assert.ErrorIs(t, err, ErrCommandFailed)
	require.NotNil(t, result)
	assert.Equal(t, 3, result.ExitCode)
	assert.Equal(t, 0, result.Total())
	assert.Equal(t, "build failed\n", stderr.String())
}

func TestRunner_Run_Bail(t *testing.T) {
	path := writeStream(t, stream)
	rec := &recorder{}

	r := NewRunner(&Config{
		Command: []string{"sh", "-c", "cat " + path},
		Bail:    true,
	}, WithLogger(quietLogger()))

	result, err := r.Run(context.Background(), rec.listener())
	require.NoError(t, err)
	assert.True(t, result.Bailed)
	assert.Equal(t, ".F", rec.symbols.String())
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, 1, result.Passed)
}

func TestRunner_Run_EnvAndDir(t *testing.T) {
	dir := t.TempDir()
	script := `#!/bin/sh
printf '{"Action":"pass","Package":"%s","Test":"%s"}\n' "$(basename "$(pwd -P)")" "$DOTRUN_TEST_NAME"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "run.sh"), []byte(script), 0755))

	rec := &recorder{}
	var pkgs []string
	l := listener.Multi{rec.listener(), listener.Funcs{Success: func(r *listener.Result) { pkgs = append(pkgs, r.Package) }}}

	r := NewRunner(&Config{
		Command: []string{"./run.sh"},
		Dir:     dir,
		Env:     map[string]string{"DOTRUN_TEST_NAME": "TestFromEnv"},
	}, WithLogger(quietLogger()))

	result, err := r.Run(context.Background(), l)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Passed)
	assert.Equal(t, []string{"TestFromEnv"}, rec.names)
	assert.Equal(t, []string{filepath.Base(dir)}, pkgs)
}

func TestRunner_Run_RawOutput(t *testing.T) {
	path := writeStream(t, stream)
	var raw bytes.Buffer

	r := NewRunner(&Config{
		Command:   []string{"sh", "-c", "echo 'warning: something'; cat " + path},
		RawOutput: &raw,
	}, WithLogger(quietLogger()))

	_, err := r.Run(context.Background(), listener.Adapter{})
	require.NoError(t, err)
	assert.Equal(t, "warning: something\n", raw.String())
}

func TestRunner_Run_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := NewRunner(&Config{Command: []string{"sh", "-c", "sleep 5"}}, WithLogger(quietLogger()))
	_, err := r.Run(ctx, listener.Adapter{})
	assert.Error(t, err)
}

func TestRunner_Replay(t *testing.T) {
	t.Run("go stream", func(t *testing.T) {
		rec := &recorder{}
		r := NewRunner(nil, WithLogger(quietLogger()))

		result, err := r.Replay(context.Background(), strings.NewReader(stream), "stream.json", rec.listener())
		require.NoError(t, err)
		assert.Equal(t, ".FS.", rec.symbols.String())
		assert.Equal(t, "stream.json", result.Source)
		assert.Equal(t, 0, result.ExitCode)
	})

	t.Run("tap stream with bail", func(t *testing.T) {
		rec := &recorder{}
		r := NewRunner(&Config{Format: events.FormatTAP, Bail: true}, WithLogger(quietLogger()))

		result, err := r.Replay(context.Background(), strings.NewReader("ok 1 - a\nnot ok 2 - b\nok 3 - c\n"), "-", rec.listener())
		require.NoError(t, err)
		assert.True(t, result.Bailed)
		assert.Equal(t, ".F", rec.symbols.String())
	})

	t.Run("decode error", func(t *testing.T) {
		r := NewRunner(&Config{Format: events.FormatJUnit}, WithLogger(quietLogger()))

		_, err := r.Replay(context.Background(), strings.NewReader("<report/>"), "report.xml", listener.Adapter{})
		assert.ErrorContains(t, err, "decoding junit stream")
	})
}

func TestMergeEnv(t *testing.T) {
	base := []string{"A=1", "B=2"}

	assert.Equal(t, base, mergeEnv(base, nil))
	assert.Equal(t, []string{"A=1", "B=2", "A=9", "C=3"}, mergeEnv(base, map[string]string{"C": "3", "A": "9"}))
}

func TestResolveExecutable(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "only-here.sh"), []byte("#!/bin/sh\n"), 0755))

	assert.Equal(t, "go", resolveExecutable("go", ""))
	assert.Equal(t, filepath.Join(dir, "run.sh"), resolveExecutable("./run.sh", dir))
	assert.Equal(t, filepath.Join(dir, "only-here.sh"), resolveExecutable("only-here.sh", dir))
	assert.Equal(t, "sh", resolveExecutable("sh", dir))
	assert.Equal(t, "/bin/true", resolveExecutable("/bin/true", dir))
}
