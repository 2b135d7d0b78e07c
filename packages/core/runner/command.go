package runner

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
)

// buildCommand prepares the test command. Relative executables ("./run.sh")
// and scripts that only exist in the working directory resolve against Dir.
func (r *Runner) buildCommand(ctx context.Context) *exec.Cmd {
	argv := append([]string(nil), r.config.Command...)
	argv[0] = resolveExecutable(argv[0], r.config.Dir)

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = r.config.Dir
	cmd.Env = mergeEnv(os.Environ(), r.config.Env)
	cmd.Stderr = r.stderr()
	cmd.WaitDelay = DefaultWaitDelay
	return cmd
}

func resolveExecutable(executable, dir string) string {
	if dir == "" {
		return executable
	}
	if strings.HasPrefix(executable, "./") || strings.HasPrefix(executable, "../") {
		return filepath.Join(dir, executable)
	}
	if !filepath.IsAbs(executable) && !isInPath(executable) {
		potentialPath := filepath.Join(dir, executable)
		if _, err := os.Stat(potentialPath); err == nil {
			return potentialPath
		}
	}
	return executable
}

// mergeEnv appends extra to base in key order. exec uses the last value of a
// duplicated key, so extra wins over the inherited environment.
func mergeEnv(base []string, extra map[string]string) []string {
	if len(extra) == 0 {
		return base
	}

	keys := make([]string, 0, len(extra))
	for k := range extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	env := make([]string, 0, len(base)+len(keys))
	env = append(env, base...)
	for _, k := range keys {
		env = append(env, k+"="+extra[k])
	}
	return env
}

// isInPath checks if a command is available in the system PATH
func isInPath(cmd string) bool {
	_, err := exec.LookPath(cmd)
	return err == nil
}
