package actions

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// runResult captures everything an action interprets about a subprocess:
// exit code, output text and whether the timeout expired.
type runResult struct {
	exitCode int
	stdout   string
	stderr   string
	timedOut bool
}

// errorText returns the most useful diagnostic line for a failed run.
func (r runResult) errorText() string {
	if text := strings.TrimSpace(r.stderr); text != "" {
		return text
	}
	if text := strings.TrimSpace(r.stdout); text != "" {
		return text
	}
	return fmt.Sprintf("exit code %d", r.exitCode)
}

// runCommand executes argv with a hard wall-clock timeout. The process is
// killed on expiry and the result reports timedOut.
func runCommand(ctx context.Context, timeout time.Duration, argv []string) (runResult, error) {
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, argv[0], argv[1:]...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	result := runResult{
		stdout:   stdout.String(),
		stderr:   stderr.String(),
		timedOut: errors.Is(runCtx.Err(), context.DeadlineExceeded),
	}

	if err == nil {
		return result, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		result.exitCode = exitErr.ExitCode()
		return result, nil
	}
	if result.timedOut {
		result.exitCode = -1
		return result, nil
	}

	// Invocation itself failed (binary missing, not executable)
	return result, fmt.Errorf("failed to run %s: %w", argv[0], err)
}

// expandTemplate substitutes {key} placeholders from the mapping.
func expandTemplate(template string, mapping map[string]string) string {
	expanded := template
	for key, value := range mapping {
		expanded = strings.ReplaceAll(expanded, "{"+key+"}", value)
	}
	return expanded
}

// expandTemplateArgs applies expandTemplate to each argument.
func expandTemplateArgs(template []string, mapping map[string]string) []string {
	args := make([]string, 0, len(template))
	for _, arg := range template {
		args = append(args, expandTemplate(arg, mapping))
	}
	return args
}
