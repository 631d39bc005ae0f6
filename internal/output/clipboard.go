package output

import (
	"context"
	"fmt"
	"os/exec"

	"github.com/atotto/clipboard"
)

// writeSystemClipboard is the backend used when no clipboard command is configured.
var writeSystemClipboard = clipboard.WriteAll

// setClipboard writes text through argv, or the system clipboard when argv is empty.
func setClipboard(ctx context.Context, argv []string, text string) error {
	if len(argv) == 0 {
		if err := writeSystemClipboard(text); err != nil {
			return fmt.Errorf("system clipboard: %w", err)
		}
		return nil
	}
	return runCommandWithInput(ctx, argv, text)
}

// runCommandWithInput executes argv and optionally writes input to stdin.
func runCommandWithInput(ctx context.Context, argv []string, input string) error {
	if len(argv) == 0 {
		return fmt.Errorf("command argv cannot be empty")
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("open stdin for %s: %w", argv[0], err)
	}

	if err := cmd.Start(); err != nil {
		_ = stdin.Close()
		return fmt.Errorf("start command %s: %w", argv[0], err)
	}

	if input != "" {
		if _, err := stdin.Write([]byte(input)); err != nil {
			_ = stdin.Close()
			_ = cmd.Wait()
			return fmt.Errorf("write stdin for %s: %w", argv[0], err)
		}
	}
	_ = stdin.Close()

	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("wait for %s: %w", argv[0], err)
	}
	return nil
}
