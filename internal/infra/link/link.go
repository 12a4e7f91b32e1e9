package link

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Builtin selects the native Symlink linker instead of an external tool.
const Builtin = "builtin"

// Exec runs an external link utility as "<tool> <target> <source>".
type Exec struct {
	Tool string
}

func (e Exec) Link(ctx context.Context, target, source string) error {
	cmd := exec.CommandContext(ctx, e.Tool, target, source)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(out.String()); msg != "" {
			return fmt.Errorf("%s: %w: %s", e.Tool, err, msg)
		}
		return fmt.Errorf("%s: %w", e.Tool, err)
	}
	return nil
}

// Symlink creates the link with the operating system directly.
type Symlink struct{}

func (Symlink) Link(ctx context.Context, target, source string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return os.Symlink(source, target)
}

// Linker is satisfied by Exec and Symlink.
type Linker interface {
	Link(ctx context.Context, target, source string) error
}

// New returns the linker for a tool argument.
func New(tool string) Linker {
	if tool == Builtin {
		return Symlink{}
	}
	return Exec{Tool: tool}
}
