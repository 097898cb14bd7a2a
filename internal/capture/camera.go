package capture

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// DefaultCameraCommand captures one frame from the first video device.
const DefaultCameraCommand = "fswebcam -r 1280x720 --jpeg 90 --no-banner {out}"

const outPlaceholder = "{out}"

// Camera runs an external capture command. The command line is split on
// whitespace and "{out}" is replaced with the path the image must be written
// to; without a placeholder the path is appended.
type Camera struct {
	args   []string
	outDir string
}

// NewCamera creates a camera that writes captures into outDir.
func NewCamera(command, outDir string) *Camera {
	return &Camera{args: strings.Fields(command), outDir: outDir}
}

// Available checks that the command can be run.
func (c *Camera) Available() error {
	if len(c.args) == 0 {
		return fmt.Errorf("%w: no command configured", ErrCameraUnavailable)
	}
	if _, err := exec.LookPath(c.args[0]); err != nil {
		return fmt.Errorf("%w: %v", ErrCameraUnavailable, err)
	}
	return nil
}

// Prepare builds the capture command and the path it will write.
func (c *Camera) Prepare() (*exec.Cmd, string, error) {
	if err := c.Available(); err != nil {
		return nil, "", err
	}
	if err := os.MkdirAll(c.outDir, 0o700); err != nil {
		return nil, "", fmt.Errorf("failed to create capture directory: %w", err)
	}

	out := filepath.Join(c.outDir, "capture-"+uuid.NewString()+".jpg")
	args := make([]string, 0, len(c.args)+1)
	replaced := false
	for _, a := range c.args[1:] {
		if strings.Contains(a, outPlaceholder) {
			a = strings.ReplaceAll(a, outPlaceholder, out)
			replaced = true
		}
		args = append(args, a)
	}
	if !replaced {
		args = append(args, out)
	}
	return exec.Command(c.args[0], args...), out, nil
}

// Collect turns the finished command into a result. A command that exits
// cleanly without writing an image counts as cancelled.
func (c *Camera) Collect(out string, runErr error) (Result, error) {
	if runErr != nil {
		_ = os.Remove(out)
		return Result{Source: SourceCamera}, fmt.Errorf("camera command failed: %w", runErr)
	}
	if !fileHasContent(out) {
		_ = os.Remove(out)
		return Result{Source: SourceCamera, Cancelled: true}, nil
	}
	return Result{Source: SourceCamera, Ref: out}, nil
}

func fileHasContent(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular() && info.Size() > 0
}
