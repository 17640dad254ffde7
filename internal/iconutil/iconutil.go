package iconutil

import (
	"fmt"
	"os/exec"
)

// Pack assembles iconsetDir into an .icns file using the iconutil tool.
// Returns an error if iconutil is not found on PATH.
func Pack(iconsetDir, outPath string) error {
	if _, err := exec.LookPath("iconutil"); err != nil {
		return fmt.Errorf("iconutil not found on PATH (macOS required, or use --native): %w", err)
	}
	cmd := exec.Command("iconutil", "-c", "icns", iconsetDir, "-o", outPath)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("iconutil: %w\n%s", err, out)
	}
	return nil
}
