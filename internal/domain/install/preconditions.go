package install

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/felixgeelhaar/fctl/internal/ports"
)

// Default resource floors for a facilitator host.
const (
	DefaultMinDiskMB   = 5120
	DefaultMinMemoryMB = 1024
)

// Preconditions verifies the host can sustain a run before any step
// mutates it: root privileges, required input files, free disk and
// memory. Any failure aborts the run up front.
type Preconditions struct {
	fs            ports.FileSystem
	runner        ports.CommandRunner
	root          string
	requiredFiles []string
	minDiskMB     int64
	minMemoryMB   int64
	euid          func() int
}

// NewPreconditions creates a precondition verifier for the deploy root.
func NewPreconditions(fs ports.FileSystem, runner ports.CommandRunner, root string) *Preconditions {
	return &Preconditions{
		fs:          fs,
		runner:      runner,
		root:        root,
		minDiskMB:   DefaultMinDiskMB,
		minMemoryMB: DefaultMinMemoryMB,
		euid:        os.Geteuid,
	}
}

// WithRequiredFiles returns a copy that also verifies the given files exist.
func (p *Preconditions) WithRequiredFiles(paths ...string) *Preconditions {
	c := *p
	c.requiredFiles = append([]string{}, paths...)
	return &c
}

// WithResourceFloors returns a copy with custom disk and memory floors.
// A zero floor disables that check.
func (p *Preconditions) WithResourceFloors(diskMB, memoryMB int64) *Preconditions {
	c := *p
	c.minDiskMB = diskMB
	c.minMemoryMB = memoryMB
	return &c
}

// WithEUID returns a copy using the given effective-UID source.
func (p *Preconditions) WithEUID(euid func() int) *Preconditions {
	c := *p
	c.euid = euid
	return &c
}

// Verify checks all preconditions and returns the first failure.
func (p *Preconditions) Verify(ctx context.Context) error {
	if p.euid() != 0 {
		return NewPreconditionError("fctl must run as root to manage system packages and services").
			WithSuggestion("Re-run the command with sudo.")
	}

	if p.fs.Exists(p.root) && !p.fs.IsDir(p.root) {
		return NewPreconditionError(fmt.Sprintf("deploy root %s exists but is not a directory", p.root))
	}

	for _, f := range p.requiredFiles {
		if !p.fs.Exists(f) {
			return NewPreconditionError(fmt.Sprintf("required file %s does not exist", f)).
				WithSuggestion("Check the path or create the file before re-running.")
		}
	}

	if p.minDiskMB > 0 {
		if err := p.verifyDisk(ctx); err != nil {
			return err
		}
	}
	if p.minMemoryMB > 0 {
		if err := p.verifyMemory(); err != nil {
			return err
		}
	}
	return nil
}

func (p *Preconditions) verifyDisk(ctx context.Context) error {
	target := p.root
	if !p.fs.Exists(target) {
		target = "/"
	}

	availableMB, ok := FreeDiskMB(ctx, p.runner, target)
	if !ok {
		// Cannot determine free space here; step actions will surface
		// real failures.
		return nil
	}
	if availableMB < p.minDiskMB {
		return NewPreconditionError(
			fmt.Sprintf("insufficient disk space: %d MB available, %d MB required", availableMB, p.minDiskMB)).
			WithSuggestion("Free disk space or deploy to a larger volume.")
	}
	return nil
}

func (p *Preconditions) verifyMemory() error {
	totalMB, ok := MemTotalMB(p.fs)
	if !ok {
		return nil
	}
	if totalMB < p.minMemoryMB {
		return NewPreconditionError(
			fmt.Sprintf("insufficient memory: %d MB total, %d MB required", totalMB, p.minMemoryMB)).
			WithSuggestion("The facilitator and its proxy need more memory to run reliably.")
	}
	return nil
}

// FreeDiskMB reports the free megabytes on the filesystem holding path.
// ok is false when the probe cannot tell.
func FreeDiskMB(ctx context.Context, runner ports.CommandRunner, path string) (int64, bool) {
	result, err := runner.Run(ctx, "df", "-Pk", path)
	if err != nil || !result.Success() {
		return 0, false
	}
	return parseDFAvailableMB(result.Stdout)
}

// MemTotalMB reports the host's total memory in megabytes. ok is false
// when the probe cannot tell.
func MemTotalMB(fs ports.FileSystem) (int64, bool) {
	data, err := fs.ReadFile("/proc/meminfo")
	if err != nil {
		return 0, false
	}
	return parseMemTotalMB(string(data))
}

// parseDFAvailableMB extracts the available column from POSIX df -Pk
// output and converts it to megabytes.
func parseDFAvailableMB(out string) (int64, bool) {
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) < 2 {
		return 0, false
	}
	fields := strings.Fields(lines[len(lines)-1])
	if len(fields) < 4 {
		return 0, false
	}
	kb, err := strconv.ParseInt(fields[3], 10, 64)
	if err != nil {
		return 0, false
	}
	return kb / 1024, true
}

// parseMemTotalMB extracts MemTotal from /proc/meminfo content.
func parseMemTotalMB(content string) (int64, bool) {
	for _, line := range strings.Split(content, "\n") {
		if !strings.HasPrefix(line, "MemTotal:") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return 0, false
		}
		kb, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			return 0, false
		}
		return kb / 1024, true
	}
	return 0, false
}
