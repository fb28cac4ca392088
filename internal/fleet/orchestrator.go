package fleet

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/felixgeelhaar/fctl/internal/domain/config"
	"github.com/felixgeelhaar/fctl/internal/domain/reconcile"
	"github.com/felixgeelhaar/fctl/internal/ports"
	"github.com/felixgeelhaar/fctl/internal/runtime"
)

// DefaultMaxParallel bounds concurrent host connections.
const DefaultMaxParallel = 5

// HostReport is the outcome of one fleet operation on one host.
type HostReport struct {
	Host     string
	Address  string
	Output   string
	Err      error
	Duration time.Duration
}

// Failed reports whether the operation failed on this host.
func (r HostReport) Failed() bool {
	return r.Err != nil
}

// Orchestrator fans a fleet operation out to every host with bounded
// parallelism. One failing host never stops the others.
type Orchestrator struct {
	dialer      Dialer
	logger      ports.Logger
	deps        reconcile.DependencyTable
	maxParallel int
}

// NewOrchestrator creates an orchestrator over the given dialer.
func NewOrchestrator(dialer Dialer, logger ports.Logger) *Orchestrator {
	return &Orchestrator{
		dialer:      dialer,
		logger:      logger,
		deps:        reconcile.DefaultDependencies(),
		maxParallel: DefaultMaxParallel,
	}
}

// WithMaxParallel returns a copy connecting to at most n hosts at once.
func (o *Orchestrator) WithMaxParallel(n int) *Orchestrator {
	c := *o
	if n > 0 {
		c.maxParallel = n
	}
	return &c
}

// Deploy uploads the files to every host's deploy root and restarts the
// services that depend on them.
func (o *Orchestrator) Deploy(ctx context.Context, hosts []config.Host, deployRoot string, files []PushFile) ([]HostReport, error) {
	names := make([]string, 0, len(files))
	for _, f := range files {
		names = append(names, f.Name)
	}
	restartSet := o.deps.RestartSet(names)

	reports := o.fanOut(ctx, hosts, func(ctx context.Context, conn Connection, host config.Host) (string, error) {
		if _, err := runCmd(ctx, conn, "mkdir -p "+deployRoot); err != nil {
			return "", err
		}

		for _, f := range files {
			mode := f.Mode
			if mode == 0 {
				mode = 0o644
			}
			if err := conn.Upload(ctx, f.Content, path.Join(deployRoot, f.Name), mode); err != nil {
				return "", err
			}
		}

		compose := "docker compose -f " + path.Join(deployRoot, runtime.ComposeFileName)
		if _, err := runCmd(ctx, conn, compose+" up -d"); err != nil {
			return "", err
		}
		if len(restartSet) > 0 {
			if _, err := runCmd(ctx, conn, compose+" restart "+strings.Join(restartSet, " ")); err != nil {
				return "", err
			}
		}

		o.logger.Info(ctx, "host deployed",
			ports.F("host", host.Name),
			ports.F("files", len(files)))
		if len(restartSet) == 0 {
			return fmt.Sprintf("pushed %d files", len(files)), nil
		}
		return fmt.Sprintf("pushed %d files, restarted %s", len(files), strings.Join(restartSet, ", ")), nil
	})

	return reports, o.summarize("deploy", reports)
}

// Status asks every host for its service states.
func (o *Orchestrator) Status(ctx context.Context, hosts []config.Host, deployRoot string) ([]HostReport, error) {
	reports := o.fanOut(ctx, hosts, func(ctx context.Context, conn Connection, _ config.Host) (string, error) {
		compose := "docker compose -f " + path.Join(deployRoot, runtime.ComposeFileName)
		result, err := runCmd(ctx, conn, compose+" ps --all --format json")
		if err != nil {
			return "", err
		}

		services, err := runtime.ParseServices(string(result.Stdout))
		if err != nil {
			return "", err
		}
		if len(services) == 0 {
			return "no services", nil
		}

		parts := make([]string, 0, len(services))
		for _, s := range services {
			part := s.Name + ": " + s.State
			if s.Health != "" {
				part += " (" + s.Health + ")"
			}
			parts = append(parts, part)
		}
		return strings.Join(parts, ", "), nil
	})

	return reports, o.summarize("status", reports)
}

// fanOut runs fn against every host, at most maxParallel at a time.
// Each report lands in the slot matching its host, so output order is
// manifest order regardless of completion order.
func (o *Orchestrator) fanOut(ctx context.Context, hosts []config.Host, fn func(context.Context, Connection, config.Host) (string, error)) []HostReport {
	reports := make([]HostReport, len(hosts))

	var g errgroup.Group
	g.SetLimit(o.maxParallel)
	for i, host := range hosts {
		g.Go(func() error {
			start := time.Now()
			output, err := o.onHost(ctx, host, fn)
			if err != nil {
				o.logger.Warn(ctx, "host operation failed",
					ports.F("host", host.Name),
					ports.F("error", err.Error()))
			}
			reports[i] = HostReport{
				Host:     host.Name,
				Address:  host.Address,
				Output:   output,
				Err:      err,
				Duration: time.Since(start),
			}
			return nil
		})
	}
	_ = g.Wait()
	return reports
}

func (o *Orchestrator) onHost(ctx context.Context, host config.Host, fn func(context.Context, Connection, config.Host) (string, error)) (string, error) {
	conn, err := o.dialer.Dial(ctx, host)
	if err != nil {
		return "", err
	}
	defer func() { _ = conn.Close() }()
	return fn(ctx, conn, host)
}

func (o *Orchestrator) summarize(op string, reports []HostReport) error {
	failed := 0
	for _, r := range reports {
		if r.Failed() {
			failed++
		}
	}
	if failed == 0 {
		return nil
	}
	return fmt.Errorf("%s failed on %d of %d hosts", op, failed, len(reports))
}

func runCmd(ctx context.Context, conn Connection, cmd string) (*Result, error) {
	result, err := conn.Run(ctx, cmd)
	if err != nil {
		return nil, err
	}
	if !result.Success() {
		return nil, fmt.Errorf("remote command %q exited %d: %s",
			cmd, result.ExitCode, strings.TrimSpace(string(result.Stderr)))
	}
	return result, nil
}
