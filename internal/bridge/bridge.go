// Package bridge is the façade's optional client of a local
// Docker-compatible container-runtime socket, used for log tail and
// deployment restart. Every failure degrades to a sentinel error the
// caller maps to HTTP 501 — the bridge never turns an upstream problem
// into a 5xx.
package bridge

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"
	"github.com/docker/go-connections/nat"

	"github.com/baptisterajaut/h2c-api/internal/compose"
)

// ErrUnavailable means the bridge could not reach the runtime socket at
// all (absent, connection refused, or non-2xx). Callers map it to 501.
var ErrUnavailable = fmt.Errorf("container runtime bridge unavailable")

// Bridge wraps a Docker SDK client dialing a Unix-domain socket.
type Bridge struct {
	cli *client.Client
}

// New dials socketPath. It never fails: connection health is verified lazily
// on first use, matching the bridge's "degrade to 501 per request" contract
// rather than a global up/down flag.
func New(socketPath string) (*Bridge, error) {
	cli, err := client.NewClientWithOpts(
		client.WithHost("unix://"+socketPath),
		client.WithAPIVersionNegotiation(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to construct runtime client: %w", err)
	}
	return &Bridge{cli: cli}, nil
}

// findContainer resolves a compose service's running container, trying the
// compose-label query first, the classic "<project>_<service>_1" name next,
// and finally a nat.Port-shaped match against the service's declared ports
// — the exact scheme depends on which orchestrator wrote the containers, so
// all three are tried before giving up.
func (b *Bridge) findContainer(ctx context.Context, project, service string, ports []compose.Port) (string, error) {
	f := filters.NewArgs()
	f.Add("label", "com.docker.compose.project="+project)
	f.Add("label", "com.docker.compose.service="+service)

	containers, err := b.cli.ContainerList(ctx, types.ContainerListOptions{Filters: f})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if len(containers) > 0 {
		return containers[0].ID, nil
	}

	legacy := fmt.Sprintf("%s_%s_1", project, service)
	if inspect, err := b.cli.ContainerInspect(ctx, legacy); err == nil {
		return inspect.ID, nil
	}

	if id, err := b.findContainerByPort(ctx, ports); err == nil {
		return id, nil
	}

	return "", fmt.Errorf("%w: no container for %s/%s", ErrUnavailable, project, service)
}

// findContainerByPort matches a running container against the service's
// declared target ports, shaped as nat.Port the same way the teacher's
// ContainerInspectPorts read a container's published bindings back — the
// fallback that survives when both the compose labels and the conventional
// container name have been stripped by an intermediate orchestrator.
func (b *Bridge) findContainerByPort(ctx context.Context, ports []compose.Port) (string, error) {
	if len(ports) == 0 {
		return "", fmt.Errorf("no declared ports to match against")
	}
	want := make(map[nat.Port]bool, len(ports))
	for _, p := range ports {
		proto := p.Protocol
		if proto == "" {
			proto = "tcp"
		}
		port, err := nat.NewPort(proto, strconv.Itoa(int(p.Target)))
		if err != nil {
			continue
		}
		want[port] = true
	}

	containers, err := b.cli.ContainerList(ctx, types.ContainerListOptions{})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	for _, c := range containers {
		for _, cp := range c.Ports {
			port, err := nat.NewPort(cp.Type, strconv.Itoa(int(cp.PrivatePort)))
			if err != nil {
				continue
			}
			if want[port] {
				return c.ID, nil
			}
		}
	}
	return "", fmt.Errorf("no container exposes the declared ports")
}

// FindContainer exposes findContainer's resolution without starting a log
// or restart operation, so a caller can distinguish "socket unreachable"
// from "socket reachable but no such container" before committing a
// response.
func (b *Bridge) FindContainer(ctx context.Context, project, service string, ports []compose.Port) (string, error) {
	return b.findContainer(ctx, project, service, ports)
}

// LogOptions controls Logs' behaviour.
type LogOptions struct {
	TailLines  string
	Timestamps bool
	Follow     bool
}

// Logs streams a service's container log to w. Follow mode returns once ctx
// is cancelled (the caller ties ctx to the client connection's lifetime),
// closing the upstream read within a bounded time.
func (b *Bridge) Logs(ctx context.Context, project, service string, ports []compose.Port, opts LogOptions, w io.Writer) error {
	id, err := b.findContainer(ctx, project, service, ports)
	if err != nil {
		return err
	}

	tail := opts.TailLines
	if tail == "" {
		tail = "all"
	}

	rc, err := b.cli.ContainerLogs(ctx, id, types.ContainerLogsOptions{
		ShowStdout: true,
		ShowStderr: true,
		Tail:       tail,
		Timestamps: opts.Timestamps,
		Follow:     opts.Follow,
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer rc.Close()

	// Container log streams over the Docker API are multiplexed
	// stdout/stderr frames; stdcopy demultiplexes them into plain bytes.
	if _, err := stdcopy.StdCopy(w, w, rc); err != nil && err != io.EOF {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Restart stops and starts the container backing a compose service,
// implementing the "rollout restart" idiom for a Deployment PATCH whose
// body touches the pod template annotations.
func (b *Bridge) Restart(ctx context.Context, project, service string, ports []compose.Port) error {
	id, err := b.findContainer(ctx, project, service, ports)
	if err != nil {
		return err
	}
	timeout := 10
	if err := b.cli.ContainerRestart(ctx, id, container.StopOptions{Timeout: &timeout}); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Ping is a cheap reachability check used to decide whether restart/log
// endpoints should even attempt an upstream call.
func (b *Bridge) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if _, err := b.cli.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}
