package inject

import (
	"context"
	"os"
	"time"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/mount"
	"github.com/docker/docker/client"
)

// candidateSockets lists the well-known Docker-compatible runtime socket
// paths this planner is willing to probe, in priority order.
var candidateSockets = []string{
	"/var/run/docker.sock",
	"/run/docker.sock",
	os.ExpandEnv("$HOME/.docker/run/docker.sock"),
	"/var/run/podman/podman.sock",
}

// probeImage is a minimal image expected to already be present on hosts
// running compose workloads; the probe fails the candidate (rather than
// erroring the whole planner run) if it cannot be used.
const probeImage = "busybox"

// probeTimeout bounds each candidate's trial mount so an unreachable
// daemon doesn't stall the planner.
const probeTimeout = 5 * time.Second

// FindRuntimeSocket tries each candidate socket path by actually starting a
// throwaway container with it bind-mounted and checking the node appears
// inside — a stat() on the host path is not sufficient, since a path can
// exist but not be mountable into a container (rootless setups, SELinux,
// remote contexts). Returns "" with no error if nothing passed: the bridge
// features are then disabled rather than the whole run failing.
func FindRuntimeSocket(ctx context.Context) string {
	for _, sock := range candidateSockets {
		if sock == "" {
			continue
		}
		if _, err := os.Stat(sock); err != nil {
			continue
		}
		if testSocketMount(ctx, sock) {
			return sock
		}
	}
	return ""
}

func testSocketMount(ctx context.Context, sock string) bool {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	cli, err := client.NewClientWithOpts(client.WithHost("unix://"+sock), client.WithAPIVersionNegotiation())
	if err != nil {
		return false
	}
	defer cli.Close()

	resp, err := cli.ContainerCreate(ctx, &container.Config{
		Image: probeImage,
		Cmd:   []string{"test", "-S", "/tmp/probe.sock"},
	}, &container.HostConfig{
		Mounts: []mount.Mount{
			{Type: mount.TypeBind, Source: sock, Target: "/tmp/probe.sock"},
		},
		AutoRemove: true,
	}, nil, nil, "")
	if err != nil {
		return false
	}

	if err := cli.ContainerStart(ctx, resp.ID, types.ContainerStartOptions{}); err != nil {
		return false
	}

	statusCh, errCh := cli.ContainerWait(ctx, resp.ID, container.WaitConditionNotRunning)
	select {
	case err := <-errCh:
		return err == nil
	case status := <-statusCh:
		return status.StatusCode == 0
	case <-ctx.Done():
		return false
	}
}
