package docker

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/mount"
	"github.com/docker/docker/client"
)

// Client runs one-shot tool containers against the local Docker daemon.
type Client struct {
	cli *client.Client
}

// NewClient connects using the DOCKER_* environment.
func NewClient() (*Client, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("creating docker client: %w", err)
	}
	return &Client{cli: cli}, nil
}

func (c *Client) Close() error {
	return c.cli.Close()
}

// Ping checks the daemon is reachable.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.cli.Ping(ctx)
	return err
}

// Bind mounts a host directory into the container.
type Bind struct {
	Source   string
	Target   string
	ReadOnly bool
}

// Job describes a single tool invocation.
type Job struct {
	Image   string
	Cmd     []string
	WorkDir string
	Binds   []Bind
	Labels  map[string]string
}

// Result is what a finished container left behind.
type Result struct {
	ExitCode int64
	Output   []byte
}

// Run pulls the image when missing, runs the job to completion and removes
// the container. A non-zero exit code is reported in Result, not as an error.
func (c *Client) Run(ctx context.Context, job Job) (Result, error) {
	if err := c.ensureImage(ctx, job.Image); err != nil {
		return Result{}, err
	}

	id, err := c.create(ctx, job)
	if err != nil {
		return Result{}, err
	}
	defer c.cli.ContainerRemove(context.WithoutCancel(ctx), id, container.RemoveOptions{Force: true})

	if err := c.cli.ContainerStart(ctx, id, container.StartOptions{}); err != nil {
		return Result{}, fmt.Errorf("starting container: %w", err)
	}

	code, err := c.wait(ctx, id)
	if err != nil {
		return Result{}, err
	}

	logs, err := c.cli.ContainerLogs(ctx, id, container.LogsOptions{ShowStdout: true})
	if err != nil {
		return Result{}, fmt.Errorf("reading container logs: %w", err)
	}
	defer logs.Close()

	var out bytes.Buffer
	if _, err := io.Copy(&out, logs); err != nil {
		return Result{}, fmt.Errorf("reading container logs: %w", err)
	}
	return Result{ExitCode: code, Output: out.Bytes()}, nil
}

// HasImage reports whether ref is present locally.
func (c *Client) HasImage(ctx context.Context, ref string) (bool, error) {
	images, err := c.cli.ImageList(ctx, image.ListOptions{
		Filters: filters.NewArgs(filters.Arg("reference", ref)),
	})
	if err != nil {
		return false, err
	}
	return len(images) > 0, nil
}

func (c *Client) ensureImage(ctx context.Context, ref string) error {
	ok, err := c.HasImage(ctx, ref)
	if err != nil || ok {
		return err
	}
	rc, err := c.cli.ImagePull(ctx, ref, image.PullOptions{})
	if err != nil {
		return fmt.Errorf("pulling %s: %w", ref, err)
	}
	defer rc.Close()
	_, err = io.Copy(io.Discard, rc)
	return err
}

// create attaches a TTY so the logs come back as one raw stream
// instead of the multiplexed stdout/stderr format.
func (c *Client) create(ctx context.Context, job Job) (string, error) {
	mounts := make([]mount.Mount, len(job.Binds))
	for i, b := range job.Binds {
		mounts[i] = mount.Mount{Type: mount.TypeBind, Source: b.Source, Target: b.Target, ReadOnly: b.ReadOnly}
	}

	resp, err := c.cli.ContainerCreate(ctx,
		&container.Config{
			Image:      job.Image,
			Cmd:        job.Cmd,
			WorkingDir: job.WorkDir,
			Labels:     job.Labels,
			Tty:        true,
		},
		&container.HostConfig{Mounts: mounts},
		nil, nil, "",
	)
	if err != nil {
		return "", fmt.Errorf("creating container: %w", err)
	}
	return resp.ID, nil
}

func (c *Client) wait(ctx context.Context, id string) (int64, error) {
	statusCh, errCh := c.cli.ContainerWait(ctx, id, container.WaitConditionNotRunning)
	select {
	case err := <-errCh:
		return -1, fmt.Errorf("waiting for container: %w", err)
	case status := <-statusCh:
		if status.Error != nil {
			return status.StatusCode, fmt.Errorf("container error: %s", status.Error.Message)
		}
		return status.StatusCode, nil
	case <-ctx.Done():
		return -1, ctx.Err()
	}
}
