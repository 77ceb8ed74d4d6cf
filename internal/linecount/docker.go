package linecount

import (
	"bufio"
	"context"
	"fmt"
	"iter"
	"strings"

	"github.com/drewdunne/difftale/internal/docker"
	"github.com/drewdunne/difftale/internal/runner"
)

// containerRepo is where the project directory is mounted.
const containerRepo = "/repo"

// DockerCounter runs the tool from a container image with the project mounted.
// It is used when the tool is not installed on the host.
type DockerCounter struct {
	client *docker.Client
	image  string
	log    *runner.Log
}

// NewDockerCounter creates a counter that runs image through client and
// records each run in log.
func NewDockerCounter(client *docker.Client, image string, log *runner.Log) *DockerCounter {
	return &DockerCounter{client: client, image: image, log: log}
}

// Lines implements Counter.
func (c *DockerCounter) Lines(ctx context.Context, req Request) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		out, err := c.run(ctx, req)
		if err != nil {
			yield("", err)
			return
		}
		sc := bufio.NewScanner(strings.NewReader(out))
		sc.Buffer(make([]byte, 64*1024), 8*1024*1024)
		for sc.Scan() {
			if !yield(strings.TrimRight(sc.Text(), "\r"), nil) {
				return
			}
		}
	}
}

func (c *DockerCounter) run(ctx context.Context, req Request) (string, error) {
	args := req.Args()
	res, err := c.client.Run(ctx, docker.Job{
		Image:   c.image,
		Cmd:     args,
		WorkDir: containerRepo,
		Binds:   []docker.Bind{{Source: req.Dir, Target: containerRepo, ReadOnly: true}},
		Labels:  map[string]string{"difftale.linecount": "true"},
	})
	if err != nil {
		return "", fmt.Errorf("running %s: %w", c.image, err)
	}

	out := strings.ReplaceAll(string(res.Output), "\r\n", "\n")
	description := "Count changed lines in " + c.image
	cmd := runner.Command{Name: "docker", Args: append([]string{"run", "--rm", c.image}, args...)}
	if res.ExitCode != 0 {
		return "", &runner.CommandError{
			Description: description,
			Command:     cmd.String(),
			Output:      out,
			Err:         fmt.Errorf("exit code %d", res.ExitCode),
		}
	}
	if c.log != nil {
		c.log.Add(fmt.Sprintf("%s: %s", description, cmd))
	}
	return out, nil
}
