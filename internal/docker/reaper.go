package docker

import (
	"context"
	"errors"
	"fmt"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"go.uber.org/zap"
)

// Labels that bind a container to a worktree directory. Each value is the
// absolute path of the directory the container was started for.
const (
	// LabelDevcontainerFolder is set by the Dev Containers CLI and editors
	// on every container they start for a workspace folder.
	LabelDevcontainerFolder = "devcontainer.local_folder"

	// LabelWorktreePath is set by worktree-container managed environments.
	LabelWorktreePath = "worktree.worktree-path"
)

// WorktreeLabels are the label keys searched by ReapWorktree, in order.
var WorktreeLabels = []string{LabelDevcontainerFolder, LabelWorktreePath}

// containerAPI is the subset of the Docker SDK the reaper needs.
type containerAPI interface {
	ContainerList(ctx context.Context, options container.ListOptions) ([]container.Summary, error)
	ContainerRemove(ctx context.Context, containerID string, options container.RemoveOptions) error
}

// Reaper removes the containers bound to a worktree directory. It
// satisfies worktree.ContainerReaper.
type Reaper struct {
	api containerAPI
	log *zap.Logger
}

// NewReaper creates a Reaper backed by c.
func NewReaper(c *Client, log *zap.Logger) *Reaper {
	return newReaper(c.inner, log)
}

func newReaper(api containerAPI, log *zap.Logger) *Reaper {
	if log == nil {
		log = zap.NewNop()
	}
	return &Reaper{api: api, log: log.Named("docker")}
}

// ReapWorktree force-removes every container, running or not, labeled
// with path. It returns the IDs that were removed. A failure for one
// container does not stop the others; all failures are joined into the
// returned error.
func (r *Reaper) ReapWorktree(ctx context.Context, path string) ([]string, error) {
	ids, err := r.find(ctx, path)
	if err != nil {
		return nil, err
	}

	var removed []string
	var errs []error
	for _, id := range ids {
		err := r.api.ContainerRemove(ctx, id, container.RemoveOptions{Force: true})
		if err != nil {
			errs = append(errs, fmt.Errorf("remove container %s: %w", shortID(id), err))
			continue
		}
		r.log.Info("removed container", zap.String("id", shortID(id)), zap.String("path", path))
		removed = append(removed, id)
	}
	return removed, errors.Join(errs...)
}

// find lists the IDs of containers carrying any of WorktreeLabels with
// value path. Docker ANDs label filters, so each label is queried
// separately and the results are merged in first-seen order.
func (r *Reaper) find(ctx context.Context, path string) ([]string, error) {
	seen := make(map[string]struct{})
	var ids []string

	for _, key := range WorktreeLabels {
		summaries, err := r.api.ContainerList(ctx, container.ListOptions{
			All:     true,
			Filters: labelFilter(key, path),
		})
		if err != nil {
			return nil, fmt.Errorf("%w: list containers: %w", ErrUnavailable, err)
		}
		for _, s := range summaries {
			if _, dup := seen[s.ID]; dup {
				continue
			}
			seen[s.ID] = struct{}{}
			ids = append(ids, s.ID)
		}
	}
	return ids, nil
}

// labelFilter builds a server-side filter matching key=value.
func labelFilter(key, value string) filters.Args {
	return filters.NewArgs(filters.Arg("label", key+"="+value))
}

// shortID returns the 12-character form Docker prints.
func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
