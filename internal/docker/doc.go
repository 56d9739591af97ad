// Package docker removes dev containers that belong to a deleted worktree.
//
// A worktree directory is often opened as a dev container, and the
// container outlives the directory unless someone removes it. After a
// delete, wtm looks for containers labeled with the removed path and
// force-removes them. This is best effort: a missing or stopped Docker
// daemon never fails a delete.
//
// The package uses github.com/docker/docker/client as the underlying
// Docker SDK, with version negotiation enabled for broad compatibility.
package docker
