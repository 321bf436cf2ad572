package docker

import (
	"time"
)

// Language describes how to run one language inside a container:
// which image, and the interpreter invocation the code is appended to.
type Language struct {
	Image string
	// Command is the argv the snippet content is appended to, e.g.
	// ["python", "-c"] → ["python", "-c", <code>].
	Command []string
}

// Config holds the sandbox limits and the language table.
type Config struct {
	// MemoryLimit caps container memory, in bytes.
	MemoryLimit int64
	// CPULimit is the number of CPUs the container can use.
	CPULimit float64
	// Timeout is the wall-clock cap per run.
	Timeout time.Duration
	// Languages maps a snippet's (lowercased) language to its sandbox.
	Languages map[string]Language
}

// DefaultConfig covers the interpreted languages snippets are most
// often saved as. Alpine images keep pulls small.
func DefaultConfig() Config {
	return Config{
		MemoryLimit: 128 * 1024 * 1024, // 128 MB
		CPULimit:    0.5,
		Timeout:     5 * time.Second,
		Languages: map[string]Language{
			"python": {
				Image:   "python:3.12-alpine",
				Command: []string{"python", "-c"},
			},
			"javascript": {
				Image:   "node:22-alpine",
				Command: []string{"node", "-e"},
			},
			"ruby": {
				Image:   "ruby:3.3-alpine",
				Command: []string{"ruby", "-e"},
			},
			"bash": {
				Image:   "alpine:3.20",
				Command: []string{"sh", "-c"},
			},
		},
	}
}
