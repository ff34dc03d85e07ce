package playbook

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/loadinglucian/deployer-php-sub001/internal/domain"
)

// remoteTmpDir roots all output-channel files on the remote host. The
// helper library creates it before the playbook body runs.
const remoteTmpDir = "/tmp/deployer"

// OutputChannel is the temporary remote file a playbook writes its
// structured result to. Each execution gets a fresh, collision-resistant
// path; channels are never reused.
type OutputChannel struct {
	Path string
}

// NewOutputChannel allocates a unique remote path from a timestamp plus a
// random suffix.
func NewOutputChannel() OutputChannel {
	suffix := strings.SplitN(uuid.NewString(), "-", 2)[0]
	return OutputChannel{
		Path: fmt.Sprintf("%s/out-%d-%s.yml", remoteTmpDir, time.Now().UnixNano(), suffix),
	}
}

// ReadCommand returns the single idempotent shell command that returns the
// result and removes the file in one invocation, so a successful read
// never leaves temp files behind.
func (c OutputChannel) ReadCommand() string {
	return fmt.Sprintf("cat -- %s && rm -f -- %s", c.Path, c.Path)
}

// Decode parses the document read back from the channel into a generic
// string-keyed map.
//
// An empty document, a decode failure, or a non-map top level all wrap
// domain.ErrMalformedResult; the channel never fabricates a default
// result.
func Decode(data []byte) (map[string]any, error) {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" {
		return nil, fmt.Errorf("playbook: empty result document: %w", domain.ErrMalformedResult)
	}

	var doc any
	if err := yaml.Unmarshal([]byte(trimmed), &doc); err != nil {
		return nil, fmt.Errorf("playbook: unparsable result document: %w: %v", domain.ErrMalformedResult, err)
	}

	result, ok := doc.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("playbook: result document is not a map (got %T): %w", doc, domain.ErrMalformedResult)
	}

	return result, nil
}
