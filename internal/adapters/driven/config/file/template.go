package file

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// defaultTemplate is written by Init. Every key is commented out so the
// built-in defaults stay in charge until the user edits the file.
const defaultTemplate = `# notewatch configuration.
# Every scalar key can be overridden with NOTEWATCH_<KEY>, e.g. NOTEWATCH_POLL_INTERVAL=30s.

# Root of the watched notes tree (required).
# notes_dir = "~/notes"

# Where the SQLite database lives. Defaults to the "data" directory next to this file.
# data_dir = "~/.notewatch/data"

# "sqlite" keeps the audit trail; "memory" forgets everything on exit.
# storage = "sqlite"

# poll_interval = "1m"
# tracked_fields = ["assignee", "status"]
# extensions = [".md", ".markdown", ".txt"]
# idempotency_window = "24h"
# handler_timeout = "30s"
# workers = 4

# Handler invocations per second (0 = unlimited) and burst size.
# dispatch_rate = 0
# dispatch_burst = 1

# Wake the loop early on filesystem notifications.
# watch = false

# verbose = false

# The "command" workflow runs an external program with the payload as JSON on stdin.
# [workflows.command]
# argv = ["/usr/local/bin/notify-agent"]

# Rules are evaluated in order. "when" is one of:
# changed, set, cleared, changed_to, changed_from, transition, matches.
#
# [[rules]]
# name = "agent_assignment"
# field = "assignee"
# when = "changed_to"
# value = "agent"
# workflow = "log"
#
# [[rules]]
# name = "review_to_done"
# field = "status"
# when = "transition"
# from = "review"
# value = "done"
# workflow = "command"
# stop = true
`

// Init writes the default configuration file.
func (l *Loader) Init(force bool) error {
	if !force {
		if _, err := os.Stat(l.filePath); err == nil {
			return fmt.Errorf("config file %s already exists", l.filePath)
		} else if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("checking config file: %w", err)
		}
	}

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(l.filePath), 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	// Write with restricted permissions
	if err := os.WriteFile(l.filePath, []byte(defaultTemplate), 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
