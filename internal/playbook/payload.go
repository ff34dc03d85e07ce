package playbook

import (
	"fmt"
	"strings"
)

// heredocMarker delimits the script body. Quoting it on the invocation
// line makes the remote shell treat the body as a single literal unit, so
// the scripts' own quoting never needs escaping.
const heredocMarker = "DEPLOYER_SCRIPT_EOF"

// Payload is the complete unit shipped to the remote host: the shared
// helper library, the playbook body, and the variable bindings. Keeping
// it a value type keeps escaping centralized and testable without a
// connection.
type Payload struct {
	// Helper is the shared function library sourced ahead of every
	// playbook (package-manager retry helpers and the like).
	Helper string

	// Script is the playbook body.
	Script string

	// Vars are exported into the subshell's environment for the duration
	// of the invocation only; they never persist in the remote shell's
	// environment or history.
	Vars *Vars
}

// Command renders the payload as a single remote shell invocation:
//
//	VAR1=... VAR2=... bash -s <<'DEPLOYER_SCRIPT_EOF'
//	<helper library>
//	<script body>
//	DEPLOYER_SCRIPT_EOF
func (p Payload) Command() (string, error) {
	body := strings.TrimRight(p.Helper, "\n") + "\n" + strings.TrimRight(p.Script, "\n")

	if strings.Contains(body, heredocMarker) {
		return "", fmt.Errorf("playbook: script body contains the heredoc marker %q", heredocMarker)
	}

	var b strings.Builder
	if p.Vars != nil && len(p.Vars.pairs) > 0 {
		b.WriteString(p.Vars.ShellPrefix())
		b.WriteString(" ")
	}
	b.WriteString("bash -s <<'")
	b.WriteString(heredocMarker)
	b.WriteString("'\n")
	b.WriteString(body)
	b.WriteString("\n")
	b.WriteString(heredocMarker)
	b.WriteString("\n")

	return b.String(), nil
}
