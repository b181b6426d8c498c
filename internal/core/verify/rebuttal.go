package verify

import (
	"fmt"
	"strings"
)

// AssembleRebuttal reformats a FALSE verdict's short reply into the
// fixed myth/fact template. It is deterministic and never calls a
// model; callers invoke it only when Result.Status is FALSE.
func AssembleRebuttal(claimText, shortReply, sources string) string {
	var sb strings.Builder

	sb.WriteString("STATUS: FALSE\n\n")
	fmt.Fprintf(&sb, "MYTH: %s\n", claimText)
	fmt.Fprintf(&sb, "FACT: %s\n\n", shortReply)
	sb.WriteString("⚠ DO NOT FORWARD this message — it has been checked and found false.\n")

	if sources != "" {
		fmt.Fprintf(&sb, "\nSources: %s\n", sources)
	}

	return sb.String()
}
