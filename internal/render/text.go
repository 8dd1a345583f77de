package render

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// WriteText печатает дерево в читаемом виде (используется CLI).
func WriteText(w io.Writer, nodes []Node) error {
	bw := bufio.NewWriter(w)

	for i := range nodes {
		writeNode(bw, nodes[i])
	}

	return bw.Flush()
}

func writeNode(w *bufio.Writer, n Node) {
	pad := strings.Repeat("  ", n.Indent)

	if b := n.Moderation; b != nil {
		fmt.Fprintf(w, "%s! %s: %s\n", pad, b.Title, b.Message)
		if b.Expanded {
			if b.Reason != "" {
				fmt.Fprintf(w, "%s  reason: %s\n", pad, b.Reason)
			}
			fmt.Fprintf(w, "%s  status: %s\n", pad, b.Status)
		}
	}

	star := "☆"
	if n.IsStarred {
		star = "★"
	}

	head := n.Author.DisplayName
	if n.Author.IsVerified {
		head += " ✓"
	}
	if n.Author.IsAnonymous {
		head += " [anonymous]"
	}

	fmt.Fprintf(w, "%s[%s] %s · %s", pad, n.ID, head, n.Age)
	if n.Edited {
		fmt.Fprint(w, " (edited)")
	}
	fmt.Fprintf(w, " · %s %d\n", star, n.Stars)

	for _, line := range strings.Split(n.Content, "\n") {
		fmt.Fprintf(w, "%s  %s\n", pad, line)
	}

	for _, a := range n.Attachments {
		label := a.Name
		if a.Badge != "" {
			label += " [" + a.Badge + "]"
		}
		fmt.Fprintf(w, "%s  + %s %s (%s)\n", pad, a.Kind, label, a.SizeLabel)
	}

	if n.RepliesHidden {
		fmt.Fprintf(w, "%s  … %d hidden replies\n", pad, n.ReplyCount)
		return
	}

	for i := range n.Replies {
		writeNode(w, n.Replies[i])
	}
}
