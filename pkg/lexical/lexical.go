// Package lexical flattens editor state JSON into readable text, so notes
// stored in the rich editor format can be handed to chat as plain content.
package lexical

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

type document struct {
	Root node `json:"root"`
}

type node struct {
	Type     string `json:"type"`
	Children []node `json:"children,omitempty"`
	Text     string `json:"text,omitempty"`
	Tag      string `json:"tag,omitempty"`
	URL      string `json:"url,omitempty"`
	ListType string `json:"listType,omitempty"`
	Start    int    `json:"start,omitempty"`
	Checked  bool   `json:"checked,omitempty"`
}

// Looks reports whether content is editor state rather than markdown.
func Looks(content string) bool {
	return strings.HasPrefix(strings.TrimSpace(content), `{"root":`)
}

// Flatten converts editor state to text. Block nodes end with a newline;
// headings and lists keep their markdown markers.
func Flatten(content string) (string, error) {
	var doc document
	if err := json.Unmarshal([]byte(content), &doc); err != nil {
		return "", fmt.Errorf("parse editor state: %w", err)
	}
	var sb strings.Builder
	for _, child := range doc.Root.Children {
		writeBlock(&sb, child, 0)
	}
	return strings.TrimRight(sb.String(), "\n") + "\n", nil
}

// ToText flattens content when it is editor state and returns it unchanged
// otherwise, including when the state cannot be parsed.
func ToText(content string) string {
	if !Looks(content) {
		return content
	}
	text, err := Flatten(content)
	if err != nil {
		return content
	}
	return text
}

func writeBlock(sb *strings.Builder, n node, depth int) {
	switch n.Type {
	case "heading":
		level := 1
		if len(n.Tag) == 2 && n.Tag[0] == 'h' {
			if l, err := strconv.Atoi(n.Tag[1:]); err == nil {
				level = l
			}
		}
		sb.WriteString(strings.Repeat("#", level) + " ")
		writeInline(sb, n.Children)
		sb.WriteString("\n\n")
	case "quote":
		sb.WriteString("> ")
		writeInline(sb, n.Children)
		sb.WriteString("\n\n")
	case "code":
		sb.WriteString("```\n")
		writeInline(sb, n.Children)
		sb.WriteString("\n```\n\n")
	case "list":
		writeList(sb, n, depth)
		if depth == 0 {
			sb.WriteString("\n")
		}
	case "horizontalrule":
		sb.WriteString("---\n\n")
	case "table":
		for _, row := range n.Children {
			cells := make([]string, 0, len(row.Children))
			for _, cell := range row.Children {
				var c strings.Builder
				for _, content := range cell.Children {
					writeInline(&c, content.Children)
				}
				cells = append(cells, strings.TrimSpace(c.String()))
			}
			sb.WriteString(strings.Join(cells, "\t") + "\n")
		}
		sb.WriteString("\n")
	default:
		writeInline(sb, n.Children)
		sb.WriteString("\n\n")
	}
}

func writeList(sb *strings.Builder, list node, depth int) {
	index := max(list.Start, 1)
	for _, item := range list.Children {
		if item.Type != "listitem" {
			continue
		}
		var inline []node
		var nested []node
		for _, c := range item.Children {
			if c.Type == "list" {
				nested = append(nested, c)
			} else {
				inline = append(inline, c)
			}
		}

		// Items that only wrap a nested list get no marker of their own.
		if len(inline) > 0 {
			sb.WriteString(strings.Repeat("  ", depth))
			switch list.ListType {
			case "number":
				sb.WriteString(strconv.Itoa(index) + ". ")
				index++
			case "check":
				if item.Checked {
					sb.WriteString("- [x] ")
				} else {
					sb.WriteString("- [ ] ")
				}
			default:
				sb.WriteString("- ")
			}
			writeInline(sb, inline)
			sb.WriteString("\n")
		}
		for _, l := range nested {
			writeList(sb, l, depth+1)
		}
	}
}

func writeInline(sb *strings.Builder, nodes []node) {
	for _, n := range nodes {
		switch n.Type {
		case "text", "code-highlight":
			sb.WriteString(n.Text)
		case "linebreak":
			sb.WriteString("\n")
		case "link", "autolink":
			sb.WriteString("[")
			writeInline(sb, n.Children)
			sb.WriteString("](" + n.URL + ")")
		default:
			writeInline(sb, n.Children)
		}
	}
}
