package notion

import (
	"context"
	"fmt"
	"strings"
)

type BlockReader interface {
	Children(ctx context.Context, blockID string) ([]Block, error)
}

// ToMarkdown flattens the block tree under pageID depth-first. Blocks with
// no markdown form are skipped but their children are still visited.
func ToMarkdown(ctx context.Context, r BlockReader, pageID string) (string, error) {
	return blocksToMarkdown(ctx, r, pageID, 0)
}

func blocksToMarkdown(ctx context.Context, r BlockReader, blockID string, depth int) (string, error) {
	blocks, err := r.Children(ctx, blockID)
	if err != nil {
		return "", err
	}

	var parts []string
	for _, b := range blocks {
		if line := BlockToMarkdown(b, depth); line != "" {
			parts = append(parts, line)
		}
		if b.HasChildren {
			child, err := blocksToMarkdown(ctx, r, b.ID, depth+1)
			if err != nil {
				return "", err
			}
			if child != "" {
				parts = append(parts, child)
			}
		}
	}
	return strings.Join(parts, "\n\n"), nil
}

// BlockToMarkdown converts one block, without its children.
func BlockToMarkdown(b Block, depth int) string {
	indent := strings.Repeat("  ", depth)
	c := b.Content
	text := RichTextToMarkdown(c.RichText)

	switch b.Type {
	case "paragraph":
		return indent + text
	case "heading_1":
		return "# " + text
	case "heading_2":
		return "## " + text
	case "heading_3":
		return "### " + text
	case "bulleted_list_item":
		return indent + "- " + text
	case "numbered_list_item":
		return indent + "1. " + text
	case "to_do":
		box := "[ ]"
		if c.Checked {
			box = "[x]"
		}
		return indent + "- " + box + " " + text
	case "toggle":
		return indent + "> " + text
	case "code":
		lang := c.Language
		if lang == "plain text" {
			lang = ""
		}
		return fmt.Sprintf("```%s\n%s\n```", lang, text)
	case "quote":
		return "> " + text
	case "callout":
		emoji := ""
		if c.Icon != nil {
			emoji = c.Icon.Emoji
		}
		return "> " + emoji + " " + text
	case "divider":
		return "---"
	case "image":
		src := ""
		if c.Type == "file" && c.File != nil {
			src = c.File.URL
		} else if c.External != nil {
			src = c.External.URL
		}
		return fmt.Sprintf("![%s](%s)", RichTextToMarkdown(c.Caption), src)
	case "bookmark":
		caption := RichTextToMarkdown(c.Caption)
		if caption == "" {
			caption = c.URL
		}
		return fmt.Sprintf("[%s](%s)", caption, c.URL)
	case "embed":
		return fmt.Sprintf("[Embed](%s)", c.URL)
	}
	// table_of_contents, column_list, column and unsupported types.
	return ""
}

// RichTextToMarkdown applies inline annotations in a fixed order: code,
// bold, italic, strikethrough, then link.
func RichTextToMarkdown(items []RichText) string {
	var sb strings.Builder
	for _, it := range items {
		s := it.PlainText
		if it.Annotations.Code {
			s = "`" + s + "`"
		}
		if it.Annotations.Bold {
			s = "**" + s + "**"
		}
		if it.Annotations.Italic {
			s = "*" + s + "*"
		}
		if it.Annotations.Strikethrough {
			s = "~~" + s + "~~"
		}
		if href := it.link(); href != "" {
			s = "[" + s + "](" + href + ")"
		}
		sb.WriteString(s)
	}
	return sb.String()
}
