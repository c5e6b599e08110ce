package notion_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contenthub/internal/adapter/notion"
)

type fakeReader map[string][]notion.Block

func (f fakeReader) Children(_ context.Context, id string) ([]notion.Block, error) {
	blocks, ok := f[id]
	if !ok {
		return nil, errors.New("unknown block " + id)
	}
	return blocks, nil
}

func block(t *testing.T, raw string) notion.Block {
	t.Helper()
	var b notion.Block
	require.NoError(t, json.Unmarshal([]byte(raw), &b))
	return b
}

func TestBlockToMarkdown(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		depth int
		want  string
	}{
		{"heading", `{"type":"heading_2","heading_2":{"rich_text":[{"plain_text":"Setup"}]}}`, 0, "## Setup"},
		{"indented paragraph", `{"type":"paragraph","paragraph":{"rich_text":[{"plain_text":"x"}]}}`, 2, "    x"},
		{"bullet", `{"type":"bulleted_list_item","bulleted_list_item":{"rich_text":[{"plain_text":"a"}]}}`, 1, "  - a"},
		{"numbered", `{"type":"numbered_list_item","numbered_list_item":{"rich_text":[{"plain_text":"a"}]}}`, 0, "1. a"},
		{"todo checked", `{"type":"to_do","to_do":{"checked":true,"rich_text":[{"plain_text":"done"}]}}`, 0, "- [x] done"},
		{"todo open", `{"type":"to_do","to_do":{"checked":false,"rich_text":[{"plain_text":"later"}]}}`, 0, "- [ ] later"},
		{"toggle", `{"type":"toggle","toggle":{"rich_text":[{"plain_text":"more"}]}}`, 0, "> more"},
		{"code plain text", `{"type":"code","code":{"language":"plain text","rich_text":[{"plain_text":"ls"}]}}`, 0, "```\nls\n```"},
		{"code go", `{"type":"code","code":{"language":"go","rich_text":[{"plain_text":"x := 1"}]}}`, 0, "```go\nx := 1\n```"},
		{"quote", `{"type":"quote","quote":{"rich_text":[{"plain_text":"q"}]}}`, 0, "> q"},
		{"callout", `{"type":"callout","callout":{"icon":{"emoji":"💡"},"rich_text":[{"plain_text":"tip"}]}}`, 0, "> 💡 tip"},
		{"divider", `{"type":"divider","divider":{}}`, 0, "---"},
		{"image file", `{"type":"image","image":{"type":"file","file":{"url":"https://f/1.png"},"caption":[{"plain_text":"cap"}]}}`, 0, "![cap](https://f/1.png)"},
		{"image external", `{"type":"image","image":{"type":"external","external":{"url":"https://e/2.png"},"caption":[]}}`, 0, "![](https://e/2.png)"},
		{"bookmark no caption", `{"type":"bookmark","bookmark":{"url":"https://go.dev","caption":[]}}`, 0, "[https://go.dev](https://go.dev)"},
		{"embed", `{"type":"embed","embed":{"url":"https://x.y"}}`, 0, "[Embed](https://x.y)"},
		{"toc skipped", `{"type":"table_of_contents","table_of_contents":{}}`, 0, ""},
		{"column skipped", `{"type":"column_list","column_list":{}}`, 0, ""},
		{"unsupported", `{"type":"synced_block","synced_block":{}}`, 0, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, notion.BlockToMarkdown(block(t, tt.raw), tt.depth))
		})
	}
}

func TestRichTextToMarkdown(t *testing.T) {
	var items []notion.RichText
	require.NoError(t, json.Unmarshal([]byte(`[
		{"type":"text","plain_text":"bold","annotations":{"bold":true}},
		{"type":"text","plain_text":" and "},
		{"type":"text","plain_text":"fn","annotations":{"code":true,"italic":true}},
		{"type":"text","plain_text":"site","text":{"content":"site","link":{"url":"https://a.b"}}},
		{"type":"text","plain_text":"old","annotations":{"strikethrough":true}}
	]`), &items))

	assert.Equal(t, "**bold** and *`fn`*[site](https://a.b)~~old~~", notion.RichTextToMarkdown(items))
}

func TestToMarkdown_DepthFirst(t *testing.T) {
	reader := fakeReader{
		"page": {
			block(t, `{"id":"h","type":"heading_1","heading_1":{"rich_text":[{"plain_text":"Title"}]}}`),
			block(t, `{"id":"list","type":"bulleted_list_item","has_children":true,"bulleted_list_item":{"rich_text":[{"plain_text":"parent"}]}}`),
			block(t, `{"id":"cols","type":"column_list","has_children":true,"column_list":{}}`),
		},
		"list": {
			block(t, `{"id":"c1","type":"bulleted_list_item","bulleted_list_item":{"rich_text":[{"plain_text":"child"}]}}`),
		},
		"cols": {
			block(t, `{"id":"p","type":"paragraph","paragraph":{"rich_text":[{"plain_text":"in column"}]}}`),
		},
	}

	md, err := notion.ToMarkdown(context.Background(), reader, "page")
	require.NoError(t, err)
	assert.Equal(t, "# Title\n\n- parent\n\n  - child\n\n  in column", md)
}

func TestToMarkdown_PropagatesErrors(t *testing.T) {
	reader := fakeReader{
		"page": {block(t, `{"id":"missing","type":"toggle","has_children":true,"toggle":{"rich_text":[]}}`)},
	}
	_, err := notion.ToMarkdown(context.Background(), reader, "page")
	assert.ErrorContains(t, err, "unknown block missing")
}

func TestProperties(t *testing.T) {
	var props notion.Properties
	require.NoError(t, json.Unmarshal([]byte(`{
		"Name": {"type":"title","title":[{"plain_text":"Hello "},{"plain_text":"world"}]},
		"Summary": {"type":"rich_text","rich_text":[{"plain_text":"Short"}]},
		"Type": {"type":"select","select":{"name":"Tool Focus"}},
		"Tags": {"type":"multi_select","multi_select":[{"name":"RAG"},{"name":"Agents"}]}
	}`), &props))

	assert.Equal(t, "Hello world", props.First("Title", "Name", "title").Text())
	assert.Equal(t, "Short", props.First("Summary", "summary").Text())
	assert.Equal(t, "Tool Focus", props.First("Type", "type").SelectName())
	assert.Equal(t, []string{"RAG", "Agents"}, props.First("Concepts", "Tags", "concepts").Names())
	assert.Equal(t, "", props.First("Language").SelectName())
	assert.Empty(t, props.First("Tools").Names())
}
