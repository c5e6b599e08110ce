package notion

import "encoding/json"

type Annotations struct {
	Bold          bool `json:"bold"`
	Italic        bool `json:"italic"`
	Strikethrough bool `json:"strikethrough"`
	Underline     bool `json:"underline"`
	Code          bool `json:"code"`
}

type Link struct {
	URL string `json:"url"`
}

type RichText struct {
	Type      string `json:"type"`
	PlainText string `json:"plain_text"`
	Href      string `json:"href,omitempty"`
	Text      *struct {
		Content string `json:"content"`
		Link    *Link  `json:"link"`
	} `json:"text,omitempty"`
	Annotations Annotations `json:"annotations"`
}

func (rt RichText) link() string {
	if rt.Text != nil && rt.Text.Link != nil {
		return rt.Text.Link.URL
	}
	return ""
}

type FileRef struct {
	URL string `json:"url"`
}

// BlockContent holds the type-specific fields of a block. Only the fields
// the markdown conversion reads are decoded.
type BlockContent struct {
	RichText []RichText `json:"rich_text"`
	Checked  bool       `json:"checked"`
	Language string     `json:"language"`
	Caption  []RichText `json:"caption"`
	URL      string     `json:"url"`
	Icon     *struct {
		Emoji string `json:"emoji"`
	} `json:"icon"`
	Type     string   `json:"type"`
	File     *FileRef `json:"file"`
	External *FileRef `json:"external"`
}

type Block struct {
	ID          string
	Type        string
	HasChildren bool
	Content     BlockContent
}

func (b *Block) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	var head struct {
		ID          string `json:"id"`
		Type        string `json:"type"`
		HasChildren bool   `json:"has_children"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return err
	}
	b.ID, b.Type, b.HasChildren = head.ID, head.Type, head.HasChildren
	b.Content = BlockContent{}
	if body, ok := raw[head.Type]; ok && len(body) > 0 && body[0] == '{' {
		if err := json.Unmarshal(body, &b.Content); err != nil {
			return err
		}
	}
	return nil
}
