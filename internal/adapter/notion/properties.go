package notion

import "strings"

type Option struct {
	Name string `json:"name"`
}

// Property is a page property value. Only the title, rich_text, select and
// multi_select shapes are decoded.
type Property struct {
	Type        string     `json:"type"`
	Title       []RichText `json:"title"`
	RichText    []RichText `json:"rich_text"`
	Select      *Option    `json:"select"`
	MultiSelect []Option   `json:"multi_select"`
}

// Text joins the plain text of a title or rich_text property.
func (p Property) Text() string {
	items := p.Title
	if len(items) == 0 {
		items = p.RichText
	}
	var sb strings.Builder
	for _, it := range items {
		sb.WriteString(it.PlainText)
	}
	return sb.String()
}

func (p Property) SelectName() string {
	if p.Select == nil {
		return ""
	}
	return p.Select.Name
}

func (p Property) Names() []string {
	out := make([]string, 0, len(p.MultiSelect))
	for _, o := range p.MultiSelect {
		out = append(out, o.Name)
	}
	return out
}

type Properties map[string]Property

// First returns the first property present under any of names.
func (ps Properties) First(names ...string) Property {
	for _, n := range names {
		if p, ok := ps[n]; ok {
			return p
		}
	}
	return Property{}
}
