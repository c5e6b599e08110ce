package adapters

import (
	"bytes"
	"encoding/json"
	"sort"

	"contenthub/internal/ingestion"
)

// Registry resolves a source name to its adapter. Generic labels are
// served by direct adapters created on demand.
type Registry struct {
	named map[string]ingestion.Adapter
	clip  ingestion.Adapter
}

func NewRegistry(list ...ingestion.Adapter) *Registry {
	r := &Registry{named: make(map[string]ingestion.Adapter), clip: NewClip()}
	for _, a := range list {
		r.named[a.Name()] = a
	}
	return r
}

// Resolve picks the adapter for source. A browser payload carrying html is
// handled as a page clip.
func (r *Registry) Resolve(source string, payload json.RawMessage) (ingestion.Adapter, bool) {
	if a, ok := r.named[source]; ok {
		return a, true
	}
	if !IsGenericLabel(source) {
		return nil, false
	}
	if source == NameBrowser && hasHTML(payload) {
		return r.clip, true
	}
	return NewGeneric(source), true
}

// Names lists the registered adapters followed by the generic labels.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.named)+len(GenericLabels))
	for n := range r.named {
		names = append(names, n)
	}
	sort.Strings(names)
	return append(names, GenericLabels...)
}

func hasHTML(payload json.RawMessage) bool {
	if !bytes.Contains(payload, []byte(`"html"`)) {
		return false
	}
	var probe struct {
		HTML string `json:"html"`
	}
	return json.Unmarshal(payload, &probe) == nil && !blank(probe.HTML)
}
