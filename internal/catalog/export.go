package catalog

// PropDoc 机器可读的 prop 契约 (JSON / YAML 导出)。
type PropDoc struct {
	Name        string         `json:"name" yaml:"name"`
	Type        string         `json:"type" yaml:"type"`
	Required    bool           `json:"required" yaml:"required"`
	Bindable    bool           `json:"bindable,omitempty" yaml:"bindable,omitempty"`
	Signature   string         `json:"signature" yaml:"signature"`
	Description string         `json:"description,omitempty" yaml:"description,omitempty"`
	Schema      map[string]any `json:"schema" yaml:"schema"`
}

// DescriptorDoc 机器可读的组件契约。
type DescriptorDoc struct {
	Kind        string    `json:"kind" yaml:"kind"`
	Category    string    `json:"category" yaml:"category"`
	Description string    `json:"description" yaml:"description"`
	Slots       []string  `json:"slots,omitempty" yaml:"slots,omitempty"`
	Props       []PropDoc `json:"props" yaml:"props"`
}

// Export 按声明顺序导出全部组件契约。
func Export(c *Catalog) []DescriptorDoc {
	descs := c.Descriptors()
	out := make([]DescriptorDoc, 0, len(descs))
	for _, d := range descs {
		doc := DescriptorDoc{
			Kind:        d.Kind,
			Category:    d.Category,
			Description: d.Description,
			Slots:       d.Slots,
			Props:       make([]PropDoc, 0, len(d.Props)),
		}
		for _, p := range d.Props {
			doc.Props = append(doc.Props, PropDoc{
				Name:        p.Name,
				Type:        string(p.Type),
				Required:    p.Required,
				Bindable:    p.Bindable,
				Signature:   p.Signature(),
				Description: p.Description,
				Schema:      p.Schema(),
			})
		}
		out = append(out, doc)
	}
	return out
}
