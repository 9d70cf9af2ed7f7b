// prop.go — prop 声明 → JSON Schema / 提示词签名 (同一份声明的两种投影)。
package catalog

import (
	"encoding/json"
	"fmt"
	"strings"
)

// PropType prop 的值形态。
type PropType string

const (
	TypeString  PropType = "string"
	TypeNumber  PropType = "number"
	TypeInteger PropType = "integer"
	TypeBoolean PropType = "boolean"
	TypeArray   PropType = "array"
	TypeObject  PropType = "object"
	// TypeScalar 数字或数字文本, 渲染时经 coerce 规整。
	TypeScalar PropType = "scalar"
	TypeAny    PropType = "any"
)

// Prop 单个 prop 的契约。
type Prop struct {
	Name        string
	Type        PropType
	Required    bool
	Enum        []any
	Items       *Prop  // TypeArray 的元素形态
	Fields      []Prop // TypeObject 的字段
	Bindable    bool   // 允许 {"$state": path}
	Hint        string // 仅出现在提示词签名里, 不参与校验
	Lenient     bool   // 形态只进入提示词签名; 坏的数组元素由渲染阶段逐个丢弃
	Description string
}

// Schema 生成该 prop 的 JSON Schema (Draft 2020-12) 文档。
func (p Prop) Schema() map[string]any {
	s := map[string]any{}
	if p.Lenient {
		return s
	}
	switch p.Type {
	case TypeString, TypeNumber, TypeInteger, TypeBoolean, TypeArray, TypeObject:
		s["type"] = string(p.Type)
	case TypeScalar:
		s["type"] = []any{"number", "string"}
	}
	if len(p.Enum) > 0 {
		s["enum"] = p.Enum
	}
	if p.Type == TypeArray && p.Items != nil {
		s["items"] = p.Items.Schema()
	}
	if p.Type == TypeObject && len(p.Fields) > 0 {
		properties := make(map[string]any, len(p.Fields))
		var required []any
		for _, f := range p.Fields {
			properties[f.Name] = f.Schema()
			if f.Required {
				required = append(required, f.Name)
			}
		}
		s["properties"] = properties
		if len(required) > 0 {
			s["required"] = required
		}
	}
	return s
}

func (p Prop) schemaJSON() (string, error) {
	raw, err := json.Marshal(p.Schema())
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// Signature 提示词中的一行签名, 如 `aggregate?=sum|count|avg`、`data=[{...}] ($state)`。
func (p Prop) Signature() string {
	var b strings.Builder
	b.WriteString(p.Name)
	if !p.Required {
		b.WriteByte('?')
	}
	if shape := p.shape(); shape != "" {
		b.WriteByte('=')
		b.WriteString(shape)
	}
	if p.Bindable {
		b.WriteString(" ($state)")
	}
	return b.String()
}

func (p Prop) shape() string {
	if p.Hint != "" {
		return p.Hint
	}
	if len(p.Enum) > 0 {
		parts := make([]string, len(p.Enum))
		for i, e := range p.Enum {
			parts[i] = fmt.Sprint(e)
		}
		return strings.Join(parts, "|")
	}
	switch p.Type {
	case TypeArray:
		if p.Items == nil {
			return "[]"
		}
		return "[" + p.Items.shapeOrType() + "]"
	case TypeObject:
		if len(p.Fields) == 0 {
			return "{}"
		}
		parts := make([]string, len(p.Fields))
		for i, f := range p.Fields {
			parts[i] = f.Signature()
		}
		return "{" + strings.Join(parts, ",") + "}"
	case TypeString, TypeAny, "":
		return ""
	default:
		return string(p.Type)
	}
}

func (p Prop) shapeOrType() string {
	if s := p.shape(); s != "" {
		return s
	}
	if p.Type == TypeAny || p.Type == "" {
		return "any"
	}
	return string(p.Type)
}
