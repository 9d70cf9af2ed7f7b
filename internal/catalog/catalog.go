// Package catalog 封闭的 UI 组件目录: 每种 kind 的 prop 契约 + 描述。
//
// 同一份 Descriptor 同时派生:
//   - 校验器: 每个 prop 编译为一个 JSON Schema (santhosh-tekuri/jsonschema)
//   - 提示词: Prompt() 把目录序列化为模型指令
//
// Catalog 构建后不可变, 并发只读安全。
package catalog

import (
	"fmt"
	"sort"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/multi-agent/go-genui/internal/element"
	"github.com/multi-agent/go-genui/pkg/util"
)

const schemaBaseURL = "https://genui.local/catalog/"

// Descriptor 一种组件的完整契约。
type Descriptor struct {
	Kind        string
	Category    string
	Description string
	Props       []Prop
	Slots       []string // 非空表示接受 children
}

// AcceptsChildren 报告该 kind 是否有子节点插槽。
func (d Descriptor) AcceptsChildren() bool { return len(d.Slots) > 0 }

// Prop 按名查找 prop 声明。
func (d Descriptor) Prop(name string) (Prop, bool) {
	for _, p := range d.Props {
		if p.Name == name {
			return p, true
		}
	}
	return Prop{}, false
}

type compiledProp struct {
	prop   Prop
	schema *jsonschema.Schema
	// unconstrained schema 为 {} 时任何值都合法, 跳过校验 (避免大数组的 JSON 往返)
	unconstrained bool
}

type entry struct {
	desc  Descriptor
	props map[string]*compiledProp
}

// Catalog kind → 已编译契约。
type Catalog struct {
	order  []string
	byKind map[string]*entry
}

// New 编译一组描述符。kind 重复、kind 为空或 prop schema 编译失败时返回错误。
func New(descs ...Descriptor) (*Catalog, error) {
	c := &Catalog{byKind: make(map[string]*entry, len(descs))}
	for _, d := range descs {
		if strings.TrimSpace(d.Kind) == "" {
			return nil, fmt.Errorf("catalog: descriptor with empty kind")
		}
		if _, dup := c.byKind[d.Kind]; dup {
			return nil, fmt.Errorf("catalog: duplicate kind %q", d.Kind)
		}
		e := &entry{desc: d, props: make(map[string]*compiledProp, len(d.Props))}
		for _, p := range d.Props {
			if _, dup := e.props[p.Name]; dup {
				return nil, fmt.Errorf("catalog: %s: duplicate prop %q", d.Kind, p.Name)
			}
			sch, err := compileProp(d.Kind, p)
			if err != nil {
				return nil, fmt.Errorf("catalog: %s.%s: %w", d.Kind, p.Name, err)
			}
			e.props[p.Name] = &compiledProp{prop: p, schema: sch, unconstrained: len(p.Schema()) == 0}
		}
		c.byKind[d.Kind] = e
		c.order = append(c.order, d.Kind)
	}
	return c, nil
}

func compileProp(kind string, p Prop) (*jsonschema.Schema, error) {
	doc, err := p.schemaJSON()
	if err != nil {
		return nil, err
	}
	url := schemaBaseURL + kind + "/" + p.Name + ".schema.json"
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource(url, strings.NewReader(doc)); err != nil {
		return nil, err
	}
	return compiler.Compile(url)
}

// Has 报告 kind 是否在目录中。
func (c *Catalog) Has(kind string) bool {
	_, ok := c.byKind[kind]
	return ok
}

// Lookup 返回 kind 的描述符。
func (c *Catalog) Lookup(kind string) (Descriptor, bool) {
	e, ok := c.byKind[kind]
	if !ok {
		return Descriptor{}, false
	}
	return e.desc, true
}

// Kinds 按声明顺序返回全部 kind。
func (c *Catalog) Kinds() []string {
	return append([]string(nil), c.order...)
}

// Descriptors 按声明顺序返回全部描述符。
func (c *Catalog) Descriptors() []Descriptor {
	out := make([]Descriptor, 0, len(c.order))
	for _, k := range c.order {
		out = append(out, c.byKind[k].desc)
	}
	return out
}

// ========================================
// 契约校验
// ========================================

// Severity 违规的处理方式。
type Severity string

const (
	SeverityReject Severity = "reject" // 元素走 Fallback
	SeverityDrop   Severity = "drop"   // 删除该 prop 后继续
)

// 违规码
const (
	CodeUnknownKind       = "unknown_kind"
	CodeMissingRequired   = "missing_required"
	CodeInvalidProp       = "invalid_prop"
	CodeUnknownProp       = "unknown_prop"
	CodeBindingNotAllowed = "binding_not_allowed"
)

// Violation 单字段违规。
type Violation struct {
	Node     string   `json:"node,omitempty"` // 元素在树中的位置, 如 /children/1
	Kind     string   `json:"kind"`
	Prop     string   `json:"prop,omitempty"`
	Code     string   `json:"code"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

func (v Violation) String() string {
	if v.Prop == "" {
		return fmt.Sprintf("%s: %s", v.Kind, v.Message)
	}
	return fmt.Sprintf("%s.%s: %s", v.Kind, v.Prop, v.Message)
}

// Rejected 报告违规列表中是否存在 reject 级别。
func Rejected(vs []Violation) bool {
	for _, v := range vs {
		if v.Severity == SeverityReject {
			return true
		}
	}
	return false
}

// Validate 校验单个元素 (不含子节点)。
//
// 可绑定 prop 上的 $state 引用在此阶段视为合法, 解析后的值由 CheckProp 复核。
func (c *Catalog) Validate(el *element.Element) []Violation {
	if el == nil {
		return []Violation{{Code: CodeUnknownKind, Severity: SeverityReject, Message: "nil element"}}
	}
	e, ok := c.byKind[el.Type]
	if !ok {
		return []Violation{{
			Kind: el.Type, Code: CodeUnknownKind, Severity: SeverityReject,
			Message: fmt.Sprintf("unknown component kind %q", el.Type),
		}}
	}

	var out []Violation
	for _, p := range e.desc.Props {
		if !p.Required {
			continue
		}
		if v, present := el.Props[p.Name]; !present || v == nil {
			out = append(out, Violation{
				Kind: el.Type, Prop: p.Name, Code: CodeMissingRequired, Severity: SeverityReject,
				Message: "missing required prop",
			})
		}
	}

	for _, name := range sortedKeys(el.Props) {
		value := el.Props[name]
		cp, known := e.props[name]
		if !known {
			out = append(out, Violation{
				Kind: el.Type, Prop: name, Code: CodeUnknownProp, Severity: SeverityDrop,
				Message: "prop not declared for this kind",
			})
			continue
		}
		if value == nil {
			continue
		}
		if _, isRef := element.DataRef(value); isRef {
			if !cp.prop.Bindable {
				out = append(out, Violation{
					Kind: el.Type, Prop: name, Code: CodeBindingNotAllowed, Severity: severityFor(cp.prop),
					Message: "prop does not accept $state references",
				})
			}
			continue
		}
		if v := cp.check(el.Type, value); v != nil {
			out = append(out, *v)
		}
	}
	return out
}

// ValidateTree 校验整棵树, Violation.Node 标注元素位置。
func (c *Catalog) ValidateTree(root *element.Element) []Violation {
	var out []Violation
	var walk func(el *element.Element, at string)
	walk = func(el *element.Element, at string) {
		for _, v := range c.Validate(el) {
			v.Node = at
			out = append(out, v)
		}
		if el == nil {
			return
		}
		for i, child := range el.Children {
			walk(child, fmt.Sprintf("%s/children/%d", at, i))
		}
	}
	walk(root, "")
	return out
}

// CheckProp 复核一个已解析的值 ($state 替换后), 合法返回 nil。
func (c *Catalog) CheckProp(kind, name string, value any) *Violation {
	e, ok := c.byKind[kind]
	if !ok {
		return &Violation{Kind: kind, Code: CodeUnknownKind, Severity: SeverityReject, Message: fmt.Sprintf("unknown component kind %q", kind)}
	}
	cp, ok := e.props[name]
	if !ok {
		return &Violation{Kind: kind, Prop: name, Code: CodeUnknownProp, Severity: SeverityDrop, Message: "prop not declared for this kind"}
	}
	return cp.check(kind, value)
}

func (cp *compiledProp) check(kind string, value any) *Violation {
	if cp.unconstrained {
		return nil
	}
	if err := cp.schema.Validate(util.NormalizeJSON(value)); err != nil {
		return &Violation{
			Kind: kind, Prop: cp.prop.Name, Code: CodeInvalidProp, Severity: severityFor(cp.prop),
			Message: schemaMessage(err),
		}
	}
	return nil
}

func severityFor(p Prop) Severity {
	if p.Required {
		return SeverityReject
	}
	return SeverityDrop
}

// schemaMessage 取最深一层的校验原因, 带实例位置。
func schemaMessage(err error) string {
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return err.Error()
	}
	for len(ve.Causes) > 0 {
		ve = ve.Causes[0]
	}
	if ve.InstanceLocation == "" {
		return ve.Message
	}
	return ve.InstanceLocation + ": " + ve.Message
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
