// Package entity 正文内联实体引用的解析与查询。
//
// 模型生成的文字里会出现 developer/<id>、ecosystem/<name>、repository/<owner>/<name>
// 三种路径, 这里负责识别它们并查询对应的摘要数据; 其余路径按普通外链处理。
package entity

import (
	"regexp"
	"strings"
)

// Type 实体类别。
type Type string

const (
	TypeDeveloper  Type = "developer"
	TypeEcosystem  Type = "ecosystem"
	TypeRepository Type = "repository"
)

// Ref 一个已识别的实体引用。
type Ref struct {
	Type       Type   `json:"type"`
	Identifier string `json:"identifier"`
}

// Path 还原为 "type/identifier"。
func (r Ref) Path() string { return string(r.Type) + "/" + r.Identifier }

// Key 缓存与请求合并用的键; 生态名大小写不敏感, 其余按原样。
func (r Ref) Key() string {
	if r.Type == TypeEcosystem {
		return string(r.Type) + ":" + strings.ToLower(r.Identifier)
	}
	return string(r.Type) + ":" + r.Identifier
}

var refPatterns = []struct {
	typ Type
	re  *regexp.Regexp
}{
	{TypeDeveloper, regexp.MustCompile(`^developer/([^/\s]+)$`)},
	{TypeEcosystem, regexp.MustCompile(`^ecosystem/([^/]+)$`)},
	{TypeRepository, regexp.MustCompile(`^repository/([^/\s]+/[^/\s]+)$`)},
}

// ParseRef 匹配三种固定路径; 前导 "/" 与首尾空白会被忽略。
func ParseRef(path string) (Ref, bool) {
	p := strings.TrimPrefix(strings.TrimSpace(path), "/")
	for _, rp := range refPatterns {
		if m := rp.re.FindStringSubmatch(p); m != nil {
			id := strings.TrimSpace(m[1])
			if id == "" {
				return Ref{}, false
			}
			return Ref{Type: rp.typ, Identifier: id}, true
		}
	}
	return Ref{}, false
}

// Link 正文中找到的一处方括号引用。
//
// Ref 为 nil 表示普通外链 (只有 markdown 链接会产生外链, 裸 [xxx] 只在命中实体时返回)。
type Link struct {
	Label string `json:"label"`
	Path  string `json:"path"`
	Ref   *Ref   `json:"ref,omitempty"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

// IsEntity 报告该链接是否为实体引用。
func (l Link) IsEntity() bool { return l.Ref != nil }

var linkPattern = regexp.MustCompile(`\[([^\[\]\n]+)\](?:\(([^)\s]*)\))?`)

// FindRefs 扫描 [label](path) 与裸 [path] 两种写法, 按出现顺序返回。
func FindRefs(text string) []Link {
	var out []Link
	for _, m := range linkPattern.FindAllStringSubmatchIndex(text, -1) {
		label := text[m[2]:m[3]]
		if m[4] >= 0 {
			path := text[m[4]:m[5]]
			link := Link{Label: label, Path: path, Start: m[0], End: m[1]}
			if ref, ok := ParseRef(path); ok {
				link.Ref = &ref
			}
			out = append(out, link)
			continue
		}
		if ref, ok := ParseRef(label); ok {
			out = append(out, Link{Label: label, Path: ref.Path(), Ref: &ref, Start: m[0], End: m[1]})
		}
	}
	return out
}
