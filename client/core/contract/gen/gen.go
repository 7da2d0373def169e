// Package gen 从合约清单生成入口描述常量
//
// 清单（JSON）列出模块引用、合约名以及每个入口的 base64 schema 与能量上限；
// 生成的 Go 文件为每个入口声明一个 *contract.Method 包级变量，并附带结构指纹，
// 合约 schema 变化时程序在启动阶段即失败。
package gen

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"go/format"
	"go/token"
	"io"
	"strconv"
	"strings"
	"text/template"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/chainorders/upwood-sub002/client/core/schema"
)

var (
	// ErrInvalidManifest 清单内容无效
	ErrInvalidManifest = errors.New("invalid contract manifest")
)

// Manifest 合约清单
type Manifest struct {
	Package     string       `json:"package"`
	Contract    string       `json:"contract"`
	ModuleRef   string       `json:"moduleRef"`
	Init        *Entrypoint  `json:"init,omitempty"`
	Entrypoints []Entrypoint `json:"entrypoints"`
}

// Entrypoint 单个入口；Params/Return/Error 为 base64 schema，可省略
type Entrypoint struct {
	Name   string `json:"name"`
	Energy uint64 `json:"energy"`
	Params string `json:"params,omitempty"`
	Return string `json:"return,omitempty"`
	Error  string `json:"error,omitempty"`
}

// ParseManifest 读取并校验清单
func ParseManifest(r io.Reader) (*Manifest, error) {
	var m Manifest
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidManifest, err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate 校验包名、标识符唯一性以及每个 schema 都能解析
func (m *Manifest) Validate() error {
	if !token.IsIdentifier(m.Package) || m.Package != strings.ToLower(m.Package) {
		return fmt.Errorf("%w: bad package name %q", ErrInvalidManifest, m.Package)
	}
	if m.Contract == "" {
		return fmt.Errorf("%w: empty contract name", ErrInvalidManifest)
	}
	if m.Init != nil && m.ModuleRef == "" {
		return fmt.Errorf("%w: init entrypoint needs moduleRef", ErrInvalidManifest)
	}

	seen := map[string]string{"ContractName": "", "ModuleRef": ""}
	if m.Init != nil {
		seen["Init"] = "init"
		if err := m.Init.validate(); err != nil {
			return fmt.Errorf("init: %w", err)
		}
	}
	for _, ep := range m.Entrypoints {
		if ep.Name == "" {
			return fmt.Errorf("%w: entrypoint without name", ErrInvalidManifest)
		}
		id := Identifier(ep.Name)
		if prev, dup := seen[id]; dup {
			return fmt.Errorf("%w: %q and %q both map to %s", ErrInvalidManifest, prev, ep.Name, id)
		}
		seen[id] = ep.Name
		if err := ep.validate(); err != nil {
			return fmt.Errorf("%s: %w", ep.Name, err)
		}
	}
	return nil
}

func (e *Entrypoint) validate() error {
	for _, s := range []string{e.Params, e.Return, e.Error} {
		if s == "" {
			continue
		}
		if _, err := schema.ParseTypeBase64(s); err != nil {
			return err
		}
	}
	return nil
}

var title = cases.Title(language.English, cases.NoLower)

// Identifier 入口名转换为导出的 Go 标识符："balance_of" → "BalanceOf"
func Identifier(name string) string {
	parts := strings.FieldsFunc(name, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	var b strings.Builder
	for _, p := range parts {
		// 数字开头的片段保持原样，避免 "2fa" 变成 "2Fa"
		if !unicode.IsLetter([]rune(p)[0]) {
			b.WriteString(p)
			continue
		}
		b.WriteString(title.String(p))
	}
	id := b.String()
	if id == "" || !unicode.IsLetter([]rune(id)[0]) {
		id = "E" + id
	}
	return id
}

type methodView struct {
	Var       string
	Name      string
	Energy    uint64
	Options   []string
	Signature string
}

type fileView struct {
	Package   string
	Contract  string
	ModuleRef string
	Init      *methodView
	Methods   []methodView
}

var fileTemplate = template.Must(template.New("methods").Funcs(template.FuncMap{
	"quote": strconv.Quote,
}).Parse(`// Code generated by upwood gen. DO NOT EDIT.

// Package {{.Package}} 合约 {{.Contract}} 的入口描述
package {{.Package}}

import "github.com/chainorders/upwood-sub002/client/core/contract"

const (
	// ContractName 合约名
	ContractName = {{quote .Contract}}
{{- if .ModuleRef}}
	// ModuleRef 模块引用
	ModuleRef = {{quote .ModuleRef}}
{{- end}}
)
{{if .Init}}
// Init 合约初始化入口
var Init = contract.MustInitMethod(ModuleRef, ContractName, {{.Init.Energy}}
{{- range .Init.Options}},
	{{.}}
{{- end}}{{if .Init.Options}},
{{end}})
{{end}}
{{- range .Methods}}
// {{.Var}} 入口 {{.Name}}{{if .Signature}}：{{.Signature}}{{end}}
var {{.Var}} = contract.MustReceiveMethod(ContractName, {{quote .Name}}, {{.Energy}}
{{- range .Options}},
	{{.}}
{{- end}}{{if .Options}},
{{end}})
{{end}}`))

// Generate 渲染清单为 gofmt 后的 Go 源码
func Generate(m *Manifest) ([]byte, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	view := fileView{Package: m.Package, Contract: m.Contract, ModuleRef: m.ModuleRef}
	if m.Init != nil {
		v, err := buildView("Init", *m.Init)
		if err != nil {
			return nil, err
		}
		view.Init = &v
	}
	for _, ep := range m.Entrypoints {
		v, err := buildView(Identifier(ep.Name), ep)
		if err != nil {
			return nil, err
		}
		view.Methods = append(view.Methods, v)
	}

	var buf bytes.Buffer
	if err := fileTemplate.Execute(&buf, view); err != nil {
		return nil, fmt.Errorf("render %s: %w", m.Contract, err)
	}
	out, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("format %s: %w", m.Contract, err)
	}
	return out, nil
}

func buildView(id string, ep Entrypoint) (methodView, error) {
	v := methodView{Var: id, Name: ep.Name, Energy: ep.Energy}
	add := func(b64, schemaOpt, shapeOpt string) (string, error) {
		if b64 == "" {
			return "", nil
		}
		t, err := schema.ParseTypeBase64(b64)
		if err != nil {
			return "", err
		}
		shape := t.String()
		v.Options = append(v.Options,
			fmt.Sprintf("contract.%s(%s)", schemaOpt, strconv.Quote(b64)),
			fmt.Sprintf("contract.%s(%s)", shapeOpt, strconv.Quote(shape)),
		)
		return shape, nil
	}

	shape, err := add(ep.Params, "WithParamsSchema", "WithParamsShape")
	if err != nil {
		return v, err
	}
	if shape != "" {
		v.Signature = "params " + shape
		v.Options = append(v.Options, "contract.RequireParams()")
	}
	if _, err := add(ep.Return, "WithReturnSchema", "WithReturnShape"); err != nil {
		return v, err
	}
	if _, err := add(ep.Error, "WithErrorSchema", "WithErrorShape"); err != nil {
		return v, err
	}
	return v, nil
}
