package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/multi-agent/go-genui/internal/catalog"
	"github.com/multi-agent/go-genui/internal/element"
	"github.com/multi-agent/go-genui/internal/render"
	"github.com/multi-agent/go-genui/internal/state"
	"github.com/multi-agent/go-genui/internal/termview"
	"github.com/multi-agent/go-genui/internal/toolview"
	"github.com/multi-agent/go-genui/pkg/util"
)

// 输出格式
const (
	formatJSON = "json"
	formatYAML = "yaml"
	formatText = "text"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "genui",
		Short: "Generative UI catalog, validator and offline renderer",
		Long: `genui works with the component catalog that steers model output.

Examples:
  genui prompt                          # system-prompt fragment for the model
  genui catalog --format yaml           # component descriptors
  genui validate answer.json            # check an element document
  genui render answer.json --state state.yaml --format text
  genui tool get_top_repositories result.json`,
		SilenceUsage: true,
	}
	root.AddCommand(newPromptCmd(), newCatalogCmd(), newValidateCmd(), newRenderCmd(), newToolCmd())
	return root
}

// ========================================
// prompt / catalog
// ========================================

func newPromptCmd() *cobra.Command {
	var noRules bool
	cmd := &cobra.Command{
		Use:   "prompt",
		Short: "Print the compiled component prompt",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rules := catalog.DefaultRules
			if noRules {
				rules = nil
			}
			_, err := io.WriteString(cmd.OutOrStdout(), catalog.Prompt(catalog.Default(), rules))
			return err
		},
	}
	cmd.Flags().BoolVar(&noRules, "no-rules", false, "omit the usage rules section")
	return cmd
}

func newCatalogCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Print component descriptors",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return write(cmd.OutOrStdout(), format, catalog.Export(catalog.Default()))
		},
	}
	cmd.Flags().StringVar(&format, "format", formatJSON, "output format: json|yaml")
	return cmd
}

// ========================================
// validate
// ========================================

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate FILE",
		Short: "Validate an element document against the catalog",
		Long:  "Validate an element document (JSON or YAML, nested or flat). Exits non-zero when any element would fall back.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			el, err := loadElement(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}
			vs := catalog.Default().ValidateTree(el)
			out := cmd.OutOrStdout()
			if len(vs) == 0 {
				fmt.Fprintln(out, "ok")
				return nil
			}
			for _, v := range vs {
				fmt.Fprintf(out, "%-7s %-10s %s\n", v.Severity, nodeOrRoot(v.Node), v)
			}
			if catalog.Rejected(vs) {
				return fmt.Errorf("%d violation(s), element would render as fallback", len(vs))
			}
			return nil
		},
	}
}

func nodeOrRoot(n string) string {
	if n == "" {
		return "/"
	}
	return n
}

// ========================================
// render / tool
// ========================================

func newRenderCmd() *cobra.Command {
	var (
		stateFile string
		format    string
		maxRows   int
	)
	cmd := &cobra.Command{
		Use:   "render FILE",
		Short: "Render an element document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			el, err := loadElement(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}
			var snap *state.Snapshot
			if stateFile != "" {
				v, err := loadDocument(cmd.InOrStdin(), stateFile)
				if err != nil {
					return err
				}
				m, ok := v.(map[string]any)
				if !ok {
					return fmt.Errorf("%s: state must be an object", stateFile)
				}
				snap = state.NewSnapshot(m)
			}
			interp := render.NewInterpreter(render.DefaultRegistry(), render.WithLimits(render.Limits{TableMaxRows: maxRows}))
			return writeNode(cmd.OutOrStdout(), format, interp.Render(el, snap))
		},
	}
	cmd.Flags().StringVar(&stateFile, "state", "", "state snapshot file (JSON or YAML)")
	cmd.Flags().StringVar(&format, "format", formatJSON, "output format: json|yaml|text")
	cmd.Flags().IntVar(&maxRows, "max-rows", catalog.DefaultTableMaxRows, "table row cap")
	return cmd
}

func newToolCmd() *cobra.Command {
	var (
		format string
		topN   int
	)
	cmd := &cobra.Command{
		Use:   "tool NAME FILE",
		Short: "Render a tool result envelope",
		Long:  "Render a {success, data} tool result with the view registered for NAME. Unknown tools print the raw payload.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := loadDocument(cmd.InOrStdin(), args[1])
			if err != nil {
				return err
			}
			raw, err := json.Marshal(v)
			if err != nil {
				return err
			}
			res, err := toolview.ParseResult(raw)
			if err != nil {
				return err
			}
			reg := toolview.DefaultRegistry(render.NewInterpreter(render.DefaultRegistry()), topN, nil)
			node, ok := reg.Render(args[0], res)
			if !ok {
				return write(cmd.OutOrStdout(), formatJSON, res.Data)
			}
			return writeNode(cmd.OutOrStdout(), format, node)
		},
	}
	cmd.Flags().StringVar(&format, "format", formatJSON, "output format: json|yaml|text")
	cmd.Flags().IntVar(&topN, "top", toolview.DefaultTopN, "entries shown by ranked views")
	return cmd
}

// ========================================
// 输入输出
// ========================================

// loadDocument 读取 JSON 或 YAML 文件, "-" 表示标准输入。
func loadDocument(stdin io.Reader, path string) (any, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, err
	}
	return decode(data, filepath.Ext(path))
}

func decode(data []byte, ext string) (any, error) {
	var v any
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
	default:
		if err := json.Unmarshal(data, &v); err == nil {
			return v, nil
		}
	}
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return util.NormalizeJSON(v), nil
}

func loadElement(stdin io.Reader, path string) (*element.Element, error) {
	v, err := loadDocument(stdin, path)
	if err != nil {
		return nil, err
	}
	el := element.FromValue(v)
	if el == nil {
		return nil, fmt.Errorf("%s: document is not an element object", path)
	}
	return el, nil
}

func writeNode(w io.Writer, format string, node *render.Node) error {
	if format == formatText {
		_, err := fmt.Fprintln(w, termview.New(0).Render(node))
		return err
	}
	return write(w, format, node)
}

func write(w io.Writer, format string, v any) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case formatYAML:
		// 先经 JSON 以沿用 json tag 的字段名
		raw, err := json.Marshal(v)
		if err != nil {
			return err
		}
		var generic any
		if err := json.Unmarshal(raw, &generic); err != nil {
			return err
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(generic)
	default:
		return fmt.Errorf("unsupported format %q", format)
	}
}
