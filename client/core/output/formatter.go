// Package output 命令行输出：数据写 stdout，状态消息写 stderr
package output

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"os"
	"sort"

	"github.com/pterm/pterm"
)

// Format 输出格式
type Format string

const (
	// FormatJSON 单行 JSON（默认）
	FormatJSON Format = "json"
	// FormatPretty 缩进 JSON
	FormatPretty Format = "pretty"
	// FormatTable 表格
	FormatTable Format = "table"
	// FormatText 纯文本
	FormatText Format = "text"
)

var (
	// ErrUnknownFormat 不支持的输出格式
	ErrUnknownFormat = errors.New("unknown output format")
)

// ParseFormat 解析 -o 参数
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatJSON, FormatPretty, FormatTable, FormatText:
		return f, nil
	case "":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: %q (want json|pretty|table|text)", ErrUnknownFormat, s)
	}
}

// Formatter 输出格式化器
type Formatter struct {
	format    Format
	writer    io.Writer
	logWriter io.Writer
	silent    bool
}

// NewFormatter 创建格式化器；writer 为空时写 stdout
func NewFormatter(format Format, writer io.Writer) *Formatter {
	if writer == nil {
		writer = os.Stdout
	}
	return &Formatter{
		format:    format,
		writer:    writer,
		logWriter: os.Stderr,
	}
}

// Format 当前格式
func (f *Formatter) Format() Format {
	return f.format
}

// SetLogWriter 设置状态消息输出（默认 stderr）
func (f *Formatter) SetLogWriter(writer io.Writer) {
	if writer == nil {
		writer = os.Stderr
	}
	f.logWriter = writer
}

// SetSilent 静默模式下只输出错误
func (f *Formatter) SetSilent(silent bool) {
	f.silent = silent
}

// Print 按格式输出数据
func (f *Formatter) Print(data any) error {
	if f.silent {
		return nil
	}
	switch f.format {
	case FormatPretty:
		return f.printJSON(data, true)
	case FormatTable:
		return f.printTable(data)
	case FormatText:
		return f.printText(data)
	default:
		return f.printJSON(data, false)
	}
}

func (f *Formatter) printJSON(data any, pretty bool) error {
	enc := json.NewEncoder(f.writer)
	enc.SetEscapeHTML(false)
	if pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(data); err != nil {
		return fmt.Errorf("write json: %w", err)
	}
	return nil
}

// printTable map 输出两列，map 切片按列名输出，其他值退化为缩进 JSON
func (f *Formatter) printTable(data any) error {
	var rows pterm.TableData
	switch v := data.(type) {
	case map[string]any:
		rows = append(rows, []string{"Key", "Value"})
		for _, key := range sortedKeys(v) {
			rows = append(rows, []string{key, formatValue(v[key])})
		}
	case []map[string]any:
		if len(v) == 0 {
			return nil
		}
		columns := extractColumns(v)
		rows = append(rows, columns)
		for _, row := range v {
			values := make([]string, len(columns))
			for i, col := range columns {
				values[i] = formatValue(row[col])
			}
			rows = append(rows, values)
		}
	default:
		return f.printJSON(data, true)
	}

	if err := pterm.DefaultTable.WithHasHeader().WithWriter(f.writer).WithData(rows).Render(); err != nil {
		return fmt.Errorf("write table: %w", err)
	}
	return nil
}

func (f *Formatter) printText(data any) error {
	var err error
	switch v := data.(type) {
	case map[string]any:
		for _, key := range sortedKeys(v) {
			if _, err = fmt.Fprintf(f.writer, "%s: %s\n", key, formatValue(v[key])); err != nil {
				break
			}
		}
	default:
		_, err = fmt.Fprintln(f.writer, formatValue(v))
	}
	if err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

// PrintSuccess 成功消息
func (f *Formatter) PrintSuccess(message string) {
	if !f.silent {
		pterm.Success.WithWriter(f.logWriter).Println(message)
	}
}

// PrintError 错误消息，静默模式下也输出
func (f *Formatter) PrintError(err error) {
	pterm.Error.WithWriter(f.logWriter).Println(err.Error())
}

// PrintWarning 警告消息
func (f *Formatter) PrintWarning(message string) {
	if !f.silent {
		pterm.Warning.WithWriter(f.logWriter).Println(message)
	}
}

// PrintInfo 提示消息
func (f *Formatter) PrintInfo(message string) {
	if !f.silent {
		pterm.Info.WithWriter(f.logWriter).Println(message)
	}
}

// Spinner 在 stderr 上启动进度指示；静默模式或启动失败时返回 nil
func (f *Formatter) Spinner(text string) *pterm.SpinnerPrinter {
	if f.silent {
		return nil
	}
	spinner, err := pterm.DefaultSpinner.WithWriter(f.logWriter).WithRemoveWhenDone(true).Start(text)
	if err != nil {
		return nil
	}
	return spinner
}

func formatValue(value any) string {
	switch v := value.(type) {
	case nil:
		return "-"
	case string:
		return v
	case json.Number:
		return v.String()
	case *big.Int:
		return v.String()
	case fmt.Stringer:
		return v.String()
	case bool, int, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprint(v)
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(data)
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// extractColumns 按首次出现顺序收集列名
func extractColumns(data []map[string]any) []string {
	seen := make(map[string]bool)
	var columns []string
	for _, row := range data {
		for _, key := range sortedKeys(row) {
			if !seen[key] {
				seen[key] = true
				columns = append(columns, key)
			}
		}
	}
	return columns
}
