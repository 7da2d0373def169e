package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/chainorders/upwood-sub002/client/core/contract/gen"
)

func newGenCmd(c *cli) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:     "gen <manifest.json>",
		Short:   "由合约清单生成 Go 方法描述",
		Example: "  upwood gen contracts/market.json --out internal/market/methods.go",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open manifest: %w", err)
			}
			defer f.Close()

			m, err := gen.ParseManifest(f)
			if err != nil {
				return err
			}
			src, err := gen.Generate(m)
			if err != nil {
				return err
			}

			if out == "" {
				_, err = c.out.Write(src)
				return err
			}
			if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
				return fmt.Errorf("create output dir: %w", err)
			}
			if err := os.WriteFile(out, src, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}
			c.formatter.PrintSuccess(fmt.Sprintf("%s: %d entrypoints → %s", m.Contract, len(m.Entrypoints), out))
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "输出文件 (默认 stdout)")
	return cmd
}
