package main

import (
	"github.com/spf13/cobra"

	"github.com/chainorders/upwood-sub002/client/core/amount"
	"github.com/chainorders/upwood-sub002/client/core/tokenid"
)

func newTokenIDCmd(c *cli) *cobra.Command {
	var size int

	cmd := &cobra.Command{
		Use:   "tokenid",
		Short: "定宽小端 token id 编解码",
	}
	cmd.PersistentFlags().IntVar(&size, "size", 8, "字节宽度 (0-32)")

	cmd.AddCommand(
		&cobra.Command{
			Use:     "encode <integer>",
			Short:   "整数 → 十六进制",
			Example: "  upwood tokenid encode 1 --size 4   # 01000000",
			Args:    cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				v, err := amount.ParseInteger(args[0])
				if err != nil {
					return err
				}
				s, err := tokenid.Encode(v, size)
				if err != nil {
					return err
				}
				return c.formatter.Print(map[string]any{"value": v, "token_id": s})
			},
		},
		&cobra.Command{
			Use:   "decode <hex>",
			Short: "十六进制 → 整数",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				v, err := tokenid.Decode(args[0], size)
				if err != nil {
					return err
				}
				return c.formatter.Print(map[string]any{"token_id": args[0], "value": v})
			},
		},
	)
	return cmd
}
