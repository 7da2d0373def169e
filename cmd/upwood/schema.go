package main

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/chainorders/upwood-sub002/client/core/schema"
)

var errSchemaRequired = errors.New("--schema is required")

func newSchemaCmd(c *cli) *cobra.Command {
	var b64 string

	cmd := &cobra.Command{
		Use:   "schema",
		Short: "按 base64 二进制 schema 编解码值",
	}
	cmd.PersistentFlags().StringVarP(&b64, "schema", "s", "", "base64 编码的类型 schema")

	load := func() (*schema.Type, error) {
		if b64 == "" {
			return nil, errSchemaRequired
		}
		return schema.ParseTypeBase64(b64)
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "打印 schema 描述的类型",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				t, err := load()
				if err != nil {
					return err
				}
				return c.formatter.Print(map[string]any{"type": t.String()})
			},
		},
		&cobra.Command{
			Use:     "encode <json>",
			Short:   "JSON 值 → 十六进制字节",
			Example: `  upwood schema encode -s <base64> '{"amount":3}'`,
			Args:    cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				t, err := load()
				if err != nil {
					return err
				}
				v, err := schema.DecodeJSON([]byte(args[0]))
				if err != nil {
					return fmt.Errorf("parse value: %w", err)
				}
				data, err := schema.Serialize(t, v)
				if err != nil {
					return err
				}
				return c.formatter.Print(map[string]any{"hex": hex.EncodeToString(data), "size": len(data)})
			},
		},
		&cobra.Command{
			Use:   "decode <hex>",
			Short: "十六进制字节 → JSON 值",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				t, err := load()
				if err != nil {
					return err
				}
				data, err := hex.DecodeString(strings.TrimPrefix(args[0], "0x"))
				if err != nil {
					return fmt.Errorf("parse hex: %w", err)
				}
				v, err := schema.Deserialize(t, data)
				if err != nil {
					return err
				}
				return c.formatter.Print(v)
			},
		},
	)
	return cmd
}
