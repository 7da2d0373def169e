package main

import (
	"github.com/spf13/cobra"

	"github.com/chainorders/upwood-sub002/client/core/amount"
)

func newAmountCmd(c *cli) *cobra.Command {
	var decimals, roundTo int

	cmd := &cobra.Command{
		Use:   "amount",
		Short: "最小单位整数与展示金额互转",
	}
	cmd.PersistentFlags().IntVar(&decimals, "decimals", 6, "小数位数")

	display := &cobra.Command{
		Use:     "display <integer>",
		Short:   "整数 → 展示金额",
		Example: "  upwood amount display 1500000 --decimals 6 --round 2",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := amount.ToDisplayAmount(args[0], decimals, roundTo)
			if err != nil {
				return err
			}
			return c.formatter.Print(map[string]any{"amount": args[0], "display": s})
		},
	}
	display.Flags().IntVar(&roundTo, "round", 2, "保留小数位数")

	integer := &cobra.Command{
		Use:     "integer <display>",
		Short:   "展示金额 → 整数",
		Example: "  upwood amount integer 1.5 --decimals 6",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := amount.ToIntegerAmount(args[0], decimals)
			if err != nil {
				return err
			}
			return c.formatter.Print(map[string]any{"display": args[0], "amount": s})
		},
	}

	cmd.AddCommand(display, integer)
	return cmd
}

func newRateCmd(c *cli) *cobra.Command {
	var currencyDecimals, tokenDecimals, roundTo int

	cmd := &cobra.Command{
		Use:     "rate <numerator> <denominator>",
		Short:   "展示每个代币单位的价格",
		Example: "  upwood rate 2000000 1 --currency-decimals 6 --token-decimals 0",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := amount.ToDisplayRate(args[0], args[1], currencyDecimals, tokenDecimals, roundTo)
			if err != nil {
				return err
			}
			return c.formatter.Print(map[string]any{
				"numerator":   args[0],
				"denominator": args[1],
				"display":     s,
			})
		},
	}
	cmd.Flags().IntVar(&currencyDecimals, "currency-decimals", 6, "货币小数位数（缩放分子）")
	cmd.Flags().IntVar(&tokenDecimals, "token-decimals", 0, "代币小数位数（缩放分母）")
	cmd.Flags().IntVar(&roundTo, "round", 2, "保留小数位数")
	return cmd
}
