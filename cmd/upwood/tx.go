package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/chainorders/upwood-sub002/client"
	"github.com/chainorders/upwood-sub002/client/core/amount"
	"github.com/chainorders/upwood-sub002/client/core/contract"
	"github.com/chainorders/upwood-sub002/client/core/schema"
	"github.com/chainorders/upwood-sub002/client/core/transaction"
	"github.com/chainorders/upwood-sub002/client/core/transport"
	"github.com/chainorders/upwood-sub002/client/pkg/config"
	"github.com/chainorders/upwood-sub002/pkg/types"
)

var errNoAccount = errors.New("no sender account: pass --account or set wallet.account")

// methodFlags 描述一个 receive 入口，用于编码参数与解码结果
type methodFlags struct {
	contract     string
	entrypoint   string
	energy       uint64
	paramsSchema string
	returnSchema string
	errorSchema  string
}

func (f *methodFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.contract, "contract", "", "合约名")
	cmd.Flags().StringVar(&f.entrypoint, "entrypoint", "", "入口名")
	cmd.Flags().StringVar(&f.returnSchema, "return-schema", "", "返回值 schema (base64)")
	cmd.Flags().StringVar(&f.errorSchema, "error-schema", "", "错误 schema (base64)")
}

// method 未给出合约与入口时返回 nil，结果按无 schema 分类
func (f *methodFlags) method() (*contract.Method, error) {
	if f.contract == "" && f.entrypoint == "" {
		return nil, nil
	}
	return contract.NewReceiveMethod(f.contract, f.entrypoint, f.energy,
		contract.WithParamsSchema(f.paramsSchema),
		contract.WithReturnSchema(f.returnSchema),
		contract.WithErrorSchema(f.errorSchema),
	)
}

func newTxCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tx",
		Short: "查询、跟踪与提交合约交易",
	}
	cmd.AddCommand(newTxStatusCmd(c), newTxWatchCmd(c), newTxSendCmd(c))
	return cmd
}

func newTxStatusCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "status <hash>",
		Short: "查询交易当前状态",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withClient(cmd.Context(), func(ctx context.Context, cl *client.Client, _ *config.Config) error {
				st, err := cl.TransactionStatus(ctx, args[0])
				if err != nil {
					return err
				}
				view := map[string]any{"hash": args[0], "status": string(st.Status)}
				if st.Outcome != nil {
					view["outcome"] = transaction.Classify(nil, st.Outcome).Kind.String()
				}
				return c.formatter.Print(view)
			})
		},
	}
}

func newTxWatchCmd(c *cli) *cobra.Command {
	var mf methodFlags

	cmd := &cobra.Command{
		Use:   "watch <hash>",
		Short: "轮询交易直到最终确定并分类结果",
		Example: `  upwood tx watch 3b2c... --contract market --entrypoint buy \
    --error-schema <base64>`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := mf.method()
			if err != nil {
				return err
			}
			hash := args[0]
			return c.withClient(cmd.Context(), func(ctx context.Context, cl *client.Client, cfg *config.Config) error {
				spinner := c.formatter.Spinner(fmt.Sprintf("%s: waiting", hash))
				summary, err := transport.Watch(ctx, cl.Node(), hash, cfg.Node.PollInterval, func(status transport.TransactionStatus) {
					if spinner != nil {
						spinner.UpdateText(fmt.Sprintf("%s: %s", hash, status))
					}
				})
				stopSpinner(spinner, err == nil)
				if err != nil {
					return err
				}
				return c.printOutcome(hash, transaction.Classify(m, summary))
			})
		},
	}
	mf.register(cmd)
	return cmd
}

func newTxSendCmd(c *cli) *cobra.Command {
	var (
		mf        methodFlags
		account   string
		index     uint64
		subindex  uint64
		amountStr string
		params    string
	)

	cmd := &cobra.Command{
		Use:   "send",
		Short: "通过钱包提交 receive 调用并跟踪到最终确定",
		Example: `  upwood tx send --contract market --entrypoint buy --index 12 \
    --params-schema <base64> --params '{"amount":3}' --energy 30000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if mf.contract == "" || mf.entrypoint == "" {
				return errors.New("--contract and --entrypoint are required")
			}
			m, err := mf.method()
			if err != nil {
				return err
			}
			amt, err := amount.ParseInteger(amountStr)
			if err != nil {
				return err
			}
			if !amt.IsUint64() {
				return fmt.Errorf("amount %s overflows u64", amountStr)
			}
			var value any
			if params != "" {
				if value, err = schema.DecodeJSON([]byte(params)); err != nil {
					return fmt.Errorf("parse --params: %w", err)
				}
			}

			return c.withClient(cmd.Context(), func(ctx context.Context, cl *client.Client, cfg *config.Config) error {
				if account == "" {
					account = cfg.Wallet.Account
				}
				if account == "" {
					return errNoAccount
				}
				s, err := cl.NewSubmitter()
				if err != nil {
					return err
				}
				defer s.Close()

				spinner := c.formatter.Spinner("waiting for wallet approval")
				unsubscribe := s.Subscribe(func(st transaction.State) {
					if spinner != nil {
						spinner.UpdateText(st.String())
					}
				})
				defer unsubscribe()

				hash, err := s.Submit(ctx, &transaction.Request{
					Account:  account,
					Method:   m,
					Contract: types.ContractAddress{Index: index, Subindex: subindex},
					Amount:   amt.Uint64(),
					Params:   value,
				})
				if err != nil {
					stopSpinner(spinner, false)
					return err
				}
				st, err := s.Wait(ctx)
				if err == nil && st.Err != nil {
					err = st.Err
				}
				stopSpinner(spinner, err == nil)
				if err != nil {
					return fmt.Errorf("track %s: %w", hash, err)
				}
				return c.printOutcome(hash, st.Outcome)
			})
		},
	}
	mf.register(cmd)
	cmd.Flags().StringVar(&account, "account", "", "发起账户 (默认 wallet.account)")
	cmd.Flags().Uint64Var(&index, "index", 0, "合约实例 index")
	cmd.Flags().Uint64Var(&subindex, "subindex", 0, "合约实例 subindex")
	cmd.Flags().StringVar(&amountStr, "amount", "0", "附带金额（最小单位）")
	cmd.Flags().Uint64Var(&mf.energy, "energy", 30000, "最大执行能量")
	cmd.Flags().StringVar(&mf.paramsSchema, "params-schema", "", "参数 schema (base64)")
	cmd.Flags().StringVar(&params, "params", "", "参数 JSON")
	return cmd
}

func stopSpinner(spinner *pterm.SpinnerPrinter, ok bool) {
	if spinner == nil {
		return
	}
	if ok {
		_ = spinner.Stop()
		return
	}
	spinner.Fail()
}

// printOutcome 输出分类结果；链上拒绝同样作为数据输出，并以错误退出
func (c *cli) printOutcome(hash string, o *transaction.Outcome) error {
	if o == nil {
		return fmt.Errorf("transaction %s finalized without outcome", hash)
	}
	view := map[string]any{"hash": hash, "outcome": o.Kind.String()}
	if o.Summary != nil {
		view["block"] = o.Summary.BlockHash
		view["energy"] = uint64(o.Summary.EnergyCost)
	}
	if o.Return != nil {
		view["return"] = o.Return
	}
	if o.Error != nil {
		view["code"] = o.Error.Code
		if o.Error.Variant != "" {
			view["error"] = o.Error.Variant
		}
	}
	if o.Message != "" {
		view["message"] = o.Message
	}
	if err := c.formatter.Print(view); err != nil {
		return err
	}
	if !o.Succeeded() {
		return fmt.Errorf("transaction %s rejected", hash)
	}
	c.formatter.PrintSuccess(fmt.Sprintf("%s finalized", hash))
	return nil
}
