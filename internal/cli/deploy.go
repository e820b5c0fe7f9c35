package cli

import (
	"fmt"
	"io"

	"rockfun/internal/application/port"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newDeployCommand(current func() (*app, error)) *cobra.Command {
	var in port.CreateGemInput

	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Deploy a new Gem token and register it with the backend",
		Long: `Deploy a new Gem token from the connected wallet. The wallet must be on the
target network and the account must have passed KYC activation.

Examples:
  gemctl deploy --name "Rock Gem" --symbol ROCK --supply 1000000
  gemctl deploy --graphite --name "Rock Gem" --symbol ROCK --supply 1000000 --decimals 6 \
    --image https://example.com/rock.png`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := current()
			if err != nil {
				return err
			}
			return withSession(cmd.Context(), a, func(s port.WalletSession) error {
				if !s.State().IsConnected {
					if err := s.Connect(cmd.Context()); err != nil {
						return err
					}
				}

				progress := cmd.ErrOrStderr()
				deployer, err := a.deployer(func(hash string) {
					_, _ = fmt.Fprintf(progress, "Transaction sent: %s\nWaiting for confirmation...\n", hash)
				})
				if err != nil {
					return err
				}
				svc := a.gemService(s, deployer)

				res, err := svc.Create(cmd.Context(), in)
				if err != nil {
					return err
				}
				if res.PersistErr != nil {
					a.logger.Warn("Gem deployed but not saved", zap.Error(res.PersistErr))
					_, _ = fmt.Fprintf(progress, "Warning: token deployed but the backend did not save it: %v\n", res.PersistErr)
				}

				return a.printer.print(res, func(w io.Writer) {
					d := res.Deployment
					_, _ = fmt.Fprintf(w, "Contract:    %s\n", d.ContractAddress)
					_, _ = fmt.Fprintf(w, "Transaction: %s\n", d.TransactionHash)
					if d.HashMismatch {
						_, _ = fmt.Fprintf(w, "Receipt tx:  %s (differs from the submitted hash)\n", d.ReceiptHash)
					}
					_, _ = fmt.Fprintf(w, "Supply:      %s (%s base units)\n", in.Supply, d.ScaledSupply)
					_, _ = fmt.Fprintf(w, "Gas:         %d @ %s wei\n", d.GasLimit, d.GasPrice)
					if res.ExplorerURL != "" {
						_, _ = fmt.Fprintf(w, "Explorer:    %s\n", res.ExplorerURL)
					}
				})
			})
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&in.Name, "name", "", "token name")
	flags.StringVar(&in.Symbol, "symbol", "", "token symbol, at most 10 characters")
	flags.StringVar(&in.Supply, "supply", "", "total supply in whole tokens")
	flags.IntVar(&in.Decimals, "decimals", 18, "token decimals (0-50)")
	flags.StringVar(&in.ImageURL, "image", "", "optional image URL")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("symbol")
	_ = cmd.MarkFlagRequired("supply")

	return cmd
}
