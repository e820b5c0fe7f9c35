package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"rockfun/internal/application/port"
	"rockfun/internal/domain"
	"rockfun/internal/domain/entity"

	"github.com/spf13/cobra"
)

// withSession opens a wallet session for the duration of fn.
func withSession(ctx context.Context, a *app, fn func(port.WalletSession) error) error {
	session, closeSession, err := a.openSession(ctx)
	if err != nil {
		return err
	}
	defer closeSession()
	return fn(session)
}

func newStatusCommand(current func() (*app, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the wallet connection state",
		Long: `Show the wallet connection state. The wallet is connected automatically when it
has already authorized this client; use "connect" to request authorization.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := current()
			if err != nil {
				return err
			}
			return withSession(cmd.Context(), a, func(s port.WalletSession) error {
				return printState(a, s.State(), s.TargetNetwork())
			})
		},
	}
}

func newConnectCommand(current func() (*app, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "connect",
		Short: "Request account access from the wallet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := current()
			if err != nil {
				return err
			}
			return withSession(cmd.Context(), a, func(s port.WalletSession) error {
				connectErr := s.Connect(cmd.Context())
				if err := printState(a, s.State(), s.TargetNetwork()); err != nil {
					return err
				}
				return connectErr
			})
		},
	}
}

func newKycCommand(current func() (*app, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "kyc",
		Short: "Check the connected account's KYC status on the target network",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := current()
			if err != nil {
				return err
			}
			return withSession(cmd.Context(), a, func(s port.WalletSession) error {
				status, err := s.CheckKyc(cmd.Context())
				if err != nil {
					return err
				}
				return a.printer.print(status, func(w io.Writer) {
					printKyc(w, status)
				})
			})
		},
	}
}

func newSwitchCommand(current func() (*app, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "switch <mainnet|testnet>",
		Short: "Switch the target network and ask the wallet to follow",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := current()
			if err != nil {
				return err
			}
			id := entity.NetworkID(strings.ToLower(args[0]))
			if !id.Valid() {
				return fmt.Errorf("%w: %q", domain.ErrInvalidNetworkID, args[0])
			}
			return withSession(cmd.Context(), a, func(s port.WalletSession) error {
				switchErr := s.SwitchNetwork(cmd.Context(), id)
				if err := printState(a, s.State(), s.TargetNetwork()); err != nil {
					return err
				}
				return switchErr
			})
		},
	}
}

func newDisconnectCommand(current func() (*app, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "disconnect",
		Short: "Forget the connected account locally",
		Long: `Clear the session's account, balance and KYC state. The wallet's own
authorization is not revoked.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := current()
			if err != nil {
				return err
			}
			return withSession(cmd.Context(), a, func(s port.WalletSession) error {
				if err := s.Disconnect(cmd.Context()); err != nil {
					return err
				}
				return printState(a, s.State(), s.TargetNetwork())
			})
		},
	}
}

func printState(a *app, st entity.WalletState, target entity.NetworkConfig) error {
	return a.printer.print(st, func(w io.Writer) {
		_, _ = fmt.Fprintf(w, "Wallet:    %s\n", st.Variant)
		_, _ = fmt.Fprintf(w, "Phase:     %s\n", st.Phase)
		_, _ = fmt.Fprintf(w, "Target:    %s (%s)\n", target.ChainName, target.ChainIDHex)
		_, _ = fmt.Fprintf(w, "Account:   %s\n", orDash(st.Account))
		_, _ = fmt.Fprintf(w, "Network:   %s %s\n", orDash(st.NetworkName), st.ChainIDHex)
		if st.Balance != nil {
			_, _ = fmt.Fprintf(w, "Balance:   %s %s\n", *st.Balance, target.NativeCurrency.Symbol)
		}
		if st.AccountInfo != nil {
			_, _ = fmt.Fprintf(w, "Activated: %t (kyc level %s, reputation %s)\n",
				st.AccountInfo.Active, orDash(st.AccountInfo.KycLevel), orDash(st.AccountInfo.Reputation))
		}
		if st.Kyc != nil {
			printKyc(w, st.Kyc)
		}
		if st.Error != "" {
			_, _ = fmt.Fprintf(w, "Error:     %s\n", st.Error)
		}
	})
}

func printKyc(w io.Writer, k *entity.KycStatus) {
	if k == nil {
		_, _ = fmt.Fprintln(w, "KYC:       unknown")
		return
	}
	if k.Error != "" {
		_, _ = fmt.Fprintf(w, "KYC:       error: %s\n", k.Error)
		return
	}
	_, _ = fmt.Fprintf(w, "KYC:       activated=%t level=%s reputation=%s\n",
		k.IsActivated, derefOrDash(k.KycLevel), derefOrDash(k.Reputation))
}
