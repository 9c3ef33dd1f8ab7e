// File: cmd/calc/main.go
// Command calc sends one calculator request and prints the result.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package main

import (
	"fmt"
	"math"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/momentics/hioload-calc/api"
	"github.com/momentics/hioload-calc/client"
	"github.com/momentics/hioload-calc/protocol"
)

func newRootCmd() *cobra.Command {
	var (
		local   bool
		timeout time.Duration
	)
	cmd := &cobra.Command{
		Use:   "calc <server-address> <port> <operand1> <operand2> <operation>",
		Short: "Send one request to a calcd server",
		Long: `Operands are non-negative integers; the operation is one of + - * /.
With --local the address is a Unix-domain socket path and the port is ignored.`,
		Example: "  calc 127.0.0.1 5000 50 8 +\n  calc --local /tmp/calc.sock 0 7 2 /",
		Args:    cobra.ExactArgs(5),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := parseRequest(args[2:])
			if err != nil {
				return err
			}
			network, addr, err := target(local, args[0], args[1])
			if err != nil {
				return err
			}
			cmd.SilenceUsage = true

			resp, err := client.New(network, addr, client.WithTimeout(timeout)).Do(cmd.Context(), req)
			if err != nil {
				return err
			}
			return report(cmd, resp)
		},
	}
	cmd.Flags().BoolVar(&local, "local", false, "connect to a Unix-domain socket at <server-address>")
	cmd.Flags().DurationVar(&timeout, "timeout", client.DefaultTimeout, "exchange timeout")
	return cmd
}

// parseRequest validates operands and operation before any network activity.
func parseRequest(args []string) (protocol.Record, error) {
	op1, err := parseOperand(args[0])
	if err != nil {
		return protocol.Record{}, err
	}
	op2, err := parseOperand(args[1])
	if err != nil {
		return protocol.Record{}, err
	}
	op, err := protocol.ParseOperation(args[2])
	if err != nil {
		return protocol.Record{}, usage("invalid operation").WithCause(err).WithContext("operation", args[2])
	}
	req := protocol.NewRequest(op1, op2, op)
	if err := req.Validate(); err != nil {
		return protocol.Record{}, usage("invalid request").WithCause(err)
	}
	return req, nil
}

func parseOperand(s string) (int32, error) {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil || v < 0 || v > math.MaxInt32 {
		return 0, usage("operands must be integers in 0..2147483647").WithContext("operand", s)
	}
	return int32(v), nil
}

func target(local bool, address, port string) (network, addr string, err error) {
	if local {
		return "unix", address, nil
	}
	p, err := strconv.Atoi(port)
	if err != nil || p < 1 || p > 65535 {
		return "", "", usage("port number must be in 1-65535").WithContext("port", port)
	}
	return "tcp", net.JoinHostPort(address, port), nil
}

// report prints the reply. A status of -1 is a valid answer, not a failure;
// like the result line it prints the result field.
func report(cmd *cobra.Command, resp protocol.Record) error {
	if resp.Status == protocol.StatusOK {
		_, err := fmt.Fprintf(cmd.OutOrStdout(), "Result: %d\n", resp.Result)
		return err
	}
	_, err := fmt.Fprintf(cmd.ErrOrStderr(), "Error: %d\n", resp.Result)
	return err
}

func usage(msg string) *api.Error {
	return api.NewError(api.ErrCodeUsage, msg)
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
