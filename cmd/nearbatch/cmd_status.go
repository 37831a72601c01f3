// Copyright 2024 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gitlab.com/accumulatenetwork/nearbatch/pkg/api/jsonrpc"
)

var cmdStatus = &cobra.Command{
	Use:   "status [server]",
	Short: "Print the status of a node",
	Args:  cobra.MaximumNArgs(1),
	Run:   nodeStatus,
}

func init() {
	cmdMain.AddCommand(cmdStatus)
}

func nodeStatus(cmd *cobra.Command, args []string) {
	var server string
	if len(args) > 0 {
		server = args[0]
	} else {
		cfg := loadConfig()
		server = cfg.Network.RPCURL
	}

	status, err := jsonrpc.NewClient(server).NodeStatus(context.Background())
	checkf(err, "query %s", server)

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Chain:       ", status.ChainID)
	fmt.Fprintln(out, "Block height:", commaUint(status.LatestBlockHeight))
	fmt.Fprintln(out, "Block hash:  ", status.LatestBlockHash)
	if status.Syncing {
		fmt.Fprintln(out, "Syncing:     ", color.YellowString("yes"))
	} else {
		fmt.Fprintln(out, "Syncing:     ", color.GreenString("no"))
	}
}
