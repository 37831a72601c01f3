// Copyright 2024 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gitlab.com/accumulatenetwork/nearbatch/config"
)

var cmdInit = &cobra.Command{
	Use:   "init",
	Short: "Write a sample configuration file",
	Args:  cobra.NoArgs,
	Run:   initConfig,
}

var flagInit struct {
	Force bool
}

func init() {
	cmdMain.AddCommand(cmdInit)
	cmdInit.Flags().BoolVarP(&flagInit.Force, "force", "f", false, "Overwrite an existing file")
}

func initConfig(cmd *cobra.Command, _ []string) {
	flags := os.O_WRONLY | os.O_CREATE | os.O_EXCL
	if flagInit.Force {
		flags = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	}

	f, err := os.OpenFile(flagMain.Config, flags, 0600)
	checkf(err, "create %s", flagMain.Config)
	defer func() { _ = f.Close() }()

	_, err = f.Write(config.Template)
	checkf(err, "write %s", flagMain.Config)
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", flagMain.Config)
}
