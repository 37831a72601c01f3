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
	"gitlab.com/accumulatenetwork/nearbatch/pkg/errors"
)

var cmdMain = &cobra.Command{
	Use:   "nearbatch",
	Short: "Sign and broadcast batches of NEAR transactions",
}

var flagMain struct {
	Config string
}

func init() {
	cmdMain.PersistentFlags().StringVarP(&flagMain.Config, "config", "c", "nearbatch.yaml", "Configuration file")
}

func main() {
	cobra.CheckErr(cmdMain.Execute())
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}

func check(err error) {
	if err != nil {
		err = errors.UnknownError.Skip(1).Wrap(err)
		fatalf("%v", err)
	}
}

func checkf(err error, format string, otherArgs ...interface{}) {
	if err != nil {
		err = errors.UnknownError.Skip(1).Wrap(err)
		fatalf(format+": %v", append(otherArgs, err)...)
	}
}
