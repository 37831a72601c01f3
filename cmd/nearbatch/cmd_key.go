// Copyright 2024 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package main

import (
	"bufio"
	"crypto/rand"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gitlab.com/accumulatenetwork/nearbatch/pkg/client/signing"
	"golang.org/x/term"
)

var cmdKey = &cobra.Command{
	Use:   "key",
	Short: "Manage ed25519 keys",
}

var cmdKeyGenerate = &cobra.Command{
	Use:   "generate",
	Short: "Generate a private key",
	Args:  cobra.NoArgs,
	Run:   generateKey,
}

var cmdKeyPublic = &cobra.Command{
	Use:   "public [private key]",
	Short: "Print the public key of a private key",
	Long:  "Print the public key of a private key. If the key is not given it is read from stdin, without echoing it if stdin is a terminal.",
	Args:  cobra.MaximumNArgs(1),
	Run:   publicKey,
}

func init() {
	cmdMain.AddCommand(cmdKey)
	cmdKey.AddCommand(cmdKeyGenerate, cmdKeyPublic)
}

func generateKey(cmd *cobra.Command, _ []string) {
	key, err := signing.GenerateKey(rand.Reader)
	check(err)
	pk, err := key.PublicKey()
	check(err)

	fmt.Fprintln(cmd.OutOrStdout(), "Private key:", key)
	fmt.Fprintln(cmd.OutOrStdout(), "Public key: ", pk)
}

func publicKey(cmd *cobra.Command, args []string) {
	var s string
	if len(args) > 0 {
		s = args[0]
	} else {
		var err error
		s, err = readPrivateKey(cmd.InOrStdin(), cmd.ErrOrStderr())
		checkf(err, "read key")
	}

	key, err := signing.ParsePrivateKey(s)
	checkf(err, "parse key")
	pk, err := key.PublicKey()
	check(err)
	fmt.Fprintln(cmd.OutOrStdout(), pk)
}

func readPrivateKey(in io.Reader, prompt io.Writer) (string, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(prompt, "Private key: ")
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(prompt)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(b)), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
