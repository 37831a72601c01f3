// Copyright 2024 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package main

import (
	"fmt"
	"io"
	"math/big"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"gitlab.com/accumulatenetwork/nearbatch/pkg/batch"
)

var statusColor = map[batch.Status]*color.Color{
	batch.StatusAccepted:     color.New(color.FgGreen),
	batch.StatusRejected:     color.New(color.FgRed),
	batch.StatusNetworkError: color.New(color.FgYellow),
}

func colorStatus(s batch.Status) string {
	c, ok := statusColor[s]
	if !ok {
		return s.String()
	}
	return c.Sprint(s)
}

// commaUint formats a nonce with thousands separators. Nonces use the full
// uint64 range.
func commaUint(n uint64) string {
	return humanize.BigComma(new(big.Int).SetUint64(n))
}

func printTable(w io.Writer, result *batch.Result) {
	fmt.Fprintf(w, "Signer %v, key %v, base nonce %s\n\n",
		result.AccessKey.AccountID, result.AccessKey.PublicKey, commaUint(result.AccessKey.Nonce))

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"#", "Nonce", "Receiver", "Size", "Hash", "Status", "Time", "Detail"})
	table.SetAutoWrapText(false)
	for _, o := range outcomesFor(result) {
		size := "?"
		if b, err := result.Transactions[o.Index].MarshalBinary(); err == nil {
			size = humanize.Bytes(uint64(len(b)))
		}
		table.Append([]string{
			strconv.Itoa(o.Index),
			commaUint(o.Nonce),
			o.Receiver,
			size,
			o.Hash,
			colorStatus(result.Outcomes[o.Index].Status),
			humanize.Comma(o.DurationMS) + " ms",
			o.Detail,
		})
	}
	table.Render()

	counts := batch.Counts(result.Outcomes)
	fmt.Fprintf(w, "\n%d accepted, %d rejected, %d network errors\n",
		counts[batch.StatusAccepted], counts[batch.StatusRejected], counts[batch.StatusNetworkError])
}
