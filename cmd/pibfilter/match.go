// Copyright (c) 2017 by Thorsten von Eicken, see LICENSE file for details

package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/tve/ieee802154/frame"
	"github.com/tve/ieee802154/pib"
	"github.com/tve/ieee802154/rxfilter"
)

var matchCmd = &cobra.Command{
	Use:   "match <psdu-hex>",
	Short: "Check a single frame against the configured PIB",
	Long: `match decodes a PSDU given in hex, starting with the PHY length byte, and prints whether
the configured PIB accepts it. Spaces and colons in the hex string are ignored.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := newPIB(config.PIB)
		if err != nil {
			return err
		}
		return matchFrame(cmd.OutOrStdout(), p, args[0])
	},
}

// matchFrame runs one hex-encoded PSDU through a filter built on p and prints the outcome.
func matchFrame(w io.Writer, p *pib.PIB, psduHex string) error {
	s := strings.NewReplacer(" ", "", ":", "").Replace(strings.TrimPrefix(psduHex, "0x"))
	psdu, err := hex.DecodeString(s)
	if err != nil {
		return errors.Wrap(err, "cannot decode psdu")
	}

	f := rxfilter.New(p, rxfilter.Opts{})
	fmt.Fprintf(w, "pib:      %s\n", f.Attributes())
	d, err := f.Accept(psdu)
	if v, perr := frame.Parse(psdu); perr == nil {
		fmt.Fprintf(w, "frame:    %s\n", v)
	}
	fmt.Fprintf(w, "decision: %s\n", d)
	return err
}
