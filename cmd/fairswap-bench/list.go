package main

import (
	"fmt"
	"sort"

	"github.com/urfave/cli/v2"

	"github.com/Layr-Labs/fairswap-bench/pkg/protocols"
)

var listProtocolsCommand = &cli.Command{
	Name:  "list-protocols",
	Usage: "print every registered protocol name, one per line",
	Action: func(c *cli.Context) error {
		names := protocols.Protocols()
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintln(c.App.Writer, name)
		}
		return nil
	},
}

var listStrategiesCommand = &cli.Command{
	Name:      "list-strategies",
	Usage:     "print a protocol's seller and buyer strategies, grouped",
	ArgsUsage: "<protocol>",
	Action: func(c *cli.Context) error {
		if c.NArg() != 1 {
			return cli.Exit("list-strategies requires exactly one <protocol> argument", 1)
		}
		protocol := c.Args().First()

		sellers, err := protocols.SellerStrategies(protocol)
		if err != nil {
			return cli.Exit(err, 1)
		}
		buyers, err := protocols.BuyerStrategies(protocol)
		if err != nil {
			return cli.Exit(err, 1)
		}
		sort.Strings(sellers)
		sort.Strings(buyers)

		fmt.Fprintln(c.App.Writer, "seller:")
		for _, s := range sellers {
			fmt.Fprintln(c.App.Writer, " ", s)
		}
		fmt.Fprintln(c.App.Writer, "buyer:")
		for _, b := range buyers {
			fmt.Fprintln(c.App.Writer, " ", b)
		}
		return nil
	},
}
