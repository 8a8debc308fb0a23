package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/lightsteem/lightsteem-go/pkg/keys"
)

var prefixFlag = &cli.StringFlag{
	Name:  "prefix",
	Usage: "network address prefix",
	Value: keys.DefaultPrefix,
}

var keygenCommand = &cli.Command{
	Name:   "keygen",
	Usage:  "create a new random private key",
	Flags:  []cli.Flag{prefixFlag},
	Action: runKeygen,
}

var deriveCommand = &cli.Command{
	Name:  "derive",
	Usage: "derive a role key from an account name and password",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "account", Required: true},
		&cli.StringFlag{Name: "role", Value: keys.RoleActive, Usage: "owner, active, posting or memo"},
		&cli.StringFlag{Name: "password", Required: true, EnvVars: []string{"STEEM_PASSWORD"}},
		prefixFlag,
	},
	Action: runDerive,
}

var pubkeyCommand = &cli.Command{
	Name:      "pubkey",
	Usage:     "print the public keys of a WIF private key",
	ArgsUsage: "<wif>",
	Flags:     []cli.Flag{prefixFlag},
	Action:    runPubkey,
}

var addressCommand = &cli.Command{
	Name:      "address",
	Usage:     "print the address of a public key",
	ArgsUsage: "<pubkey>",
	Flags: []cli.Flag{
		prefixFlag,
		&cli.StringFlag{Name: "format", Usage: "network prefix, or \"btc\" for a Bitcoin address"},
	},
	Action: runAddress,
}

type keyOutput struct {
	WIF             string `json:"wif,omitempty"`
	PublicKey       string `json:"public_key"`
	UncompressedHex string `json:"uncompressed_hex,omitempty"`
	Address         string `json:"address"`
	BitcoinAddress  string `json:"btc_address,omitempty"`
}

func describePrivateKey(k *keys.PrivateKey, withWIF bool) keyOutput {
	out := keyOutput{
		PublicKey:       k.PublicKey().String(),
		UncompressedHex: k.UncompressedPublicKey().Hex(),
		Address:         k.Address().String(),
		BitcoinAddress:  k.Address().Format(keys.FormatBTC),
	}
	if withWIF {
		out.WIF = k.WIF()
	}
	return out
}

func runKeygen(cctx *cli.Context) error {
	k, err := keys.GeneratePrivateKey(cctx.String("prefix"))
	if err != nil {
		return err
	}
	return printJSON(cctx, describePrivateKey(k, true))
}

func runDerive(cctx *cli.Context) error {
	pk := keys.NewPasswordKey(cctx.String("account"), cctx.String("password"), cctx.String("role"))
	k, err := pk.PrivateKey()
	if err != nil {
		return err
	}
	k, err = keys.NewPrivateKey(k.Bytes(), cctx.String("prefix"))
	if err != nil {
		return err
	}
	return printJSON(cctx, describePrivateKey(k, true))
}

func runPubkey(cctx *cli.Context) error {
	wif := cctx.Args().First()
	if wif == "" {
		return fmt.Errorf("need to provide a WIF private key as an argument")
	}
	k, err := keys.ParsePrivateKey(wif, cctx.String("prefix"))
	if err != nil {
		return err
	}
	return printJSON(cctx, describePrivateKey(k, false))
}

func runAddress(cctx *cli.Context) error {
	text := cctx.Args().First()
	if text == "" {
		return fmt.Errorf("need to provide a public key as an argument")
	}
	pub, err := keys.ParsePublicKey(text, cctx.String("prefix"))
	if err != nil {
		return err
	}

	format := cctx.String("format")
	if format == "" {
		format = pub.Prefix()
	}
	fmt.Fprintln(cctx.App.Writer, pub.Address().Format(format))
	return nil
}
