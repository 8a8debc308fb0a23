package main

import (
	"encoding/hex"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/lightsteem/lightsteem-go/pkg/keys"
	"github.com/lightsteem/lightsteem-go/pkg/sign"
	"github.com/lightsteem/lightsteem-go/pkg/txbuilder"
)

var signDigestCommand = &cli.Command{
	Name:  "sign-digest",
	Usage: "sign a node-serialized transaction for a chain",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "chain", Usage: "chain name; defaults to STEEM_CHAIN"},
		&cli.StringFlag{Name: "tx-hex", Required: true, Usage: "hex serialization from get_transaction_hex"},
		&cli.StringSliceFlag{Name: "key", Usage: "WIF private key; defaults to STEEM_KEYS"},
	},
	Action: runSignDigest,
}

var verifyCommand = &cli.Command{
	Name:  "verify",
	Usage: "check a compact signature against a digest and public key",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "digest", Required: true, Usage: "32-byte digest as hex"},
		&cli.StringFlag{Name: "sig", Required: true, Usage: "65-byte compact signature as hex"},
		&cli.StringFlag{Name: "pubkey", Required: true},
		prefixFlag,
	},
	Action: runVerify,
}

type signDigestOutput struct {
	Chain      string           `json:"chain"`
	Digest     string           `json:"digest"`
	TxID       string           `json:"tx_id"`
	Signatures []sign.Signature `json:"signatures"`
}

func runSignDigest(cctx *cli.Context) error {
	rt, err := loadRuntime(cctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	registry, err := rt.cfg.Registry()
	if err != nil {
		return err
	}
	chainName := cctx.String("chain")
	if chainName == "" {
		chainName = rt.cfg.Chain
	}
	params, err := registry.Resolve(chainName)
	if err != nil {
		return err
	}
	chainID, err := params.ChainIDBytes()
	if err != nil {
		return err
	}

	_, digest, txID, err := txbuilder.DeriveDigest(chainID, cctx.String("tx-hex"))
	if err != nil {
		return err
	}

	privateKeys, err := rt.cfg.PrivateKeys()
	if err != nil {
		return err
	}
	if wifs := cctx.StringSlice("key"); len(wifs) > 0 {
		privateKeys = privateKeys[:0]
		for _, wif := range wifs {
			k, err := keys.ParsePrivateKey(wif, params.AddressPrefix)
			if err != nil {
				return err
			}
			privateKeys = append(privateKeys, k)
		}
	}
	if len(privateKeys) == 0 {
		return txbuilder.ErrNoKeys
	}

	engine, err := rt.engine()
	if err != nil {
		return err
	}
	out := signDigestOutput{Chain: params.Name, Digest: hex.EncodeToString(digest), TxID: txID}
	for _, k := range privateKeys {
		sig, err := engine.Sign(k, digest)
		if err != nil {
			return err
		}
		out.Signatures = append(out.Signatures, sig)
	}
	return printJSON(cctx, out)
}

type verifyOutput struct {
	Valid     bool   `json:"valid"`
	Canonical bool   `json:"canonical"`
	Recovered string `json:"recovered,omitempty"`
}

func runVerify(cctx *cli.Context) error {
	digest, err := hex.DecodeString(cctx.String("digest"))
	if err != nil {
		return fmt.Errorf("decode digest: %w", err)
	}
	sig, err := sign.ParseSignature(cctx.String("sig"))
	if err != nil {
		return err
	}
	pub, err := keys.ParsePublicKey(cctx.String("pubkey"), cctx.String("prefix"))
	if err != nil {
		return err
	}

	out := verifyOutput{Valid: sign.Verify(digest, sig, pub), Canonical: sig.IsCanonical()}
	if recovered, err := sig.Recover(digest, pub.Prefix()); err == nil {
		out.Recovered = recovered.String()
	}
	if err := printJSON(cctx, out); err != nil {
		return err
	}
	if !out.Valid {
		return cli.Exit("signature does not match public key", 1)
	}
	return nil
}
