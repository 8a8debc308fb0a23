package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/urfave/cli/v2"

	"github.com/lightsteem/lightsteem-go/pkg/chain"
	"github.com/lightsteem/lightsteem-go/pkg/txbuilder"
)

var broadcastCommand = &cli.Command{
	Name:  "broadcast",
	Usage: "build, sign and broadcast a transaction with the configured keys",
	Flags: []cli.Flag{
		&cli.PathFlag{Name: "ops", Required: true, Usage: "JSON file with a list of [name, payload] operations"},
		&cli.StringFlag{Name: "chain", Usage: "chain name; defaults to STEEM_CHAIN"},
		&cli.BoolFlag{Name: "dry-run", Usage: "sign without broadcasting"},
	},
	Action: runBroadcast,
}

var chainsCommand = &cli.Command{
	Name:  "chains",
	Usage: "list known chains",
	Flags: []cli.Flag{
		&cli.PathFlag{Name: "file", Usage: "extra chains YAML file", EnvVars: []string{"STEEM_CHAINS_FILE"}},
		&cli.BoolFlag{Name: "json", Usage: "print JSON instead of a table"},
	},
	Action: runChains,
}

type broadcastOutput struct {
	TxID        string                 `json:"tx_id"`
	Transaction *txbuilder.Transaction `json:"transaction"`
	Result      json.RawMessage        `json:"result,omitempty"`
}

func readOperations(path string) ([]txbuilder.Operation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read operations: %w", err)
	}
	var ops []txbuilder.Operation
	if err := json.Unmarshal(data, &ops); err != nil {
		return nil, fmt.Errorf("decode operations: %w", err)
	}
	return ops, nil
}

func runBroadcast(cctx *cli.Context) error {
	ops, err := readOperations(cctx.Path("ops"))
	if err != nil {
		return err
	}

	rt, err := loadRuntime(cctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	engine, err := rt.engine()
	if err != nil {
		return err
	}
	b, err := rt.builder(rt.client(), engine)
	if err != nil {
		return err
	}

	chainName := cctx.String("chain")
	if chainName == "" {
		chainName = rt.cfg.Chain
	}
	tx, result, err := b.Build(cctx.Context, ops, chainName, cctx.Bool("dry-run"))
	if err != nil {
		return err
	}
	return printJSON(cctx, broadcastOutput{TxID: b.TransactionID(), Transaction: tx, Result: result})
}

type chainOutput struct {
	chain.Params
	Default bool `json:"default"`
}

func runChains(cctx *cli.Context) error {
	registry := chain.NewRegistry()
	if path := cctx.Path("file"); path != "" {
		if err := registry.Load(path); err != nil {
			return err
		}
	}
	def, err := registry.Resolve(nil)
	if err != nil {
		return err
	}

	var out []chainOutput
	for _, name := range registry.Names() {
		params, _ := registry.Get(name)
		out = append(out, chainOutput{Params: params, Default: name == def.Name})
	}
	if cctx.Bool("json") {
		return printJSON(cctx, out)
	}

	t := table.NewWriter()
	t.SetOutputMirror(cctx.App.Writer)
	t.AppendHeader(table.Row{"Name", "Chain ID", "Prefix", "Symbol", "Default"})
	t.AppendSeparator()
	for _, c := range out {
		marker := ""
		if c.Default {
			marker = "*"
		}
		t.AppendRow(table.Row{c.Name, c.ChainID, c.AddressPrefix, c.CoreSymbol, marker})
	}
	t.Render()
	return nil
}
