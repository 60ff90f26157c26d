package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/log"
	"github.com/mattn/go-isatty"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v2"

	"github.com/Sergjinio/metamorpho/publish"
	"github.com/Sergjinio/metamorpho/publish/amount"
	"github.com/Sergjinio/metamorpho/publish/contracts/metamorpho"
)

type (
	encodeReport struct {
		Operation  string           `json:"operation"`
		Signature  string           `json:"signature"`
		Selector   string           `json:"selector"`
		Data       metamorpho.Call  `json:"data"`
		Payload    *publish.Payload `json:"payload,omitempty"`
		UnsignedTx hexutil.Bytes    `json:"unsigned_tx,omitempty"`
	}

	decodeReport struct {
		Operation string      `json:"operation"`
		Signature string      `json:"signature"`
		Args      []argReport `json:"args"`
	}

	argReport struct {
		Name  string `json:"name"`
		Type  string `json:"type"`
		Value any    `json:"value"`
	}

	marketIDReport struct {
		ID metamorpho.MarketID `json:"id"`
	}
)

const (
	abiFlag        = "abi"
	verbosityFlag  = "verbosity"
	vaultFlag      = "vault"
	unsignedTxFlag = "unsigned-tx"
	chainIDFlag    = "chain-id"
	nonceFlag      = "nonce"
	gasFlag        = "gas"
	gasFeeCapFlag  = "gas-fee-cap"
	gasTipCapFlag  = "gas-tip-cap"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		exitErr(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "mm-calldata",
		Usage: "encode and decode MetaMorpho vault calls",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    abiFlag,
				Usage:   "JSON ABI file to encode against (default: embedded MetaMorpho ABI)",
				EnvVars: []string{"MM_ABI"},
			},
			&cli.IntFlag{
				Name:    verbosityFlag,
				Usage:   "log level: 0=crit, 1=error, 2=warn, 3=info, 4=debug, 5=trace",
				Value:   3,
				EnvVars: []string{"MM_VERBOSITY"},
			},
		},
		Before: func(c *cli.Context) error {
			setupLogging(c.Int(verbosityFlag))
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:      "encode",
				Usage:     "encode a vault call",
				ArgsUsage: "<operation> [args...]",
				Description: "Arguments follow the declared parameter order. Lists are comma separated,\n" +
					"tuples are JSON objects keyed by component name, e.g.\n" +
					`  mm-calldata encode acceptCap '{"loanToken":"0x..","collateralToken":"0x..","oracle":"0x..","irm":"0x..","lltv":860000000000000000}'`,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    vaultFlag,
						Usage:   "vault address; adds a submission payload to the report",
						EnvVars: []string{"MM_VAULT"},
					},
					&cli.BoolFlag{
						Name:  unsignedTxFlag,
						Usage: "also print the unsigned EIP-1559 transaction (requires --vault)",
					},
					&cli.Int64Flag{
						Name:    chainIDFlag,
						Usage:   "chain id",
						Value:   1,
						EnvVars: []string{"MM_CHAIN_ID"},
					},
					&cli.Uint64Flag{
						Name:    nonceFlag,
						Usage:   "transaction nonce",
						EnvVars: []string{"MM_NONCE"},
					},
					&cli.Uint64Flag{
						Name:  gasFlag,
						Usage: "gas limit",
						Value: publish.CallGasLimit,
					},
					&cli.Int64Flag{
						Name:    gasFeeCapFlag,
						Usage:   "EIP-1559 fee cap",
						Value:   2_000_000_000,
						EnvVars: []string{"MM_GAS_FEE_CAP"},
					},
					&cli.Int64Flag{
						Name:    gasTipCapFlag,
						Usage:   "EIP-1559 tip cap",
						Value:   1_000_000_000,
						EnvVars: []string{"MM_GAS_TIP_CAP"},
					},
				},
				Action: encodeAction,
			},
			{
				Name:      "decode",
				Usage:     "decode vault calldata",
				ArgsUsage: "<hex>",
				Action:    decodeAction,
			},
			{
				Name:   "selectors",
				Usage:  "list supported operations with their selectors",
				Action: selectorsAction,
			},
			{
				Name:  "market-id",
				Usage: "compute the id of a market",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "loan-token", Required: true},
					&cli.StringFlag{Name: "collateral-token", Required: true},
					&cli.StringFlag{Name: "oracle", Required: true},
					&cli.StringFlag{Name: "irm", Required: true},
					&cli.StringFlag{Name: "lltv", Required: true, Usage: "integer WAD or decimal fraction (0.86)"},
				},
				Action: marketIDAction,
			},
		},
	}
}

func setupLogging(verbosity int) {
	useColor := isatty.IsTerminal(os.Stderr.Fd()) && os.Getenv("TERM") != "dumb"
	handler := log.NewTerminalHandlerWithLevel(os.Stderr, log.FromLegacyLevel(verbosity), useColor)
	log.SetDefault(log.NewLogger(handler))
}

func loadEncoder(c *cli.Context) (*metamorpho.Encoder, error) {
	path := c.String(abiFlag)
	if path == "" {
		schema, err := metamorpho.NewSchema()
		if err != nil {
			return nil, err
		}
		return metamorpho.NewEncoder(schema), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open abi: %w", err)
	}
	defer f.Close()

	schema, err := metamorpho.ParseSchema(f)
	if err != nil {
		return nil, fmt.Errorf("load abi %s: %w", path, err)
	}
	log.Debug("Loaded external schema", "path", path, "operations", len(schema.Operations()))
	return metamorpho.NewEncoder(schema), nil
}

func encodeAction(c *cli.Context) error {
	if c.NArg() < 1 {
		return errors.New("operation is required")
	}
	enc, err := loadEncoder(c)
	if err != nil {
		return err
	}

	op := c.Args().First()
	inputs, ok := enc.Schema().Inputs(op)
	if !ok {
		return fmt.Errorf("unsupported operation: %s", op)
	}
	raw := c.Args().Tail()
	if len(raw) != len(inputs) {
		return fmt.Errorf("%s takes %d arguments, got %d", op, len(inputs), len(raw))
	}
	args := make([]any, len(inputs))
	for i, input := range inputs {
		v, err := parseArg(input.Type, raw[i])
		if err != nil {
			return fmt.Errorf("argument %s: %w", input.Name, err)
		}
		args[i] = v
	}

	call, err := enc.Encode(op, args...)
	if err != nil {
		return err
	}
	sig, _ := enc.Schema().Signature(op)
	log.Debug("Encoded vault call", "op", op, "selector", call[:metamorpho.SelectorLength].Hex(), "size", len(call))

	out := encodeReport{
		Operation: op,
		Signature: sig,
		Selector:  call[:metamorpho.SelectorLength].Hex(),
		Data:      call,
	}

	if c.IsSet(vaultFlag) {
		vault, err := parseAddress(c.String(vaultFlag))
		if err != nil {
			return err
		}
		payload := publish.NewPayload(vault, call)
		out.Payload = &payload

		if c.Bool(unsignedTxFlag) {
			tx := payload.UnsignedTx(publish.TxParams{
				ChainID:   big.NewInt(c.Int64(chainIDFlag)),
				Nonce:     c.Uint64(nonceFlag),
				Gas:       c.Uint64(gasFlag),
				GasFeeCap: big.NewInt(c.Int64(gasFeeCapFlag)),
				GasTipCap: big.NewInt(c.Int64(gasTipCapFlag)),
			})
			blob, err := tx.MarshalBinary()
			if err != nil {
				return fmt.Errorf("marshal tx: %w", err)
			}
			out.UnsignedTx = blob
		}
	} else if c.Bool(unsignedTxFlag) {
		return errors.New("--unsigned-tx requires --vault")
	}

	return writeJSON(c.App.Writer, out)
}

func decodeAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return errors.New("exactly one hex argument is required")
	}
	data, err := publish.DecodeHex(c.Args().First())
	if err != nil {
		return err
	}
	enc, err := loadEncoder(c)
	if err != nil {
		return err
	}
	decoded, err := enc.Decode(data)
	if err != nil {
		return err
	}

	out := decodeReport{
		Operation: decoded.Name,
		Signature: decoded.Signature,
		Args:      make([]argReport, len(decoded.Args)),
	}
	for i, arg := range decoded.Args {
		out.Args[i] = argReport{Name: arg.Name, Type: arg.Type, Value: displayValue(arg.Value)}
	}
	return writeJSON(c.App.Writer, out)
}

func selectorsAction(c *cli.Context) error {
	enc, err := loadEncoder(c)
	if err != nil {
		return err
	}
	schema := enc.Schema()

	table := tablewriter.NewWriter(c.App.Writer)
	table.SetHeader([]string{"Operation", "Selector", "Signature"})
	table.SetAutoWrapText(false)
	for _, op := range schema.Operations() {
		sel, _ := schema.Selector(op)
		sig, _ := schema.Signature(op)
		table.Append([]string{op, hexutil.Encode(sel[:]), sig})
	}
	table.Render()
	return nil
}

func marketIDAction(c *cli.Context) error {
	var (
		params metamorpho.MarketParams
		err    error
	)
	for _, f := range []struct {
		name string
		dst  *common.Address
	}{
		{"loan-token", &params.LoanToken},
		{"collateral-token", &params.CollateralToken},
		{"oracle", &params.Oracle},
		{"irm", &params.IRM},
	} {
		addr, err := parseAddress(c.String(f.name))
		if err != nil {
			return fmt.Errorf("%s: %w", f.name, err)
		}
		*f.dst = addr
	}

	lltv := c.String("lltv")
	if strings.Contains(lltv, ".") {
		params.LLTV, err = amount.ParseWad(lltv)
	} else {
		params.LLTV, err = amount.Parse(lltv)
	}
	if err != nil {
		return fmt.Errorf("lltv: %w", err)
	}

	return writeJSON(c.App.Writer, marketIDReport{ID: params.ID()})
}

func writeJSON(w io.Writer, v any) error {
	blob, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(blob))
	return err
}

func exitErr(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
