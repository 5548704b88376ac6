// Command quantctl sends one command to the pricing backend and prints the
// JSON reply.
//
//	quantctl bs/price_anal spot=100 vol=0.2 ir=0.01 dy=0 strike=100 ttm=1
//	quantctl --preset atm-1y
//	quantctl --import presets.yaml
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"quantdesk/server/config"
	"quantdesk/server/internal/preset"
	"quantdesk/server/pkg/quant"
)

func main() {
	fs := pflag.NewFlagSet("quantctl", pflag.ExitOnError)
	config.Flags(fs)
	presetAlias := fs.String("preset", "", "send the stored preset with this alias")
	importFile := fs.String("import", "", "import presets from a yaml file and exit")
	saveAs := fs.String("save", "", "store the command and params as a preset before sending")
	legacy := fs.Bool("legacy", false, "log failures and drop them instead of exiting non-zero")
	_ = fs.Parse(os.Args[1:])

	cfg, err := config.Load(fs)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	if err := run(os.Stdout, cfg, fs.Args(), *presetAlias, *importFile, *saveAs, *legacy); err != nil {
		fmt.Fprintln(os.Stderr, "quantctl:", err)
		os.Exit(1)
	}
}

// run sends one command and writes the reply to out. Outside legacy mode a
// status error or a backend error envelope is returned.
func run(out io.Writer, cfg *config.Config, args []string, alias, importFile, saveAs string, legacy bool) error {
	var repo *preset.SQLiteRepo
	if alias != "" || importFile != "" || saveAs != "" {
		r, err := preset.NewSQLiteRepo(cfg.DB.Path)
		if err != nil {
			return err
		}
		defer r.Close()
		repo = r
	}

	if importFile != "" {
		f, err := os.Open(importFile)
		if err != nil {
			return err
		}
		defer f.Close()
		n, err := preset.Import(repo, f)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "imported %d presets\n", n)
		return nil
	}

	var command string
	var params quant.Params
	if alias != "" {
		p, err := repo.Get(alias)
		if err != nil {
			return err
		}
		command, params = p.Command, p.Params
	} else {
		if len(args) == 0 {
			return fmt.Errorf("usage: quantctl [flags] <command> [key=value...]")
		}
		command = args[0]
		var err error
		if params, err = parseArgs(args[1:]); err != nil {
			return err
		}
	}
	if saveAs != "" {
		if err := repo.Save(&preset.Preset{Alias: saveAs, Command: command, Params: params}); err != nil {
			return err
		}
	}

	base, err := quant.ParseStrategy(cfg.Backend.Strategy, cfg.Backend.Origin)
	if err != nil {
		return err
	}
	client := quant.NewClient(cfg.Backend.Page, base, quant.WithTimeout(cfg.Backend.Timeout))

	if legacy {
		call := client.Send(command, params, func(v any) { printJSON(out, v) })
		<-call.Done()
		return nil
	}

	resp, err := client.Do(context.Background(), command, params)
	if err != nil {
		return err
	}
	if serr := resp.ServerError(); serr != nil {
		return serr
	}
	var v any
	if err := resp.Decode(&v); err != nil {
		out.Write(resp.Body)
		fmt.Fprintln(out)
		return nil
	}
	printJSON(out, v)
	return nil
}

func parseArgs(args []string) (quant.Params, error) {
	var p quant.Params
	for _, a := range args {
		k, v, ok := strings.Cut(a, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("bad parameter %q, want key=value", a)
		}
		p = p.Add(k, v)
	}
	return p, nil
}

func printJSON(out io.Writer, v any) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintln(out, v)
		return
	}
	fmt.Fprintln(out, string(b))
}
