package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	logging "github.com/ipfs/go-log/v2"
	"github.com/jessevdk/go-flags"
	"github.com/mining-pool/blockminer/api"
	"github.com/mining-pool/blockminer/config"
	"github.com/mining-pool/blockminer/jobs"
	"github.com/mining-pool/blockminer/mempool"
	"github.com/mining-pool/blockminer/storage"
	"github.com/mining-pool/blockminer/utils"
	"github.com/pkg/errors"
)

var log = logging.Logger("main")

type cliOptions struct {
	Config   string `short:"c" long:"config" description:"Path to the JSONC config file" default:"config.jsonc"`
	Mempool  string `short:"m" long:"mempool" description:"Directory of transaction JSON files" default:"mempool"`
	Output   string `short:"o" long:"output" description:"File the mined block is written to" default:"out.txt"`
	Workers  int    `short:"w" long:"workers" description:"Number of mining goroutines, overrides the config"`
	LogLevel string `long:"loglevel" description:"Log level: debug, info, warn or error" default:"info"`
	Serve    bool   `long:"serve" description:"Keep serving the status API after the block is mined"`
}

func main() {
	var cli cliOptions
	parser := flags.NewParser(&cli, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if e, ok := err.(*flags.Error); ok && e.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if err := logging.SetLogLevel("*", cli.LogLevel); err != nil {
		log.Error(err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, &cli); err != nil {
		log.Errorf("%+v", err)
		stop()
		os.Exit(1)
	}
}

func loadOptions(path string) (*config.Options, error) {
	if !utils.FileExists(path) {
		log.Warn("config file ", path, " not found, using defaults")
		return config.ParseOptions([]byte(`{}`))
	}

	return config.LoadOptions(path)
}

func run(ctx context.Context, cli *cliOptions) error {
	options, err := loadOptions(cli.Config)
	if err != nil {
		return err
	}

	if cli.Workers > 0 {
		options.Mining.Workers = cli.Workers
	}

	var jobOpts []jobs.Option
	var blocks api.BlockSource
	if options.Storage != nil {
		db, err := storage.NewStorage(ctx, options.Coin.Name, options.Storage)
		if err != nil {
			return err
		}
		defer db.Close()

		jobOpts = append(jobOpts, jobs.WithStorage(db))
		blocks = db
	}

	pool, err := mempool.LoadDir(cli.Mempool)
	if err != nil {
		return err
	}

	jm, err := jobs.NewJobManager(options, jobOpts...)
	if err != nil {
		return err
	}

	serveErr := make(chan error, 1)
	if cli.Serve {
		if options.API == nil {
			return errors.New("--serve needs an api section in the config")
		}

		server := api.NewAPIServer(options, jm, blocks)
		go func() {
			serveErr <- server.Serve(ctx)
		}()
	}

	tmpl, err := options.Mining.Template(pool.Transactions(), time.Now())
	if err != nil {
		return err
	}

	if _, err := jm.ProcessTemplate(tmpl); err != nil {
		return err
	}

	result, err := jm.Run(ctx)
	if err != nil {
		return err
	}

	if err := os.WriteFile(cli.Output, []byte(jobs.FormatOutput(result)), 0o644); err != nil {
		return errors.Wrapf(err, "writing %s", cli.Output)
	}
	log.Info("wrote block ", result.BlockHash, " to ", cli.Output)

	if !cli.Serve {
		return nil
	}

	return <-serveErr
}
