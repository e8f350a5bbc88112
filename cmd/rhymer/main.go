// Command rhymer labels the rhyme structure of poems.
// It reads corpora, labels them against a cached rhyme oracle, stores and
// evaluates the results, and serves the labeler over HTTP.
package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/alecthomas/kong"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/FocuswithJustin/Rhymer/core/errors"
	"github.com/FocuswithJustin/Rhymer/core/oracle"
	"github.com/FocuswithJustin/Rhymer/core/poem"
	"github.com/FocuswithJustin/Rhymer/core/rhyme"
	"github.com/FocuswithJustin/Rhymer/core/sqlite"
	"github.com/FocuswithJustin/Rhymer/internal/logging"
	"github.com/FocuswithJustin/Rhymer/internal/validation"
)

const version = "0.1.0"

// Globals are the flags shared by every command.
type Globals struct {
	CacheFile  string        `name:"cache" help:"Rhyme cache file, xz-compressed when it ends in .xz" type:"path" env:"RHYMER_CACHE"`
	MaxResults int           `name:"max-results" help:"Rhymes kept per word" default:"100" env:"RHYMER_MAX_RESULTS"`
	Endpoint   string        `help:"Datamuse API base URL" default:"https://api.datamuse.com" env:"RHYMER_ENDPOINT"`
	Offline    bool          `help:"Answer only from the cache file; uncached words fail" env:"RHYMER_OFFLINE"`
	Timeout    time.Duration `help:"Per-lookup timeout" default:"10s" env:"RHYMER_TIMEOUT"`
	Retries    int           `help:"Retries after a failed lookup" default:"2" env:"RHYMER_RETRIES"`
	Rate       float64       `help:"Lookups per second (0 = unlimited)" default:"10" env:"RHYMER_RATE"`
	Mode       string        `help:"Labeling mode: scheme, group or hybrid" default:"hybrid" enum:"scheme,group,hybrid" env:"RHYMER_MODE"`
	LogLevel   string        `name:"log-level" help:"Log level: debug, info, warn, error" default:"info" env:"RHYMER_LOG_LEVEL"`
	LogFormat  string        `name:"log-format" help:"Log format: text or json" default:"text" enum:"text,json" env:"RHYMER_LOG_FORMAT"`

	out    io.Writer
	source oracle.Source // replaces the Datamuse source when set
}

// CLI defines the command-line interface for rhymer.
type CLI struct {
	Globals

	Label   LabelCmd   `cmd:"" help:"Label the rhyme structure of poems"`
	Batch   BatchCmd   `cmd:"" help:"Label a corpus concurrently and store the results"`
	Stats   StatsCmd   `cmd:"" help:"Report group sizes and rhyme pairs shared between poems"`
	Eval    EvalCmd    `cmd:"" help:"Score labelings against the gold schemes of a corpus"`
	Cache   CacheGroup `cmd:"" help:"Rhyme cache operations"`
	Serve   ServeCmd   `cmd:"" help:"Start the labeling API server"`
	Version VersionCmd `cmd:"" help:"Print version information"`
}

func (g *Globals) stdout() io.Writer {
	if g.out == nil {
		return os.Stdout
	}
	return g.out
}

func (g *Globals) mode() (rhyme.Mode, error) {
	return rhyme.ParseMode(g.Mode)
}

// openOracle builds the oracle and loads the cache file when one exists.
// reg may be nil.
func (g *Globals) openOracle(reg prometheus.Registerer) (*oracle.Oracle, error) {
	source := g.source
	if source == nil && !g.Offline {
		cfg := oracle.DefaultDatamuseConfig()
		cfg.Endpoint = g.Endpoint
		cfg.Timeout = g.Timeout
		cfg.Retries = g.Retries
		cfg.RatePerSecond = g.Rate
		source = oracle.NewDatamuse(cfg)
	}

	cfg := oracle.DefaultConfig()
	cfg.MaxResults = g.MaxResults
	if reg != nil {
		cfg.Metrics = oracle.NewMetrics(reg)
	}
	o := oracle.New(source, cfg)

	if g.CacheFile == "" {
		return o, nil
	}
	if _, err := os.Stat(g.CacheFile); os.IsNotExist(err) {
		logging.Debug("no rhyme cache yet", "path", g.CacheFile)
		return o, nil
	}
	if _, err := o.Load(g.CacheFile); err != nil {
		return nil, err
	}
	return o, nil
}

// saveOracle writes the cache back when a cache file is configured.
func (g *Globals) saveOracle(o *oracle.Oracle) error {
	if g.CacheFile == "" {
		return nil
	}
	return o.Save(g.CacheFile)
}

// readCorpora reads and concatenates the poems of every file.
func readCorpora(paths []string) ([]*poem.Poem, error) {
	var all []*poem.Poem
	for _, path := range paths {
		if err := validation.ValidateCorpusFile(path); err != nil {
			return nil, errors.Wrapf(err, "corpus %s", path)
		}
		poems, err := poem.Read(path)
		if err != nil {
			return nil, err
		}
		all = append(all, poems...)
	}
	if len(all) == 0 {
		return nil, errors.NewMalformed(-1, "no poems found")
	}
	return all, nil
}

// VersionCmd prints version information.
type VersionCmd struct{}

func (c *VersionCmd) Run(g *Globals) error {
	fmt.Fprintf(g.stdout(), "rhymer version %s (sqlite driver %s)\n", version, sqlite.DriverType())
	return nil
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("rhymer"),
		kong.Description("Rhymer - rhyme scheme and rhyme group labeling for poems"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Configuration(kong.JSON, "~/.config/rhymer/config.json", "./rhymer.json"),
	)
	logging.InitLogger(logging.ParseLevel(cli.LogLevel), logging.ParseFormat(cli.LogFormat))

	err := ctx.Run(&cli.Globals)
	ctx.FatalIfErrorf(err)
}
