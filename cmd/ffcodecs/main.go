package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"

	"github.com/davecgh/go-spew/spew"
	"github.com/facebookincubator/go-belt"
	"github.com/facebookincubator/go-belt/tool/experimental/errmon"
	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/facebookincubator/go-belt/tool/logger/implementation/logrus"
	goccyyaml "github.com/goccy/go-yaml"
	"github.com/spf13/pflag"
	"github.com/xaionaro-go/ffcodecs"
	"github.com/xaionaro-go/ffcodecs/container"
	"github.com/xaionaro-go/ffcodecs/libav"
	"github.com/xaionaro-go/observability"
	"github.com/xaionaro-go/secret"
)

type command func(ctx context.Context, app *app, args []string) error

var commands = map[string]command{
	"probe":     cmdProbe,
	"tracks":    cmdTracks,
	"demux":     cmdDemux,
	"decode":    cmdDecode,
	"thumbnail": cmdThumbnail,
}

type app struct {
	Config       ffcodecs.Config
	OutputFormat string
	Dump         bool
	AudioOutput  string
	VideoOutput  string
	Stdout       io.Writer
}

func main() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "syntax: %s [flags] <probe|tracks|demux|decode|thumbnail> <source> [args]\n", os.Args[0])
		pflag.PrintDefaults()
	}

	loggerLevel := logger.LevelWarning
	pflag.Var(&loggerLevel, "log-level", "Log level")
	netPprofAddr := pflag.String("net-pprof-listen-addr", "", "an address to listen for incoming net/pprof connections")
	configPath := pflag.String("config", "", "path to a YAML config")
	authKey := pflag.String("auth-key", "", "a bearer token to send to URL sources")
	outputFormat := pflag.String("format", "json", "output format of 'probe' and 'tracks': json or yaml")
	dump := pflag.Bool("dump", false, "dump the raw Go structures instead of formatted output")
	audioOutput := pflag.String("out-audio", "", "'decode': a file to write the decoded PCM of the first audio track to")
	videoOutput := pflag.String("out-video", "", "'decode': a file to write the decoded YV12 frames of the first video track to")
	pflag.Parse()
	if len(pflag.Args()) < 2 {
		pflag.Usage()
		os.Exit(1)
	}

	l := logrus.Default().WithLevel(loggerLevel)
	ctx := logger.CtxWithLogger(context.Background(), l)
	ctx, cancelFn := signal.NotifyContext(ctx, os.Interrupt)
	defer cancelFn()
	logger.Default = func() logger.Logger {
		return l
	}
	defer belt.Flush(ctx)

	libav.InitLogging(ctx)

	if *netPprofAddr != "" {
		observability.Go(ctx, func(ctx context.Context) { l.Error(http.ListenAndServe(*netPprofAddr, nil)) })
	}

	cfg := ffcodecs.DefaultConfig()
	if *configPath != "" {
		f, err := os.Open(*configPath)
		if err != nil {
			l.Fatal(err)
		}
		cfg, err = ffcodecs.LoadConfig(f)
		f.Close()
		if err != nil {
			l.Fatal(err)
		}
	}
	if *authKey != "" {
		cfg.Demuxer.AuthKey = secret.New(*authKey)
	}

	cmdName := pflag.Arg(0)
	cmd, ok := commands[cmdName]
	if !ok {
		pflag.Usage()
		os.Exit(1)
	}

	a := &app{
		Config:       cfg,
		OutputFormat: *outputFormat,
		Dump:         *dump,
		AudioOutput:  *audioOutput,
		VideoOutput:  *videoOutput,
		Stdout:       os.Stdout,
	}
	if err := cmd(ctx, a, pflag.Args()[1:]); err != nil {
		errmon.ObserveErrorCtx(ctx, err)
		l.Errorf("%s: %v (code %s)", cmdName, err, ffcodecs.ErrorCodeFromError(err))
		belt.Flush(ctx)
		os.Exit(2)
	}
}

func parseSource(args []string) (container.Source, error) {
	if len(args) < 1 {
		return nil, fmt.Errorf("source is not specified")
	}
	return container.ParseSource(args[0])
}

// print writes v in the configured output format.
func (a *app) print(v any) error {
	if a.Dump {
		spew.Fdump(a.Stdout, v)
		return nil
	}

	switch a.OutputFormat {
	case "json":
		enc := json.NewEncoder(a.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		b, err := goccyyaml.Marshal(v)
		if err != nil {
			return fmt.Errorf("unable to YAML-ize %T: %w", v, err)
		}
		_, err = a.Stdout.Write(b)
		return err
	default:
		return fmt.Errorf("unknown output format '%s'", a.OutputFormat)
	}
}
