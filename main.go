/*
rezcache loads resource files into a named cache, prints what was loaded and
optionally keeps serving the cache through the inspector.
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/davecgh/go-spew/spew"

	"github.com/spaghettifunk/rezcache/engine"
	"github.com/spaghettifunk/rezcache/engine/core"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to a TOML configuration file")
		root       = flag.String("root", "", "resource root, overrides the configuration")
		serve      = flag.String("serve", "", "inspector listen address, overrides the configuration")
		watch      = flag.Bool("watch", false, "watch the resource root for changes")
		logLevel   = flag.String("log", "", "log level, overrides the configuration")
		dump       = flag.Bool("dump", false, "dump every loaded resource")
	)
	flag.Parse()

	cfg := engine.DefaultApplicationConfig()
	if *configPath != "" {
		var err error
		if cfg, err = engine.LoadApplicationConfig(*configPath); err != nil {
			core.LogFatal("%s", err)
		}
	}
	if *root != "" {
		cfg.Resources.Root = *root
	}
	if *serve != "" {
		cfg.Inspect.Addr = *serve
	}
	if *watch {
		cfg.Watch.Enabled = true
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}

	e, err := engine.New(cfg)
	if err != nil {
		core.LogFatal("%s", err)
	}
	if err := e.Initialize(); err != nil {
		_ = e.Shutdown()
		core.LogFatal("%s", err)
	}

	rs := e.Resources()
	failed := 0
	for _, path := range flag.Args() {
		r, err := rs.Load(path)
		if err != nil {
			core.LogError("%s", err)
			failed++
			continue
		}
		fmt.Printf("%-24s %T %s\n", r.Name(), r, r.Directory())
		if *dump {
			spew.Dump(r)
		}
	}

	if cfg.Inspect.Addr != "" || cfg.Watch.Enabled {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)
		defer stop()
		if err := e.Run(ctx); err != nil {
			core.LogError("%s", err)
		}
	}

	if err := e.Shutdown(); err != nil {
		core.LogFatal("%s", err)
	}
	if failed > 0 {
		os.Exit(1)
	}
}
