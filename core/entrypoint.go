package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path"
	"reflect"
	"syscall"
	"time"

	"github.com/Robson-tech/docker-lsa/state"
	"github.com/encodeous/tint"
	"github.com/goccy/go-yaml"
	slogmulti "github.com/samber/slog-multi"
)

func readCentralConfig(centralPath string) (*state.CentralCfg, error) {
	var centralCfg state.CentralCfg
	file, err := os.ReadFile(centralPath)
	if err != nil {
		return nil, err
	}
	err = yaml.Unmarshal(file, &centralCfg)
	if err != nil {
		return nil, err
	}
	return &centralCfg, nil
}

func readNodeConfig(nodePath string) (*state.LocalCfg, error) {
	var nodeCfg state.LocalCfg
	file, err := os.ReadFile(nodePath)
	if err != nil {
		return nil, err
	}
	err = yaml.Unmarshal(file, &nodeCfg)
	if err != nil {
		return nil, err
	}
	return &nodeCfg, nil
}

// Bootstrap reads and validates configuration, then runs the node until
// it is signalled to stop. wantRouter pins the role the caller asked for
// so `lsa router` cannot silently start a host.
func Bootstrap(centralPath, nodePath, logPath string, verbose, wantRouter bool) error {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	centralCfg, err := readCentralConfig(centralPath)
	if err != nil {
		return err
	}
	nodeCfg, err := readNodeConfig(nodePath)
	if err != nil {
		return err
	}
	if logPath != "" {
		nodeCfg.LogPath = logPath
	}

	err = state.CentralConfigValidator(centralCfg)
	if err != nil {
		return err
	}
	err = state.LocalConfigValidator(centralCfg, nodeCfg)
	if err != nil {
		return err
	}
	if wantRouter != centralCfg.IsRouter(nodeCfg.Id) {
		role := "host"
		if wantRouter {
			role = "router"
		}
		return fmt.Errorf("node %s is not configured as a %s", nodeCfg.Id, role)
	}

	return Start(*centralCfg, *nodeCfg, level, nil, nil)
}

// Start runs a node until its context is cancelled. aux carries
// test-injected collaborators; initState, when non-nil, receives the
// node's State before the main loop begins.
func Start(ccfg state.CentralCfg, lcfg state.LocalCfg, logLevel slog.Level, aux map[string]any, initState **state.State) error {
	ctx, cancel := context.WithCancelCause(context.Background())

	dispatch := make(chan func(s *state.State) error, 128)

	handlers := make([]slog.Handler, 0)
	handlers = append(handlers,
		tint.NewHandler(os.Stderr, &tint.Options{
			Level:        logLevel,
			AddSource:    false,
			TimeFormat:   "15:04:05",
			CustomPrefix: string(lcfg.Id),
		}))

	if lcfg.LogPath != "" {
		err := os.MkdirAll(path.Dir(lcfg.LogPath), 0700)
		if err != nil {
			cancel(err)
			return err
		}
		f, err := os.OpenFile(lcfg.LogPath, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0700)
		if err != nil {
			cancel(err)
			return err
		}
		defer f.Close()
		handlers = append(handlers, slog.NewTextHandler(f, &slog.HandlerOptions{Level: logLevel}))
	}

	logger := slog.New(slogmulti.Fanout(handlers...))

	s := state.State{
		Modules: make(map[string]state.Module),
		Env: &state.Env{
			Context:         ctx,
			Cancel:          cancel,
			DispatchChannel: dispatch,
			CentralCfg:      ccfg,
			LocalCfg:        lcfg,
			Log:             logger,
			Aux:             aux,
		},
	}
	if initState != nil {
		*initState = &s
	}

	s.Log.Debug("init modules")
	err := initModules(&s)
	if err != nil {
		Stop(&s)
		return err
	}
	s.Log.Info("node initialized, send SIGINT to exit")

	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(c)
	go func() {
		select {
		case <-c:
			s.Cancel(errors.New("received shutdown signal"))
		case <-ctx.Done():
		}
	}()

	return MainLoop(&s, dispatch)
}

func initModules(s *state.State) error {
	modules := []state.Module{&Sock{}}
	if s.CentralCfg.IsRouter(s.LocalCfg.Id) {
		modules = append(modules, &LinkStateRouter{})
	} else {
		modules = append(modules, &HostNode{})
	}

	for _, module := range modules {
		s.Modules[reflect.TypeOf(module).String()] = module
		if err := module.Init(s); err != nil {
			return err
		}
	}
	return nil
}

func MainLoop(s *state.State, dispatch <-chan func(*state.State) error) error {
	s.Log.Debug("started main loop")
	s.Started.Store(true)
	for {
		select {
		case fun := <-dispatch:
			if fun == nil {
				goto endLoop
			}
			start := time.Now()
			err := fun(s)
			if err != nil {
				s.Log.Error("error occurred during dispatch", "error", err)
				s.Cancel(err)
			}
			elapsed := time.Since(start)
			if elapsed > time.Millisecond*50 {
				s.Log.Warn("dispatch took a long time!", "elapsed", elapsed, "len", len(dispatch))
			}
		case <-s.Context.Done():
			goto endLoop
		}
	}
endLoop:
	s.Log.Info("stopped main loop", "reason", context.Cause(s.Context).Error())
	Stop(s)
	return nil
}

func Stop(s *state.State) {
	if s.Stopping.Swap(true) {
		return // don't stop twice
	}
	s.Cancel(context.Canceled)
	s.Log.Debug("cleaning up modules")
	for moduleName, module := range s.Modules {
		err := module.Cleanup(s)
		if err != nil {
			s.Log.Error("error occurred during cleanup", "module", moduleName, "error", err)
		}
	}
	s.Log.Info("stopped")
}
