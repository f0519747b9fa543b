package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"path"
	"reflect"
	"runtime"
	"syscall"
	"time"

	"github.com/encodeous/dualsim/perf"
	"github.com/encodeous/dualsim/state"
	"github.com/encodeous/tint"
	slogmulti "github.com/samber/slog-multi"
	"golang.org/x/sync/errgroup"
)

var ErrStopped = errors.New("simulation stopped")

// Simulation owns every node of a scenario and the goroutines that run them.
type Simulation struct {
	Cfg       state.SimCfg
	Network   *Network
	Presenter Presenter
	Log       *slog.Logger

	ctx    context.Context
	cancel context.CancelCauseFunc
	group  *errgroup.Group
}

func NewSimulation(cfg state.SimCfg, logger *slog.Logger, presenter Presenter) (*Simulation, error) {
	err := state.SimConfigValidator(&cfg)
	if err != nil {
		return nil, err
	}
	topo, err := cfg.BuildTopology()
	if err != nil {
		return nil, err
	}
	if presenter == nil {
		presenter = MultiPresenter{}
	}
	return &Simulation{
		Cfg:       cfg,
		Network:   NewNetwork(topo),
		Presenter: presenter,
		Log:       logger,
	}, nil
}

// Start creates every node and starts advertising. The simulation runs until ctx is cancelled or Stop is called.
func (sim *Simulation) Start(ctx context.Context) error {
	if sim.ctx != nil {
		return fmt.Errorf("simulation already started")
	}
	sim.ctx, sim.cancel = context.WithCancelCause(ctx)
	sim.group = &errgroup.Group{}

	states := make([]*state.State, 0)
	for _, id := range sim.Network.Topology.Nodes() {
		env := &state.Env{
			Id:              id,
			DispatchChannel: make(chan func(*state.State) error, state.DispatchBufferSize),
			Topology:        sim.Network.Topology,
			Context:         sim.ctx,
			Cancel:          sim.cancel,
			Log:             sim.Log.With("node", id),
		}
		s := state.NewState(env)
		router := &DualRouter{
			Network:   sim.Network,
			Presenter: sim.Presenter,
			Tick:      sim.Cfg.Tick,
			Jitter:    sim.Cfg.Jitter,
		}
		s.Modules = map[string]state.Module{
			reflect.TypeOf(router).String(): router,
		}
		sim.Network.Register(&Node{Env: env, Router: router})
		states = append(states, s)
	}

	sim.Log.Info("init nodes", "count", len(states), "tick", sim.Cfg.Tick, "jitter", sim.Cfg.Jitter)
	for _, s := range states {
		for name, module := range s.Modules {
			if err := module.Init(s); err != nil {
				sim.cancel(err)
				return fmt.Errorf("init %s on %s: %w", name, s.Id, err)
			}
		}
	}
	sim.Presenter.OnNetworkChanged(sim.Network.Snapshot())

	for _, s := range states {
		sim.group.Go(func() error {
			return MainLoop(s)
		})
	}
	for _, ev := range sim.Cfg.Events {
		sim.group.Go(func() error {
			return sim.runEvent(ev)
		})
	}
	return nil
}

func (sim *Simulation) runEvent(ev state.EventCfg) error {
	select {
	case <-time.After(ev.At):
	case <-sim.ctx.Done():
		return nil
	}
	err := sim.SetEdgeCost(ev.From, ev.To, ev.Cost)
	if err == nil && ev.Bidirectional {
		err = sim.SetEdgeCost(ev.To, ev.From, ev.Cost)
	}
	if err != nil {
		sim.Log.Error("scheduled link change failed", "error", err)
	}
	return nil
}

// SetEdgeCost changes the cost of a directed link. Nodes observe it on their next tick.
func (sim *Simulation) SetEdgeCost(from, to state.NodeId, cost state.Metric) error {
	err := sim.Network.Topology.SetEdgeCost(from, to, cost)
	if err != nil {
		return err
	}
	sim.Log.Info("link cost changed", "from", from, "to", to, "cost", cost)
	sim.Presenter.OnNetworkChanged(sim.Network.Snapshot())
	return nil
}

// Table returns a copy of a node's live source table, read on the node's own goroutine.
func (sim *Simulation) Table(id state.NodeId) (state.SourceTable, error) {
	node := sim.Network.Node(id)
	if node == nil {
		return nil, fmt.Errorf("node %s not found", id)
	}
	res, err := node.Env.DispatchWait(func(s *state.State) (any, error) {
		return Get[*DualRouter](s).Sources.Clone(), nil
	})
	if err != nil {
		return nil, err
	}
	return res.(state.SourceTable), nil
}

// Snapshot returns the last published state of the whole network.
func (sim *Simulation) Snapshot() NetworkSnapshot {
	return sim.Network.Snapshot()
}

// Wait blocks until every node has stopped.
func (sim *Simulation) Wait() error {
	if sim.group == nil {
		return nil
	}
	return sim.group.Wait()
}

func (sim *Simulation) Stop() error {
	if sim.cancel == nil {
		return nil
	}
	sim.cancel(ErrStopped)
	return sim.Wait()
}

func MainLoop(s *state.State) error {
	s.Log.Debug("started main loop")
	for {
		select {
		case fun := <-s.DispatchChannel:
			if fun == nil {
				goto endLoop
			}
			start := time.Now()
			err := runDispatch(s, fun)
			if err != nil {
				// a failed update or tick is local to that call, the node keeps running
				s.Log.Warn("error occurred during dispatch", "error", err)
			}
			elapsed := time.Since(start)
			perf.DispatchLatency.Add(float64(elapsed.Microseconds()))
			if elapsed > state.SlowDispatchThreshold {
				s.Log.Warn("dispatch took a long time!", "fun", runtime.FuncForPC(reflect.ValueOf(fun).Pointer()).Name(), "elapsed", elapsed, "len", len(s.DispatchChannel))
			}
		case <-s.Context.Done():
			goto endLoop
		}
	}
endLoop:
	s.Log.Debug("stopped main loop", "reason", context.Cause(s.Context))
	for name, module := range s.Modules {
		err := module.Cleanup(s)
		if err != nil {
			s.Log.Error("error occurred during cleanup", "module", name, "error", err)
		}
	}
	return nil
}

func runDispatch(s *state.State, fun func(*state.State) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fun(s)
}

// NewLogger builds the console logger, additionally writing to logPath if it is set.
func NewLogger(level slog.Level, logPath string) (*slog.Logger, io.Closer, error) {
	handlers := make([]slog.Handler, 0)
	handlers = append(handlers,
		tint.NewHandler(os.Stderr, &tint.Options{
			Level:     level,
			AddSource: false,
			ReplaceAttr: func(groups []string, attr slog.Attr) slog.Attr {
				if attr.Key == "time" {
					return slog.Attr{}
				}
				return attr
			},
		}))

	var closer io.Closer = io.NopCloser(nil)
	if logPath != "" {
		err := os.MkdirAll(path.Dir(logPath), 0700)
		if err != nil {
			return nil, nil, err
		}
		f, err := os.OpenFile(logPath, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0600)
		if err != nil {
			return nil, nil, err
		}
		closer = f
		handlers = append(handlers, slog.NewTextHandler(f, &slog.HandlerOptions{Level: level}))
	}

	return slog.New(slogmulti.Fanout(handlers...)), closer, nil
}

type RunOptions struct {
	Level         slog.Level
	LogPath       string
	Duration      time.Duration // 0 runs until interrupted
	TableInterval time.Duration // 0 disables periodic route table output
	Debug         bool          // serve pprof and metrics on DebugAddr
	DebugAddr     string
}

// Run executes a scenario until it is interrupted or opts.Duration elapses.
func Run(cfg state.SimCfg, opts RunOptions) error {
	logger, closer, err := NewLogger(opts.Level, opts.LogPath)
	if err != nil {
		return err
	}
	defer closer.Close()

	if opts.Debug {
		http.Handle("/debug/metrics", perf.Handler())
		go func() {
			log.Println(http.ListenAndServe(opts.DebugAddr, nil))
		}()
	}

	sim, err := NewSimulation(cfg, logger, NewLogPresenter(logger))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if opts.Duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Duration)
		defer cancel()
	}

	err = sim.Start(ctx)
	if err != nil {
		return err
	}
	logger.Info("simulation started. To exit, send SIGINT or Ctrl+C.")

	if opts.TableInterval > 0 {
		go func() {
			ticker := time.NewTicker(opts.TableInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					fmt.Print(RenderSnapshot(sim.Snapshot()))
				}
			}
		}()
	}

	<-ctx.Done()
	err = sim.Stop()
	fmt.Print(RenderSnapshot(sim.Snapshot()))
	logger.Info("simulation stopped")
	return err
}
