package commands

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"github.com/Fusion-OS/android-system-security/internal/domain/operations"

	"github.com/oklog/ulid/v2"
	"golang.org/x/sync/errgroup"
)

var simulatedPurposes = []string{
	operations.PurposeSign,
	operations.PurposeVerify,
	operations.PurposeEncrypt,
	operations.PurposeDecrypt,
}

// SimulationOptions shapes the synthetic workload
type SimulationOptions struct {
	Clients      int
	OpsPerClient int
	PayloadSize  int
	// CrashEvery makes every n-th client disconnect with its operations still live. Zero disables crashes.
	CrashEvery   int
	Seed         uint64
	DrainTimeout time.Duration
}

// SimulationSummary is printed as JSON once the run has drained
type SimulationSummary struct {
	Clients     int              `json:"clients"`
	Crashed     int64            `json:"crashed"`
	Begun       int64            `json:"begun"`
	Finished    int64            `json:"finished"`
	Aborted     int64            `json:"aborted"`
	Abandoned   int64            `json:"abandoned"`
	Evicted     int64            `json:"evicted"`
	Rejected    int64            `json:"rejected"`
	Remaining   operations.Stats `json:"remaining"`
	EngineInUse int              `json:"engine_in_use"`
	Consistent  bool             `json:"consistent"`
	Elapsed     string           `json:"elapsed"`
}

type simulationCounters struct {
	crashed, begun, finished, aborted, abandoned, evicted, rejected atomic.Int64
}

// Simulator drives concurrent clients against a wired stack
type Simulator struct {
	stack    *stack
	opts     SimulationOptions
	counters simulationCounters
}

func newSimulator(s *stack, opts SimulationOptions) (*Simulator, error) {
	if opts.Clients < 1 || opts.OpsPerClient < 1 {
		return nil, fmt.Errorf("clients and ops must be positive, got %d and %d", opts.Clients, opts.OpsPerClient)
	}
	if opts.PayloadSize < 0 || opts.CrashEvery < 0 {
		return nil, fmt.Errorf("payload and crash-every must not be negative")
	}
	if opts.DrainTimeout <= 0 {
		opts.DrainTimeout = 5 * time.Second
	}
	return &Simulator{stack: s, opts: opts}, nil
}

// Run starts every client, waits for them and for the registry to drain, then reports.
// The returned error is non-nil if a client failed or the registry did not end up empty and consistent.
func (sim *Simulator) Run(ctx context.Context) (*SimulationSummary, error) {
	start := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < sim.opts.Clients; i++ {
		rng := rand.New(rand.NewPCG(sim.opts.Seed, uint64(i)))
		crash := sim.opts.CrashEvery > 0 && (i+1)%sim.opts.CrashEvery == 0
		g.Go(func() error {
			return sim.runClient(gctx, rng, crash)
		})
	}
	runErr := g.Wait()

	drainErr := sim.drain(ctx)
	summary := sim.summary(time.Since(start))

	if runErr != nil {
		return summary, fmt.Errorf("client failed: %w", runErr)
	}
	if drainErr != nil {
		return summary, drainErr
	}
	return summary, nil
}

func (sim *Simulator) runClient(ctx context.Context, rng *rand.Rand, crash bool) error {
	client := operations.ClientID(ulid.Make().String())

	clientCtx, disconnect, err := sim.stack.sessions.Connect(ctx, client)
	if err != nil {
		return err
	}
	defer disconnect()

	payload := make([]byte, sim.opts.PayloadSize)
	for i := 0; i < sim.opts.OpsPerClient; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := sim.runOperation(clientCtx, client, rng, payload); err != nil {
			return err
		}
	}

	if crash {
		sim.counters.crashed.Add(1)
		sim.stack.logger.Debug("Client ", client, " disconnecting with ", len(sim.stack.service.ListOperations(client)), " live operations")
		return nil
	}

	for _, token := range sim.stack.service.ListOperations(client) {
		if err := sim.stack.service.Abort(clientCtx, token); err != nil && !errors.Is(err, operations.ErrInvalidOperation) {
			return err
		}
	}
	return nil
}

func (sim *Simulator) runOperation(ctx context.Context, client operations.ClientID, rng *rand.Rand, payload []byte) error {
	params := operations.BeginParams{
		KeyAlias:  fmt.Sprintf("key-%d", rng.IntN(4)),
		Purpose:   simulatedPurposes[rng.IntN(len(simulatedPurposes))],
		Pruneable: rng.IntN(10) != 0,
	}

	token, err := sim.stack.service.Begin(ctx, client, params)
	switch {
	case errors.Is(err, operations.ErrTooManyOperations), errors.Is(err, operations.ErrPruneFailed):
		sim.counters.rejected.Add(1)
		return nil
	case err != nil:
		return err
	}
	sim.counters.begun.Add(1)

	switch roll := rng.IntN(10); {
	case roll < 6:
		if _, err := sim.stack.service.Update(ctx, token, payload); err != nil {
			return sim.lost(err)
		}
		if _, err := sim.stack.service.Finish(ctx, token, nil, nil); err != nil {
			return sim.lost(err)
		}
		sim.counters.finished.Add(1)
	case roll < 8:
		if err := sim.stack.service.Abort(ctx, token); err != nil {
			return sim.lost(err)
		}
		sim.counters.aborted.Add(1)
	default:
		sim.counters.abandoned.Add(1)
	}
	return nil
}

// lost counts operations pruned by other clients while in flight
func (sim *Simulator) lost(err error) error {
	if errors.Is(err, operations.ErrInvalidOperation) || errors.Is(err, operations.ErrUnknownEngineHandle) {
		sim.counters.evicted.Add(1)
		return nil
	}
	return err
}

// drain waits for disconnect reclamation to empty the registry and release every engine slot
func (sim *Simulator) drain(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sim.opts.DrainTimeout)
	defer cancel()

	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	for {
		stats := sim.stack.registry.Stats()
		inUse := sim.stack.engine.InUse()
		if stats == (operations.Stats{}) && inUse == 0 {
			return sim.stack.registry.Verify()
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("registry did not drain: %d operations, %d clients, %d engine slots in use", stats.Operations, stats.Clients, inUse)
		case <-ticker.C:
		}
	}
}

func (sim *Simulator) summary(elapsed time.Duration) *SimulationSummary {
	stats := sim.stack.registry.Stats()
	inUse := sim.stack.engine.InUse()

	return &SimulationSummary{
		Clients:     sim.opts.Clients,
		Crashed:     sim.counters.crashed.Load(),
		Begun:       sim.counters.begun.Load(),
		Finished:    sim.counters.finished.Load(),
		Aborted:     sim.counters.aborted.Load(),
		Abandoned:   sim.counters.abandoned.Load(),
		Evicted:     sim.counters.evicted.Load(),
		Rejected:    sim.counters.rejected.Load(),
		Remaining:   stats,
		EngineInUse: inUse,
		Consistent:  stats == (operations.Stats{}) && inUse == 0 && sim.stack.registry.Verify() == nil,
		Elapsed:     elapsed.Round(time.Millisecond).String(),
	}
}
