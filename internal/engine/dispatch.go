package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/madebygps/functions-cosmos-inventory/internal/ir"
	"github.com/madebygps/functions-cosmos-inventory/internal/logging"
	"github.com/madebygps/functions-cosmos-inventory/internal/resolve"
)

const defaultParallelism = 10

// Applier is the boundary to whatever actually reconciles cloud state.
// This layer never calls a cloud API itself; retries, drift detection and
// reconciliation belong on the far side of this interface.
type Applier interface {
	Apply(ctx context.Context, node *ir.Node) (map[string]any, error)
}

// ApplyEvent reports progress for one node during dispatch.
type ApplyEvent struct {
	Address  string
	Status   string // "started", "completed", "failed", "skipped"
	Duration time.Duration
	Error    error
}

// ApplyCallback receives apply events if set.
type ApplyCallback func(event ApplyEvent)

// Result holds the outcome of dispatching a resolved graph.
type Result struct {
	Applied map[string]map[string]any // applier outputs by node address
	Outputs map[string]*ir.OutputValue
}

// Dispatcher walks a resolved graph and hands nodes to an Applier.
// Independent subgraphs run concurrently; every edge is a strict
// happens-before constraint.
type Dispatcher struct {
	applier         Applier
	Parallelism     int
	ContinueOnError bool // continue past failures, skipping only dependents
}

func NewDispatcher(applier Applier) *Dispatcher {
	return &Dispatcher{
		applier:     applier,
		Parallelism: defaultParallelism,
	}
}

// Dispatch applies every node of the graph in dependency order and then
// binds the graph outputs against the applied attributes.
func (d *Dispatcher) Dispatch(ctx context.Context, g *ir.Graph, callback ApplyCallback) (*Result, error) {
	emit := func(event ApplyEvent) {
		if callback != nil {
			callback(event)
		}
	}

	addrBySymbol := make(map[string]string, len(g.Nodes))
	for _, n := range g.Nodes {
		addrBySymbol[n.Symbol] = n.Address
	}

	// Dependencies per address, from edges and from references still
	// embedded in properties.
	deps := make(map[string]map[string]bool, len(g.Nodes))
	for _, n := range g.Nodes {
		deps[n.Address] = make(map[string]bool)
		for _, dep := range n.DependsOn {
			deps[n.Address][dep] = true
		}
		for _, ref := range resolve.ResourceRefs(n.Properties) {
			if addr, ok := addrBySymbol[ref.Symbol]; ok && addr != n.Address {
				deps[n.Address][addr] = true
			}
		}
	}

	applied := make(map[string]map[string]any, len(g.Nodes))
	completed := make(map[string]bool, len(g.Nodes))
	failed := make(map[string]bool)
	var firstErr error
	var allErrs []error

	mu := sync.Mutex{}
	cond := sync.NewCond(&mu)
	parallelism := d.Parallelism
	if parallelism <= 0 {
		parallelism = defaultParallelism
	}
	sem := make(chan struct{}, parallelism)

	var wg sync.WaitGroup
	for _, node := range g.Nodes {
		wg.Add(1)
		go func(n *ir.Node) {
			defer wg.Done()

			mu.Lock()
			for {
				if firstErr != nil && !d.ContinueOnError {
					mu.Unlock()
					return
				}
				ready := true
				depFailed := false
				for dep := range deps[n.Address] {
					if failed[dep] {
						depFailed = true
						break
					}
					if !completed[dep] {
						ready = false
						break
					}
				}
				if depFailed {
					failed[n.Address] = true
					mu.Unlock()
					emit(ApplyEvent{Address: n.Address, Status: "skipped"})
					cond.Broadcast()
					return
				}
				if ready {
					break
				}
				cond.Wait()
			}
			mu.Unlock()

			if err := ctx.Err(); err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = fmt.Errorf("dispatch cancelled: %w", err)
				}
				failed[n.Address] = true
				mu.Unlock()
				cond.Broadcast()
				return
			}

			sem <- struct{}{}
			defer func() { <-sem }()

			// Bind apply-time attributes produced by dependencies.
			mu.Lock()
			props := resolve.SubstituteRefs(n.Properties, func(symbol, attr string) (any, bool) {
				addr, ok := addrBySymbol[symbol]
				if !ok {
					return nil, false
				}
				outs, ok := applied[addr]
				if !ok {
					return nil, false
				}
				v, ok := outs[attr]
				return v, ok
			}).(map[string]any)
			mu.Unlock()

			bound := *n
			bound.Properties = props

			start := time.Now()
			emit(ApplyEvent{Address: n.Address, Status: "started"})
			logging.Debug("applying node", "address", n.Address)

			outs, err := d.applier.Apply(ctx, &bound)
			if err != nil {
				emit(ApplyEvent{Address: n.Address, Status: "failed", Duration: time.Since(start), Error: err})
				mu.Lock()
				if firstErr == nil {
					firstErr = fmt.Errorf("apply failed for %s: %w", n.Address, err)
				}
				allErrs = append(allErrs, fmt.Errorf("apply failed for %s: %w", n.Address, err))
				failed[n.Address] = true
				mu.Unlock()
				cond.Broadcast()
				return
			}

			emit(ApplyEvent{Address: n.Address, Status: "completed", Duration: time.Since(start)})

			mu.Lock()
			applied[n.Address] = outs
			completed[n.Address] = true
			mu.Unlock()
			cond.Broadcast()
		}(node)
	}
	wg.Wait()

	result := &Result{
		Applied: applied,
		Outputs: bindOutputs(g, addrBySymbol, applied),
	}

	if d.ContinueOnError && len(allErrs) > 0 {
		return result, fmt.Errorf("%d resource(s) failed: %w", len(allErrs), errors.Join(allErrs...))
	}
	if firstErr != nil {
		return result, firstErr
	}
	return result, nil
}

// bindOutputs resolves the graph outputs against applied node attributes.
func bindOutputs(g *ir.Graph, addrBySymbol map[string]string, applied map[string]map[string]any) map[string]*ir.OutputValue {
	outputs := make(map[string]*ir.OutputValue, len(g.Outputs))
	for name, out := range g.Outputs {
		outputs[name] = &ir.OutputValue{
			Secure: out.Secure,
			Value: resolve.SubstituteRefs(out.Value, func(symbol, attr string) (any, bool) {
				addr, ok := addrBySymbol[symbol]
				if !ok {
					return nil, false
				}
				outs, ok := applied[addr]
				if !ok {
					return nil, false
				}
				v, ok := outs[attr]
				return v, ok
			}),
		}
	}
	return outputs
}
