package commit

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"xdao.co/jcommit/docpath"
	"xdao.co/jcommit/document"
	"xdao.co/jcommit/suite"
	"xdao.co/jcommit/traverse"
)

// LeafCommitment is one row of the per-path commitment table.
type LeafCommitment struct {
	Path       docpath.Path
	Kind       document.Kind
	Commitment suite.Element
	// Blinding is nil for unblinded leaves.
	Blinding suite.Scalar
}

// Aggregate is the result of a successful aggregation.
type Aggregate struct {
	Suite      suite.Suite
	Commitment suite.Element
	// DocumentBlinding is r0, nil when no document-level term was added.
	DocumentBlinding suite.Scalar
	LeafCount        int
	// Leaves is sorted by encoded path. Empty unless Options.KeepTable.
	Leaves []LeafCommitment
}

// Lookup returns the table row for p.
func (a *Aggregate) Lookup(p docpath.Path) (LeafCommitment, bool) {
	i := sort.Search(len(a.Leaves), func(i int) bool {
		return docpath.Compare(a.Leaves[i].Path, p) >= 0
	})
	if i < len(a.Leaves) && a.Leaves[i].Path.Equal(p) {
		return a.Leaves[i], true
	}
	return LeafCommitment{}, false
}

type leafResult struct {
	index      int
	commitment suite.Element
	blinding   suite.Scalar
	err        error
}

// Aggregate commits every entry on a worker pool and folds the results into
// a single commitment.
//
// The call fails closed: if any leaf fails the result is a *CommitError and
// no aggregate is returned. A deadline from Options.Timeout or ctx yields an
// error matching ErrTimeout. Both a deadline and a fail-fast failure return
// without waiting for leaves still in flight.
func (c *Committer) Aggregate(ctx context.Context, entries []traverse.Entry) (*Aggregate, error) {
	start := time.Now()
	log := c.opts.Logger

	if c.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.Timeout)
		defer cancel()
	}
	if err := ctx.Err(); err != nil {
		return nil, c.finish(start, contextError(err))
	}

	r0, err := c.opts.Blinding.Document(c.suite)
	if err != nil {
		return nil, c.finish(start, blindingError("document blinding", err))
	}
	acc := c.Baseline(r0)

	workCtx, stop := context.WithCancel(ctx)
	defer stop()

	jobs := make(chan int)
	results := make(chan leafResult, c.opts.Buffer)
	g, gctx := errgroup.WithContext(workCtx)

	g.Go(func() error {
		defer close(jobs)
		for i := range entries {
			select {
			case jobs <- i:
			case <-gctx.Done():
				return nil
			}
		}
		return nil
	})
	for w := 0; w < c.opts.Workers; w++ {
		g.Go(func() error {
			for i := range jobs {
				if gctx.Err() != nil {
					continue
				}
				res := c.commitLeaf(i, entries[i])
				select {
				case results <- res:
				case <-gctx.Done():
				}
			}
			return nil
		})
	}
	go func() {
		_ = g.Wait()
		close(results)
	}()

	var (
		failures []LeafFailure
		leaves   []LeafCommitment
		seen     int
		folded   int
	)
	if c.opts.KeepTable {
		leaves = make([]LeafCommitment, 0, len(entries))
	}
consume:
	for {
		var res leafResult
		select {
		case r, ok := <-results:
			if !ok {
				break consume
			}
			res = r
		case <-ctx.Done():
			// In-flight leaves are abandoned; their workers exit on gctx.
			break consume
		}
		seen++
		e := entries[res.index]
		if res.err != nil {
			failures = append(failures, LeafFailure{Path: e.Path, Err: res.err})
			leafFailures.WithLabelValues(ruleLabel(res.err)).Inc()
			log.Warn("leaf commitment failed", "path", e.Path.String(), "rule", RuleID(res.err), "err", res.err)
			if c.opts.FailFast {
				stop()
				break consume
			}
			continue
		}
		if len(failures) > 0 {
			continue
		}
		acc = acc.Add(res.commitment)
		folded++
		if c.opts.KeepTable {
			leaves = append(leaves, LeafCommitment{
				Path:       e.Path,
				Kind:       e.Value.Kind(),
				Commitment: res.commitment,
				Blinding:   res.blinding,
			})
		}
	}

	if len(failures) > 0 {
		sort.Slice(failures, func(i, j int) bool {
			return docpath.Compare(failures[i].Path, failures[j].Path) < 0
		})
		return nil, c.finish(start, &CommitError{Failures: failures, Skipped: len(entries) - seen})
	}
	if err := ctx.Err(); err != nil {
		return nil, c.finish(start, contextError(err))
	}
	if folded != len(entries) {
		return nil, c.finish(start, newError(KindInternal, "JC-INT-003", fmt.Sprintf("folded %d of %d leaves", folded, len(entries))))
	}

	sort.Slice(leaves, func(i, j int) bool {
		return docpath.Compare(leaves[i].Path, leaves[j].Path) < 0
	})
	leavesCommitted.WithLabelValues(c.suite.Name()).Add(float64(folded))
	_ = c.finish(start, nil)
	log.Debug("aggregate committed", "suite", c.suite.Name(), "leaves", folded, "workers", c.opts.Workers, "elapsed", time.Since(start))

	return &Aggregate{
		Suite:            c.suite,
		Commitment:       acc,
		DocumentBlinding: r0,
		LeafCount:        folded,
		Leaves:           leaves,
	}, nil
}

func (c *Committer) commitLeaf(i int, e traverse.Entry) leafResult {
	leavesInFlight.Inc()
	defer leavesInFlight.Dec()

	r, err := c.opts.Blinding.Leaf(c.suite, e.Path)
	if err != nil {
		return leafResult{index: i, err: blindingError("leaf blinding", err)}
	}
	cm, err := c.Commit(e, r)
	if err != nil {
		return leafResult{index: i, err: err}
	}
	return leafResult{index: i, commitment: cm, blinding: r}
}

// finish records the duration metric for one Aggregate call and returns err.
func (c *Committer) finish(start time.Time, err error) error {
	result := resultOK
	var ce *CommitError
	switch {
	case err == nil:
	case errors.As(err, &ce):
		result = resultLeafError
	case errors.Is(err, ErrTimeout):
		result = resultTimeout
	case errors.Is(err, context.Canceled):
		result = resultCanceled
	default:
		result = resultError
	}
	aggregateDuration.WithLabelValues(result).Observe(time.Since(start).Seconds())
	return err
}

func contextError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindTimeout, RuleID: ErrTimeout.RuleID, Message: ErrTimeout.Message, Cause: err}
	}
	return fmt.Errorf("commit: aggregation canceled: %w", err)
}

func ruleLabel(err error) string {
	if id := RuleID(err); id != "" {
		return id
	}
	return "unknown"
}
