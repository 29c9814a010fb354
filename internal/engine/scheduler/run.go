package scheduler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
)

var errPrerequisiteFailed = errors.New("prerequisite did not succeed")

type phase uint8

const (
	phasePrepared phase = iota
	phaseExecuted
)

// stepRun holds what a dispatched step carries between its phases.
type stepRun struct {
	ctx      context.Context
	span     ports.Span
	vertex   ports.Vertex
	logger   ports.Logger
	fp       domain.Fingerprint
	versions map[domain.ObjectURL]domain.ObjectID
}

type outcome struct {
	id    StepID
	phase phase
	run   *stepRun

	// cached is set by the prepare phase on a cache hit.
	cached *domain.CommandResult

	// status is terminal when a phase decided the fate of the step.
	status   domain.ResultStatus
	result   *domain.CommandResult
	spawned  []ports.Command
	err      error
	infraErr error
}

// spawnWait collects the outcome of the steps a command spawned.
type spawnWait struct {
	result    *domain.CommandResult
	remaining int
	failed    error
	cancelled bool
}

type finished struct {
	id     StepID
	status domain.ResultStatus
	result *domain.CommandResult
	err    error
}

// runState is owned by the goroutine executing loop. Workers only touch
// it through the outcomes channel and the read-only helpers.
type runState struct {
	ctx     context.Context
	cancel  context.CancelFunc
	s       *Scheduler
	g       *Graph
	db      Storage
	opts    Options
	threads int
	monitor *ioMonitor
	counter domain.StepCounter

	pending   map[StepID]int
	ready     []StepID
	active    int
	remaining int
	outcomes  chan outcome

	runs    map[StepID]*stepRun
	owners  map[domain.Fingerprint]StepID
	twins   map[StepID][]StepID
	waiting map[StepID]*spawnWait

	infraErr error
}

func newRunState(
	ctx context.Context,
	cancel context.CancelFunc,
	s *Scheduler,
	g *Graph,
	db Storage,
	opts Options,
	threads int,
	order []StepID,
) *runState {
	st := &runState{
		ctx:       ctx,
		cancel:    cancel,
		s:         s,
		g:         g,
		db:        db,
		opts:      opts,
		threads:   threads,
		monitor:   newIOMonitor(s.logger),
		pending:   make(map[StepID]int, len(order)),
		remaining: len(order),
		outcomes:  make(chan outcome, threads),
		runs:      make(map[StepID]*stepRun),
		owners:    make(map[domain.Fingerprint]StepID),
		twins:     make(map[StepID][]StepID),
		waiting:   make(map[StepID]*spawnWait),
	}
	for _, id := range order {
		n := len(g.step(id).children)
		st.pending[id] = n
		if n == 0 {
			st.ready = append(st.ready, id)
		}
	}
	return st
}

func (st *runState) loop() error {
	for st.remaining > 0 {
		st.dispatch()
		if st.remaining == 0 {
			break
		}
		if st.active == 0 {
			return zerr.With(zerr.Wrap(domain.ErrSchedulerStalled, "run"), "remaining", st.remaining)
		}

		out := <-st.outcomes
		st.active--
		st.handle(out)

		if st.infraErr != nil {
			st.abort()
			return st.infraErr
		}
	}
	return nil
}

func (st *runState) dispatch() {
	for len(st.ready) > 0 {
		id := st.ready[0]
		if st.g.step(id).status.IsTerminal() {
			st.ready = st.ready[1:]
			continue
		}
		if err := st.ctx.Err(); err != nil {
			st.ready = st.ready[1:]
			st.finish(finished{id: id, status: domain.StatusCancelled, err: err})
			continue
		}
		if st.active >= st.threads {
			return
		}
		st.ready = st.ready[1:]
		st.active++
		go st.prepare(id, st.g.step(id).cmd)
	}
}

func (st *runState) handle(out outcome) {
	if out.run != nil {
		st.runs[out.id] = out.run
	}
	if out.infraErr != nil {
		st.infraErr = errors.Join(st.infraErr, out.infraErr)
		return
	}
	if out.status.IsTerminal() {
		st.finish(finished{id: out.id, status: out.status, result: out.result, err: out.err})
		return
	}

	switch out.phase {
	case phasePrepared:
		st.handlePrepared(out)
	case phaseExecuted:
		st.handleExecuted(out)
	}
}

func (st *runState) handlePrepared(out outcome) {
	st.g.setFingerprint(out.id, out.run.fp)
	if out.cached != nil {
		st.finish(finished{id: out.id, status: domain.StatusNotTriggeredWasSuccessful, result: out.cached})
		return
	}

	if owner, ok := st.owners[out.run.fp]; ok {
		if o := st.g.step(owner); o.status.IsTerminal() {
			st.finish(twinOutcome(out.id, finished{id: owner, status: o.status, result: o.result, err: o.err}))
			return
		}
		st.twins[owner] = append(st.twins[owner], out.id)
		return
	}

	st.owners[out.run.fp] = out.id
	st.active++
	go st.execute(out.id, st.g.step(out.id).cmd, out.run)
}

func (st *runState) handleExecuted(out outcome) {
	if len(out.spawned) == 0 {
		st.recordResult(out.id, out.result)
		st.finish(finished{id: out.id, status: domain.StatusSuccessful, result: out.result})
		return
	}

	children := st.g.spawn(out.id, out.spawned)
	st.waiting[out.id] = &spawnWait{result: out.result, remaining: len(children)}
	for _, child := range children {
		st.pending[child] = 0
		st.remaining++
		st.ready = append(st.ready, child)
	}
	out.run.logger.Debug(fmt.Sprintf("spawned %d steps", len(children)))
}

// finish makes steps terminal and propagates the consequences: twins take
// over the outcome of their owner, spawners complete once their spawned
// steps have, and dependents become ready or fail transitively.
func (st *runState) finish(first finished) {
	queue := []finished{first}
	for len(queue) > 0 {
		f := queue[0]
		queue = queue[1:]

		step := st.g.step(f.id)
		if step.status.IsTerminal() {
			continue
		}
		st.g.setOutcome(f.id, f.status, f.result, f.err)
		st.remaining--
		st.counter.Add(f.status)
		st.report(f)

		for _, twin := range st.twins[f.id] {
			queue = append(queue, twinOutcome(twin, f))
		}
		delete(st.twins, f.id)

		if spawner := step.spawnedBy; spawner != noStep {
			if parent, done := st.childDone(spawner, f); done {
				queue = append(queue, parent)
			}
		}

		for _, p := range slices.Sorted(maps.Keys(step.parents)) {
			if p == step.spawnedBy {
				continue
			}
			st.pending[p]--
			if !f.status.Succeeded() {
				queue = append(queue, finished{
					id:     p,
					status: domain.StatusNotTriggeredPrerequisiteFailed,
					err:    zerr.With(zerr.Wrap(errPrerequisiteFailed, "not triggered"), "prerequisite", step.cmd.Title()),
				})
				continue
			}
			if st.pending[p] == 0 {
				st.ready = append(st.ready, p)
			}
		}
	}
}

func (st *runState) childDone(spawner StepID, f finished) (finished, bool) {
	w := st.waiting[spawner]
	if w == nil {
		return finished{}, false
	}

	switch {
	case f.status.Succeeded():
		w.result.Merge(f.result)
	case f.status == domain.StatusCancelled:
		w.cancelled = true
	default:
		w.failed = errors.Join(w.failed, zerr.With(zerr.New("spawned step failed"), "step", st.g.step(f.id).cmd.Title()))
	}

	w.remaining--
	if w.remaining > 0 {
		return finished{}, false
	}
	delete(st.waiting, spawner)

	switch {
	case w.cancelled:
		return finished{id: spawner, status: domain.StatusCancelled, err: context.Canceled}, true
	case w.failed != nil:
		return finished{id: spawner, status: domain.StatusFailed, err: w.failed}, true
	default:
		st.recordResult(spawner, w.result)
		return finished{id: spawner, status: domain.StatusSuccessful, result: w.result}, true
	}
}

func twinOutcome(twin StepID, owner finished) finished {
	switch {
	case owner.status.Succeeded():
		return finished{id: twin, status: domain.StatusNotTriggeredWasSuccessful, result: owner.result.Clone()}
	case owner.status == domain.StatusCancelled:
		return finished{id: twin, status: domain.StatusCancelled, err: owner.err}
	default:
		return finished{id: twin, status: domain.StatusFailed, err: owner.err}
	}
}

// recordResult stores the result under the step's fingerprint so that later
// runs, and twins prepared later in this run, reuse it.
func (st *runState) recordResult(id StepID, result *domain.CommandResult) {
	fp := st.g.step(id).fingerprint
	if fp.IsZero() || result == nil {
		return
	}
	if err := st.db.Results.Add(fp, result); err != nil {
		st.infraErr = errors.Join(st.infraErr, zerr.With(zerr.Wrap(err, "record command result"), "step", st.g.step(id).cmd.Title()))
	}
}

func (st *runState) report(f finished) {
	title := st.g.step(f.id).cmd.Title()
	run := st.runs[f.id]
	delete(st.runs, f.id)

	log := st.s.logger.With("step", title)
	if run != nil {
		log = run.logger
		cached := f.status == domain.StatusNotTriggeredWasSuccessful
		run.span.SetAttribute("kiln.status", f.status.String())
		run.span.SetAttribute("kiln.cached", cached)
		if f.err != nil {
			run.span.RecordError(f.err)
		}
		run.span.End()
		if cached {
			run.vertex.Cached()
		}
		run.vertex.Complete(f.err)
	}

	switch f.status {
	case domain.StatusFailed:
		log.Error(zerr.With(zerr.Wrap(f.err, "step failed"), "step", title))
	case domain.StatusNotTriggeredWasSuccessful:
		log.Debug("up to date")
	case domain.StatusSuccessful:
		log.Debug("built")
	default:
		log.Debug(f.status.String())
	}
}

// abort cancels every in-flight step, waits for the workers and closes the
// telemetry of every step that did not finish.
func (st *runState) abort() {
	st.cancel()
	for st.active > 0 {
		out := <-st.outcomes
		st.active--
		if out.run != nil {
			st.runs[out.id] = out.run
		}
	}
	for id, run := range st.runs {
		run.span.RecordError(context.Canceled)
		run.span.End()
		run.vertex.Complete(context.Canceled)
		delete(st.runs, id)
	}
}

// prepare runs on a worker: it fingerprints the step and looks it up in the
// result index.
func (st *runState) prepare(id StepID, cmd ports.Command) {
	title := cmd.Title()
	ctx, span := st.s.tracer.Start(st.ctx, title, ports.WithAttribute("kiln.kind", cmd.Kind()))
	ctx, vertex := st.s.telemetry.Record(ctx, title)
	run := &stepRun{
		ctx:    ctx,
		span:   span,
		vertex: vertex,
		logger: st.s.logger.With("step", title),
	}
	out := outcome{id: id, phase: phasePrepared, run: run}
	defer func() { st.outcomes <- out }()

	if err := ctx.Err(); err != nil {
		out.status, out.err = domain.StatusCancelled, err
		return
	}

	fp, versions, stepErr, infraErr := st.fingerprint(cmd, run.logger)
	switch {
	case infraErr != nil:
		out.infraErr = infraErr
		return
	case stepErr != nil:
		out.status, out.err = domain.StatusFailed, stepErr
		return
	}
	run.fp = fp
	run.versions = versions
	span.SetAttribute("kiln.fingerprint", fp.String())

	cached, err := st.lookup(fp, run.logger)
	if err != nil {
		out.infraErr = err
		return
	}
	out.cached = cached
}

// execute runs on a worker: it runs the command and collects its result.
func (st *runState) execute(id StepID, cmd ports.Command, run *stepRun) {
	sc := &stepContext{
		ctx:     run.ctx,
		id:      id,
		run:     st,
		logger:  run.logger,
		output:  io.MultiWriter(run.span, run.vertex.Stdout()),
		monitor: st.monitor,
		result:  domain.NewCommandResult(),
	}

	st.monitor.begin(id, cmd.Title())
	for _, url := range slices.Concat(cmd.InputFiles(), cmd.InputDependencies()) {
		st.monitor.read(id, url)
	}
	err := cmd.Execute(run.ctx, sc)
	st.monitor.end(id)

	out := outcome{id: id, phase: phaseExecuted, run: run}
	sc.mu.Lock()
	infraErr := sc.infraErr
	sc.mu.Unlock()

	switch {
	case infraErr != nil:
		out.infraErr = infraErr
	case run.ctx.Err() != nil:
		out.status, out.err = domain.StatusCancelled, run.ctx.Err()
	case err != nil:
		out.status, out.err = domain.StatusFailed, err
	default:
		result := sc.result
		observed := result.InputDependencyVersions
		result.InputDependencyVersions = maps.Clone(run.versions)
		maps.Copy(result.InputDependencyVersions, observed)
		out.result = result
		out.spawned = sc.spawned
	}
	st.outcomes <- out
}

func (st *runState) fingerprint(
	cmd ports.Command,
	log ports.Logger,
) (domain.Fingerprint, map[domain.ObjectURL]domain.ObjectID, error, error) {
	b := domain.NewFingerprintBuilder(cmd.Kind())
	if err := cmd.WriteParameters(b.Parameters()); err != nil {
		return domain.Fingerprint{}, nil, zerr.Wrap(err, "serialize command parameters"), nil
	}

	versions := make(map[domain.ObjectURL]domain.ObjectID)
	for _, url := range slices.Concat(cmd.InputFiles(), cmd.InputDependencies()) {
		if _, seen := versions[url]; seen {
			continue
		}
		v, stepErr, infraErr := st.version(url)
		if infraErr != nil || stepErr != nil {
			return domain.Fingerprint{}, nil, stepErr, infraErr
		}
		if v.IsEmpty() && url.Type == domain.URLTypeContent {
			log.Warn(fmt.Sprintf("content input %s has no producer; caching will not work for this step", url))
		}
		versions[url] = v
		b.AddInput(url, v)
	}
	return b.Sum(), versions, nil, nil
}

// version returns the current version of url. Index failures are
// infrastructure errors; file failures belong to the step.
func (st *runState) version(url domain.ObjectURL) (id domain.ObjectID, stepErr, infraErr error) {
	if url.Type == domain.URLTypeFile {
		v, err := st.s.tracker.Version(st.resolvePath(url))
		if err != nil {
			return domain.EmptyObjectID, zerr.With(zerr.Wrap(err, "version input"), "url", url.String()), nil
		}
		return v, nil, nil
	}
	v, err := st.contentVersion(url)
	return v, nil, err
}

func (st *runState) contentVersion(url domain.ObjectURL) (domain.ObjectID, error) {
	if id, ok := url.BlobID(); ok {
		return id, nil
	}
	id, ok, err := st.db.Content.TryGet(url.Path.String())
	if err != nil {
		return domain.EmptyObjectID, zerr.With(zerr.Wrap(err, "look up content index"), "url", url.String())
	}
	if !ok {
		return domain.EmptyObjectID, nil
	}
	return id, nil
}

// lookup returns the cached result for fp when every output object still
// exists and every recorded input still has the recorded version.
func (st *runState) lookup(fp domain.Fingerprint, log ports.Logger) (*domain.CommandResult, error) {
	cached, ok, err := st.db.Results.TryGet(fp)
	if err != nil {
		return nil, zerr.Wrap(err, "look up result index")
	}
	if !ok {
		return nil, nil
	}

	for _, url := range cached.SortedOutputs() {
		if !st.db.Objects.Exists(cached.OutputObjects[url]) {
			log.Debug(fmt.Sprintf("cached output %s is missing", url))
			return nil, nil
		}
	}
	for _, url := range cached.SortedInputs() {
		v, stepErr, infraErr := st.version(url)
		if infraErr != nil {
			return nil, infraErr
		}
		if stepErr != nil || v != cached.InputDependencyVersions[url] {
			return nil, nil
		}
	}

	for _, url := range cached.SortedOutputs() {
		if !indexable(url) {
			continue
		}
		if err := st.db.Content.Add(url.Path.String(), cached.OutputObjects[url]); err != nil {
			return nil, zerr.With(zerr.Wrap(err, "restore content index"), "url", url.String())
		}
	}
	return cached, nil
}

func (st *runState) resolvePath(url domain.ObjectURL) string {
	return resolvePath(st.opts.Root, url)
}
