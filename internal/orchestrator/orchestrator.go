// Package orchestrator executes key-lifecycle intents one at a time,
// reconciling the keystore and agent state after every external operation
// and recording each outcome in the command log. It is the only writer of
// core state; the TUI and CLI hold read-only snapshots.
package orchestrator

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rileyhilliard/skm/internal/agent"
	"github.com/rileyhilliard/skm/internal/clipboard"
	"github.com/rileyhilliard/skm/internal/cmdlog"
	"github.com/rileyhilliard/skm/internal/errors"
	"github.com/rileyhilliard/skm/internal/keygen"
	"github.com/rileyhilliard/skm/internal/keystore"
	"github.com/rileyhilliard/skm/internal/logger"
)

// Deps wires the orchestrator's collaborators. All are required except
// Clipboard and Logger.
type Deps struct {
	Store     *keystore.Store
	Agent     agent.Bridge
	Generator keygen.Generator
	Clipboard clipboard.Writer
	Log       *cmdlog.Log
	Logger    logger.Logger

	// TrashDir receives deleted key files. Deletes move, never unlink.
	TrashDir string

	// QueueSize bounds pending intents; overflow is rejected as busy.
	QueueSize int
}

// Orchestrator serializes intents through a single worker goroutine.
type Orchestrator struct {
	store *keystore.Store
	agent agent.Bridge
	gen   keygen.Generator
	clip  clipboard.Writer
	log   *cmdlog.Log
	lg    logger.Logger
	trash string

	intents chan envelope
	quit    chan struct{}
	stopped chan struct{}
	once    sync.Once

	// mu guards store records and agent-derived fields against the TUI
	// reading snapshots while the worker mutates.
	mu             sync.Mutex
	agentReachable bool
	identities     []agent.Identity
}

// New creates an orchestrator. Call Start before dispatching intents.
func New(deps Deps) *Orchestrator {
	lg := deps.Logger
	if lg == nil {
		lg = logger.Noop()
	}
	clip := deps.Clipboard
	if clip == nil {
		clip = clipboard.System{}
	}
	size := deps.QueueSize
	if size < 1 {
		size = 1
	}
	return &Orchestrator{
		store:   deps.Store,
		agent:   deps.Agent,
		gen:     deps.Generator,
		clip:    clip,
		log:     deps.Log,
		lg:      lg,
		trash:   deps.TrashDir,
		intents: make(chan envelope, size),
		quit:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
}

// Start launches the worker goroutine.
func (o *Orchestrator) Start() {
	go o.run()
}

// Close stops the worker. Queued-but-undispatched intents are answered
// with ErrClosed; an in-flight external command runs to completion.
func (o *Orchestrator) Close() {
	o.once.Do(func() { close(o.quit) })
	<-o.stopped
}

func (o *Orchestrator) run() {
	defer close(o.stopped)
	for {
		select {
		case <-o.quit:
			for {
				select {
				case env := <-o.intents:
					env.reply <- Result{Err: ErrClosed}
				default:
					return
				}
			}
		case env := <-o.intents:
			env.reply <- o.execute(env.intent)
		}
	}
}

// KeyPath resolves a key name to its path in the store's directory.
func (o *Orchestrator) KeyPath(name string) string {
	return filepath.Join(o.store.Dir(), name)
}

// CommandLog exposes the log for read-only queries (tail, find).
func (o *Orchestrator) CommandLog() *cmdlog.Log {
	return o.log
}

// Refresh rescans the key directory and re-derives agent membership. The
// disk and the agent are owned externally, so cached state is never
// trusted across an intent boundary. An unreachable agent degrades to
// "status unknown" and is not an error.
func (o *Orchestrator) Refresh() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.refreshLocked()
}

func (o *Orchestrator) refreshLocked() error {
	if err := o.store.Refresh(); err != nil {
		return err
	}

	ids, err := o.agent.List()
	if err != nil {
		o.agentReachable = false
		o.identities = nil
		o.lg.Debug("agent list: %v", err)
		return nil
	}
	o.agentReachable = true
	o.identities = ids

	loaded := make(map[string]bool, len(ids))
	for _, id := range ids {
		loaded[id.Fingerprint] = true
	}
	for _, rec := range o.store.Records() {
		fp, err := rec.Fingerprint()
		if err != nil {
			rec.LoadedInAgent = false
			continue
		}
		rec.LoadedInAgent = loaded[fp]
	}
	return nil
}

// Snapshot returns a read-only copy of the current state for rendering.
type Snapshot struct {
	Keys           []keystore.KeyRecord
	Extras         []string
	Warnings       []string
	AgentReachable bool
	Identities     []agent.Identity
	Log            []cmdlog.Entry
}

// Snapshot copies current state. Safe to call from any goroutine.
func (o *Orchestrator) Snapshot(logTail int) Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()

	records := o.store.Records()
	keys := make([]keystore.KeyRecord, len(records))
	for i, rec := range records {
		keys[i] = *rec
	}

	return Snapshot{
		Keys:           keys,
		Extras:         o.store.Extras(),
		Warnings:       o.store.Warnings(),
		AgentReachable: o.agentReachable,
		Identities:     append([]agent.Identity(nil), o.identities...),
		Log:            o.log.Tail(logTail),
	}
}

// execute runs one intent to completion and appends its log entry.
func (o *Orchestrator) execute(in Intent) Result {
	// Rescan before acting: another process may have changed the key
	// directory or the agent since the last intent.
	if err := o.Refresh(); err != nil {
		o.lg.Warn("refresh before intent: %v", err)
	}

	var res Result
	switch in.Action {
	case cmdlog.ActionCreate:
		res = o.doCreate(in)
	case cmdlog.ActionDelete:
		res = o.doDelete(in)
	case cmdlog.ActionAgentAdd:
		res = o.doAgentAdd(in)
	case cmdlog.ActionAgentRemove:
		res = o.doAgentRemove(in)
	case cmdlog.ActionView:
		res = o.doView(in)
	case cmdlog.ActionCopy:
		res = o.doCopy(in)
	default:
		res = Result{Err: errors.New(errors.ErrExec,
			fmt.Sprintf("Unknown action: %s", in.Action),
			"This shouldn't happen - please report this bug!")}
		res.Entry = cmdlog.Entry{Action: in.Action, Target: in.Target, Outcome: cmdlog.OutcomeFailure, Message: "unknown action"}
	}

	res.Entry.Timestamp = time.Now()
	o.log.Append(res.Entry)
	return res
}

func failure(action cmdlog.Action, target string, err error, raw string) Result {
	return Result{
		Entry: cmdlog.Entry{
			Action:    action,
			Target:    target,
			Outcome:   cmdlog.OutcomeFailure,
			Message:   firstLine(err.Error()),
			RawOutput: raw,
		},
		Err: err,
	}
}

func success(action cmdlog.Action, target, message, raw string) Result {
	return Result{
		Entry: cmdlog.Entry{
			Action:    action,
			Target:    target,
			Outcome:   cmdlog.OutcomeSuccess,
			Message:   message,
			RawOutput: raw,
		},
	}
}

func (o *Orchestrator) doCreate(in Intent) Result {
	p := in.Params
	raw := keygen.CommandLine(p)

	// Validate here rather than trusting the generator; callers reach
	// this path from the TUI form and the CLI alike.
	if err := p.Validate(); err != nil {
		return failure(cmdlog.ActionCreate, p.Path, err, raw)
	}

	out, err := o.gen.Generate(context.Background(), p)
	if out != "" {
		raw += "\n" + out
	}
	if err != nil {
		// KeyStore stays unchanged; no partial record.
		return failure(cmdlog.ActionCreate, p.Path, err, raw)
	}

	msg := fmt.Sprintf("created %s key", p.Type)
	rec, recErr := keystore.NewRecord(p.Path)
	if recErr != nil {
		o.lg.Warn("created key not readable back: %v", recErr)
		msg += " (rescan needed: " + firstLine(recErr.Error()) + ")"
	} else {
		o.mu.Lock()
		o.store.Insert(rec)
		o.mu.Unlock()
	}
	return success(cmdlog.ActionCreate, p.Path, msg, raw)
}

func (o *Orchestrator) doDelete(in Intent) Result {
	o.mu.Lock()
	rec, err := o.store.Get(in.Target)
	o.mu.Unlock()
	if err != nil {
		return failure(cmdlog.ActionDelete, in.Target, err, "")
	}

	var steps []string

	// Best-effort agent removal first; its failure never blocks the
	// file move.
	if rec.LoadedInAgent {
		if fp, fpErr := rec.Fingerprint(); fpErr == nil {
			if rmErr := o.agent.Remove(fp); rmErr != nil {
				steps = append(steps, "agent remove failed: "+firstLine(rmErr.Error()))
			} else {
				steps = append(steps, "removed from agent")
			}
		}
	}

	if err := os.MkdirAll(o.trash, 0o700); err != nil {
		return failure(cmdlog.ActionDelete, in.Target,
			errors.WrapWithCode(err, errors.ErrFS,
				"Cannot create trash directory: "+o.trash,
				"Check permissions on the key directory"),
			strings.Join(steps, "; "))
	}

	dest := trashDest(o.trash, rec.Name)
	if err := moveFile(rec.Path, dest); err != nil {
		return failure(cmdlog.ActionDelete, in.Target,
			errors.WrapWithCode(err, errors.ErrFS,
				"Failed to move private key to trash",
				"Check permissions on "+o.trash),
			strings.Join(steps, "; "))
	}
	steps = append(steps, "moved "+rec.Name+" to trash")

	pubFailed := false
	if _, err := os.Stat(rec.PublicPath); err == nil {
		if err := moveFile(rec.PublicPath, dest+keystore.PublicKeySuffix); err != nil {
			pubFailed = true
			steps = append(steps, "public key move failed: "+firstLine(err.Error()))
		} else {
			steps = append(steps, "moved "+rec.Name+keystore.PublicKeySuffix+" to trash")
		}
	}

	o.mu.Lock()
	_ = o.store.Remove(in.Target)
	o.mu.Unlock()

	if pubFailed {
		return failure(cmdlog.ActionDelete, in.Target,
			errors.New(errors.ErrFS,
				"Private key trashed but public key move failed",
				"Move the .pub file out of "+o.store.Dir()+" by hand"),
			strings.Join(steps, "; "))
	}
	return success(cmdlog.ActionDelete, in.Target, strings.Join(steps, "; "), "")
}

func (o *Orchestrator) doAgentAdd(in Intent) Result {
	o.mu.Lock()
	rec, err := o.store.Get(in.Target)
	o.mu.Unlock()
	if err != nil {
		return failure(cmdlog.ActionAgentAdd, in.Target, err, "")
	}

	if err := o.agent.Add(rec.Path); err != nil {
		return failure(cmdlog.ActionAgentAdd, in.Target, wrapAgentErr(err), firstLine(err.Error()))
	}

	o.mu.Lock()
	rec.LoadedInAgent = true
	o.mu.Unlock()
	return success(cmdlog.ActionAgentAdd, in.Target, "added to agent", "")
}

func (o *Orchestrator) doAgentRemove(in Intent) Result {
	o.mu.Lock()
	rec, err := o.store.Get(in.Target)
	o.mu.Unlock()
	if err != nil {
		return failure(cmdlog.ActionAgentRemove, in.Target, err, "")
	}

	fp, err := rec.Fingerprint()
	if err != nil {
		return failure(cmdlog.ActionAgentRemove, in.Target, err, "")
	}

	if err := o.agent.Remove(fp); err != nil {
		return failure(cmdlog.ActionAgentRemove, in.Target, wrapAgentErr(err), firstLine(err.Error()))
	}

	o.mu.Lock()
	rec.LoadedInAgent = false
	o.mu.Unlock()
	return success(cmdlog.ActionAgentRemove, in.Target, "removed from agent", "")
}

// doView reads the public half of the pair. Viewing is always logged:
// looking at key material is worth an audit trail even when it fails.
func (o *Orchestrator) doView(in Intent) Result {
	o.mu.Lock()
	rec, err := o.store.Get(in.Target)
	o.mu.Unlock()
	if err != nil {
		return failure(cmdlog.ActionView, in.Target, err, "")
	}

	data, err := os.ReadFile(rec.PublicPath)
	if err != nil {
		return failure(cmdlog.ActionView, in.Target,
			errors.WrapWithCode(err, errors.ErrFS,
				"Cannot read key: "+rec.PublicPath,
				"Check file permissions"), "")
	}

	res := success(cmdlog.ActionView, in.Target, "viewed public key", "")
	res.Content = string(data)
	return res
}

func (o *Orchestrator) doCopy(in Intent) Result {
	o.mu.Lock()
	rec, err := o.store.Get(in.Target)
	o.mu.Unlock()
	if err != nil {
		return failure(cmdlog.ActionCopy, in.Target, err, "")
	}

	if _, err := os.Stat(rec.PublicPath); err != nil {
		return failure(cmdlog.ActionCopy, in.Target,
			errors.New(errors.ErrFS,
				"No public key file for "+rec.Name,
				"Regenerate the public half: ssh-keygen -y -f "+rec.Path), "")
	}

	data, err := os.ReadFile(rec.PublicPath)
	if err != nil {
		return failure(cmdlog.ActionCopy, in.Target,
			errors.WrapWithCode(err, errors.ErrFS,
				"Cannot read public key: "+rec.PublicPath,
				"Check file permissions"), "")
	}

	content := strings.TrimSpace(string(data))
	res := success(cmdlog.ActionCopy, in.Target, "copied public key to clipboard", "")
	res.Content = content

	// Clipboard trouble is a warning, not an orchestration failure.
	if err := o.clip.Write(content); err != nil {
		o.lg.Warn("clipboard: %v", err)
		res.Entry.Message = "clipboard unavailable: " + firstLine(err.Error())
	}
	return res
}

// wrapAgentErr turns agent sentinels into user-facing structured errors
// while keeping errors.Is working through the chain.
func wrapAgentErr(err error) error {
	switch {
	case stderrors.Is(err, agent.ErrUnreachable):
		return errors.WrapWithCode(err, errors.ErrAgent,
			"SSH agent is not reachable",
			"Check that ssh-agent is running and SSH_AUTH_SOCK is set")
	case stderrors.Is(err, agent.ErrPassphraseRequired):
		return errors.WrapWithCode(err, errors.ErrAgent,
			"Key is passphrase-protected",
			"Add it with ssh-add directly, or configure a passphrase prompt")
	case stderrors.Is(err, agent.ErrNotLoaded):
		return errors.WrapWithCode(err, errors.ErrAgent,
			"Key is not loaded in the agent",
			"Nothing to remove")
	default:
		return errors.WrapWithCode(err, errors.ErrAgent,
			"Agent operation failed",
			"Run 'skm doctor' to check the agent")
	}
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return s
}

// trashDest picks a collision-free destination name in the trash dir.
func trashDest(trash, name string) string {
	dest := filepath.Join(trash, name)
	if _, err := os.Stat(dest); err != nil {
		if _, err := os.Stat(dest + keystore.PublicKeySuffix); err != nil {
			return dest
		}
	}
	return filepath.Join(trash, name+"."+time.Now().Format("20060102-150405"))
}

// moveFile renames src to dest, falling back to copy+remove when the
// trash lives on another filesystem.
func moveFile(src, dest string) error {
	if err := os.Rename(src, dest); err == nil {
		return nil
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	if err := os.WriteFile(dest, data, info.Mode().Perm()); err != nil {
		return err
	}
	return os.Remove(src)
}
