// Package indexer walks agent data directories and reconciles the
// sessions they contain into the store.
package indexer

import (
	"fmt"
	"os"

	"github.com/ailog-cli/ailog/internal/adapter"
	"github.com/ailog-cli/ailog/internal/model"
	"github.com/ailog-cli/ailog/internal/store"
)

// Result counts the outcome of indexing one agent's sessions.
type Result struct {
	Agent   model.AgentKind
	Found   int
	New     int
	Updated int
	Skipped int
	Errors  int
}

func (r Result) String() string {
	return fmt.Sprintf("%s: found=%d new=%d updated=%d skipped=%d errors=%d",
		r.Agent, r.Found, r.New, r.Updated, r.Skipped, r.Errors)
}

type Indexer struct {
	store   *store.Store
	dirs    adapter.DataDirs
	Verbose bool
}

func New(s *store.Store, dirs adapter.DataDirs) *Indexer {
	return &Indexer{store: s, dirs: dirs}
}

// IndexAll indexes every installed agent and returns one Result per
// agent that was scanned.
func (ix *Indexer) IndexAll() ([]Result, error) {
	var results []Result
	for _, a := range adapter.Installed(ix.dirs) {
		r, err := ix.indexAdapter(a)
		if err != nil {
			return results, err
		}
		results = append(results, r)
	}
	return results, nil
}

// IndexAgent indexes a single agent, installed or not; an absent data
// directory simply yields zero sessions.
func (ix *Indexer) IndexAgent(kind model.AgentKind) (Result, error) {
	a, err := adapter.For(kind, ix.dirs)
	if err != nil {
		return Result{Agent: kind}, err
	}
	return ix.indexAdapter(a)
}

// RebuildAll clears the store and re-indexes everything from disk.
func (ix *Indexer) RebuildAll() ([]Result, error) {
	if err := ix.store.Clear(); err != nil {
		return nil, fmt.Errorf("clear store: %w", err)
	}
	return ix.IndexAll()
}

func (ix *Indexer) indexAdapter(a adapter.Adapter) (Result, error) {
	r := Result{Agent: a.Kind()}

	sessions, err := a.Scan()
	if err != nil {
		return r, fmt.Errorf("scan %s: %w", a.Kind(), err)
	}
	r.Found = len(sessions)

	for i := range sessions {
		sess := &sessions[i]
		if len(sess.Messages) == 0 {
			r.Skipped++
			continue
		}
		outcome, err := ix.reconcile(sess)
		if err != nil {
			r.Errors++
			fmt.Fprintf(os.Stderr, "  WARN: index %s/%s: %v\n", sess.Agent, sess.ID, err)
			continue
		}
		switch outcome {
		case outcomeNew:
			r.New++
		case outcomeUpdated:
			r.Updated++
		case outcomeSkipped:
			r.Skipped++
		}
		if ix.Verbose && outcome != outcomeSkipped {
			fmt.Fprintf(os.Stderr, "  %s %s (%d messages)\n", outcome, sess.ID, len(sess.Messages))
		}
	}
	return r, nil
}

type outcome string

const (
	outcomeNew     outcome = "new"
	outcomeUpdated outcome = "updated"
	outcomeSkipped outcome = "skipped"
)

// reconcile decides whether a scanned session is new, grown, or
// unchanged. A session that exists with the same message count is
// assumed unchanged: transcripts are append-only, so growth is the
// only change that matters.
func (ix *Indexer) reconcile(sess *model.Session) (outcome, error) {
	exists, err := ix.store.Exists(sess.ID)
	if err != nil {
		return outcomeSkipped, err
	}
	if !exists {
		if err := ix.store.Insert(sess); err != nil {
			return outcomeSkipped, err
		}
		return outcomeNew, nil
	}

	stored, err := ix.store.MessageCount(sess.ID)
	if err != nil {
		return outcomeSkipped, err
	}
	if stored == int64(len(sess.Messages)) {
		return outcomeSkipped, nil
	}
	if err := ix.store.Update(sess); err != nil {
		return outcomeSkipped, err
	}
	return outcomeUpdated, nil
}
