package codex

import "strings"

const (
	defaultRefreshIntervalSecs = 2
	defaultRetryBackoffSecs    = 5
)

// SessionStateProvider caches codex app-server thread state per working
// directory, refreshing at most once every refreshIntervalSecs and backing
// off retryAfterUnix on error so a dead/slow app-server doesn't stall every
// scheduler tick.
type SessionStateProvider struct {
	client              *appServerClient
	cacheByCwd          map[string]ThreadState
	lastRefreshUnix     int64
	refreshIntervalSecs int64
	retryAfterUnix      int64
	lastError           error
}

func NewSessionStateProvider() *SessionStateProvider {
	return &SessionStateProvider{
		cacheByCwd:          make(map[string]ThreadState),
		refreshIntervalSecs: defaultRefreshIntervalSecs,
	}
}

// StatusesForCwds returns the cached ThreadState for every requested cwd
// that has one, refreshing from the app-server first if the refresh
// interval has elapsed and no backoff is in effect.
func (p *SessionStateProvider) StatusesForCwds(cwds []string, nowUnix int64) map[string]ThreadState {
	requested := normalizeCwds(cwds)
	if len(requested) == 0 {
		return map[string]ThreadState{}
	}

	shouldRefresh := nowUnix >= p.retryAfterUnix &&
		(p.lastRefreshUnix == 0 || nowUnix-p.lastRefreshUnix >= p.refreshIntervalSecs)
	if shouldRefresh {
		if err := p.refresh(requested); err != nil {
			p.lastError = err
			p.retryAfterUnix = nowUnix + defaultRetryBackoffSecs
			if p.client != nil {
				p.client.stop()
			}
			p.client = nil
		} else {
			p.lastRefreshUnix = nowUnix
			p.lastError = nil
		}
	}

	out := make(map[string]ThreadState, len(requested))
	for cwd := range requested {
		if state, ok := p.cacheByCwd[cwd]; ok {
			out[cwd] = state
		}
	}
	return out
}

// TakeLastError returns and clears the last refresh error, if any.
func (p *SessionStateProvider) TakeLastError() error {
	err := p.lastError
	p.lastError = nil
	return err
}

func (p *SessionStateProvider) refresh(requested map[string]struct{}) error {
	if p.client == nil {
		client, err := startAppServerClient()
		if err != nil {
			return err
		}
		p.client = client
	}
	if err := p.client.ensureInitialized(); err != nil {
		return err
	}

	for cwd := range requested {
		summary, err := p.client.threadListLatestForCwd(cwd)
		if err != nil {
			return err
		}
		if summary == nil {
			delete(p.cacheByCwd, cwd)
			continue
		}
		thread, err := p.client.threadRead(summary.ID)
		if err != nil {
			return err
		}
		updated := summary.UpdatedAt
		if thread.UpdatedAt > updated {
			updated = thread.UpdatedAt
		}
		var turnStatus *TurnStatus
		if len(thread.Turns) > 0 {
			turnStatus = ParseTurnStatus(thread.Turns[len(thread.Turns)-1].Status)
		}
		p.cacheByCwd[cwd] = ThreadState{
			ThreadID:          thread.ID,
			ThreadUpdatedUnix: updated,
			TurnStatus:        turnStatus,
		}
	}
	return nil
}

// Close stops the underlying app-server subprocess, if one is running.
func (p *SessionStateProvider) Close() {
	if p.client != nil {
		p.client.stop()
		p.client = nil
	}
}

func normalizeCwds(cwds []string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, cwd := range cwds {
		trimmed := strings.TrimSpace(cwd)
		if trimmed == "" {
			continue
		}
		out[trimmed] = struct{}{}
	}
	return out
}
