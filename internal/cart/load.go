package cart

import (
	"context"
	"errors"
)

type loadResult struct {
	source      LoadSource
	lines       []Line
	mirrorLocal bool
	pushRemote  bool
}

// Load hydrates the cart for the current session. A signed-in user's remote
// cart wins; otherwise the local cache is used and, when signed in, pushed
// up to the user document. With neither the cart starts empty. Read and
// decode failures are logged and fall through to the next source.
func (s *Store) Load(ctx context.Context) (LoadSource, error) {
	userID := s.session.CurrentUserID()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return "", ErrClosed
	}
	gen := s.beginLoadLocked(userID)
	s.mu.Unlock()

	res := s.resolve(ctx, userID)
	if err := s.finishLoad(ctx, gen, res); err != nil {
		return res.source, err
	}
	return res.source, nil
}

func (s *Store) onSessionChange(userID string) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	gen := s.beginLoadLocked(userID)
	s.mu.Unlock()

	ctx := s.logg.WithUserID(s.ctx, userID)
	s.logg.Info(s.logCtx(ctx, "session_change"), "session changed; reloading cart")

	go func() {
		res := s.resolve(ctx, userID)
		if err := s.finishLoad(ctx, gen, res); err != nil && !errors.Is(err, ErrStaleLoad) && !errors.Is(err, ErrClosed) {
			s.logg.Error(s.logCtx(ctx, "load"), "cart reload failed", err)
		}
	}()
}

// beginLoadLocked marks the cart unloaded and starts a new load generation.
func (s *Store) beginLoadLocked(userID string) uint64 {
	s.generation++
	s.loaded = false
	s.userID = userID
	if s.readyDone {
		s.ready = make(chan struct{})
		s.readyDone = false
	}
	return s.generation
}

func (s *Store) finishLoad(ctx context.Context, gen uint64, res loadResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if gen != s.generation {
		s.logg.Debug(s.logCtx(ctx, "load"), "discarding superseded cart load")
		return ErrStaleLoad
	}

	s.lines = res.lines
	s.source = res.source
	s.loaded = true
	if !s.readyDone {
		s.readyDone = true
		close(s.ready)
	}
	s.metrics.IncLoad(string(res.source))

	logCtx := s.logg.WithFields(s.logCtx(ctx, "load"), map[string]any{
		"source": string(res.source),
		"lines":  len(res.lines),
	})
	s.logg.Info(logCtx, "cart loaded")

	if res.mirrorLocal {
		s.enqueueLocked(ctx, persistTask{
			op:       opMirrorLocal,
			userID:   s.userID,
			lines:    CloneLines(res.lines),
			clear:    len(res.lines) == 0,
			local:    true,
			attempts: 1,
		})
	}
	if res.pushRemote {
		s.enqueueLocked(ctx, persistTask{
			op:       opPushRemote,
			userID:   s.userID,
			lines:    CloneLines(res.lines),
			remote:   true,
			attempts: 1,
		})
	}
	return nil
}

func (s *Store) resolve(ctx context.Context, userID string) loadResult {
	remoteSaysEmpty := false
	if userID != "" && s.users != nil {
		record, err := s.users.ReadUserRecord(ctx, userID)
		switch {
		case err == nil && record != nil && record.HasCart:
			return loadResult{
				source:      LoadSourceRemote,
				lines:       NormalizeLines(record.Cart),
				mirrorLocal: true,
			}
		case err == nil || errors.Is(err, ErrUserNotFound):
			remoteSaysEmpty = true
		default:
			s.logLoadFailure(ctx, mirrorRemote, err)
		}
	}

	raw, ok, err := s.local.Read(ctx, CartItemsKey)
	if err != nil {
		s.logLoadFailure(ctx, mirrorLocal, err)
		return loadResult{source: LoadSourceEmpty}
	}
	if ok {
		lines, err := DecodeLines(raw)
		if err != nil {
			s.logLoadFailure(ctx, mirrorLocal, err)
			return loadResult{source: LoadSourceEmpty}
		}
		return loadResult{
			source: LoadSourceLocal,
			lines:  lines,
			// Only push when the remote read succeeded, otherwise a transient
			// read failure would overwrite a remote cart we never saw.
			pushRemote: remoteSaysEmpty && len(lines) > 0,
		}
	}
	return loadResult{source: LoadSourceEmpty}
}

func (s *Store) logLoadFailure(ctx context.Context, mirror string, err error) {
	if !errors.Is(err, ErrLoad) {
		err = errors.Join(ErrLoad, err)
	}
	logCtx := s.logg.WithField(s.logCtx(ctx, "load"), "mirror", mirror)
	s.logg.Error(logCtx, "cart source unreadable; falling back", err)
}
