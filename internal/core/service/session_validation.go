package service

import (
	"context"
	"time"

	"github.com/librarydesk/library-client/internal/core/token"
)

// startValidationLocked (re)starts the periodic expiry check for tok. Any
// previous checker is cancelled first, so exactly one runs per session.
// After Close no checker is started.
func (m *SessionManager) startValidationLocked(tok string) {
	m.stopValidationLocked()
	if m.closed {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	m.stopVerify = cancel
	m.wg.Add(1)
	go m.runValidation(ctx, tok)
}

// stopValidationLocked cancels the checker without waiting for it: the
// checker itself calls back into the manager to expire a session.
func (m *SessionManager) stopValidationLocked() {
	if m.stopVerify != nil {
		m.stopVerify()
		m.stopVerify = nil
	}
}

func (m *SessionManager) runValidation(ctx context.Context, tok string) {
	defer m.wg.Done()

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !token.IsExpired(tok, m.now()) {
				continue
			}
			sctx, cancel := context.WithTimeout(context.Background(), storageTimeout)
			m.expire(sctx, tok)
			cancel()
			return
		}
	}
}
