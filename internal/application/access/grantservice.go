package access

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/repogate-inc/repogate/internal/shared/logger"
)

// ErrUserNotFound marks a grant failure that retrying cannot fix: the
// GitHub username does not exist. Callers keep the purchase's access
// pending and alert an operator instead of burning retry attempts.
var ErrUserNotFound = errors.New("github user does not exist")

const (
	grantMaxAttempts = 3
	pullPermission   = "pull"
)

// sleepFunc waits for d or until ctx is done. Injectable for tests.
type sleepFunc func(ctx context.Context, d time.Duration) error

func defaultSleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// GrantService drives collaborator changes with the retry policy the
// reconciliation engine relies on.
type GrantService struct {
	api   CollaboratorAPI
	sleep sleepFunc
	log   logger.Interface
}

func NewGrantService(api CollaboratorAPI, log logger.Interface) *GrantService {
	return &GrantService{
		api:   api,
		sleep: defaultSleep,
		log:   log.Named("access-grant"),
	}
}

// AddCollaboratorWithRetry invites username to owner/repo with pull
// permission. A nonexistent username short-circuits to ErrUserNotFound
// without any invite attempt. Transient failures are retried up to
// three times with exponential backoff (1s, 2s); the last error is
// returned verbatim when all attempts fail.
func (s *GrantService) AddCollaboratorWithRetry(ctx context.Context, owner, repo, username string) error {
	exists, err := s.api.CheckUserExists(ctx, username)
	if err != nil {
		return fmt.Errorf("check github user %s: %w", username, err)
	}
	if !exists {
		return fmt.Errorf("%w: %s", ErrUserNotFound, username)
	}

	var lastErr error
	for attempt := 1; attempt <= grantMaxAttempts; attempt++ {
		lastErr = s.api.AddCollaborator(ctx, owner, repo, username, pullPermission)
		if lastErr == nil {
			if attempt > 1 {
				s.log.Infow("collaborator added after retry",
					"repo", owner+"/"+repo,
					"username", username,
					"attempt", attempt,
				)
			}
			return nil
		}

		s.log.Warnw("add collaborator attempt failed",
			"repo", owner+"/"+repo,
			"username", username,
			"attempt", attempt,
			"error", lastErr,
		)

		if attempt < grantMaxAttempts {
			backoff := time.Duration(1<<uint(attempt-1)) * time.Second
			if err := s.sleep(ctx, backoff); err != nil {
				return err
			}
		}
	}
	return lastErr
}

// RemoveCollaborator makes a single removal attempt. Revocation flows
// treat failure as best effort and proceed regardless, so no retries.
func (s *GrantService) RemoveCollaborator(ctx context.Context, owner, repo, username string) error {
	if err := s.api.RemoveCollaborator(ctx, owner, repo, username); err != nil {
		s.log.Warnw("remove collaborator failed",
			"repo", owner+"/"+repo,
			"username", username,
			"error", err,
		)
		return err
	}
	return nil
}
