package models

import (
	"context"
	"errors"
	"testing"
)

// NOTE: DB-free. The reason check happens before any query, so a nil handle
// never gets dereferenced.

func TestContestAudit_EmptyReasonRejected(t *testing.T) {
	for _, reason := range []string{"", "   ", "\t"} {
		_, err := ContestAudit(nil, context.Background(), "default", 1, reason)
		if !errors.Is(err, ErrContestReasonRequired) {
			t.Errorf("reason %q: expected ErrContestReasonRequired, got %v", reason, err)
		}
	}
}
