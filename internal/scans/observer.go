package scans

import (
	"context"
	"sort"

	"github.com/NikhilSetiya/securex/internal/backend"
	"github.com/NikhilSetiya/securex/internal/realtime"
	"github.com/NikhilSetiya/securex/internal/session"
	"github.com/NikhilSetiya/securex/pkg/logging"
	"github.com/NikhilSetiya/securex/pkg/metrics"
	"github.com/NikhilSetiya/securex/pkg/types"
)

// Update is one observer emission: the current list, the row that changed
// and the notification when the change completed a scan.
type Update struct {
	Scans        []types.Scan  `json:"scans"`
	Changed      *types.Scan   `json:"changed,omitempty"`
	Notification *Notification `json:"notification,omitempty"`
}

// Observer follows a caller's scans through the realtime feed
type Observer struct {
	feed    realtime.Subscriber
	scans   backend.ScanStore
	metrics *metrics.Metrics
	logger  *logging.Logger
}

// NewObserver creates an observer
func NewObserver(feed realtime.Subscriber, scans backend.ScanStore, m *metrics.Metrics) *Observer {
	return &Observer{feed: feed, scans: scans, metrics: m, logger: logging.GetLogger()}
}

// Watch emits the current scan list, then an update for every change to
// the caller's scans until ctx is done or the feed closes.
func (o *Observer) Watch(ctx context.Context, sess *session.Session) (<-chan Update, error) {
	list, err := o.scans.ListByUser(ctx, sess.UserID())
	if err != nil {
		return nil, err
	}

	changes, err := o.feed.Subscribe(ctx, sess.UserID(), sess.AccessToken)
	if err != nil {
		return nil, err
	}

	out := make(chan Update, 4)
	o.metrics.SubscriberOpened()
	go func() {
		defer o.metrics.SubscriberClosed()
		defer close(out)

		if !emit(ctx, out, Update{Scans: list}) {
			return
		}
		// scan ids whose completion this subscription already announced
		notified := make(map[string]bool)
		for change := range changes {
			update, next := o.apply(ctx, sess, list, change, notified)
			list = next
			if !emit(ctx, out, update) {
				return
			}
		}
	}()
	return out, nil
}

func emit(ctx context.Context, out chan<- Update, u Update) bool {
	select {
	case out <- u:
		return true
	case <-ctx.Done():
		return false
	}
}

// apply folds one change into the list. Inserts and updates re-fetch the
// whole list; when that fails the change is merged locally. The
// notification depends only on the event's own row: the re-fetched list may
// already be ahead of the feed.
func (o *Observer) apply(ctx context.Context, sess *session.Session, list []types.Scan, change realtime.Change, notified map[string]bool) (Update, []types.Scan) {
	changed := change.Record
	if !changed.OwnedBy(sess.UserID()) {
		return Update{Scans: list}, list
	}

	var next []types.Scan
	if change.Type == realtime.ChangeDelete {
		next = Remove(list, changed.ID)
	} else if fresh, err := o.scans.ListByUser(ctx, sess.UserID()); err == nil {
		next = fresh
	} else {
		o.logger.WithContext(ctx).WithError(err).Warn("Scan list refresh failed, merging change")
		next = Merge(list, changed)
	}

	update := Update{Scans: next, Changed: &changed}
	if change.Type != realtime.ChangeDelete &&
		changed.Status == types.ScanStatusCompleted && !notified[changed.ID] {
		notified[changed.ID] = true
		n := NotifyFor(sess.Lang, StateOf(&changed))
		update.Notification = &n
	}
	return update, next
}

// Merge applies row to list, newest first. A terminal row is never replaced
// by a non-terminal one.
func Merge(list []types.Scan, row types.Scan) []types.Scan {
	out := make([]types.Scan, 0, len(list)+1)
	found := false
	for _, s := range list {
		if s.ID == row.ID {
			found = true
			if s.Status.Terminal() && !row.Status.Terminal() {
				out = append(out, s)
			} else {
				out = append(out, row)
			}
			continue
		}
		out = append(out, s)
	}
	if !found {
		out = append(out, row)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// Remove drops the scan with id from list
func Remove(list []types.Scan, id string) []types.Scan {
	out := make([]types.Scan, 0, len(list))
	for _, s := range list {
		if s.ID != id {
			out = append(out, s)
		}
	}
	return out
}
