package proc

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/rest"
	"github.com/disgoorg/snowflake/v2"
	"github.com/leeineian/homework/alert"
	"github.com/leeineian/homework/sys"
	"github.com/leeineian/homework/task"
)

const testAlertChannel = snowflake.ID(77)

type fakeMessages struct {
	mu        sync.Mutex
	created   []snowflake.ID
	nextID    snowflake.ID
	updateErr error
	updates   chan snowflake.ID
}

func (f *fakeMessages) CreateMessage(channelID snowflake.ID, _ discord.MessageCreate, _ ...rest.RequestOpt) (*discord.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, channelID)
	f.nextID++
	return &discord.Message{ID: f.nextID, ChannelID: channelID}, nil
}

func (f *fakeMessages) UpdateMessage(_ snowflake.ID, messageID snowflake.ID, _ discord.MessageUpdate, _ ...rest.RequestOpt) (*discord.Message, error) {
	f.updates <- messageID
	return nil, f.updateErr
}

func (f *fakeMessages) sent() []snowflake.ID {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]snowflake.ID(nil), f.created...)
}

type logRecorder struct {
	mu      sync.Mutex
	formats []string
}

func (r *logRecorder) log(format string, _ ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.formats = append(r.formats, format)
}

func (r *logRecorder) has(format string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Contains(r.formats, format)
}

type dmRecorder struct {
	mu  sync.Mutex
	ids []snowflake.ID
}

func (r *dmRecorder) send(_ context.Context, userID snowflake.ID, _ string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ids = append(r.ids, userID)
	return nil
}

func newTestAlertScheduler(t *testing.T, window time.Duration) (*alertScheduler, *fakeMessages, *logRecorder, Deps) {
	t.Helper()
	d := newTestDeps(t)
	if err := d.Channels.Set(sys.ChannelAlert, testAlertChannel); err != nil {
		t.Fatalf("set channel: %v", err)
	}

	msgs := &fakeMessages{updates: make(chan snowflake.ID, 10)}
	logs := &logRecorder{}
	dms := &dmRecorder{}
	a := newAlertScheduler(msgs, dms.send, d)
	a.cfg.Window = window
	a.log = logs.log
	return a, msgs, logs, d
}

// 11:55 UTC, an alert minute ahead of a plain hour.
var alertMinute = time.Date(2026, 3, 4, 11, 55, 0, 0, time.UTC)

func TestAlertTickPostsOnceAndExpires(t *testing.T) {
	a, msgs, _, _ := newTestAlertScheduler(t, 10*time.Millisecond)

	if !a.tick(context.Background(), alertMinute) {
		t.Fatalf("tick at an alert minute did not fire")
	}
	if sent := msgs.sent(); len(sent) != 1 || sent[0] != testAlertChannel {
		t.Fatalf("sent=%v, want one message to %v", sent, testAlertChannel)
	}

	select {
	case id := <-msgs.updates:
		if id != 1 {
			t.Fatalf("expiry edited message %v, want 1", id)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("expiry edit never happened")
	}
	if n := a.pending(); n != 0 {
		t.Fatalf("%d expiry timers left after the edit", n)
	}

	select {
	case id := <-msgs.updates:
		t.Fatalf("unexpected second edit of %v", id)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestAlertTickSkipsOtherMinutes(t *testing.T) {
	a, msgs, _, _ := newTestAlertScheduler(t, time.Hour)

	if a.tick(context.Background(), alertMinute.Add(-time.Minute)) {
		t.Fatalf("tick fired outside the alert minutes")
	}
	if sent := msgs.sent(); len(sent) != 0 {
		t.Fatalf("sent=%v, want nothing", sent)
	}
	if n := a.pending(); n != 0 {
		t.Fatalf("%d expiry timers armed without an alert", n)
	}
}

func TestAlertTickWithoutChannel(t *testing.T) {
	d := newTestDeps(t)
	msgs := &fakeMessages{updates: make(chan snowflake.ID, 10)}
	logs := &logRecorder{}
	a := newAlertScheduler(msgs, (&dmRecorder{}).send, d)
	a.log = logs.log

	if !a.tick(context.Background(), alertMinute) {
		t.Fatalf("tick at an alert minute did not fire")
	}
	if sent := msgs.sent(); len(sent) != 0 {
		t.Fatalf("sent=%v with no alert channel configured", sent)
	}
	if !logs.has(sys.MsgAlertNoChannel) {
		t.Fatalf("missing channel was not logged")
	}
}

func TestAlertExpireErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		logged bool
	}{
		{"deleted message", &rest.Error{Response: &http.Response{StatusCode: http.StatusNotFound}}, false},
		{"other failure", errors.New("rate limited"), true},
	}
	for _, tt := range tests {
		a, msgs, logs, _ := newTestAlertScheduler(t, time.Hour)
		msgs.updateErr = tt.err

		planned, _ := alert.Plan(alertMinute, a.cfg)
		a.expire(context.Background(), testAlertChannel, 5, planned)

		if got := logs.has(sys.MsgAlertEditFail); got != tt.logged {
			t.Fatalf("%s: edit failure logged=%v, want %v", tt.name, got, tt.logged)
		}
		if logs.has(sys.MsgAlertExpired) {
			t.Fatalf("%s: failed edit reported as expired", tt.name)
		}
	}
}

func TestStopTimersCancelsExpiry(t *testing.T) {
	a, msgs, _, _ := newTestAlertScheduler(t, 30*time.Millisecond)

	a.tick(context.Background(), alertMinute)
	if n := a.pending(); n != 1 {
		t.Fatalf("pending=%d after one alert, want 1", n)
	}
	a.stopTimers()
	if n := a.pending(); n != 0 {
		t.Fatalf("pending=%d after stopTimers, want 0", n)
	}

	select {
	case id := <-msgs.updates:
		t.Fatalf("cancelled expiry still edited %v", id)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestAlertNotifiesSubscribersOnly(t *testing.T) {
	d := newTestDeps(t)
	ctx := context.Background()
	for id, on := range map[snowflake.ID]bool{21: true, 22: false} {
		if _, err := d.Repo.Update(ctx, id, true, func(r *task.Record) error {
			r.Alerts = on
			return nil
		}); err != nil {
			t.Fatalf("seed %v: %v", id, err)
		}
	}

	dms := &dmRecorder{}
	a := newAlertScheduler(&fakeMessages{updates: make(chan snowflake.ID, 1)}, dms.send, d)
	planned, _ := alert.Plan(alertMinute, a.cfg)
	a.notifySubscribers(ctx, planned)

	if len(dms.ids) != 1 || dms.ids[0] != 21 {
		t.Fatalf("DMs went to %v, want [21]", dms.ids)
	}
}
