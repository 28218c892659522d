package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/beevik/ntp"
)

// ntpVersion is the protocol version sent in requests (VN=3, as the clock's
// firmware always did).
const ntpVersion = 3

// ErrNTPInvalidReply is returned for replies that cannot be trusted.
var ErrNTPInvalidReply = errors.New("invalid ntp reply")

// TimeSyncer fetches the current local time from a network source.
type TimeSyncer interface {
	Sync(ctx context.Context) (DateTime, ClockStatus, error)
}

// ntpQueryFunc matches ntp.QueryWithOptions; tests swap it out.
type ntpQueryFunc func(host string, opt ntp.QueryOptions) (*ntp.Response, error)

// ntpSyncer asks one server for the time and converts the reply to local
// CET/CEST. One request, one reply; the display resolution is a minute.
type ntpSyncer struct {
	host    string // host or host:port
	timeout time.Duration
	query   ntpQueryFunc
	rules   DaylightRuleCache
}

func newNTPSyncer(host string, timeout time.Duration) *ntpSyncer {
	return &ntpSyncer{host: host, timeout: timeout, query: ntp.QueryWithOptions}
}

// Query returns the server's transmit timestamp in UTC. The library call has
// no context, so it runs aside and ctx only bounds the wait; s.timeout bounds
// the socket.
func (s *ntpSyncer) Query(ctx context.Context) (time.Time, error) {
	type result struct {
		resp *ntp.Response
		err  error
	}
	done := make(chan result, 1)
	go func() {
		resp, err := s.query(s.host, ntp.QueryOptions{Timeout: s.timeout, Version: ntpVersion})
		done <- result{resp: resp, err: err}
	}()

	var r result
	select {
	case <-ctx.Done():
		return time.Time{}, fmt.Errorf("query ntp %s: %w", s.host, ctx.Err())
	case r = <-done:
	}
	if r.err != nil {
		return time.Time{}, fmt.Errorf("query ntp %s: %w", s.host, r.err)
	}
	// Validate covers kiss-o'-death, unsynchronized servers and stale replies.
	if err := r.resp.Validate(); err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrNTPInvalidReply, err)
	}
	return r.resp.Time.UTC(), nil
}

// Sync is called from one goroutine at a time (the daemon keeps a single sync
// in flight), which keeps the rule cache unshared.
func (s *ntpSyncer) Sync(ctx context.Context) (DateTime, ClockStatus, error) {
	utc, err := s.Query(ctx)
	if err != nil {
		return DateTime{}, ClockUnknown, err
	}
	dt, status := s.rules.LocalFromUTC(utc)
	return dt, status, nil
}
