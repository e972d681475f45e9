package server

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/sourcegraph/conc/pool"
	"golang.org/x/time/rate"

	mandel "github.com/marben/mandelview"
	"github.com/marben/mandelview/internal/export"
	"github.com/marben/mandelview/internal/logging"
	"github.com/marben/mandelview/internal/palette"
	"github.com/marben/mandelview/internal/view"
)

const writeTimeout = 10 * time.Second

// pending is a view waiting to be rendered.
type pending struct {
	state view.State
	seq   uint64
}

// session is one websocket client. The reader goroutine owns the view state
// and publishes it to the renderer through latest, which holds at most one
// state: a newer state replaces one the renderer has not picked up yet, so
// intermediate views are skipped rather than queued.
type session struct {
	srv     *Server
	conn    *websocket.Conn
	log     *logging.Logger
	limiter *rate.Limiter
	latest  chan pending

	// wmu keeps a status and its frame adjacent on the wire.
	wmu sync.Mutex
}

func (srv *Server) newSession(c *websocket.Conn, log *logging.Logger) *session {
	return &session{
		srv:     srv,
		conn:    c,
		log:     log,
		limiter: rate.NewLimiter(srv.limit(), srv.burst),
		latest:  make(chan pending, 1),
	}
}

func (s *session) run(ctx context.Context) error {
	state := view.NewState(s.srv.base, s.srv.settings)
	state.Scheme = s.srv.scheme
	s.offer(pending{state: state})

	p := pool.New().WithContext(ctx).WithCancelOnError().WithFirstError()
	p.Go(func(ctx context.Context) error { return s.read(ctx, state) })
	p.Go(s.render)
	return p.Wait()
}

// offer replaces any unrendered state with st. Only the reader calls it, so
// the send never blocks.
func (s *session) offer(p pending) {
	select {
	case <-s.latest:
	default:
	}
	s.latest <- p
}

func (s *session) read(ctx context.Context, state view.State) error {
	var seq uint64
	for {
		var in Input
		if err := wsjson.Read(ctx, s.conn, &in); err != nil {
			return err
		}
		seq++
		e, err := in.event(state.Window, s.srv.maxPixels)
		if err != nil {
			s.log.Debug("rejected input", "type", in.Type, "error", err)
			st := statusOf(state, seq)
			st.Error = err.Error()
			if err := s.write(ctx, st, nil); err != nil {
				return err
			}
			continue
		}
		if e == nil {
			s.offer(pending{state: state, seq: seq})
			continue
		}

		next, changed := view.Reduce(state, e)
		recolour := next.Scheme != state.Scheme
		state = next
		if changed || recolour {
			s.offer(pending{state: state, seq: seq})
		}
	}
}

// render evaluates and sends the latest state, at most at the session's
// frame rate. A matrix is reused when only the colour scheme changed.
func (s *session) render(ctx context.Context) error {
	var (
		last       *mandel.Matrix
		lastDomain mandel.Domain
	)
	for {
		var next pending
		select {
		case <-ctx.Done():
			return nil
		case next = <-s.latest:
		}
		if err := s.limiter.Wait(ctx); err != nil {
			return nil
		}
		select {
		case newer := <-s.latest:
			next = newer
		default:
		}

		st := next.state
		status := statusOf(st, next.seq)
		m := last
		if m == nil || st.Domain != lastDomain {
			start := time.Now()
			var err error
			m, err = s.srv.eval.Evaluate(ctx, st.Domain)
			status.ElapsedMs = time.Since(start).Milliseconds()
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				s.log.Warn("evaluation failed", "region", st.Domain.Region.String(), "error", err)
				status.Error = err.Error()
				if err := s.write(ctx, status, nil); err != nil {
					return err
				}
				continue
			}
			last, lastDomain = m, st.Domain
		}

		var buf bytes.Buffer
		if err := export.Encode(&buf, palette.Paint(m, st.Scheme.Current().Color), export.PNG); err != nil {
			return err
		}
		if err := s.write(ctx, status, buf.Bytes()); err != nil {
			return err
		}
		s.log.Debug("frame sent", "region", st.Domain.Region.String(), "bytes", buf.Len(), "elapsed_ms", status.ElapsedMs)
	}
}

// write sends st, followed by frame as a binary message when frame is not nil.
func (s *session) write(ctx context.Context, st Status, frame []byte) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	s.wmu.Lock()
	defer s.wmu.Unlock()
	if err := wsjson.Write(ctx, s.conn, st); err != nil {
		return fmt.Errorf("write status: %w", err)
	}
	if frame == nil {
		return nil
	}
	if err := s.conn.Write(ctx, websocket.MessageBinary, frame); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}
