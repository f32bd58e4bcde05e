// Package registration owns the background REGISTER loop: register, wait
// for the binding to approach expiry, register again; on any failure, wait
// a fixed retry delay and try again. Grounded on original_source's
// registrator.rs (the fuller revision), translating its Arc<Mutex<...>>
// task-guarded-by-assert shape into a goroutine guarded by a nil-cancel
// check.
package registration

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/emiago/sipgo"
	"github.com/emiago/sipgo/sip"

	internalsip "github.com/sebas/sipphone/internal/sip"
)

// StatusKind classifies the most recent REGISTER outcome.
type StatusKind int

const (
	Unregistered StatusKind = iota
	Failed
	Successful
)

// Status is the last observed REGISTER outcome.
type Status struct {
	Kind   StatusKind
	Reason string
}

func statusFromResponse(resp *sip.Response) Status {
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return Status{Kind: Successful, Reason: resp.Reason}
	case resp.StatusCode >= 400 && resp.StatusCode < 700:
		return Status{Kind: Failed, Reason: resp.Reason}
	default:
		return Status{Kind: Unregistered, Reason: resp.Reason}
	}
}

// Config is what a Registrator needs to build and re-send REGISTER requests.
type Config struct {
	Client       *sipgo.Client
	RegistrarURI sip.Uri
	AOR          sip.Uri
	Contact      sip.ContactHeader
	Credentials  internalsip.Credentials
	Expires      uint32
	RetryDelay   time.Duration // default 10s, matching the teacher's hard-coded retry wait
}

// Registrator owns a single background registration loop.
type Registrator struct {
	cfg Config

	runMu  sync.Mutex
	cancel context.CancelFunc
	cseq   uint32

	statusMu sync.Mutex
	status   *Status
}

// New creates a Registrator. Start must be called to begin registering.
func New(cfg Config) *Registrator {
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = 10 * time.Second
	}
	return &Registrator{cfg: cfg}
}

// Start launches the registration loop. Calling Start while one is already
// running is a programmer error and panics, mirroring the teacher's assert
// in run_registration.
func (r *Registrator) Start(ctx context.Context) {
	r.runMu.Lock()
	defer r.runMu.Unlock()
	if r.cancel != nil {
		panic("registration: stop the registration before starting a new one")
	}
	loopCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	go r.loop(loopCtx)
}

// Stop aborts the loop and clears the cached status, matching
// stop_registration.
func (r *Registrator) Stop() {
	r.runMu.Lock()
	defer r.runMu.Unlock()
	if r.cancel == nil {
		return
	}
	r.cancel()
	r.cancel = nil
	r.setStatus(nil)
}

// Status returns the last observed REGISTER outcome; ok is false until the
// first response arrives.
func (r *Registrator) Status() (status Status, ok bool) {
	r.statusMu.Lock()
	defer r.statusMu.Unlock()
	if r.status == nil {
		return Status{}, false
	}
	return *r.status, true
}

func (r *Registrator) setStatus(s *Status) {
	r.statusMu.Lock()
	r.status = s
	r.statusMu.Unlock()
}

func (r *Registrator) loop(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		status, err := r.registerOnce(ctx)
		if err != nil {
			failed := Status{Kind: Failed, Reason: err.Error()}
			r.setStatus(&failed)
			if !sleep(ctx, r.cfg.RetryDelay) {
				return
			}
			continue
		}

		statusCopy := status
		r.setStatus(&statusCopy)

		if status.Kind == Successful {
			// Refresh a little before the binding expires so it never lapses.
			const refreshMargin = 5 * time.Second
			refresh := time.Duration(r.cfg.Expires) * time.Second
			if refresh > refreshMargin {
				refresh -= refreshMargin
			}
			if !sleep(ctx, refresh) {
				return
			}
		} else if !sleep(ctx, r.cfg.RetryDelay) {
			return
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-time.After(d):
		return true
	case <-ctx.Done():
		return false
	}
}

func (r *Registrator) registerOnce(ctx context.Context) (Status, error) {
	r.runMu.Lock()
	r.cseq++
	cseq := r.cseq
	r.runMu.Unlock()

	req := internalsip.BuildRegister(internalsip.RegisterParams{
		RegistrarURI: r.cfg.RegistrarURI,
		AOR:          r.cfg.AOR,
		CallID:       internalsip.NewCallID(),
		CSeq:         cseq,
		Expires:      r.cfg.Expires,
		Contact:      r.cfg.Contact,
	})

	resp, err := r.send(ctx, req)
	if err != nil {
		return Status{}, err
	}

	if internalsip.IsAuthChallenge(resp) {
		authReq, err := internalsip.Authorize(req, resp, r.cfg.Credentials)
		if err != nil {
			return Status{}, err
		}
		resp, err = r.send(ctx, authReq)
		if err != nil {
			return Status{}, err
		}
	}

	return statusFromResponse(resp), nil
}

func (r *Registrator) send(ctx context.Context, req *sip.Request) (*sip.Response, error) {
	tx, err := r.cfg.Client.TransactionRequest(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("registration: send REGISTER: %w", err)
	}
	defer tx.Terminate()

	for {
		select {
		case res := <-tx.Responses():
			if res == nil {
				continue
			}
			if res.StatusCode < 200 {
				continue
			}
			return res, nil
		case <-tx.Done():
			return nil, fmt.Errorf("registration: transaction ended without final response")
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}
