package useragent

import (
	"context"
	"log/slog"
	"time"

	"github.com/emiago/sipgo"
	"github.com/emiago/sipgo/sip"

	"github.com/sebas/sipphone/internal/call"
	internalsip "github.com/sebas/sipphone/internal/sip"
)

// byeTimeout bounds how long Close waits for the peer's response to our BYE
// before giving up and releasing the RTP socket anyway.
const byeTimeout = 2 * time.Second

// dialogInfo carries the header fields BuildBYE needs to tear down the
// dialog a MediaSession belongs to.
type dialogInfo struct {
	remoteContactURI string
	remoteToURI      string
	localFromURI     string
	remoteTag        string
	localTag         string
	callID           string
	cseq             uint32
}

// dialogSession wraps a call.MediaSession so that closing it also sends the
// dialog-terminating BYE, following the teacher's pattern of tearing down
// signaling and media together in one terminate step.
type dialogSession struct {
	call.MediaSession
	client *sipgo.Client
	dialog dialogInfo
}

func newDialogSession(client *sipgo.Client, session call.MediaSession, dialog dialogInfo) *dialogSession {
	return &dialogSession{MediaSession: session, client: client, dialog: dialog}
}

// Close sends a best-effort BYE for the dialog, then releases the RTP
// socket regardless of whether the peer answered. A BYE that fails or times
// out never blocks call teardown.
func (d *dialogSession) Close() error {
	bye, err := internalsip.BuildBYE(
		d.dialog.remoteContactURI,
		d.dialog.remoteToURI,
		d.dialog.localFromURI,
		d.dialog.remoteTag,
		d.dialog.localTag,
		d.dialog.callID,
		d.dialog.cseq,
	)
	if err != nil {
		slog.Warn("useragent: build BYE", "error", err)
		return d.MediaSession.Close()
	}

	ctx, cancel := context.WithTimeout(context.Background(), byeTimeout)
	defer cancel()

	tx, err := d.client.TransactionRequest(ctx, bye)
	if err != nil {
		slog.Warn("useragent: send BYE", "error", err)
	} else {
		defer tx.Terminate()
		select {
		case <-tx.Responses():
		case <-tx.Done():
		case <-ctx.Done():
		}
	}

	return d.MediaSession.Close()
}

var _ call.MediaSession = (*dialogSession)(nil)

// handleBye answers any in-dialog BYE with 200 OK and, if a call is
// currently active, tears it down the same way a local terminate would.
// Remote-initiated and local-initiated hangups converge on the same
// Terminate path, so the active call is always released exactly once.
func (c *Coordinator) handleBye(req *sip.Request, tx sip.ServerTransaction) {
	_ = tx.Respond(sip.NewResponseFromRequest(req, sip.StatusOK, "OK", nil))

	c.mu.Lock()
	active := c.activeCall
	if active != nil {
		c.activeCall = nil
		c.waitingAction = nil
	}
	c.mu.Unlock()

	if active == nil {
		return
	}

	if err := active.Terminate(context.Background()); err != nil {
		slog.Warn("useragent: terminate on remote BYE", "error", err)
	}

	c.mu.Lock()
	c.enqueue(Event{Kind: EventCallTerminated})
	c.mu.Unlock()
}
