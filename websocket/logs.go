package websocket

import (
	"context"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	httpcmn "github.com/aukilabs/hagall-common/http"
	"github.com/aukilabs/spatial/messages"
	"golang.org/x/net/websocket"
)

// HandlerWithLogs wraps h in order to log connections, session joins and
// exchanged messages. A summary of the received message types is logged
// every summaryInterval.
func HandlerWithLogs(h Handler, summaryInterval time.Duration) Handler {
	ctx, cancel := context.WithCancel(context.Background())

	handler := &handlerWithLogs{
		Handler:            h,
		summaryInterval:    summaryInterval,
		closeSummaryWorker: cancel,
		counter:            make(map[string]int),
	}

	go handler.startSummaryWorker(ctx)
	return handler
}

type handlerWithLogs struct {
	Handler

	originalRequest *http.Request
	appKey          string

	summaryInterval    time.Duration
	closeSummaryWorker func()
	counterMutex       sync.Mutex
	counter            map[string]int

	// The joined session is written on the handling goroutine and read by
	// the receiving and sending ones.
	sessionMutex sync.RWMutex
	session      sessionTags
}

type sessionTags struct {
	sessionID     string
	sessionUUID   string
	participantID uint32
}

type httpHeaders struct {
	UserAgent               string `json:"user_agent,omitempty"`
	XForwardedFor           string `json:"x_forwarded_for,omitempty"`
	CloudFrontCountryName   string `json:"cloudfront_viewer_country,omitempty"`
	CloudFrontViewerAddress string `json:"cloudfront_viewer_address,omitempty"`
}

func (h *handlerWithLogs) HandleConnect(conn *websocket.Conn) {
	h.Handler.HandleConnect(conn)

	req := conn.Request()
	h.originalRequest = req
	h.appKey = httpcmn.GetAppKeyFromHagallUserToken(httpcmn.GetUserTokenFromHTTPRequest(req))

	logs.WithClientID(h.GetClientID()).
		WithTag(logs.AppKeyTag, h.appKey).
		Info("new client is connected")
}

func (h *handlerWithLogs) HandleSessionJoin(ctx context.Context, sender messages.ResponseSender, msg messages.Msg) error {
	if err := h.Handler.HandleSessionJoin(ctx, sender, msg); err != nil {
		return err
	}

	if h.CurrentParticipant() == nil {
		var req messages.SessionJoinRequest
		// An empty payload creates a session, so a decoding failure only
		// leaves the session id blank.
		msg.DataTo(&req)

		logs.WithClientID(h.GetClientID()).
			WithTag(logs.AppKeyTag, h.appKey).
			WithTag(logs.SessionIDTag, req.SessionID).
			WithTag("request_id", msg.RequestID).
			WithTag("http_headers", h.httpHeaders()).
			Info("participant failed to join a session")

		h.setSessionTags(sessionTags{})
		return nil
	}

	tags := sessionTags{
		sessionID:     h.GetSessions().GlobalSessionID(h.CurrentSession().ID),
		sessionUUID:   h.CurrentSession().SessionUUID,
		participantID: h.CurrentParticipant().ID,
	}
	h.setSessionTags(tags)

	logs.WithClientID(h.GetClientID()).
		WithTag(logs.AppKeyTag, h.appKey).
		WithTag(logs.SessionIDTag, tags.sessionID).
		WithTag("session_uuid", tags.sessionUUID).
		WithTag(logs.ParticipantIDTag, tags.participantID).
		WithTag("http_headers", h.httpHeaders()).
		Info("participant joined a session")
	return nil
}

func (h *handlerWithLogs) setSessionTags(tags sessionTags) {
	h.sessionMutex.Lock()
	defer h.sessionMutex.Unlock()
	h.session = tags
}

func (h *handlerWithLogs) sessionTags() sessionTags {
	h.sessionMutex.RLock()
	defer h.sessionMutex.RUnlock()
	return h.session
}

func (h *handlerWithLogs) httpHeaders() httpHeaders {
	return httpHeaders{
		UserAgent:               h.originalRequest.UserAgent(),
		XForwardedFor:           h.originalRequest.Header.Get(httpcmn.XForwardedForHeaderKey),
		CloudFrontCountryName:   h.originalRequest.Header.Get(httpcmn.CloudFrontCountryNameHeaderKey),
		CloudFrontViewerAddress: h.originalRequest.Header.Get(httpcmn.CloudFrontViewerAddressHeaderKey),
	}
}

func (h *handlerWithLogs) HandleDisconnect(err error) {
	h.Handler.HandleDisconnect(err)

	tags := h.sessionTags()
	logs.WithClientID(h.GetClientID()).
		WithTag(logs.AppKeyTag, h.appKey).
		WithTag(logs.SessionIDTag, tags.sessionID).
		WithTag(logs.ParticipantIDTag, tags.participantID).
		Info("client disconnected")
}

func (h *handlerWithLogs) Receiver() messages.Receiver {
	receive := h.Handler.Receiver()

	return func() (messages.Msg, int, error) {
		msg, n, err := receive()
		tags := h.sessionTags()
		if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
			logs.WithClientID(h.GetClientID()).
				WithTag(logs.AppKeyTag, h.appKey).
				WithTag(logs.SessionIDTag, tags.sessionID).
				WithTag("session_uuid", tags.sessionUUID).
				WithTag(logs.ParticipantIDTag, tags.participantID).
				Error(errors.New("receiving message failed").Wrap(err))
		} else if err == nil {
			logs.WithClientID(h.GetClientID()).
				WithTag(logs.AppKeyTag, h.appKey).
				WithTag(logs.SessionIDTag, tags.sessionID).
				WithTag("session_uuid", tags.sessionUUID).
				WithTag(logs.ParticipantIDTag, tags.participantID).
				WithTag("msg_type", msg.TypeString()).
				Debug("message received")
			h.incCounter(msg.TypeString())
		}
		return msg, n, err
	}
}

func (h *handlerWithLogs) Sender() messages.Sender {
	sender := h.Handler.Sender()

	return func(msg messages.Msg) (int, error) {
		msgType := msg.TypeString()

		n, err := sender(msg)
		tags := h.sessionTags()
		if err != nil && !errors.Is(err, net.ErrClosed) {
			logs.WithClientID(h.GetClientID()).
				WithTag(logs.AppKeyTag, h.appKey).
				WithTag(logs.SessionIDTag, tags.sessionID).
				WithTag("session_uuid", tags.sessionUUID).
				WithTag(logs.ParticipantIDTag, tags.participantID).
				WithTag("msg_type", msgType).
				Error(errors.New("sending message failed").Wrap(err))
		} else if err == nil {
			logs.WithClientID(h.GetClientID()).
				WithTag(logs.AppKeyTag, h.appKey).
				WithTag(logs.SessionIDTag, tags.sessionID).
				WithTag("session_uuid", tags.sessionUUID).
				WithTag(logs.ParticipantIDTag, tags.participantID).
				WithTag("msg_type", msgType).
				Debug("message sent")
		}
		return n, err
	}
}

func (h *handlerWithLogs) Close() {
	h.Handler.Close()
	h.closeSummaryWorker()
	h.logSummary()
}

func (h *handlerWithLogs) startSummaryWorker(ctx context.Context) {
	ticker := time.NewTicker(h.summaryInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			h.logSummary()
		}
	}
}

func (h *handlerWithLogs) incCounter(msgType string) {
	h.counterMutex.Lock()
	defer h.counterMutex.Unlock()

	h.counter[msgType]++
}

func (h *handlerWithLogs) logSummary() {
	h.counterMutex.Lock()
	defer h.counterMutex.Unlock()

	if len(h.counter) == 0 {
		return
	}

	tags := h.sessionTags()
	entry := logs.
		WithClientID(h.GetClientID()).
		WithTag(logs.AppKeyTag, h.appKey).
		WithTag(logs.ParticipantIDTag, tags.participantID).
		WithTag(logs.SessionIDTag, tags.sessionID).
		WithTag("session_uuid", tags.sessionUUID).
		WithTag("time_interval", h.summaryInterval)

	for k, v := range h.counter {
		entry = entry.WithTag(k, v)
		delete(h.counter, k)
	}

	entry.Info("inbound message summary")
}
