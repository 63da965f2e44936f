package websocket

import (
	"context"
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	httpcmn "github.com/aukilabs/hagall-common/http"
	"github.com/aukilabs/spatial/messages"
	"github.com/aukilabs/spatial/modules"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/net/websocket"
)

const (
	errTypeLabel        = "error_type"
	msgTypeLabel        = "msg_type"
	moduleLabel         = "module"
	publicEndpointLabel = "public_endpoint"
	appKeyLabel         = "app_key"

	defaultModule = "spatial"
)

var (
	wsConnectedClients = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "ws_connected_clients",
		Help: "The number of connected clients.",
	}, []string{
		publicEndpointLabel,
		appKeyLabel,
	})

	wsReceivedMsgs = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ws_received_msgs",
		Help: "The number of messages received from WebSocket connections.",
	}, []string{
		publicEndpointLabel,
		msgTypeLabel,
		appKeyLabel,
	})

	wsReceivedBytes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ws_received_bytes",
		Help: "The number of bytes received from WebSocket connections.",
	}, []string{
		publicEndpointLabel,
		msgTypeLabel,
		appKeyLabel,
	})

	wsReceiveErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ws_receive_errors",
		Help: "The errors that occurred while receiving a websocket message.",
	}, []string{
		publicEndpointLabel,
		errTypeLabel,
		appKeyLabel,
	})

	wsSentMsgs = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ws_sent_msgs",
		Help: "The number of messages sent to WebSocket connections.",
	}, []string{
		publicEndpointLabel,
		msgTypeLabel,
		appKeyLabel,
	})

	wsSentBytes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ws_sent_bytes",
		Help: "The number of bytes sent to WebSocket connections.",
	}, []string{
		publicEndpointLabel,
		msgTypeLabel,
		appKeyLabel,
	})

	wsSendErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ws_send_errors",
		Help: "The errors that occurred while sending a websocket message.",
	}, []string{
		publicEndpointLabel,
		errTypeLabel,
		msgTypeLabel,
		appKeyLabel,
	})

	wsMsgLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name: "ws_msg_latency",
		Help: "The time to process a WebSocket msg.",
	}, []string{
		publicEndpointLabel,
		msgTypeLabel,
		moduleLabel,
	})
)

// HandlerWithMetrics wraps h in order to record connection, traffic and
// latency metrics labelled with the given public endpoint.
func HandlerWithMetrics(h Handler, publicEndpoint string) Handler {
	return &handlerWithMetrics{
		Handler:        h,
		publicEndpoint: publicEndpoint,
	}
}

type handlerWithMetrics struct {
	Handler

	appKey         string
	publicEndpoint string
}

func (h *handlerWithMetrics) HandleConnect(conn *websocket.Conn) {
	req := conn.Request()
	h.appKey = httpcmn.GetAppKeyFromHagallUserToken(httpcmn.GetUserTokenFromHTTPRequest(req))

	wsConnectedClients.
		With(prometheus.Labels{
			publicEndpointLabel: h.publicEndpoint,
			appKeyLabel:         h.appKey,
		}).
		Inc()

	h.Handler.HandleConnect(conn)
}

func (h *handlerWithMetrics) HandlePing(ctx context.Context, sender messages.ResponseSender, msg messages.Msg) error {
	return h.measureLatency(msg, defaultModule, func() error {
		return h.Handler.HandlePing(ctx, sender, msg)
	})
}

func (h *handlerWithMetrics) HandleSessionJoin(ctx context.Context, sender messages.ResponseSender, msg messages.Msg) error {
	return h.measureLatency(msg, defaultModule, func() error {
		return h.Handler.HandleSessionJoin(ctx, sender, msg)
	})
}

func (h *handlerWithMetrics) HandleSessionState(ctx context.Context, sender messages.ResponseSender, msg messages.Msg) error {
	return h.measureLatency(msg, defaultModule, func() error {
		return h.Handler.HandleSessionState(ctx, sender, msg)
	})
}

func (h *handlerWithMetrics) HandleDisconnect(err error) {
	wsConnectedClients.
		With(prometheus.Labels{
			publicEndpointLabel: h.publicEndpoint,
			appKeyLabel:         h.appKey,
		}).
		Dec()

	h.Handler.HandleDisconnect(err)
}

func (h *handlerWithMetrics) HandleEntityAdd(ctx context.Context, sender messages.ResponseSender, msg messages.Msg) error {
	return h.measureLatency(msg, defaultModule, func() error {
		return h.Handler.HandleEntityAdd(ctx, sender, msg)
	})
}

func (h *handlerWithMetrics) HandleEntityDelete(ctx context.Context, sender messages.ResponseSender, msg messages.Msg) error {
	return h.measureLatency(msg, defaultModule, func() error {
		return h.Handler.HandleEntityDelete(ctx, sender, msg)
	})
}

func (h *handlerWithMetrics) HandleEntityUpdatePose(ctx context.Context, msg messages.Msg) error {
	return h.measureLatency(msg, defaultModule, func() error {
		return h.Handler.HandleEntityUpdatePose(ctx, msg)
	})
}

func (h *handlerWithMetrics) HandleEntityUpdateShape(ctx context.Context, sender messages.ResponseSender, msg messages.Msg) error {
	return h.measureLatency(msg, defaultModule, func() error {
		return h.Handler.HandleEntityUpdateShape(ctx, sender, msg)
	})
}

func (h *handlerWithMetrics) HandleWithModule(ctx context.Context, module modules.Module, sender messages.ResponseSender, msg messages.Msg) error {
	return h.measureLatency(msg, module.Name(), func() error {
		return h.Handler.HandleWithModule(ctx, module, sender, msg)
	})
}

func (h *handlerWithMetrics) SendSyncClock(ctx context.Context, sender messages.ResponseSender) error {
	return h.measureLatency(messages.Msg{Type: messages.MsgTypeSyncClock}, defaultModule, func() error {
		return h.Handler.SendSyncClock(ctx, sender)
	})
}

func (h *handlerWithMetrics) Receiver() messages.Receiver {
	receive := h.Handler.Receiver()

	return func() (messages.Msg, int, error) {
		msg, n, err := receive()
		if err != nil {
			wsReceiveErrors.
				With(prometheus.Labels{
					publicEndpointLabel: h.publicEndpoint,
					errTypeLabel:        errors.Type(err),
					appKeyLabel:         h.appKey,
				}).
				Inc()
		} else {
			wsReceivedMsgs.
				With(prometheus.Labels{
					publicEndpointLabel: h.publicEndpoint,
					msgTypeLabel:        msg.TypeString(),
					appKeyLabel:         h.appKey,
				}).
				Inc()
		}

		if n != 0 {
			wsReceivedBytes.
				With(prometheus.Labels{
					publicEndpointLabel: h.publicEndpoint,
					msgTypeLabel:        msg.TypeString(),
					appKeyLabel:         h.appKey,
				}).
				Add(float64(n))
		}

		return msg, n, err
	}
}

func (h *handlerWithMetrics) Sender() messages.Sender {
	sender := h.Handler.Sender()

	return func(msg messages.Msg) (int, error) {
		msgType := msg.TypeString()

		n, err := sender(msg)
		if err != nil {
			wsSendErrors.
				With(prometheus.Labels{
					publicEndpointLabel: h.publicEndpoint,
					msgTypeLabel:        msgType,
					errTypeLabel:        errors.Type(err),
					appKeyLabel:         h.appKey,
				}).
				Inc()
		}

		if n != 0 {
			wsSentMsgs.
				With(prometheus.Labels{
					publicEndpointLabel: h.publicEndpoint,
					msgTypeLabel:        msgType,
					appKeyLabel:         h.appKey,
				}).
				Inc()
			wsSentBytes.
				With(prometheus.Labels{
					publicEndpointLabel: h.publicEndpoint,
					msgTypeLabel:        msgType,
					appKeyLabel:         h.appKey,
				}).
				Add(float64(n))
		}

		return n, err
	}
}

func (h *handlerWithMetrics) measureLatency(msg messages.Msg, module string, f func() error) error {
	start := time.Now()

	err := f()
	if errors.IsType(err, messages.ErrTypeMsgSkip) {
		return err
	}

	wsMsgLatency.With(prometheus.Labels{
		publicEndpointLabel: h.publicEndpoint,
		msgTypeLabel:        msg.TypeString(),
		moduleLabel:         module,
	}).Observe(time.Since(start).Seconds())

	return err
}
