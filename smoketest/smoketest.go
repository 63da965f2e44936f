// Package smoketest checks that a spatial server accepts connections and
// answers spatial queries end to end.
package smoketest

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	httpcmn "github.com/aukilabs/hagall-common/http"
	"github.com/aukilabs/spatial/geom"
	"github.com/aukilabs/spatial/messages"
	swebsocket "github.com/aukilabs/spatial/websocket"
	"github.com/segmentio/encoding/json"
	"golang.org/x/net/websocket"
)

const defaultTimeout = time.Second * 10

type Options struct {
	// The endpoint of the server running the smoke test.
	Endpoint string

	// The user agent sent to the tested server.
	UserAgent string
}

// Request is the body of a smoke test request.
type Request struct {
	// The endpoint of the tested server. The running server is tested when
	// empty.
	Endpoint string `json:"endpoint,omitempty"`

	// The smoke test timeout. Defaults to 10 seconds.
	Timeout time.Duration `json:"timeout,omitempty"`
}

// Result reports the outcome of a smoke test.
type Result struct {
	FromEndpoint string        `json:"from_endpoint"`
	ToEndpoint   string        `json:"to_endpoint"`
	Success      bool          `json:"success"`
	Error        string        `json:"error,omitempty"`
	Latency      time.Duration `json:"latency"`
}

// HandleSmokeTest runs a smoke test against the requested endpoint and
// responds with its result.
func HandleSmokeTest(ctx context.Context, opts Options) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b, err := io.ReadAll(r.Body)
		if err != nil {
			httpcmn.InternalServerError(w, errors.New("reading body failed").Wrap(err))
			return
		}

		var req Request
		if len(b) != 0 {
			if err := json.Unmarshal(b, &req); err != nil {
				httpcmn.BadRequest(w, httpcmn.ErrBadRequest)
				return
			}
		}

		if req.Endpoint == "" {
			req.Endpoint = opts.Endpoint
		}
		if req.Timeout <= 0 {
			req.Timeout = defaultTimeout
		}

		res := Result{
			FromEndpoint: opts.Endpoint,
			ToEndpoint:   req.Endpoint,
		}

		latency, err := Run(ctx, req.Endpoint, opts.UserAgent, req.Timeout)
		if err != nil {
			logs.WithTag("from_endpoint", opts.Endpoint).
				WithTag("to_endpoint", req.Endpoint).
				Warn(errors.New("smoke test failed").Wrap(err))
			res.Error = err.Error()
		} else {
			res.Success = true
			res.Latency = latency
		}

		body, err := json.Marshal(res)
		if err != nil {
			httpcmn.InternalServerError(w, errors.New("encoding smoke test result failed").Wrap(err))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write(body)
	}
}

// Run connects to the server at endpoint, creates a session, adds an entity
// with a sphere collider and raycasts it. It returns the time taken by the
// whole exchange.
func Run(ctx context.Context, endpoint, userAgent string, timeout time.Duration) (time.Duration, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	config, err := websocket.NewConfig(websocketURL(endpoint), endpoint)
	if err != nil {
		return 0, errors.New("creating websocket config failed").
			WithTag("endpoint", endpoint).
			Wrap(err)
	}
	if userAgent != "" {
		config.Header.Set("User-Agent", userAgent)
	}

	conn, err := config.DialContext(ctx)
	if err != nil {
		return 0, errors.New("dialing server failed").
			WithTag("endpoint", endpoint).
			Wrap(err)
	}
	defer conn.Close()

	start := time.Now()

	var entity messages.EntityAddResponse
	var raycast messages.RaycastResponse

	err = swebsocket.NewScenario(conn).
		Send(messages.MsgTypeSessionJoinRequest, 1, nil).
		Receive(
			swebsocket.FilterByType(messages.MsgTypeSessionJoinResponse, messages.MsgTypeError),
			swebsocket.FilterByRequestID(1),
			requireType(messages.MsgTypeSessionJoinResponse),
		).
		Send(messages.MsgTypeEntityAddRequest, 2, messages.EntityAddRequest{
			Pose: messages.Pose{
				Position: geom.NewVector3f(0, 0, -2),
			},
			Shape: &messages.ShapeDef{
				Kind:   messages.ShapeKindSphere,
				Radius: 1,
			},
		}).
		Receive(
			swebsocket.FilterByType(messages.MsgTypeEntityAddResponse, messages.MsgTypeError),
			swebsocket.FilterByRequestID(2),
			requireType(messages.MsgTypeEntityAddResponse),
			swebsocket.DecodeTo(&entity),
		).
		Send(messages.MsgTypeRaycastRequest, 3, messages.RaycastRequest{
			Ray: messages.Ray{
				Origin:    geom.Zero(),
				Direction: geom.Forward(),
			},
		}).
		Receive(
			swebsocket.FilterByType(messages.MsgTypeRaycastResponse, messages.MsgTypeError),
			swebsocket.FilterByRequestID(3),
			requireType(messages.MsgTypeRaycastResponse),
			swebsocket.DecodeTo(&raycast),
		).
		Run(ctx)
	if err != nil {
		return 0, err
	}

	if raycast.Hit == nil || raycast.Hit.EntityID != entity.EntityID {
		return 0, errors.New("raycast missed the smoke test entity").
			WithTag("entity_id", entity.EntityID)
	}
	return time.Since(start), nil
}

func requireType(t messages.MsgType) swebsocket.ScenarioHandler {
	return func(msg messages.Msg) error {
		if msg.Type != t {
			return errors.New("unexpected message").
				WithTag("expected", t).
				WithTag("msg_type", msg.Type).
				WithTag("data", string(msg.Data))
		}
		return nil
	}
}

func websocketURL(endpoint string) string {
	switch {
	case strings.HasPrefix(endpoint, "https://"):
		return "wss://" + strings.TrimPrefix(endpoint, "https://")

	case strings.HasPrefix(endpoint, "http://"):
		return "ws://" + strings.TrimPrefix(endpoint, "http://")

	default:
		return endpoint
	}
}
