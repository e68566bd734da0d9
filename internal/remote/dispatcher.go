package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/graybridge/internal/bridge"
	"github.com/nerrad567/graybridge/internal/infrastructure/mqtt"
)

// defaultOperationTimeout bounds one command end to end, including any
// busy-timeout retries inside the engine.
const defaultOperationTimeout = 30 * time.Second

// Publisher is the slice of the MQTT client the dispatcher needs.
// Satisfied by *mqtt.Client; tests substitute a fake.
type Publisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
}

// Logger is the logging surface used by the dispatcher.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// request is the JSON payload of one command. Fields beyond correlation_id
// are operation-specific; unused fields are ignored.
type request struct {
	CorrelationID string             `json:"correlation_id"`
	Path          string             `json:"path"`
	SQL           string             `json:"sql"`
	Params        []any              `json:"params"`
	Key           string             `json:"key"`
	Value         any                `json:"value"`
	Options       bridge.OpenOptions `json:"options"`
	Statements    []bridge.Statement `json:"statements"`
}

// response is the JSON payload published on the response topic.
type response struct {
	CorrelationID string       `json:"correlation_id"`
	Status        string       `json:"status"`
	Code          string       `json:"code,omitempty"`
	Message       string       `json:"message,omitempty"`
	Path          string       `json:"path,omitempty"`
	Rows          []bridge.Row `json:"rows,omitempty"`
	RowsAffected  *int64       `json:"rows_affected,omitempty"`
}

// Dispatcher routes MQTT command messages to registry operations.
type Dispatcher struct {
	registry *bridge.Registry
	client   Publisher
	qos      byte
	logger   Logger
	timeout  time.Duration
}

// NewDispatcher creates a dispatcher bound to a registry and an MQTT client.
func NewDispatcher(registry *bridge.Registry, client Publisher, qos int, logger Logger) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		client:   client,
		qos:      byte(qos),
		logger:   logger,
		timeout:  defaultOperationTimeout,
	}
}

// Start subscribes to the command topic pattern. Re-subscription after a
// broker reconnect is handled by the MQTT client.
func (d *Dispatcher) Start() error {
	return d.client.Subscribe(mqtt.Topics{}.CommandPattern(), d.qos, d.Handle)
}

// Handle processes one command message. It always attempts to publish a
// response; decode failures that leave no usable correlation ID get a
// generated one so the error is still observable on the response tree.
func (d *Dispatcher) Handle(topic string, payload []byte) error {
	op, err := mqtt.ParseCommandTopic(topic)
	if err != nil {
		return err
	}

	req, err := decodeRequest(payload)
	if err != nil {
		resp := response{
			CorrelationID: uuid.New().String(),
			Status:        "error",
			Code:          "bad_request",
			Message:       err.Error(),
		}
		return d.publish(resp)
	}
	if req.CorrelationID == "" {
		req.CorrelationID = uuid.New().String()
	}

	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	resp := d.execute(ctx, op, req)
	resp.CorrelationID = req.CorrelationID

	if resp.Status == "error" && d.logger != nil {
		d.logger.Warn("command failed",
			"operation", op,
			"path", req.Path,
			"code", resp.Code,
		)
	}

	return d.publish(resp)
}

// execute runs one operation against the registry and builds the response
// body. The correlation ID is filled in by the caller.
func (d *Dispatcher) execute(ctx context.Context, op string, req request) response {
	switch op {
	case "open":
		if err := d.registry.Open(ctx, req.Path, req.Options); err != nil {
			return errorResponse(err)
		}
		return response{Status: "ok"}

	case "load":
		path, err := d.registry.Load(ctx, req.Options)
		if err != nil {
			return errorResponse(err)
		}
		return response{Status: "ok", Path: path}

	case "pragma":
		if err := d.registry.SetPragma(ctx, req.Path, req.Key, req.Value); err != nil {
			return errorResponse(err)
		}
		return response{Status: "ok"}

	case "select":
		rows, err := d.registry.Select(ctx, req.Path, req.SQL, req.Params)
		if err != nil {
			return errorResponse(err)
		}
		if rows == nil {
			rows = []bridge.Row{}
		}
		return response{Status: "ok", Rows: rows}

	case "execute":
		affected, err := d.registry.Exec(ctx, req.Path, req.SQL, req.Params)
		if err != nil {
			return errorResponse(err)
		}
		return response{Status: "ok", RowsAffected: &affected}

	case "batch":
		if err := d.registry.Batch(ctx, req.Path, req.Statements); err != nil {
			return errorResponse(err)
		}
		return response{Status: "ok"}

	default:
		return response{
			Status:  "error",
			Code:    "unknown_operation",
			Message: fmt.Sprintf("unknown operation %q", op),
		}
	}
}

func (d *Dispatcher) publish(resp response) error {
	body, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("remote: encode response: %w", err)
	}
	topic := mqtt.Topics{}.Response(resp.CorrelationID)
	return d.client.Publish(topic, body, d.qos, false)
}

// decodeRequest parses a command payload. UseNumber keeps integer
// parameters from collapsing into float64 before binding.
func decodeRequest(payload []byte) (request, error) {
	var req request
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()
	if err := dec.Decode(&req); err != nil {
		return request{}, fmt.Errorf("remote: decode request: %w", err)
	}
	return req, nil
}

func errorResponse(err error) response {
	return response{
		Status:  "error",
		Code:    bridge.ErrorCode(err),
		Message: err.Error(),
	}
}
