package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/go-resty/resty/v2"

	"github.com/peridotvault/icrc3-explorer/types"
)

const (
	// DefaultHost is the boundary node of the IC mainnet.
	DefaultHost = "https://ic0.app"

	QueryPath = "api/v2/canister/%s/query"

	ApplicationCbor = "application/cbor"

	clientUserAgent = "ICRC-3 Explorer IC Agent/0.1"
	ingressExpiry   = 4 * time.Minute
	defaultTimeout  = 30 * time.Second

	statusReplied  = "replied"
	statusRejected = "rejected"
)

// selfDescribeTag is the CBOR encoding of tag 55799 which prefixes all
// envelopes exchanged with the replica.
var selfDescribeTag = []byte{0xd9, 0xd9, 0xf7}

type (
	// Agent makes anonymous query calls to canisters using the HTTP
	// interface of the Internet Computer.
	Agent struct {
		BaseUrl *url.URL
		rc      *resty.Client
		now     func() time.Time
	}

	Option func(*Agent)

	// RejectError is returned when the replica rejects the query.
	RejectError struct {
		Code      uint64
		Message   string
		ErrorCode string
	}

	Envelope struct {
		Content QueryContent `cbor:"content"`
	}

	QueryContent struct {
		RequestType   string `cbor:"request_type"`
		CanisterID    []byte `cbor:"canister_id"`
		MethodName    string `cbor:"method_name"`
		Arg           []byte `cbor:"arg"`
		Sender        []byte `cbor:"sender"`
		IngressExpiry uint64 `cbor:"ingress_expiry"`
	}

	QueryResponse struct {
		Status        string `cbor:"status"`
		Reply         *Reply `cbor:"reply,omitempty"`
		RejectCode    uint64 `cbor:"reject_code,omitempty"`
		RejectMessage string `cbor:"reject_message,omitempty"`
		ErrorCode     string `cbor:"error_code,omitempty"`
	}

	Reply struct {
		Arg []byte `cbor:"arg"`
	}
)

func WithTimeout(d time.Duration) Option {
	return func(a *Agent) {
		a.rc.SetTimeout(d)
	}
}

func WithClock(now func() time.Time) Option {
	return func(a *Agent) {
		a.now = now
	}
}

func New(host string, opts ...Option) (*Agent, error) {
	if !strings.HasPrefix(host, "http://") && !strings.HasPrefix(host, "https://") {
		host = "http://" + host
	}
	u, err := url.Parse(host)
	if err != nil {
		return nil, fmt.Errorf("error parsing IC host URL (%s): %w", host, err)
	}
	a := &Agent{
		BaseUrl: u,
		rc: resty.New().
			SetBaseURL(u.String()).
			SetTimeout(defaultTimeout).
			SetHeader("Content-Type", ApplicationCbor).
			SetHeader("User-Agent", clientUserAgent),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Query calls query method of the canister and returns the Candid encoded reply.
func (a *Agent) Query(ctx context.Context, canister types.Principal, method string, arg []byte) ([]byte, error) {
	body, err := EncodeEnvelope(&Envelope{
		Content: QueryContent{
			RequestType:   "query",
			CanisterID:    canister,
			MethodName:    method,
			Arg:           arg,
			Sender:        types.AnonymousPrincipal,
			IngressExpiry: uint64(a.now().Add(ingressExpiry).UnixNano()),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("encoding query envelope: %w", err)
	}

	rsp, err := a.rc.R().
		SetContext(ctx).
		SetBody(body).
		Post(fmt.Sprintf(QueryPath, canister))
	if err != nil {
		return nil, fmt.Errorf("query %s to %s failed: %w", method, canister, err)
	}
	if rsp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("query %s to %s failed: %s: %s", method, canister, rsp.Status(), strings.TrimSpace(string(rsp.Body())))
	}

	var res QueryResponse
	if err := DecodeEnvelope(rsp.Body(), &res); err != nil {
		return nil, fmt.Errorf("decoding query response: %w", err)
	}
	switch res.Status {
	case statusReplied:
		if res.Reply == nil {
			return nil, errors.New("replied query response has no reply")
		}
		return res.Reply.Arg, nil
	case statusRejected:
		return nil, &RejectError{Code: res.RejectCode, Message: res.RejectMessage, ErrorCode: res.ErrorCode}
	default:
		return nil, fmt.Errorf("unexpected query response status %q", res.Status)
	}
}

// EncodeEnvelope returns self-described CBOR encoding of v.
func EncodeEnvelope(v any) ([]byte, error) {
	data, err := cbor.Marshal(v)
	if err != nil {
		return nil, err
	}
	return append(bytes.Clone(selfDescribeTag), data...), nil
}

// DecodeEnvelope decodes CBOR data into v, the self-describe tag is optional.
func DecodeEnvelope(data []byte, v any) error {
	return cbor.Unmarshal(bytes.TrimPrefix(data, selfDescribeTag), v)
}

func (e *RejectError) Error() string {
	if e.ErrorCode != "" {
		return fmt.Sprintf("query rejected (code %d, %s): %s", e.Code, e.ErrorCode, e.Message)
	}
	return fmt.Sprintf("query rejected (code %d): %s", e.Code, e.Message)
}
