package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mcdexio/yield-battle-vault/common/logging"
	"github.com/mcdexio/yield-battle-vault/leaderboard"
	"github.com/mcdexio/yield-battle-vault/vault"
	"github.com/shopspring/decimal"
)

// CallerHeader must match the header the api reads the caller from.
const CallerHeader = "X-Caller-Address"

// Client calls the vault api on behalf of one caller address.
type Client struct {
	client *http.Client
	logger logging.Logger
	url    string
	caller string
}

type KeyValue struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Error is a non 2xx answer of the api.
type Error struct {
	Status   int    `json:"-"`
	Message  string `json:"error"`
	Code     string `json:"code"`
	Category string `json:"category"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("api %d %s: %s", e.Status, e.Code, e.Message)
}

var DefaultTransport = &http.Transport{
	DialContext: (&net.Dialer{
		Timeout: 500 * time.Millisecond,
	}).DialContext,
	TLSHandshakeTimeout: 1000 * time.Millisecond,
	MaxIdleConns:        100,
	IdleConnTimeout:     30 * time.Second,
}

func NewHttpClient(transport *http.Transport, logger logging.Logger, url, caller string) *Client {
	if transport == nil {
		transport = http.DefaultTransport.(*http.Transport)
	}

	return &Client{
		client: &http.Client{Transport: transport, Timeout: 30 * time.Second},
		logger: logger,
		url:    strings.TrimSuffix(url, "/"),
		caller: caller,
	}
}

// Request sends body as JSON and decodes a 2xx answer into out, which may be nil.
func (h *Client) Request(ctx context.Context, method, path string, params []KeyValue,
	body interface{}, out interface{}) error {
	if len(h.url) == 0 {
		return fmt.Errorf("url is empty")
	}
	u, err := url.Parse(h.url + path)
	if err != nil {
		return fmt.Errorf("parse url %s failed: %w", h.url+path, err)
	}
	if len(params) > 0 {
		q := u.Query()
		for _, p := range params {
			q.Set(p.Key, p.Value)
		}
		u.RawQuery = q.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("build request error: %w", err)
		}
		reqBody = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), reqBody)
	if err != nil {
		return fmt.Errorf("build request error: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if h.caller != "" {
		req.Header.Set(CallerHeader, h.caller)
	}

	start := time.Now()
	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("http call error: %w", err)
	}
	defer closeBody(resp, h.logger)
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	h.logger.Debug("%s %s cost %v status %d", method, path, time.Since(start), resp.StatusCode)

	if resp.StatusCode/100 != 2 {
		apiErr := &Error{Status: resp.StatusCode}
		if err := json.Unmarshal(respBody, apiErr); err != nil || apiErr.Code == "" {
			apiErr.Message = strings.TrimSpace(string(respBody))
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(respBody, out)
}

func (h *Client) Get(ctx context.Context, path string, params []KeyValue, out interface{}) error {
	return h.Request(ctx, http.MethodGet, path, params, nil, out)
}

func (h *Client) Post(ctx context.Context, path string, body interface{}, out interface{}) error {
	return h.Request(ctx, http.MethodPost, path, nil, body, out)
}

func (h *Client) Stats(ctx context.Context) (*vault.StatsView, error) {
	var st vault.StatsView
	if err := h.Get(ctx, "/stats", nil, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

func (h *Client) Position(ctx context.Context, user string) (*vault.PositionView, error) {
	var p vault.PositionView
	if err := h.Get(ctx, "/positions/"+user, nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (h *Client) Deposit(ctx context.Context, amount decimal.Decimal) error {
	return h.Post(ctx, "/vault/deposit", map[string]decimal.Decimal{"amount": amount}, nil)
}

func (h *Client) CreateBattle(ctx context.Context, p vault.BattleParams) (uint64, error) {
	var resp struct {
		ID uint64 `json:"id"`
	}
	err := h.Post(ctx, "/battles", map[string]interface{}{
		"name":            p.Name,
		"entryFee":        p.EntryFee,
		"maxParticipants": p.MaxParticipants,
		"duration":        p.Duration,
	}, &resp)
	return resp.ID, err
}

func (h *Client) JoinBattle(ctx context.Context, id uint64, amount decimal.Decimal) error {
	return h.Post(ctx, battlePath(id, "/join"), map[string]decimal.Decimal{"amount": amount}, nil)
}

func (h *Client) CloseBattle(ctx context.Context, id uint64) ([]*vault.Winner, error) {
	var winners []*vault.Winner
	err := h.Post(ctx, battlePath(id, "/close"), nil, &winners)
	return winners, err
}

func (h *Client) Battle(ctx context.Context, id uint64) (*vault.BattleView, error) {
	var b vault.BattleView
	if err := h.Get(ctx, battlePath(id, ""), nil, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

func (h *Client) Participants(ctx context.Context, id uint64) ([]*vault.Participant, error) {
	var ps []*vault.Participant
	err := h.Get(ctx, battlePath(id, "/participants"), nil, &ps)
	return ps, err
}

func (h *Client) Winners(ctx context.Context, id uint64) ([]*vault.Winner, error) {
	var ws []*vault.Winner
	err := h.Get(ctx, battlePath(id, "/winners"), nil, &ws)
	return ws, err
}

func (h *Client) Top(ctx context.Context, count int) ([]*leaderboard.Entry, error) {
	var top []*leaderboard.Entry
	err := h.Get(ctx, "/leaderboard/top", []KeyValue{{"count", strconv.Itoa(count)}}, &top)
	return top, err
}

func battlePath(id uint64, suffix string) string {
	return "/battles/" + strconv.FormatUint(id, 10) + suffix
}

func closeBody(resp *http.Response, logger logging.Logger) {
	if resp != nil && resp.Body != nil {
		err := resp.Body.Close()
		if err != nil {
			logger.Error("response body close error: %v, req: %v", err.Error(), resp.Request)
		}
	}
}
