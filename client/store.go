// Package client provides the HTTP side of the gateway API for use by
// interactive clients: history fetches and read-receipt persistence.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/valyala/fasthttp"

	"trekconnect/contract"
	"trekconnect/domain"
	"trekconnect/errors"
)

var _ contract.MessageStore = (*Store)(nil)

// Store talks to the gateway REST endpoints. It carries the JWT handed
// out at login on every request.
type Store struct {
	baseURL string
	token   string
	http    *fasthttp.Client
	timeout time.Duration
	log     *slog.Logger
}

func NewStore(baseURL, token string, timeout time.Duration, log *slog.Logger) *Store {
	return &Store{
		baseURL: baseURL,
		token:   token,
		http:    &fasthttp.Client{},
		timeout: timeout,
		log:     log,
	}
}

type historyPage struct {
	Messages []domain.Message `json:"messages"`
	Cursor   *string          `json:"cursor"`
}

// MessagesForRoom fetches the stored history of a room, following the
// server cursor until exhaustion. The gateway returns newest first.
func (s *Store) MessagesForRoom(ctx context.Context, roomID domain.RoomID) ([]domain.Message, error) {
	var all []domain.Message
	var cursor *string

	for {
		target := fmt.Sprintf("%s/api/rooms/%s/messages", s.baseURL, roomID)
		if cursor != nil {
			target += "?cursor=" + *cursor
		}

		body, status, err := s.get(ctx, target)
		if err != nil {
			return nil, err
		}
		if status != fasthttp.StatusOK {
			return nil, fmt.Errorf("history fetch failed with status %d: %w", status, errors.ErrTransport)
		}

		var page historyPage
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, err
		}
		if len(page.Messages) == 0 {
			break
		}
		all = append(all, page.Messages...)
		if page.Cursor == nil {
			break
		}
		cursor = page.Cursor
	}

	return all, nil
}

// MarkMessageAsRead files a read receipt with the gateway. It reports
// whether the gateway accepted the receipt; idempotent retries are the
// server's concern.
func (s *Store) MarkMessageAsRead(ctx context.Context, messageID uuid.UUID) (bool, error) {
	target := fmt.Sprintf("%s/api/messages/%s/read", s.baseURL, messageID)

	req := fasthttp.AcquireRequest()
	res := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(res)

	req.SetRequestURI(target)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.Set(fasthttp.HeaderAuthorization, "Bearer "+s.token)

	if err := s.do(ctx, req, res); err != nil {
		return false, err
	}

	switch res.StatusCode() {
	case fasthttp.StatusAccepted:
		return true, nil
	case fasthttp.StatusNotFound:
		return false, errors.ErrUnknownMessage
	case fasthttp.StatusForbidden:
		return false, errors.ErrForeignRoom
	default:
		return false, fmt.Errorf("receipt failed with status %d: %w", res.StatusCode(), errors.ErrTransport)
	}
}

func (s *Store) get(ctx context.Context, target string) ([]byte, int, error) {
	req := fasthttp.AcquireRequest()
	res := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(res)

	req.SetRequestURI(target)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set(fasthttp.HeaderAuthorization, "Bearer "+s.token)

	if err := s.do(ctx, req, res); err != nil {
		return nil, 0, err
	}

	body := append([]byte(nil), res.Body()...)
	return body, res.StatusCode(), nil
}

// do runs the request under the tighter of the configured timeout and
// the context deadline.
func (s *Store) do(ctx context.Context, req *fasthttp.Request, res *fasthttp.Response) error {
	deadline := time.Now().Add(s.timeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}
	return s.http.DoDeadline(req, res, deadline)
}
