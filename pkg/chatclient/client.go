package chatclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"chat_service/internal/chat/domain"
	memberdomain "chat_service/internal/member/domain"
	errprocess "chat_service/pkg/err"
	"chat_service/pkg/middlewares"

	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
)

// Client REST + websocket client for the chat service
type Client struct {
	baseURL string
	http    *resty.Client
	dialer  *websocket.Dialer
	token   string
}

type apiFailure struct {
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type authResponse struct {
	UserData memberdomain.Member `json:"userData"`
	Token    string              `json:"token"`
}

type sidebarResponse struct {
	Users          []memberdomain.Member `json:"users"`
	UnseenMessages map[string]int        `json:"unseenMessages"`
}

type conversationResponse struct {
	Messages []domain.Message `json:"messages"`
}

type sendResponse struct {
	NewMessage domain.Message `json:"newMessage"`
}

// NewClient create client, baseURL 例如 http://localhost:3001
func NewClient(baseURL string) *Client {
	baseURL = strings.TrimRight(baseURL, "/")
	return &Client{
		baseURL: baseURL,
		http: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(15*time.Second).
			SetJSONMarshaler(json.Marshal).
			SetJSONUnmarshaler(json.Unmarshal).
			SetError(&apiFailure{}),
		dialer: websocket.DefaultDialer,
	}
}

// SetToken use an existing jwt
func (c *Client) SetToken(token string) { c.token = token }

// Token current jwt
func (c *Client) Token() string { return c.token }

func (c *Client) request(ctx context.Context) *resty.Request {
	req := c.http.R().SetContext(ctx)
	if c.token != "" {
		req.SetHeader(middlewares.HeaderToken, c.token)
	}
	return req
}

// 非 2xx 轉回 AppError, 保留伺服器給的 code
func checkResponse(resp *resty.Response, err error) error {
	if err != nil {
		return errprocess.Upstream("chat service unreachable", err)
	}
	if !resp.IsError() {
		return nil
	}
	if failure, ok := resp.Error().(*apiFailure); ok && failure.Code != "" {
		return errprocess.New(errprocess.Code(failure.Code), failure.Message)
	}
	return errprocess.New(errprocess.CodeInternal, fmt.Sprintf("unexpected status %d", resp.StatusCode()))
}

// Login store the returned token
func (c *Client) Login(ctx context.Context, email, password string) (*memberdomain.Member, error) {
	var out authResponse
	resp, err := c.request(ctx).
		SetBody(memberdomain.LoginRequest{Email: email, Password: password}).
		SetResult(&out).
		Post("/api/auth/login")
	if err := checkResponse(resp, err); err != nil {
		return nil, err
	}
	c.token = out.Token
	return &out.UserData, nil
}

// Sidebar users + unseen counts
func (c *Client) Sidebar(ctx context.Context) ([]memberdomain.Member, map[string]int, error) {
	var out sidebarResponse
	resp, err := c.request(ctx).SetResult(&out).Get("/api/messages/users")
	if err := checkResponse(resp, err); err != nil {
		return nil, nil, err
	}
	return out.Users, out.UnseenMessages, nil
}

// Conversation fetch messages with peer, server marks peer messages seen
func (c *Client) Conversation(ctx context.Context, peerID string) ([]domain.Message, error) {
	var out conversationResponse
	resp, err := c.request(ctx).SetResult(&out).Get("/api/messages/" + url.PathEscape(peerID))
	if err := checkResponse(resp, err); err != nil {
		return nil, err
	}
	return out.Messages, nil
}

// MarkSeen mark one message seen
func (c *Client) MarkSeen(ctx context.Context, messageID string) error {
	resp, err := c.request(ctx).Put("/api/messages/mark/" + url.PathEscape(messageID))
	return checkResponse(resp, err)
}

// Send message to peer
func (c *Client) Send(ctx context.Context, peerID string, content domain.MessageContent) (*domain.Message, error) {
	var out sendResponse
	resp, err := c.request(ctx).
		SetBody(content).
		SetResult(&out).
		Post("/api/messages/send/" + url.PathEscape(peerID))
	if err := checkResponse(resp, err); err != nil {
		return nil, err
	}
	return &out.NewMessage, nil
}

// Dial open the realtime connection, token 走 query
func (c *Client) Dial(ctx context.Context) (*websocket.Conn, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = "/ws"
	u.RawQuery = url.Values{middlewares.QueryToken: {c.token}}.Encode()

	conn, resp, err := c.dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusUnauthorized {
			return nil, errprocess.Unauthorized("websocket rejected token")
		}
		return nil, errprocess.Upstream("dial websocket", err)
	}
	return conn, nil
}
