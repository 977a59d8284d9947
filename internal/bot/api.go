// Package bot implements the Telegram ingress: a minimal Bot API client
// (long polling, message sending, file downloads, membership checks) and a
// router that turns incoming updates into relay operations.
//
// The client speaks plain HTTPS to the Bot API; no SDK is involved. Only the
// handful of methods the relay needs are wrapped.
package bot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// defaultAPIBase is the production Bot API endpoint. Tests override Client
// with an httptest server URL.
const defaultAPIBase = "https://api.telegram.org"

// Update is one entry from getUpdates.
type Update struct {
	UpdateID int64    `json:"update_id"`
	Message  *Message `json:"message,omitempty"`
}

// Message is an incoming Telegram message. Only the fields the relay reads
// are mapped.
type Message struct {
	MessageID int64       `json:"message_id"`
	From      *User       `json:"from,omitempty"`
	Chat      *Chat       `json:"chat"`
	Text      string      `json:"text,omitempty"`
	Document  *Document   `json:"document,omitempty"`
	Photo     []PhotoSize `json:"photo,omitempty"`
	Video     *Document   `json:"video,omitempty"`
	Audio     *Document   `json:"audio,omitempty"`
	Voice     *Document   `json:"voice,omitempty"`
}

// User is the sender of a message.
type User struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name,omitempty"`
	Username  string `json:"username,omitempty"`
}

// DisplayName returns a human-readable name for the user.
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	name := u.FirstName
	if u.LastName != "" {
		name += " " + u.LastName
	}
	if name == "" {
		name = u.Username
	}
	return name
}

// Chat is the conversation a message arrived in.
type Chat struct {
	ID   int64  `json:"id"`
	Type string `json:"type"`
}

// Document covers Telegram's file-bearing attachments (documents, video,
// audio, voice share the fields the relay needs).
type Document struct {
	FileID   string `json:"file_id"`
	FileName string `json:"file_name,omitempty"`
	MimeType string `json:"mime_type,omitempty"`
	FileSize int64  `json:"file_size,omitempty"`
}

// PhotoSize is one resolution of a photo attachment.
type PhotoSize struct {
	FileID   string `json:"file_id"`
	FileSize int64  `json:"file_size,omitempty"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
}

// ChatMember is the membership record returned by getChatMember.
type ChatMember struct {
	Status string `json:"status"`
	User   *User  `json:"user,omitempty"`
}

type apiResponse struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result,omitempty"`
	Description string          `json:"description,omitempty"`
	ErrorCode   int             `json:"error_code,omitempty"`
}

// ErrAPIFailure is returned when the Bot API responds with ok=false.
var ErrAPIFailure = errors.New("bot: telegram api returned not ok")

// Client is a minimal Telegram Bot API client. Safe for concurrent use.
type Client struct {
	// Token is the bot token from BotFather.
	Token string
	// BaseURL overrides the API endpoint; empty means production.
	BaseURL string
	// HTTP is the transport client. A nil HTTP falls back to a bounded
	// default.
	HTTP *http.Client
}

// NewClient constructs a Client with a long-poll-friendly default transport.
func NewClient(token string) *Client {
	return &Client{
		Token: token,
		HTTP:  &http.Client{Timeout: 90 * time.Second},
	}
}

func (c *Client) base() string {
	if c.BaseURL != "" {
		return c.BaseURL
	}
	return defaultAPIBase
}

func (c *Client) httpc() *http.Client {
	if c.HTTP != nil {
		return c.HTTP
	}
	return &http.Client{Timeout: 90 * time.Second}
}

// call POSTs a Bot API method as form values and unmarshals the result.
func (c *Client) call(ctx context.Context, method string, params url.Values, out any) error {
	endpoint := fmt.Sprintf("%s/bot%s/%s", c.base(), c.Token, method)
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return err
	}

	resp, err := c.httpc().Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	var envelope apiResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return err
	}
	if !envelope.OK {
		return fmt.Errorf("%w: %s (%d)", ErrAPIFailure, envelope.Description, envelope.ErrorCode)
	}
	if out != nil && envelope.Result != nil {
		return json.Unmarshal(envelope.Result, out)
	}
	return nil
}

// GetUpdates long-polls for updates after offset. timeout bounds the server
// side hold; the HTTP client must allow more.
func (c *Client) GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]Update, error) {
	params := url.Values{}
	params.Set("offset", strconv.FormatInt(offset, 10))
	params.Set("timeout", strconv.Itoa(int(timeout.Seconds())))
	params.Set("allowed_updates", `["message"]`)

	var updates []Update
	if err := c.call(ctx, "getUpdates", params, &updates); err != nil {
		return nil, err
	}
	return updates, nil
}

// SendMessage delivers a Markdown-formatted text message to chatID.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string) error {
	params := url.Values{}
	params.Set("chat_id", strconv.FormatInt(chatID, 10))
	params.Set("text", text)
	params.Set("parse_mode", "Markdown")
	return c.call(ctx, "sendMessage", params, nil)
}

// Notify implements services.Notifier on top of SendMessage.
func (c *Client) Notify(ctx context.Context, userID int64, text string) error {
	return c.SendMessage(ctx, userID, text)
}

// GetMe returns the bot's own account, used to build referral deep links.
func (c *Client) GetMe(ctx context.Context) (*User, error) {
	var me User
	if err := c.call(ctx, "getMe", url.Values{}, &me); err != nil {
		return nil, err
	}
	return &me, nil
}

// FetchFile resolves fileID through getFile and opens the payload stream.
// The caller must close the reader.
func (c *Client) FetchFile(ctx context.Context, fileID string) (io.ReadCloser, error) {
	params := url.Values{}
	params.Set("file_id", fileID)

	var f struct {
		FilePath string `json:"file_path"`
	}
	if err := c.call(ctx, "getFile", params, &f); err != nil {
		return nil, err
	}

	dl := fmt.Sprintf("%s/file/bot%s/%s", c.base(), c.Token, f.FilePath)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, dl, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpc().Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: file download status %d", ErrAPIFailure, resp.StatusCode)
	}
	return resp.Body, nil
}

// IsMember reports whether userID currently belongs to chat (an @channel
// username or numeric id). Left and kicked members do not count.
func (c *Client) IsMember(ctx context.Context, chat string, userID int64) (bool, error) {
	params := url.Values{}
	params.Set("chat_id", chat)
	params.Set("user_id", strconv.FormatInt(userID, 10))

	var m ChatMember
	if err := c.call(ctx, "getChatMember", params, &m); err != nil {
		return false, err
	}
	switch m.Status {
	case "creator", "administrator", "member", "restricted":
		return true, nil
	default:
		return false, nil
	}
}
