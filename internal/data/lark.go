package data

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	lark "github.com/larksuite/oapi-sdk-go/v3"
	larkcore "github.com/larksuite/oapi-sdk-go/v3/core"
	"github.com/larksuite/oapi-sdk-go/v3/event/dispatcher"
	larkim "github.com/larksuite/oapi-sdk-go/v3/service/im/v1"
	larkws "github.com/larksuite/oapi-sdk-go/v3/ws"
	"github.com/rs/zerolog"

	"github.com/aibisolutions/secretary/internal/biz/repo"
	"github.com/aibisolutions/secretary/internal/logging"
)

// InboundMessage is one normalized message received over the platform
// websocket
type InboundMessage struct {
	ChatID            string
	ChatTitle         string
	MsgID             string
	SenderID          string
	SenderType        string
	Text              string
	HasUnreadableFile bool
	CreatedAt         time.Time
}

// LarkTransport is one send-capable platform identity. The primary identity
// additionally listens for inbound messages over a websocket; the secondary
// identity only sends.
type LarkTransport struct {
	role      string
	appID     string
	appSecret string

	client *lark.Client
	wsCli  *larkws.Client
	log    zerolog.Logger

	mu        sync.RWMutex
	connected bool

	titlesMu   sync.RWMutex
	titles     map[string]string
	fetchTitle func(ctx context.Context, chatID string) (string, error)

	onMessage func(InboundMessage)
}

// NewLarkTransport creates a transport for one app identity under the given
// role name
func NewLarkTransport(role, appID, appSecret string) *LarkTransport {
	t := &LarkTransport{
		role:      role,
		appID:     appID,
		appSecret: appSecret,
		titles:    make(map[string]string),
		log:       logging.Component("transport." + role),
	}
	t.fetchTitle = t.fetchChatTitle
	return t
}

// OnMessage registers the inbound handler. Must be called before Listen.
func (t *LarkTransport) OnMessage(handler func(InboundMessage)) {
	t.onMessage = handler
}

func (t *LarkTransport) Name() string {
	return t.role
}

func (t *LarkTransport) IsConnected() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.connected
}

// Connect builds the API client. The websocket intake is started separately
// by Listen; sending only needs the HTTP client.
func (t *LarkTransport) Connect(ctx context.Context) error {
	if t.appID == "" || t.appSecret == "" {
		return fmt.Errorf("%s transport: missing credentials", t.role)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.client == nil {
		t.client = lark.NewClient(t.appID, t.appSecret)
	}
	t.connected = true
	t.log.Info().Str("app_id", t.appID).Msg("transport connected")
	return nil
}

// MarkDisconnected flips the liveness flag so the next delivery attempt
// reconnects. Called by the connection keeper on a failed probe.
func (t *LarkTransport) MarkDisconnected() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.connected = false
}

// Resolve maps a chat id to a sendable recipient. The platform rejects the
// lookup when this identity was never added to the chat; that is a
// permanent miss for this transport.
func (t *LarkTransport) Resolve(ctx context.Context, chatID string) (*repo.Recipient, error) {
	t.mu.RLock()
	client := t.client
	t.mu.RUnlock()
	if client == nil {
		return nil, repo.ErrTransportUnavailable
	}

	req := larkim.NewGetChatReqBuilder().ChatId(chatID).Build()
	resp, err := client.Im.Chat.Get(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("resolve chat %s: %w", chatID, err)
	}
	if !resp.Success() {
		return nil, fmt.Errorf("%w: chat %s: %s", repo.ErrRecipientUnresolvable, chatID, resp.Msg)
	}

	title := ""
	if resp.Data != nil && resp.Data.Name != nil {
		title = *resp.Data.Name
	}
	return &repo.Recipient{ID: chatID, Title: title}, nil
}

// Send delivers a text message to a resolved recipient
func (t *LarkTransport) Send(ctx context.Context, recipient *repo.Recipient, text string) error {
	t.mu.RLock()
	client := t.client
	t.mu.RUnlock()
	if client == nil {
		return repo.ErrTransportUnavailable
	}

	content, _ := json.Marshal(map[string]string{"text": text})
	req := larkim.NewCreateMessageReqBuilder().
		ReceiveIdType(larkim.ReceiveIdTypeChatId).
		Body(larkim.NewCreateMessageReqBodyBuilder().
			ReceiveId(recipient.ID).
			MsgType(larkim.MsgTypeText).
			Content(string(content)).
			Build()).
		Build()

	resp, err := client.Im.Message.Create(ctx, req)
	if err != nil {
		return fmt.Errorf("send to %s: %w", recipient.ID, err)
	}
	if !resp.Success() {
		return fmt.Errorf("send to %s: %s", recipient.ID, resp.Msg)
	}
	return nil
}

// Listen runs the websocket intake until the context is canceled. Blocking.
func (t *LarkTransport) Listen(ctx context.Context) error {
	if err := t.Connect(ctx); err != nil {
		return err
	}

	eventHandler := dispatcher.NewEventDispatcher("", "").
		OnP2MessageReceiveV1(func(ctx context.Context, event *larkim.P2MessageReceiveV1) error {
			t.handleEvent(ctx, event)
			return nil
		})

	t.wsCli = larkws.NewClient(t.appID, t.appSecret,
		larkws.WithEventHandler(eventHandler),
		larkws.WithLogLevel(larkcore.LogLevelWarn),
	)

	t.log.Info().Msg("starting websocket intake")
	return t.wsCli.Start(ctx)
}

func (t *LarkTransport) handleEvent(ctx context.Context, event *larkim.P2MessageReceiveV1) {
	if event.Event == nil || event.Event.Message == nil {
		return
	}
	msg := event.Event.Message
	if msg.ChatId == nil || msg.MessageId == nil || msg.MessageType == nil {
		return
	}

	inbound := InboundMessage{
		ChatID:    *msg.ChatId,
		ChatTitle: t.chatTitle(ctx, *msg.ChatId),
		MsgID:     *msg.MessageId,
		CreatedAt: time.Now(),
	}
	if msg.CreateTime != nil {
		if ms, err := parseMillis(*msg.CreateTime); err == nil {
			inbound.CreatedAt = ms
		}
	}
	if event.Event.Sender != nil {
		if event.Event.Sender.SenderType != nil {
			inbound.SenderType = *event.Event.Sender.SenderType
		}
		if event.Event.Sender.SenderId != nil && event.Event.Sender.SenderId.OpenId != nil {
			inbound.SenderID = *event.Event.Sender.SenderId.OpenId
		}
	}

	switch *msg.MessageType {
	case "text":
		var parsed struct {
			Text string `json:"text"`
		}
		if msg.Content == nil || json.Unmarshal([]byte(*msg.Content), &parsed) != nil {
			return
		}
		inbound.Text = parsed.Text
	case "image", "file", "audio", "media", "video":
		// Content the analyzer cannot read; the decision layer forces
		// review for these.
		inbound.Text = fmt.Sprintf("[%s attachment]", *msg.MessageType)
		inbound.HasUnreadableFile = true
	default:
		return
	}

	t.log.Debug().
		Str("chat_id", inbound.ChatID).
		Str("msg_id", inbound.MsgID).
		Bool("unreadable", inbound.HasUnreadableFile).
		Msg("inbound message")

	if t.onMessage != nil {
		t.onMessage(inbound)
	}
}

// chatTitle returns the chat's display name, looking it up once per chat
// and caching the result. A failed lookup leaves the title empty; the next
// message for the chat retries.
func (t *LarkTransport) chatTitle(ctx context.Context, chatID string) string {
	t.titlesMu.RLock()
	title, ok := t.titles[chatID]
	t.titlesMu.RUnlock()
	if ok {
		return title
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	title, err := t.fetchTitle(ctx, chatID)
	if err != nil {
		t.log.Debug().Err(err).Str("chat_id", chatID).Msg("chat title lookup failed")
		return ""
	}

	t.titlesMu.Lock()
	t.titles[chatID] = title
	t.titlesMu.Unlock()
	return title
}

func (t *LarkTransport) fetchChatTitle(ctx context.Context, chatID string) (string, error) {
	recipient, err := t.Resolve(ctx, chatID)
	if err != nil {
		return "", err
	}
	return recipient.Title, nil
}

func parseMillis(s string) (time.Time, error) {
	var ms int64
	if _, err := fmt.Sscanf(s, "%d", &ms); err != nil {
		return time.Time{}, err
	}
	return time.UnixMilli(ms), nil
}
