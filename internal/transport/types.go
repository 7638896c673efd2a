package transport

import "context"

type UpdateKind string

const (
	UpdateMessage UpdateKind = "message"
)

type Update struct {
	Kind    UpdateKind
	Message *Message
}

type Message struct {
	ID           int
	ChatID       int64
	ThreadID     int // telegram forum topic thread id (0 if none)
	FromID       int64
	FromUsername string
	Text         string
	IsGroup      bool
}

type ChatTarget struct {
	ChatID   int64
	ThreadID int
}

type MessageRef struct {
	ChatID    int64
	ThreadID  int
	MessageID int
}

type SendOptions struct {
	ParseMode      string
	DisablePreview bool
}

// Payload is one outbound message: either a rich card (title/body/footer,
// optional embedded image and click-through link) or, when Plain is set,
// a bare text message carrying only Body.
type Payload struct {
	Title    string
	Body     string
	Footer   string
	ImageURL string
	LinkURL  string
	Plain    bool
}

type Adapter interface {
	Start(ctx context.Context, out chan<- Update) error
	Stop(ctx context.Context) error

	SendText(ctx context.Context, to ChatTarget, text string, opt *SendOptions) (MessageRef, error)
	SendPayload(ctx context.Context, to ChatTarget, p Payload) error

	// ResolveTarget checks that a stored target identifier still refers to a
	// reachable chat and returns its send target.
	ResolveTarget(ctx context.Context, targetID string) (ChatTarget, error)

	// CanManageChat reports whether the user may change bot settings for the
	// chat (chat admins and private chats qualify).
	CanManageChat(ctx context.Context, chatID int64, userID int64) bool
}
