// Package message defines the Telegram Bot API message shape rules are
// matched against.
//
// Optional attributes are pointers or slices. A nil value is "absent",
// which the rule evaluator treats differently from an empty or false value.
package message

// Message is a chat message.
type Message struct {
	MessageID       int64           `json:"message_id"`
	Date            int64           `json:"date,omitempty"`
	Chat            *Chat           `json:"chat,omitempty"`
	From            *User           `json:"from,omitempty"`
	ForwardFrom     *User           `json:"forward_from,omitempty"`
	ForwardFromChat *Chat           `json:"forward_from_chat,omitempty"`
	ReplyToMessage  *Message        `json:"reply_to_message,omitempty"`
	ViaBot          *User           `json:"via_bot,omitempty"`
	Text            *string         `json:"text,omitempty"`
	Entities        []MessageEntity `json:"entities,omitempty"`
	Animation       *Animation      `json:"animation,omitempty"`
	Audio           *Audio          `json:"audio,omitempty"`
	Document        *Document       `json:"document,omitempty"`
	Photo           []PhotoSize     `json:"photo,omitempty"`
	Sticker         *Sticker        `json:"sticker,omitempty"`
	Video           *Video          `json:"video,omitempty"`
	VideoNote       *VideoNote      `json:"video_note,omitempty"`
	Voice           *Voice          `json:"voice,omitempty"`
	Caption         *string         `json:"caption,omitempty"`
	CaptionEntities []MessageEntity `json:"caption_entities,omitempty"`
	Dice            *Dice           `json:"dice,omitempty"`
	Poll            *Poll           `json:"poll,omitempty"`
	Venue           *Venue          `json:"venue,omitempty"`
	Location        *Location       `json:"location,omitempty"`
	NewChatMembers  []User          `json:"new_chat_members,omitempty"`
	LeftChatMember  *User           `json:"left_chat_member,omitempty"`
	NewChatTitle    *string         `json:"new_chat_title,omitempty"`
	NewChatPhoto    []PhotoSize     `json:"new_chat_photo,omitempty"`
	PinnedMessage   *Message        `json:"pinned_message,omitempty"`
}

// IsServiceMessage reports whether the message announces a chat event
// rather than carrying user content.
func (m *Message) IsServiceMessage() bool {
	return m.NewChatMembers != nil ||
		m.LeftChatMember != nil ||
		m.NewChatTitle != nil ||
		m.NewChatPhoto != nil ||
		m.PinnedMessage != nil
}

// IsCommand reports whether the text starts with a bot command entity.
func (m *Message) IsCommand() bool {
	if len(m.Entities) == 0 {
		return false
	}
	first := m.Entities[0]
	return first.Type == EntityBotCommand && first.Offset == 0
}

// Command returns the command word (without the leading slash and bot
// username) when IsCommand is true.
func (m *Message) Command() (string, bool) {
	if !m.IsCommand() || m.Text == nil {
		return "", false
	}
	cmd := utf16Slice(*m.Text, m.Entities[0].Offset, m.Entities[0].Length)
	if len(cmd) > 0 && cmd[0] == '/' {
		cmd = cmd[1:]
	}
	for i := 0; i < len(cmd); i++ {
		if cmd[i] == '@' {
			cmd = cmd[:i]
			break
		}
	}
	return cmd, true
}

// TextOrCaption returns the text, falling back to the caption.
func (m *Message) TextOrCaption() string {
	if m.Text != nil {
		return *m.Text
	}
	if m.Caption != nil {
		return *m.Caption
	}
	return ""
}

// User is a Telegram user or bot.
type User struct {
	ID           int64   `json:"id"`
	IsBot        bool    `json:"is_bot"`
	FirstName    string  `json:"first_name"`
	LastName     *string `json:"last_name,omitempty"`
	Username     *string `json:"username,omitempty"`
	LanguageCode *string `json:"language_code,omitempty"`
}

// FullName joins the first and last name with a space.
func (u *User) FullName() string {
	if u.LastName == nil {
		return u.FirstName
	}
	return u.FirstName + " " + *u.LastName
}

// Chat types.
const (
	ChatPrivate    = "private"
	ChatGroup      = "group"
	ChatSupergroup = "supergroup"
	ChatChannel    = "channel"
)

// Chat is a private chat, group, supergroup or channel.
type Chat struct {
	ID       int64   `json:"id"`
	Type     string  `json:"type"`
	Title    *string `json:"title,omitempty"`
	Username *string `json:"username,omitempty"`
}

// Entity types the matcher inspects.
const (
	EntityBotCommand = "bot_command"
	EntityMention    = "mention"
	EntityURL        = "url"
)

// MessageEntity marks a special span in a text. Offset and Length count
// UTF-16 code units.
type MessageEntity struct {
	Type     string  `json:"type"`
	Offset   int     `json:"offset"`
	Length   int     `json:"length"`
	URL      *string `json:"url,omitempty"`
	User     *User   `json:"user,omitempty"`
	Language *string `json:"language,omitempty"`
}

type Animation struct {
	FileID   string  `json:"file_id,omitempty"`
	Duration int64   `json:"duration"`
	FileName *string `json:"file_name,omitempty"`
	MimeType *string `json:"mime_type,omitempty"`
	FileSize *int64  `json:"file_size,omitempty"`
}

type Audio struct {
	FileID    string  `json:"file_id,omitempty"`
	Duration  int64   `json:"duration"`
	Performer *string `json:"performer,omitempty"`
	Title     *string `json:"title,omitempty"`
	MimeType  *string `json:"mime_type,omitempty"`
	FileSize  *int64  `json:"file_size,omitempty"`
}

type Document struct {
	FileID   string  `json:"file_id,omitempty"`
	FileName *string `json:"file_name,omitempty"`
	MimeType *string `json:"mime_type,omitempty"`
	FileSize *int64  `json:"file_size,omitempty"`
}

type PhotoSize struct {
	FileID   string `json:"file_id,omitempty"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	FileSize *int64 `json:"file_size,omitempty"`
}

type Sticker struct {
	FileID     string  `json:"file_id,omitempty"`
	IsAnimated bool    `json:"is_animated"`
	Emoji      *string `json:"emoji,omitempty"`
	SetName    *string `json:"set_name,omitempty"`
}

type Video struct {
	FileID   string  `json:"file_id,omitempty"`
	Duration int64   `json:"duration"`
	MimeType *string `json:"mime_type,omitempty"`
	FileSize *int64  `json:"file_size,omitempty"`
}

type VideoNote struct {
	FileID   string `json:"file_id,omitempty"`
	Duration int64  `json:"duration"`
	FileSize *int64 `json:"file_size,omitempty"`
}

type Voice struct {
	FileID   string  `json:"file_id,omitempty"`
	Duration int64   `json:"duration"`
	MimeType *string `json:"mime_type,omitempty"`
	FileSize *int64  `json:"file_size,omitempty"`
}

type Dice struct {
	Emoji string `json:"emoji"`
	Value int    `json:"value,omitempty"`
}

type Poll struct {
	ID       string `json:"id,omitempty"`
	Question string `json:"question,omitempty"`
	Type     string `json:"type"`
}

type Venue struct {
	Location Location `json:"location"`
	Title    string   `json:"title"`
	Address  string   `json:"address"`
}

type Location struct {
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`
}

// Update is the envelope Telegram delivers to webhooks and long polling.
type Update struct {
	UpdateID          int64    `json:"update_id"`
	Message           *Message `json:"message,omitempty"`
	EditedMessage     *Message `json:"edited_message,omitempty"`
	ChannelPost       *Message `json:"channel_post,omitempty"`
	EditedChannelPost *Message `json:"edited_channel_post,omitempty"`
}

// Payload returns the message carried by the update, if any.
func (u *Update) Payload() *Message {
	switch {
	case u.Message != nil:
		return u.Message
	case u.EditedMessage != nil:
		return u.EditedMessage
	case u.ChannelPost != nil:
		return u.ChannelPost
	}
	return u.EditedChannelPost
}

// String returns a pointer to s. It keeps message literals in tests and
// fixtures short.
func String(s string) *string {
	return &s
}

// Int64 returns a pointer to v.
func Int64(v int64) *int64 {
	return &v
}
