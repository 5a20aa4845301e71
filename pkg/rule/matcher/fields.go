package matcher

import (
	"mercator-hq/matchgram/pkg/message"
	"mercator-hq/matchgram/pkg/rule/ast"
)

// attrKind is the native type a field resolves to.
type attrKind uint8

const (
	attrString attrKind = iota + 1
	attrLength
	attrInt
	attrFloat
)

// attr is the resolved value of a comparable field. present is false when
// the leaf or a parent on its path is absent.
type attr struct {
	kind    attrKind
	present bool
	s       string
	i       int64
	f       float64
}

func str(s string) attr         { return attr{kind: attrString, present: true, s: s} }
func length(s string) attr      { return attr{kind: attrLength, present: true, s: s} }
func integer(i int64) attr      { return attr{kind: attrInt, present: true, i: i} }
func float(f float64) attr      { return attr{kind: attrFloat, present: true, f: f} }
func absent(kind attrKind) attr { return attr{kind: kind} }

func optStr(p *string) attr    { return optional(p, str, attrString) }
func optLength(p *string) attr { return optional(p, length, attrLength) }
func optInt(p *int64) attr     { return optional(p, integer, attrInt) }

func optional[T any](p *T, wrap func(T) attr, kind attrKind) attr {
	if p == nil {
		return absent(kind)
	}
	return wrap(*p)
}

// resolve reads a comparable field from m. ok is false for fields with no
// comparable value.
func resolve(f ast.Field, m *message.Message) (a attr, ok bool) {
	switch f {
	case ast.MessageFromID:
		if m.From == nil {
			return absent(attrInt), true
		}
		return integer(m.From.ID), true
	case ast.MessageFromFirstName:
		if m.From == nil {
			return absent(attrString), true
		}
		return str(m.From.FirstName), true
	case ast.MessageFromFullName:
		if m.From == nil {
			return absent(attrString), true
		}
		return str(m.From.FullName()), true
	case ast.MessageFromLanguageCode:
		if m.From == nil {
			return absent(attrString), true
		}
		return optStr(m.From.LanguageCode), true

	case ast.MessageForwardFromChatID:
		if m.ForwardFromChat == nil {
			return absent(attrInt), true
		}
		return integer(m.ForwardFromChat.ID), true
	case ast.MessageForwardFromChatType:
		if m.ForwardFromChat == nil {
			return absent(attrString), true
		}
		return str(m.ForwardFromChat.Type), true
	case ast.MessageForwardFromChatTitle:
		if m.ForwardFromChat == nil {
			return absent(attrString), true
		}
		return optStr(m.ForwardFromChat.Title), true

	case ast.MessageText:
		return optStr(m.Text), true
	case ast.MessageTextLen:
		return optLength(m.Text), true
	case ast.MessageCaption:
		return optStr(m.Caption), true
	case ast.MessageCaptionLen:
		return optLength(m.Caption), true

	case ast.MessageAnimationDuration:
		if m.Animation == nil {
			return absent(attrInt), true
		}
		return integer(m.Animation.Duration), true
	case ast.MessageAnimationFileName:
		if m.Animation == nil {
			return absent(attrString), true
		}
		return optStr(m.Animation.FileName), true
	case ast.MessageAnimationMimeType:
		if m.Animation == nil {
			return absent(attrString), true
		}
		return optStr(m.Animation.MimeType), true
	case ast.MessageAnimationFileSize:
		if m.Animation == nil {
			return absent(attrInt), true
		}
		return optInt(m.Animation.FileSize), true

	case ast.MessageAudioDuration:
		if m.Audio == nil {
			return absent(attrInt), true
		}
		return integer(m.Audio.Duration), true
	case ast.MessageAudioPerformer:
		if m.Audio == nil {
			return absent(attrString), true
		}
		return optStr(m.Audio.Performer), true
	case ast.MessageAudioMimeType:
		if m.Audio == nil {
			return absent(attrString), true
		}
		return optStr(m.Audio.MimeType), true
	case ast.MessageAudioFileSize:
		if m.Audio == nil {
			return absent(attrInt), true
		}
		return optInt(m.Audio.FileSize), true

	case ast.MessageDocumentFileName:
		if m.Document == nil {
			return absent(attrString), true
		}
		return optStr(m.Document.FileName), true
	case ast.MessageDocumentMimeType:
		if m.Document == nil {
			return absent(attrString), true
		}
		return optStr(m.Document.MimeType), true
	case ast.MessageDocumentFileSize:
		if m.Document == nil {
			return absent(attrInt), true
		}
		return optInt(m.Document.FileSize), true

	case ast.MessageStickerEmoji:
		if m.Sticker == nil {
			return absent(attrString), true
		}
		return optStr(m.Sticker.Emoji), true
	case ast.MessageStickerSetName:
		if m.Sticker == nil {
			return absent(attrString), true
		}
		return optStr(m.Sticker.SetName), true

	case ast.MessageVideoDuration:
		if m.Video == nil {
			return absent(attrInt), true
		}
		return integer(m.Video.Duration), true
	case ast.MessageVideoMimeType:
		if m.Video == nil {
			return absent(attrString), true
		}
		return optStr(m.Video.MimeType), true
	case ast.MessageVideoFileSize:
		if m.Video == nil {
			return absent(attrInt), true
		}
		return optInt(m.Video.FileSize), true

	case ast.MessageVoiceDuration:
		if m.Voice == nil {
			return absent(attrInt), true
		}
		return integer(m.Voice.Duration), true
	case ast.MessageVoiceMimeType:
		if m.Voice == nil {
			return absent(attrString), true
		}
		return optStr(m.Voice.MimeType), true
	case ast.MessageVoiceFileSize:
		if m.Voice == nil {
			return absent(attrInt), true
		}
		return optInt(m.Voice.FileSize), true

	case ast.MessageDiceEmoji:
		if m.Dice == nil {
			return absent(attrString), true
		}
		return str(m.Dice.Emoji), true
	case ast.MessagePollType:
		if m.Poll == nil {
			return absent(attrString), true
		}
		return str(m.Poll.Type), true

	case ast.MessageVenueTitle:
		if m.Venue == nil {
			return absent(attrString), true
		}
		return str(m.Venue.Title), true
	case ast.MessageVenueAddress:
		if m.Venue == nil {
			return absent(attrString), true
		}
		return str(m.Venue.Address), true

	case ast.MessageLocationLongitude:
		if m.Location == nil {
			return absent(attrFloat), true
		}
		return float(m.Location.Longitude), true
	case ast.MessageLocationLatitude:
		if m.Location == nil {
			return absent(attrFloat), true
		}
		return float(m.Location.Latitude), true
	}
	return attr{}, false
}

// presence evaluates a presence-only field. ok is false for fields that
// are not presence checks.
func presence(f ast.Field, m *message.Message) (o Outcome, ok bool) {
	switch f {
	case ast.MessageFromIsBot:
		if m.From == nil {
			return Absent, true
		}
		return outcomeOf(m.From.IsBot), true
	case ast.MessageForwardFromChat:
		return present(m.ForwardFromChat != nil), true
	case ast.MessageReplyToMessage:
		return present(m.ReplyToMessage != nil), true
	case ast.MessageAnimation:
		return present(m.Animation != nil), true
	case ast.MessageAudio:
		return present(m.Audio != nil), true
	case ast.MessageDocument:
		return present(m.Document != nil), true
	case ast.MessagePhoto:
		return present(m.Photo != nil), true
	case ast.MessageSticker:
		return present(m.Sticker != nil), true
	case ast.MessageStickerIsAnimated:
		if m.Sticker == nil {
			return Absent, true
		}
		return outcomeOf(m.Sticker.IsAnimated), true
	case ast.MessageVideo:
		return present(m.Video != nil), true
	case ast.MessageVoice:
		return present(m.Voice != nil), true
	case ast.MessageDice:
		return present(m.Dice != nil), true
	case ast.MessagePoll:
		return present(m.Poll != nil), true
	case ast.MessageVenue:
		return present(m.Venue != nil), true
	case ast.MessageLocation:
		return present(m.Location != nil), true
	case ast.MessageNewChatMembers:
		return present(m.NewChatMembers != nil), true
	case ast.MessageLeftChatMember:
		return present(m.LeftChatMember != nil), true
	case ast.MessageNewChatTitle:
		return present(m.NewChatTitle != nil), true
	case ast.MessageNewChatPhoto:
		return present(m.NewChatPhoto != nil), true
	case ast.MessagePinnedMessage:
		return present(m.PinnedMessage != nil), true
	case ast.MessageIsServiceMessage:
		return outcomeOf(m.IsServiceMessage()), true
	case ast.MessageIsCommand:
		return outcomeOf(m.IsCommand()), true
	}
	return False, false
}

func present(ok bool) Outcome {
	if ok {
		return True
	}
	return Absent
}
