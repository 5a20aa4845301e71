package ast

// Field is a dotted path into the message being matched.
type Field int

const (
	MessageFromID Field = iota + 1
	MessageFromIsBot
	MessageFromFirstName
	MessageFromFullName
	MessageFromLanguageCode
	MessageForwardFromChat
	MessageForwardFromChatID
	MessageForwardFromChatType
	MessageForwardFromChatTitle
	MessageReplyToMessage
	MessageText
	MessageTextLen
	MessageAnimation
	MessageAnimationDuration
	MessageAnimationFileName
	MessageAnimationMimeType
	MessageAnimationFileSize
	MessageAudio
	MessageAudioDuration
	MessageAudioPerformer
	MessageAudioMimeType
	MessageAudioFileSize
	MessageDocument
	MessageDocumentFileName
	MessageDocumentMimeType
	MessageDocumentFileSize
	MessagePhoto
	MessageSticker
	MessageStickerIsAnimated
	MessageStickerEmoji
	MessageStickerSetName
	MessageVideo
	MessageVideoDuration
	MessageVideoMimeType
	MessageVideoFileSize
	MessageVoice
	MessageVoiceDuration
	MessageVoiceMimeType
	MessageVoiceFileSize
	MessageCaption
	MessageCaptionLen
	MessageDice
	MessageDiceEmoji
	MessagePoll
	MessagePollType
	MessageVenue
	MessageVenueTitle
	MessageVenueAddress
	MessageLocation
	MessageLocationLongitude
	MessageLocationLatitude
	MessageNewChatMembers
	MessageLeftChatMember
	MessageNewChatTitle
	MessageNewChatPhoto
	MessagePinnedMessage
	MessageIsServiceMessage
	MessageIsCommand
)

var fieldNames = map[Field]string{
	MessageFromID:               "message.from.id",
	MessageFromIsBot:            "message.from.is_bot",
	MessageFromFirstName:        "message.from.first_name",
	MessageFromFullName:         "message.from.full_name",
	MessageFromLanguageCode:     "message.from.language_code",
	MessageForwardFromChat:      "message.forward_from_chat",
	MessageForwardFromChatID:    "message.forward_from_chat.id",
	MessageForwardFromChatType:  "message.forward_from_chat.type",
	MessageForwardFromChatTitle: "message.forward_from_chat.title",
	MessageReplyToMessage:       "message.reply_to_message",
	MessageText:                 "message.text",
	MessageTextLen:              "message.text.len",
	MessageAnimation:            "message.animation",
	MessageAnimationDuration:    "message.animation.duration",
	MessageAnimationFileName:    "message.animation.file_name",
	MessageAnimationMimeType:    "message.animation.mime_type",
	MessageAnimationFileSize:    "message.animation.file_size",
	MessageAudio:                "message.audio",
	MessageAudioDuration:        "message.audio.duration",
	MessageAudioPerformer:       "message.audio.performer",
	MessageAudioMimeType:        "message.audio.mime_type",
	MessageAudioFileSize:        "message.audio.file_size",
	MessageDocument:             "message.document",
	MessageDocumentFileName:     "message.document.file_name",
	MessageDocumentMimeType:     "message.document.mime_type",
	MessageDocumentFileSize:     "message.document.file_size",
	MessagePhoto:                "message.photo",
	MessageSticker:              "message.sticker",
	MessageStickerIsAnimated:    "message.sticker.is_animated",
	MessageStickerEmoji:         "message.sticker.emoji",
	MessageStickerSetName:       "message.sticker.set_name",
	MessageVideo:                "message.video",
	MessageVideoDuration:        "message.video.duration",
	MessageVideoMimeType:        "message.video.mime_type",
	MessageVideoFileSize:        "message.video.file_size",
	MessageVoice:                "message.voice",
	MessageVoiceDuration:        "message.voice.duration",
	MessageVoiceMimeType:        "message.voice.mime_type",
	MessageVoiceFileSize:        "message.voice.file_size",
	MessageCaption:              "message.caption",
	MessageCaptionLen:           "message.caption.len",
	MessageDice:                 "message.dice",
	MessageDiceEmoji:            "message.dice.emoji",
	MessagePoll:                 "message.poll",
	MessagePollType:             "message.poll.type",
	MessageVenue:                "message.venue",
	MessageVenueTitle:           "message.venue.title",
	MessageVenueAddress:         "message.venue.address",
	MessageLocation:             "message.location",
	MessageLocationLongitude:    "message.location.longitude",
	MessageLocationLatitude:     "message.location.latitude",
	MessageNewChatMembers:       "message.new_chat_members",
	MessageLeftChatMember:       "message.left_chat_member",
	MessageNewChatTitle:         "message.new_chat_title",
	MessageNewChatPhoto:         "message.new_chat_photo",
	MessagePinnedMessage:        "message.pinned_message",
	MessageIsServiceMessage:     "message.is_service_message",
	MessageIsCommand:            "message.is_command",
}

var fieldsByName = func() map[string]Field {
	m := make(map[string]Field, len(fieldNames))
	for f, name := range fieldNames {
		m[name] = f
	}
	return m
}()

// String returns the external dotted form of the field.
func (f Field) String() string {
	if name, ok := fieldNames[f]; ok {
		return name
	}
	return "<unknown field>"
}

// ParseField converts the external dotted form into a Field.
func ParseField(s string) (Field, bool) {
	f, ok := fieldsByName[s]
	return f, ok
}

// FieldNames returns the external form of every recognised field.
func FieldNames() []string {
	names := make([]string, 0, len(fieldNames))
	for f := MessageFromID; f <= MessageIsCommand; f++ {
		names = append(names, fieldNames[f])
	}
	return names
}

// Fields returns every recognised field in declaration order.
func Fields() []Field {
	fields := make([]Field, 0, len(fieldNames))
	for f := MessageFromID; f <= MessageIsCommand; f++ {
		fields = append(fields, f)
	}
	return fields
}

// ValueKind returns the kind of rule value the field compares against, or
// zero for presence fields.
func (f Field) ValueKind() ValueKind {
	switch f {
	case MessageFromID, MessageForwardFromChatID,
		MessageTextLen, MessageCaptionLen,
		MessageAnimationDuration, MessageAnimationFileSize,
		MessageAudioDuration, MessageAudioFileSize,
		MessageDocumentFileSize,
		MessageVideoDuration, MessageVideoFileSize,
		MessageVoiceDuration, MessageVoiceFileSize,
		MessageLocationLongitude, MessageLocationLatitude:
		return DecimalValue
	case MessageFromIsBot, MessageForwardFromChat, MessageReplyToMessage,
		MessageAnimation, MessageAudio, MessageDocument, MessagePhoto,
		MessageSticker, MessageStickerIsAnimated, MessageVideo, MessageVoice,
		MessageDice, MessagePoll, MessageVenue, MessageLocation,
		MessageNewChatMembers, MessageLeftChatMember, MessageNewChatTitle,
		MessageNewChatPhoto, MessagePinnedMessage,
		MessageIsServiceMessage, MessageIsCommand:
		return 0
	}
	return LetterValue
}
