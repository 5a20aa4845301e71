// Package registry holds the field capability table: which operators each
// field accepts. The parser consults it once per condition; the evaluator
// trusts that validation and never looks it up again.
package registry

import (
	"sort"

	"mercator-hq/matchgram/pkg/rule/ast"
)

// Registry maps enabled fields to the operators they accept. An empty
// operator list marks a presence-only field. A Registry is immutable after
// construction and safe for concurrent use.
type Registry struct {
	fields map[ast.Field][]ast.Operator
}

// New creates a registry from the given entries. The entries are copied.
func New(entries map[ast.Field][]ast.Operator) *Registry {
	fields := make(map[ast.Field][]ast.Operator, len(entries))
	for f, ops := range entries {
		fields[f] = append([]ast.Operator{}, ops...)
	}
	return &Registry{fields: fields}
}

var (
	numberOps   = []ast.Operator{ast.Eq, ast.Gt, ast.Lt, ast.Ge, ast.Le}
	nameOps     = []ast.Operator{ast.Eq, ast.In, ast.Any, ast.All, ast.Hd, ast.Td}
	codeOps     = []ast.Operator{ast.Eq, ast.In, ast.Hd}
	freeTextOps = []ast.Operator{ast.Eq, ast.Any, ast.All, ast.Hd, ast.Td}
	textOps     = []ast.Operator{ast.Eq, ast.In, ast.Any, ast.All, ast.Hd, ast.Td}
	enumOps     = []ast.Operator{ast.Eq, ast.In}
	presence    = []ast.Operator{}
)

// Default returns the standard field table. message.is_command is
// recognised but not enabled; use With to enable it.
func Default() *Registry {
	return New(map[ast.Field][]ast.Operator{
		ast.MessageFromID:               numberOps,
		ast.MessageFromIsBot:            presence,
		ast.MessageFromFirstName:        nameOps,
		ast.MessageFromFullName:         nameOps,
		ast.MessageFromLanguageCode:     codeOps,
		ast.MessageForwardFromChat:      presence,
		ast.MessageForwardFromChatID:    numberOps,
		ast.MessageForwardFromChatType:  enumOps,
		ast.MessageForwardFromChatTitle: freeTextOps,
		ast.MessageReplyToMessage:       presence,
		ast.MessageText:                 textOps,
		ast.MessageTextLen:              numberOps,
		ast.MessageAnimation:            presence,
		ast.MessageAnimationDuration:    numberOps,
		ast.MessageAnimationFileName:    freeTextOps,
		ast.MessageAnimationMimeType:    codeOps,
		ast.MessageAnimationFileSize:    numberOps,
		ast.MessageAudio:                presence,
		ast.MessageAudioDuration:        numberOps,
		ast.MessageAudioPerformer:       freeTextOps,
		ast.MessageAudioMimeType:        codeOps,
		ast.MessageAudioFileSize:        numberOps,
		ast.MessageDocument:             presence,
		ast.MessageDocumentFileName:     freeTextOps,
		ast.MessageDocumentMimeType:     codeOps,
		ast.MessageDocumentFileSize:     numberOps,
		ast.MessagePhoto:                presence,
		ast.MessageSticker:              presence,
		ast.MessageStickerIsAnimated:    presence,
		ast.MessageStickerEmoji:         enumOps,
		ast.MessageStickerSetName:       freeTextOps,
		ast.MessageVideo:                presence,
		ast.MessageVideoDuration:        numberOps,
		ast.MessageVideoMimeType:        codeOps,
		ast.MessageVideoFileSize:        numberOps,
		ast.MessageVoice:                presence,
		ast.MessageVoiceDuration:        numberOps,
		ast.MessageVoiceMimeType:        codeOps,
		ast.MessageVoiceFileSize:        numberOps,
		ast.MessageCaption:              textOps,
		ast.MessageCaptionLen:           numberOps,
		ast.MessageDice:                 presence,
		ast.MessageDiceEmoji:            enumOps,
		ast.MessagePoll:                 presence,
		ast.MessagePollType:             enumOps,
		ast.MessageVenue:                presence,
		ast.MessageVenueTitle:           freeTextOps,
		ast.MessageVenueAddress:         freeTextOps,
		ast.MessageLocation:             presence,
		ast.MessageLocationLongitude:    numberOps,
		ast.MessageLocationLatitude:     numberOps,
		ast.MessageNewChatMembers:       presence,
		ast.MessageLeftChatMember:       presence,
		ast.MessageNewChatTitle:         presence,
		ast.MessageNewChatPhoto:         presence,
		ast.MessagePinnedMessage:        presence,
		ast.MessageIsServiceMessage:     presence,
	})
}

// Lookup returns the operators a field accepts. ok is false when the field
// is recognised but not enabled in this registry.
func (r *Registry) Lookup(field ast.Field) (ops []ast.Operator, ok bool) {
	ops, ok = r.fields[field]
	return ops, ok
}

// Supports reports whether field is enabled and accepts op.
func (r *Registry) Supports(field ast.Field, op ast.Operator) bool {
	ops, ok := r.fields[field]
	if !ok {
		return false
	}
	for _, o := range ops {
		if o == op {
			return true
		}
	}
	return false
}

// IsPresence reports whether field is enabled as a presence-only field.
func (r *Registry) IsPresence(field ast.Field) bool {
	ops, ok := r.fields[field]
	return ok && len(ops) == 0
}

// With returns a copy of the registry with the given fields enabled using
// their standard operator sets. Fields with no standard set are enabled as
// presence checks.
func (r *Registry) With(fields ...ast.Field) *Registry {
	next := New(r.fields)
	for _, f := range fields {
		if _, ok := next.fields[f]; ok {
			continue
		}
		next.fields[f] = append([]ast.Operator{}, standardOperators(f)...)
	}
	return next
}

// Without returns a copy of the registry with the given fields disabled.
func (r *Registry) Without(fields ...ast.Field) *Registry {
	next := New(r.fields)
	for _, f := range fields {
		delete(next.fields, f)
	}
	return next
}

// Fields returns the enabled fields sorted by their external name.
func (r *Registry) Fields() []ast.Field {
	fields := make([]ast.Field, 0, len(r.fields))
	for f := range r.fields {
		fields = append(fields, f)
	}
	sort.Slice(fields, func(i, j int) bool {
		return fields[i].String() < fields[j].String()
	})
	return fields
}

// Len returns the number of enabled fields.
func (r *Registry) Len() int {
	return len(r.fields)
}

var standard = Default()

func standardOperators(f ast.Field) []ast.Operator {
	if ops, ok := standard.fields[f]; ok {
		return ops
	}
	return presence
}

// OperatorNames returns the external form of the operators field accepts.
func (r *Registry) OperatorNames(field ast.Field) []string {
	ops := r.fields[field]
	names := make([]string, len(ops))
	for i, op := range ops {
		names[i] = op.String()
	}
	return names
}
