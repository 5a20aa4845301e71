package tracing

import "go.opentelemetry.io/otel/attribute"

// Span attribute keys. Message content is never attached to spans.
const (
	AttrRuleSet        = attribute.Key("matchgram.rule_set")
	AttrRuleSetVersion = attribute.Key("matchgram.rule_set.version")
	AttrRuleName       = attribute.Key("matchgram.rule")
	AttrRuleCount      = attribute.Key("matchgram.rules")
	AttrRuleLength     = attribute.Key("matchgram.rule.length")
	AttrGroups         = attribute.Key("matchgram.groups")
	AttrMatched        = attribute.Key("matchgram.matched")
	AttrHits           = attribute.Key("matchgram.hits")
	AttrMessageID      = attribute.Key("matchgram.message.id")
	AttrChatType       = attribute.Key("matchgram.chat.type")
	AttrErrorKind      = attribute.Key("matchgram.error.kind")
	AttrSource         = attribute.Key("matchgram.source")
	AttrHTTPStatus     = attribute.Key("http.response.status_code")
)
