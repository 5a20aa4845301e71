// Matchgram evaluates chat messages against firewall-style rules.
//
// Rules are written in a small language of parenthesised condition groups:
//
//	(message.text any {"菠菜" "博彩"} and not message.from.is_bot) or (message.photo)
//
// Usage:
//
//	# Check a rule or a directory of rule sets
//	matchgram lint --rule '(message.text eq "hi")'
//	matchgram lint rules/
//
//	# Evaluate a message
//	matchgram match --rule '(message.text hd "/start")' --message msg.json
//	matchgram match --rules rules/ < msg.json
//
//	# Serve the HTTP API and NATS consumer
//	matchgram run --config matchgram.yaml
//
//	# Inspect and prune recorded verdicts
//	matchgram evidence query --rule-set anti-spam --matched --format csv
//	matchgram evidence prune
package main

import "os"

func main() {
	os.Exit(Execute())
}
