package command

import (
	"regexp"
	"sort"
	"strings"

	"founder-connect/internal/config"

	"github.com/mitchellh/mapstructure"
)

// Rule maps a command body to an intent. Match receives the body with the
// leading '@' removed and fills the intent specific fields of cmd.
type Rule struct {
	Intent   Intent
	Priority int
	Match    func(body string, cmd *Command) bool
}

type Parser struct {
	rules []Rule
}

// NewParser orders rules by ascending priority. Rules sharing a priority keep
// their given order.
func NewParser(rules []Rule) *Parser {
	sorted := make([]Rule, len(rules))
	copy(sorted, rules)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Priority < sorted[j].Priority })
	return &Parser{rules: sorted}
}

func DefaultParser() *Parser {
	return NewParser(DefaultRules())
}

func (p *Parser) Rules() []Rule {
	out := make([]Rule, len(p.rules))
	copy(out, p.rules)
	return out
}

// Parse classifies raw. Input that does not start with '@' or matches no
// rule yields IntentNone.
func (p *Parser) Parse(raw string) Command {
	cmd := Command{Intent: IntentNone, Raw: raw}

	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "@") {
		return cmd
	}
	body := strings.TrimSpace(strings.TrimPrefix(trimmed, "@"))
	cmd.Body = body
	if body == "" {
		return cmd
	}

	for _, r := range p.rules {
		candidate := Command{Intent: r.Intent, Raw: raw, Body: body}
		if r.Match(body, &candidate) {
			return candidate
		}
	}
	return cmd
}

var (
	reBioGeneration = regexp.MustCompile(`(?is)^(?:generate|create)\s+(?:a\s+|my\s+|new\s+)*(?:bio|profile)(?:\s+(?:about|on|for)\s+(.+))?$`)
	reBioOnly       = regexp.MustCompile(`(?is)\bbio\s+only\b`)
	reBioPostJoiner = regexp.MustCompile(`(?is)\band\s+(?:a\s+)?post\s+about\b`)
	rePostGen       = regexp.MustCompile(`(?is)^(?:generate|create|write)\s+(?:a\s+|an\s+|new\s+)*(?:post|content)\s+(?:about|on)\s+(.+)$`)
	reBioAndPost    = regexp.MustCompile(`(?is)^(?:generate|create)\s+(?:a\s+|my\s+)*bio\s+about\s+(.+?)\s+and\s+(?:a\s+)?post\s+about\s+(.+)$`)
	reBioUpdate     = regexp.MustCompile(`(?is)^update\s+my\s+bio\s+with\s+(.+)$`)
	reBioRefresh    = regexp.MustCompile(`(?is)^refresh\s+my\s+bio\b`)
	reSendPrefix    = regexp.MustCompile(`(?is)^send\s+a\s+message\s+to\s+`)
	reSaying        = regexp.MustCompile(`(?is)\bsaying\b`)
	reSearch        = regexp.MustCompile(`(?is)^(?:show\s+me\s+profiles\s+of|find|search)\b\s*(?:for\s+)?(.*)$`)
	reConnect       = regexp.MustCompile(`(?is)^connect\s+(?:me\s+with|with|to)\s+(.+)$`)
	reConnReq       = regexp.MustCompile(`(?is)\bconnection\s+request\b(?:\s+(?:to|with|for)\s+(.+))?`)
	reProfileOf     = regexp.MustCompile(`(?is)\bprofile\s+of\s+(.+)$`)
	reShowProfile   = regexp.MustCompile(`(?is)^show\s+(.+?)(?:'s)?\s+profile$`)
	reOutreach      = regexp.MustCompile(`(?is)^outreach\b`)
	reOutreachLabel = regexp.MustCompile(`(?is)\b(topic|summary|max|fromname|fromemail)\s*:`)
)

// DefaultRules is the fixed classification table. The order is significant
// because several patterns overlap.
func DefaultRules() []Rule {
	return []Rule{
		{Intent: IntentBioGeneration, Priority: 10, Match: matchBioGeneration},
		{Intent: IntentPostGeneration, Priority: 20, Match: matchPostGeneration},
		{Intent: IntentBioAndPost, Priority: 30, Match: matchBioAndPost},
		{Intent: IntentBioUpdate, Priority: 40, Match: matchBioUpdate},
		{Intent: IntentBioRefresh, Priority: 50, Match: matchBioRefresh},
		{Intent: IntentSendMessage, Priority: 60, Match: matchSendMessage},
		{Intent: IntentSearchProfiles, Priority: 70, Match: matchSearch},
		{Intent: IntentConnectRequest, Priority: 80, Match: matchConnect},
		{Intent: IntentProfileDisplay, Priority: 90, Match: matchProfileDisplay},
		{Intent: IntentOutreach, Priority: 100, Match: matchOutreach},
	}
}

func matchBioGeneration(body string, cmd *Command) bool {
	if m := reBioGeneration.FindStringSubmatch(body); m != nil {
		theme := strings.TrimSpace(m[1])
		// The combined bio and post form carries its own rule.
		if reBioPostJoiner.MatchString(theme) {
			return false
		}
		cmd.Theme = theme
		return true
	}
	return reBioOnly.MatchString(body)
}

func matchPostGeneration(body string, cmd *Command) bool {
	m := rePostGen.FindStringSubmatch(body)
	if m == nil {
		return false
	}
	cmd.PostTopic = strings.TrimSpace(m[1])
	return true
}

func matchBioAndPost(body string, cmd *Command) bool {
	m := reBioAndPost.FindStringSubmatch(body)
	if m == nil {
		return false
	}
	cmd.Theme = strings.TrimSpace(m[1])
	cmd.PostTopic = strings.TrimSpace(m[2])
	return true
}

func matchBioUpdate(body string, cmd *Command) bool {
	m := reBioUpdate.FindStringSubmatch(body)
	if m == nil {
		return false
	}
	cmd.Text = strings.TrimSpace(m[1])
	return true
}

func matchBioRefresh(body string, _ *Command) bool {
	return reBioRefresh.MatchString(body)
}

func matchSendMessage(body string, cmd *Command) bool {
	prefix := reSendPrefix.FindStringIndex(body)
	saying := reSaying.FindStringIndex(body)
	if prefix == nil && saying == nil {
		return false
	}

	rest := body
	if prefix != nil {
		rest = body[prefix[1]:]
		saying = reSaying.FindStringIndex(rest)
	}

	if saying != nil {
		cmd.Recipient = trimRecipient(rest[:saying[0]])
		cmd.Text = strings.TrimSpace(rest[saying[1]:])
		return true
	}

	// "send a message to Jane: hi there"
	if i := strings.Index(rest, ":"); i >= 0 {
		cmd.Recipient = trimRecipient(rest[:i])
		cmd.Text = strings.TrimSpace(rest[i+1:])
		return true
	}
	cmd.Recipient = trimRecipient(rest)
	return true
}

var recipientPrefixes = []string{"send a message to ", "send message to ", "message ", "tell ", "send "}

func trimRecipient(s string) string {
	s = strings.TrimSpace(s)
	lower := strings.ToLower(s)
	for _, p := range recipientPrefixes {
		if strings.HasPrefix(lower, p) {
			s = strings.TrimSpace(s[len(p):])
			break
		}
	}
	return strings.Trim(s, " ,:")
}

func matchSearch(body string, cmd *Command) bool {
	m := reSearch.FindStringSubmatch(body)
	if m == nil {
		return false
	}
	cmd.Query = strings.TrimSpace(m[1])
	return true
}

func matchConnect(body string, cmd *Command) bool {
	if m := reConnect.FindStringSubmatch(body); m != nil {
		cmd.Target = strings.TrimSpace(m[1])
		return true
	}
	if m := reConnReq.FindStringSubmatch(body); m != nil {
		cmd.Target = strings.TrimSpace(m[1])
		return true
	}
	return false
}

func matchProfileDisplay(body string, cmd *Command) bool {
	if m := reProfileOf.FindStringSubmatch(body); m != nil {
		cmd.Target = strings.TrimSpace(m[1])
		return true
	}
	if m := reShowProfile.FindStringSubmatch(body); m != nil {
		cmd.Target = strings.TrimSpace(m[1])
		return true
	}
	return false
}

func matchOutreach(body string, cmd *Command) bool {
	if !reOutreach.MatchString(body) {
		return false
	}
	cmd.Outreach = parseOutreachArgs(body)
	return true
}

// parseOutreachArgs reads the labeled fields. A value runs until the next
// label. Missing or non-numeric max means the default.
func parseOutreachArgs(body string) OutreachArgs {
	fields := map[string]string{}
	locs := reOutreachLabel.FindAllStringSubmatchIndex(body, -1)
	for i, loc := range locs {
		end := len(body)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		key := strings.ToLower(body[loc[2]:loc[3]])
		if _, seen := fields[key]; seen {
			continue
		}
		fields[key] = strings.TrimSpace(body[loc[1]:end])
	}

	// Sender fields end at the first line break; the email also at the first space.
	if v, ok := fields["fromname"]; ok {
		fields["fromname"] = firstLine(v)
	}
	if v, ok := fields["fromemail"]; ok {
		if f := strings.Fields(v); len(f) > 0 {
			fields["fromemail"] = f[0]
		} else {
			fields["fromemail"] = ""
		}
	}

	var args OutreachArgs
	if err := decodeOutreach(fields, &args); err != nil {
		delete(fields, "max")
		args = OutreachArgs{}
		_ = decodeOutreach(fields, &args)
	}
	args.Max = clampOutreachMax(args.Max)
	return args
}

func firstLine(s string) string {
	if i := strings.IndexAny(s, "\r\n"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

func decodeOutreach(fields map[string]string, out *OutreachArgs) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(fields)
}

func clampOutreachMax(v int) int {
	switch {
	case v == 0:
		return config.DefaultOutreachMax
	case v < config.MinOutreachMax:
		return config.MinOutreachMax
	case v > config.MaxOutreachMax:
		return config.MaxOutreachMax
	default:
		return v
	}
}
