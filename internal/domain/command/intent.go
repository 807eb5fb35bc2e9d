package command

type Intent string

const (
	IntentBioGeneration  Intent = "bio-generation"
	IntentPostGeneration Intent = "post-generation"
	IntentBioAndPost     Intent = "bio-and-post"
	IntentBioUpdate      Intent = "bio-update"
	IntentBioRefresh     Intent = "bio-refresh"
	IntentSendMessage    Intent = "send-message"
	IntentSearchProfiles Intent = "search-profiles"
	IntentConnectRequest Intent = "connect-request"
	IntentProfileDisplay Intent = "profile-display"
	IntentOutreach       Intent = "outreach"
	IntentNone           Intent = "none"
)

func (i Intent) String() string { return string(i) }

// Command is a classified chat command together with the arguments its
// intent needs. Only the fields relevant to Intent are populated.
type Command struct {
	Intent Intent
	Raw    string
	Body   string

	// bio-generation, bio-and-post
	Theme string
	// post-generation, bio-and-post
	PostTopic string
	// bio-update, send-message
	Text string

	Recipient string
	Query     string
	Target    string

	Outreach OutreachArgs
}

// OutreachArgs are the labeled fields of an outreach command.
type OutreachArgs struct {
	Topic     string `mapstructure:"topic"`
	Summary   string `mapstructure:"summary"`
	Max       int    `mapstructure:"max"`
	FromName  string `mapstructure:"fromname"`
	FromEmail string `mapstructure:"fromemail"`
}
