// Package chat executes @commands typed into the chat box on behalf of a
// user. Commands never fail the request: problems come back as results with
// action none or error.
package chat

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"founder-connect/internal/config"
	"founder-connect/internal/domain/activity"
	"founder-connect/internal/domain/command"
	"founder-connect/internal/domain/user"
	"founder-connect/internal/infrastructure/ai"
	"founder-connect/internal/metrics"
	"founder-connect/internal/repository"
	"founder-connect/internal/search"
	"founder-connect/internal/usecase/outreach"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	ActionConnect = "connect"
	ActionNone    = "none"
	ActionError   = "error"

	searchLimit  = 10
	connectLimit = 5
)

type Result struct {
	Action  string `json:"action"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// ProfileCard is the public view of a user returned by chat commands.
type ProfileCard struct {
	ID     uuid.UUID `json:"id"`
	Name   string    `json:"name"`
	Role   string    `json:"role"`
	Title  string    `json:"title"`
	Bio    string    `json:"bio"`
	Avatar string    `json:"avatar"`
	Tags   []string  `json:"tags"`
	Skills []string  `json:"skills"`
}

type Connector interface {
	AddRequest(ctx context.Context, sender user.User, to uuid.UUID) error
}

type Messenger interface {
	Send(ctx context.Context, from, to uuid.UUID, body string) (repository.Message, error)
}

type Outreacher interface {
	Run(ctx context.Context, req outreach.Request) (outreach.Report, error)
}

type Deps struct {
	Parser      *command.Parser
	Users       user.Repository
	Queries     repository.UserQueryRepository
	Connections Connector
	Messages    Messenger
	Outreach    Outreacher
	Generator   ai.Generator
	Log         activity.Log
	AITimeout   time.Duration
	Logger      *zap.Logger
}

type Router struct {
	parser      *command.Parser
	users       user.Repository
	queries     repository.UserQueryRepository
	connections Connector
	messages    Messenger
	outreach    Outreacher
	generator   ai.Generator
	log         activity.Log
	aiTimeout   time.Duration
	logger      *zap.Logger
	now         func() time.Time
}

func NewRouter(d Deps) *Router {
	if d.Parser == nil {
		d.Parser = command.DefaultParser()
	}
	if d.Generator == nil {
		d.Generator = ai.Disabled{}
	}
	if d.AITimeout <= 0 {
		d.AITimeout = config.DefaultGenerationTimeout
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	return &Router{
		parser:      d.Parser,
		users:       d.Users,
		queries:     d.Queries,
		connections: d.Connections,
		messages:    d.Messages,
		outreach:    d.Outreach,
		generator:   d.Generator,
		log:         d.Log,
		aiTimeout:   d.AITimeout,
		logger:      d.Logger,
		now:         time.Now,
	}
}

// Route classifies raw and runs the matching handler for userID.
func (r *Router) Route(ctx context.Context, userID uuid.UUID, raw string) Result {
	cmd := r.parser.Parse(raw)
	log := r.logger.With(zap.String("user_id", userID.String()), zap.String("intent", cmd.Intent.String()))

	var res Result
	me, err := r.users.GetByID(ctx, userID)
	switch {
	case errors.Is(err, user.ErrNotFound):
		res = Result{Action: ActionError, Message: "Your account could not be found."}
	case err != nil:
		log.Error("load requester failed", zap.Error(err))
		res = Result{Action: ActionError, Message: "Something went wrong, please try again."}
	default:
		res = r.dispatch(ctx, me, cmd, log)
	}

	metrics.ObserveChatCommand(cmd.Intent.String(), res.Action)
	r.record(ctx, userID, raw, cmd, res)
	return res
}

func (r *Router) dispatch(ctx context.Context, me user.User, cmd command.Command, log *zap.Logger) Result {
	switch cmd.Intent {
	case command.IntentBioGeneration:
		return r.bioGeneration(ctx, me, cmd, log)
	case command.IntentPostGeneration:
		return r.postGeneration(ctx, me, cmd, log)
	case command.IntentBioAndPost:
		return r.bioAndPost(ctx, me, cmd, log)
	case command.IntentBioUpdate:
		return r.bioUpdate(ctx, me, cmd, log)
	case command.IntentBioRefresh:
		return r.bioRefresh(ctx, me, log)
	case command.IntentSendMessage:
		return r.sendMessage(ctx, me, cmd, log)
	case command.IntentSearchProfiles:
		return r.searchProfiles(ctx, me, cmd, log)
	case command.IntentConnectRequest:
		return r.connectRequest(ctx, me, cmd, log)
	case command.IntentProfileDisplay:
		return r.profileDisplay(ctx, cmd, log)
	case command.IntentOutreach:
		return r.runOutreach(ctx, me, cmd, log)
	}
	return Result{Action: ActionNone, Message: helpMessage}
}

func (r *Router) bioGeneration(ctx context.Context, me user.User, cmd command.Command, log *zap.Logger) Result {
	bio, err := r.generate(ctx, bioSystemPrompt, bioPrompt(me, cmd.Theme))
	if err != nil {
		return r.generationFailed(err, log)
	}
	if err := r.users.UpdateBio(ctx, me.ID, bio); err != nil {
		log.Error("save generated bio failed", zap.Error(err))
		return internalError()
	}
	return Result{Action: cmd.Intent.String(), Message: "Your new bio is saved.", Data: map[string]string{"bio": bio}}
}

func (r *Router) postGeneration(ctx context.Context, me user.User, cmd command.Command, log *zap.Logger) Result {
	post, err := r.generate(ctx, postSystemPrompt, postPrompt(me, cmd.PostTopic))
	if err != nil {
		return r.generationFailed(err, log)
	}
	return Result{Action: cmd.Intent.String(), Message: "Here is a draft post.", Data: map[string]string{"post": post}}
}

func (r *Router) bioAndPost(ctx context.Context, me user.User, cmd command.Command, log *zap.Logger) Result {
	bio, err := r.generate(ctx, bioSystemPrompt, bioPrompt(me, cmd.Theme))
	if err != nil {
		return r.generationFailed(err, log)
	}
	post, err := r.generate(ctx, postSystemPrompt, postPrompt(me, cmd.PostTopic))
	if err != nil {
		return r.generationFailed(err, log)
	}
	return Result{
		Action:  cmd.Intent.String(),
		Message: "Here are your bio and post drafts.",
		Data:    map[string]string{"bio": bio, "post": post},
	}
}

func (r *Router) bioUpdate(ctx context.Context, me user.User, cmd command.Command, log *zap.Logger) Result {
	if cmd.Text == "" {
		return Result{Action: ActionNone, Message: "Tell me the new bio, for example: @update my bio with Building tools for founders."}
	}
	if err := r.users.UpdateBio(ctx, me.ID, cmd.Text); err != nil {
		log.Error("update bio failed", zap.Error(err))
		return internalError()
	}
	return Result{Action: cmd.Intent.String(), Message: "Your bio is updated.", Data: map[string]string{"bio": cmd.Text}}
}

func (r *Router) bioRefresh(ctx context.Context, me user.User, log *zap.Logger) Result {
	bio, err := r.generate(ctx, bioSystemPrompt, refreshPrompt(me))
	if err != nil {
		return r.generationFailed(err, log)
	}
	if err := r.users.UpdateBio(ctx, me.ID, bio); err != nil {
		log.Error("save refreshed bio failed", zap.Error(err))
		return internalError()
	}
	return Result{Action: command.IntentBioRefresh.String(), Message: "Your bio is refreshed.", Data: map[string]string{"bio": bio}}
}

func (r *Router) sendMessage(ctx context.Context, me user.User, cmd command.Command, log *zap.Logger) Result {
	if cmd.Recipient == "" || cmd.Text == "" {
		return Result{Action: ActionNone, Message: "Try: @send a message to Jane saying hello."}
	}
	to, err := r.queries.FindFirstByName(ctx, cmd.Recipient, me.ID)
	if errors.Is(err, user.ErrNotFound) {
		return Result{Action: ActionNone, Message: fmt.Sprintf("No user found matching %q.", cmd.Recipient)}
	}
	if err != nil {
		log.Error("find recipient failed", zap.Error(err))
		return internalError()
	}

	msg, err := r.messages.Send(ctx, me.ID, to.ID, cmd.Text)
	if err != nil {
		log.Error("send message failed", zap.String("to", to.ID.String()), zap.Error(err))
		return internalError()
	}
	return Result{
		Action:  cmd.Intent.String(),
		Message: fmt.Sprintf("Message sent to %s.", to.Name),
		Data: map[string]any{
			"conversationId": msg.ConversationID,
			"messageId":      msg.ID,
			"to":             cardOf(to),
		},
	}
}

func (r *Router) searchProfiles(ctx context.Context, me user.User, cmd command.Command, log *zap.Logger) Result {
	terms := search.Terms(cmd.Query)
	if len(terms) == 0 {
		return Result{Action: ActionNone, Message: "Tell me who to look for, for example: @find fintech investors."}
	}
	found, err := r.queries.SearchProfiles(ctx, repository.ProfileSearch{
		Terms:     terms,
		Fields:    []repository.ProfileField{repository.FieldName, repository.FieldRole, repository.FieldTitle, repository.FieldBio},
		ExcludeID: me.ID,
		Limit:     searchLimit,
	})
	if err != nil {
		log.Error("search profiles failed", zap.Error(err))
		return internalError()
	}
	if len(found) == 0 {
		return Result{Action: cmd.Intent.String(), Message: "No profiles matched your search.", Data: map[string]any{"profiles": []ProfileCard{}}}
	}
	return Result{
		Action:  cmd.Intent.String(),
		Message: fmt.Sprintf("Found %d matching profiles.", len(found)),
		Data:    map[string]any{"profiles": cardsOf(found)},
	}
}

func (r *Router) connectRequest(ctx context.Context, me user.User, cmd command.Command, log *zap.Logger) Result {
	terms := search.Terms(cmd.Target)
	if len(terms) == 0 {
		return Result{Action: ActionNone, Message: "Tell me who to connect with, for example: @connect me with investors."}
	}
	found, err := r.queries.SearchProfiles(ctx, repository.ProfileSearch{
		Terms:     terms,
		Fields:    []repository.ProfileField{repository.FieldRole, repository.FieldTitle, repository.FieldName},
		ExcludeID: me.ID,
		Limit:     connectLimit,
	})
	if err != nil {
		log.Error("find connect candidates failed", zap.Error(err))
		return internalError()
	}
	if len(found) == 0 {
		return Result{Action: ActionNone, Message: fmt.Sprintf("No users found matching %q.", cmd.Target)}
	}

	requested := make([]ProfileCard, 0, len(found))
	for _, candidate := range found {
		if err := r.connections.AddRequest(ctx, me, candidate.ID); err != nil {
			log.Warn("connect request failed", zap.String("to", candidate.ID.String()), zap.Error(err))
			continue
		}
		requested = append(requested, cardOf(candidate))
	}
	if len(requested) == 0 {
		return internalError()
	}
	return Result{
		Action:  ActionConnect,
		Message: fmt.Sprintf("Connection request sent to %s.", joinNames(requested)),
		Data:    map[string]any{"requested": requested},
	}
}

func (r *Router) profileDisplay(ctx context.Context, cmd command.Command, log *zap.Logger) Result {
	if cmd.Target == "" {
		return Result{Action: ActionNone, Message: "Tell me whose profile to show, for example: @profile of Jane."}
	}
	u, err := r.queries.FindFirstByName(ctx, cmd.Target, uuid.Nil)
	if errors.Is(err, user.ErrNotFound) {
		return Result{Action: ActionNone, Message: fmt.Sprintf("No user found matching %q.", cmd.Target)}
	}
	if err != nil {
		log.Error("find profile failed", zap.Error(err))
		return internalError()
	}
	return Result{Action: cmd.Intent.String(), Message: fmt.Sprintf("Profile of %s.", u.Name), Data: map[string]any{"profile": cardOf(u)}}
}

func (r *Router) runOutreach(ctx context.Context, me user.User, cmd command.Command, log *zap.Logger) Result {
	args := cmd.Outreach
	if strings.TrimSpace(args.Topic) == "" {
		return Result{Action: ActionNone, Message: "Try: @outreach topic: fintech summary: what you are building max: 10"}
	}
	if r.outreach == nil {
		return Result{Action: ActionError, Message: "Outreach is not available right now."}
	}

	req := outreach.Request{
		UserID:    me.ID.String(),
		Topic:     args.Topic,
		Summary:   args.Summary,
		Max:       args.Max,
		FromName:  firstNonEmpty(args.FromName, me.Name),
		FromEmail: senderEmail(args.FromEmail, me.Email),
	}
	rep, err := r.outreach.Run(ctx, req)
	if err != nil {
		log.Error("outreach failed", zap.Error(err))
		return internalError()
	}
	return Result{
		Action:  cmd.Intent.String(),
		Message: fmt.Sprintf("Outreach sent to %d of %d contacts.", len(rep.Sent), rep.Recipients),
		Data:    rep,
	}
}

func (r *Router) generate(ctx context.Context, system, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.aiTimeout)
	defer cancel()
	out, err := r.generator.Generate(ctx, system, prompt)
	if err != nil {
		return "", err
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return "", errors.New("empty generation")
	}
	return out, nil
}

func (r *Router) generationFailed(err error, log *zap.Logger) Result {
	kind := ai.Classify(err)
	metrics.ObserveGenerationFailure(string(kind))
	log.Warn("text generation failed", zap.String("kind", string(kind)), zap.Error(err))
	return Result{Action: ActionError, Message: generationMessage(kind, err)}
}

func generationMessage(kind ai.FailureKind, err error) string {
	if errors.Is(err, ai.ErrDisabled) {
		return "Text generation is not configured on this server."
	}
	switch kind {
	case ai.FailureTimeout:
		return "The AI service took too long to respond. Please try again."
	case ai.FailureAuth:
		return "The AI service rejected our credentials. Please contact support."
	case ai.FailureRateLimit:
		return "The AI service is busy right now. Please try again in a minute."
	}
	return "The AI service could not generate a response. Please try again."
}

func (r *Router) record(ctx context.Context, userID uuid.UUID, raw string, cmd command.Command, res Result) {
	if r.log == nil {
		return
	}
	err := r.log.AppendChat(ctx, activity.ChatEntry{
		UserID:    userID.String(),
		Command:   raw,
		Intent:    cmd.Intent.String(),
		Action:    res.Action,
		Message:   res.Message,
		CreatedAt: r.now().UTC(),
	})
	if err != nil {
		r.logger.Warn("chat log append failed", zap.Error(err))
	}
}

// History returns the newest chat log entries for userID.
func (r *Router) History(ctx context.Context, userID uuid.UUID, limit int) ([]activity.ChatEntry, error) {
	if r.log == nil {
		return []activity.ChatEntry{}, nil
	}
	return r.log.ChatHistory(ctx, userID.String(), activity.ClampLimit(limit))
}

func internalError() Result {
	return Result{Action: ActionError, Message: "Something went wrong, please try again."}
}

func cardOf(u user.User) ProfileCard {
	return ProfileCard{
		ID:     u.ID,
		Name:   u.Name,
		Role:   u.Role,
		Title:  u.Title,
		Bio:    u.Bio,
		Avatar: u.Avatar,
		Tags:   nonNil(u.Tags),
		Skills: nonNil(u.Skills),
	}
}

func cardsOf(users []user.User) []ProfileCard {
	out := make([]ProfileCard, len(users))
	for i, u := range users {
		out[i] = cardOf(u)
	}
	return out
}

func joinNames(cards []ProfileCard) string {
	names := make([]string, len(cards))
	for i, c := range cards {
		names[i] = c.Name
	}
	return strings.Join(names, ", ")
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// senderEmail returns the bare address of requested when it parses as a
// single mailbox, else the requester's own email.
func senderEmail(requested, own string) string {
	requested = strings.TrimSpace(requested)
	if requested == "" || strings.ContainsAny(requested, "\r\n") {
		return own
	}
	addr, err := mail.ParseAddress(requested)
	if err != nil {
		return own
	}
	return addr.Address
}

func firstNonEmpty(v ...string) string {
	for _, s := range v {
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	return ""
}
