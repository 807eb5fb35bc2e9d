package chat

import (
	"fmt"
	"strings"

	"founder-connect/internal/domain/user"
)

const helpMessage = `I did not recognise that command. Try one of:
@generate bio about climate tech
@write a post about hiring your first engineer
@update my bio with Building tools for founders
@refresh my bio
@send a message to Jane saying hello
@find fintech investors
@connect me with investors
@profile of Jane
@outreach topic: fintech summary: what you are building max: 10`

const (
	bioSystemPrompt  = "You write short first-person professional bios for a founder networking platform. Reply with the bio text only, at most 80 words, no hashtags."
	postSystemPrompt = "You write concise social posts for a founder networking platform. Reply with the post text only, at most 150 words."
)

func profileContext(u user.User) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Name: %s\n", u.Name)
	if u.Role != "" {
		fmt.Fprintf(&b, "Role: %s\n", u.Role)
	}
	if u.Title != "" {
		fmt.Fprintf(&b, "Title: %s\n", u.Title)
	}
	if len(u.Tags) > 0 {
		fmt.Fprintf(&b, "Interests: %s\n", strings.Join(u.Tags, ", "))
	}
	if len(u.Skills) > 0 {
		fmt.Fprintf(&b, "Skills: %s\n", strings.Join(u.Skills, ", "))
	}
	return b.String()
}

func bioPrompt(u user.User, theme string) string {
	p := "Write a bio for this person.\n" + profileContext(u)
	if theme != "" {
		p += "Focus on: " + theme + "\n"
	}
	return p
}

func refreshPrompt(u user.User) string {
	p := "Rewrite this person's bio so it reads fresh while keeping the facts.\n" + profileContext(u)
	if u.Bio != "" {
		p += "Current bio: " + u.Bio + "\n"
	}
	return p
}

func postPrompt(u user.User, topic string) string {
	return "Write a post by this person about " + topic + ".\n" + profileContext(u)
}
