package roles

import (
	"fmt"
	"strings"
)

// ApplicationChannel receives submitted applications
const ApplicationChannel = "applications"

// Role is a staff role members can apply for
type Role struct {
	Value string
	Label string
}

// Question is one modal text input
type Question struct {
	ID          string
	Label       string
	Placeholder string
}

// Catalog lists the roles offered in the select menu
var Catalog = []Role{
	{Value: "support", Label: "Support"},
	{Value: "control", Label: "Control"},
	{Value: "events", Label: "Event host"},
	{Value: "moderator", Label: "Moderator"},
	{Value: "presenter", Label: "Presenter"},
	{Value: "creative", Label: "Creative"},
}

var commonQuestions = []Question{
	{ID: "identity", Label: "Your name and age", Placeholder: "Jane Doe, 21"},
	{ID: "experience", Label: "Have you been staff on other servers?", Placeholder: "Yes, moderator on ..."},
	{ID: "time", Label: "What is your time zone?", Placeholder: "GMT+3"},
	{ID: "motivation", Label: "Why do you want to join the team?", Placeholder: "I am active every day"},
}

var microphoneQuestion = Question{ID: "microphone", Label: "Which microphone do you use?", Placeholder: "Razer Seiren"}

// Lookup returns the catalog entry for value
func Lookup(value string) (Role, bool) {
	for _, r := range Catalog {
		if r.Value == value {
			return r, true
		}
	}
	return Role{}, false
}

// Questions returns the modal questions for role. Presenters are also asked
// about their microphone. Discord caps a modal at five inputs.
func Questions(role string) []Question {
	qs := append([]Question(nil), commonQuestions[:1]...)
	if role == "presenter" {
		qs = append(qs, microphoneQuestion)
	}
	return append(qs, commonQuestions[1:]...)
}

// Format renders a submitted application for the applications channel.
// Unanswered questions are shown as "not provided".
func Format(role Role, userID string, answers map[string]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**New application:** %s\n**Applicant:** <@%s>\n\n", role.Label, userID)
	for _, q := range Questions(role.Value) {
		answer := strings.TrimSpace(answers[q.ID])
		if answer == "" {
			answer = "not provided"
		}
		fmt.Fprintf(&b, "**%s** %s\n", q.Label, answer)
	}
	return strings.TrimSuffix(b.String(), "\n")
}
