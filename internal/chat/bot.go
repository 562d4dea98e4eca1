// Package chat is the scripted assistant behind the chat widget. It matches
// keywords; there is no language model behind it.
package chat

import (
	"errors"
	"fmt"
	"strings"

	"riy-server/internal/waste"
)

const (
	ActionFindCenters = "find_centers"
	ActionOpenScanner = "open_scanner"
	ActionShowIdeas   = "show_ideas"
)

const (
	Greeting  = "Hello! I'm your RIY assistant. How can I help you today?"
	helpReply = "I can help with recycling information, finding recycling centers near you, or scanning items to determine their recyclability. What would you like to know?"
)

var ErrEmptyMessage = errors.New("message is required")

// materials are checked in this order, so "plastic and glass" talks about plastic.
var materials = []string{"plastic", "glass", "paper", "metal"}

var showcase = []waste.Category{waste.Plastic, waste.Metal}

type Reply struct {
	Reply    string          `json:"reply"`
	Action   string          `json:"action,omitempty"`
	Ideas    []waste.DIYIdea `json:"ideas,omitempty"`
	Material string          `json:"material,omitempty"`
}

type Bot struct {
	knowledge *waste.KnowledgeBase
}

func NewBot(kb *waste.KnowledgeBase) *Bot {
	return &Bot{knowledge: kb}
}

func containsAny(s string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func material(msg string) (string, bool) {
	for _, m := range materials {
		if strings.Contains(msg, m) {
			return m, true
		}
	}
	return "", false
}

// Respond answers one message. The first matching rule wins.
func (b *Bot) Respond(message string) (Reply, error) {
	msg := strings.ToLower(strings.TrimSpace(message))
	if msg == "" {
		return Reply{}, ErrEmptyMessage
	}

	switch {
	case strings.Contains(msg, "recycle") && containsAny(msg, "where", "place", "center"):
		return Reply{
			Reply:  "I can help you find recycling centers near you. Please share your location or enter an address.",
			Action: ActionFindCenters,
		}, nil

	case containsAny(msg, "scan", "camera"):
		return Reply{
			Reply:  "Would you like to scan an item to determine its recyclability? I'll take you to our scanner.",
			Action: ActionOpenScanner,
		}, nil
	}

	if word, ok := material(msg); ok {
		return Reply{
			Reply:    fmt.Sprintf("Yes, %s is recyclable! Remember to clean it before recycling. Would you like to find a recycling center near you?", word),
			Material: word,
		}, nil
	}

	if containsAny(msg, "diy", "reuse") {
		return Reply{
			Reply:  "Here are some DIY ideas for reusing common waste items:",
			Action: ActionShowIdeas,
			Ideas:  b.ideas(),
		}, nil
	}
	return Reply{Reply: helpReply}, nil
}

// ideas picks the first idea of each showcase category.
func (b *Bot) ideas() []waste.DIYIdea {
	out := []waste.DIYIdea{}
	for _, c := range showcase {
		if ideas := b.knowledge.Lookup(c).DIYIdeas; len(ideas) > 0 {
			out = append(out, ideas[0])
		}
	}
	return out
}
