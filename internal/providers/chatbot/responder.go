package chatbot

import (
	"context"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Responder answers a support query with a single text reply.
type Responder interface {
	Reply(ctx context.Context, query string) (string, error)
}

// rule maps a set of trigger keywords to a canned response.
type rule struct {
	topic    string
	keywords []string
	response string
}

// StaticResponder is a deterministic keyword-matching responder: the first
// rule with a matching keyword wins, and an explicit fallback covers the
// no-match branch. There is no hidden state beyond the table.
type StaticResponder struct {
	rules    []rule
	fallback string
}

func NewStaticResponder() *StaticResponder {
	rules := []rule{
		{
			topic:    "donations",
			keywords: []string{"donate", "donation", "give", "contribute"},
			response: "To donate, open a campaign page, connect your wallet, enter an amount greater than zero, and confirm the transaction in your wallet. Funds go directly to the campaign contract.",
		},
		{
			topic:    "wallets",
			keywords: []string{"wallet", "metamask", "connect"},
			response: "Connect a wallet using the connect button in the header. We never hold your keys; every donation is signed in your own wallet.",
		},
		{
			topic:    "milestones",
			keywords: []string{"milestone", "release", "threshold"},
			response: "Campaign funds unlock in milestones. Each milestone is a cumulative donation threshold; once reached, the organization can request release of that portion.",
		},
		{
			topic:    "campaigns",
			keywords: []string{"campaign", "charity", "organization", "register"},
			response: "Organizations register and pass verification before creating campaigns. Donors can browse all active campaigns and their milestone progress on the campaigns page.",
		},
		{
			topic:    "refunds",
			keywords: []string{"refund", "cancel", "mistake"},
			response: "Confirmed on-chain donations are final and cannot be reversed. If you cancelled the signature in your wallet, no funds were sent.",
		},
		{
			topic:    "fees",
			keywords: []string{"fee", "gas", "cost"},
			response: "The platform charges no fee; you only pay the network gas cost of the donation transaction.",
		},
	}
	caser := cases.Title(language.English)
	topics := make([]string, 0, len(rules))
	for _, r := range rules {
		topics = append(topics, caser.String(r.topic))
	}
	return &StaticResponder{
		rules: rules,
		fallback: "I can help with " + strings.Join(topics, ", ") +
			". Could you rephrase your question using one of those topics?",
	}
}

func (s *StaticResponder) Reply(_ context.Context, query string) (string, error) {
	q := strings.ToLower(query)
	for _, r := range s.rules {
		for _, kw := range r.keywords {
			if strings.Contains(q, kw) {
				return r.response, nil
			}
		}
	}
	return s.fallback, nil
}

var _ Responder = (*StaticResponder)(nil)
