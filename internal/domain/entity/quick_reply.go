package entity

import "time"

// QuickReply is a canned admin response.
type QuickReply struct {
	ID         string    `json:"id" firestore:"id"`
	Title      string    `json:"title" firestore:"title"`
	Content    string    `json:"content" firestore:"content"`
	Emoji      string    `json:"emoji,omitempty" firestore:"emoji,omitempty"`
	UsageCount int       `json:"usage_count" firestore:"usageCount"`
	CreatedAt  time.Time `json:"created_at" firestore:"createdAt"`
}

// DefaultQuickReplies seed an empty collection.
var DefaultQuickReplies = []QuickReply{
	{Title: "Greeting", Content: "Hello! Thanks for stopping by. How can I help you?", Emoji: "👋"},
	{Title: "One moment", Content: "Please give me a moment, I will get back to you shortly!", Emoji: "⏳"},
	{Title: "Contact", Content: "For a detailed conversation, please email me and I will answer quickly.", Emoji: "📧"},
	{Title: "Thanks", Content: "Thank you for reaching out! Have a great day 😊", Emoji: "🙏"},
	{Title: "Away", Content: "I am away from my desk right now. I will reply a little later!", Emoji: "🚶"},
	{Title: "Collaboration", Content: "Thanks for the collaboration inquiry! Please take a look at the portfolio and send the details by email.", Emoji: "🤝"},
}
