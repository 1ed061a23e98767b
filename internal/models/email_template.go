package models

// EmailTemplate is a locale-specific e-mail template.
// For AI-composed mails System holds the instructions and Body the prompt; placeholders use {{name}}.
type EmailTemplate struct {
	TemplateID string `bson:"template_id" json:"template_id"` // e.g., "offer_notification"
	Locale     string `bson:"locale" json:"locale"`           // e.g., "en-US"
	Subject    string `bson:"subject" json:"subject"`
	System     string `bson:"system,omitempty" json:"system,omitempty"`
	Body       string `bson:"body" json:"body"`
}
