package model

import (
	"fmt"
	"time"
)

// Channel is the medium an interaction was sent through.
type Channel string

const (
	ChannelEmail    Channel = "email"
	ChannelWhatsApp Channel = "whatsapp"
	ChannelPhone    Channel = "phone"
)

// InteractionStatus is the delivery state of an interaction.
type InteractionStatus string

const (
	InteractionSent      InteractionStatus = "sent"
	InteractionDelivered InteractionStatus = "delivered"
	InteractionFailed    InteractionStatus = "failed"
	InteractionReplied   InteractionStatus = "replied"
)

// Interaction is an append-only record of one outreach attempt.
type Interaction struct {
	ID              string            `json:"id"`
	LeadID          string            `json:"lead_id"`
	Channel         Channel           `json:"channel"`
	Step            int               `json:"step"`
	MessageTemplate string            `json:"message_template"`
	MessageContent  string            `json:"message_content"`
	SentAt          time.Time         `json:"sent_at"`
	Status          InteractionStatus `json:"status"`
	ExternalID      *string           `json:"external_id,omitempty"`
	ErrorMessage    *string           `json:"error_message,omitempty"`
}

// StepTemplateName is the template name recorded for an email step.
func StepTemplateName(step int) string {
	return fmt.Sprintf("email_step_%d", step)
}

// BlacklistType names the field a blacklist rule matches against.
type BlacklistType string

const (
	BlacklistDomain      BlacklistType = "domain"
	BlacklistCompanyName BlacklistType = "company_name"
	BlacklistPhone       BlacklistType = "phone"
	BlacklistEmail       BlacklistType = "email"
)

// Blacklist is a suppression rule checked at lead creation.
type Blacklist struct {
	ID        string        `json:"id" yaml:"-"`
	Type      BlacklistType `json:"type" yaml:"type"`
	Value     string        `json:"value" yaml:"value"`
	Reason    string        `json:"reason,omitempty" yaml:"reason"`
	CreatedAt time.Time     `json:"created_at" yaml:"-"`
}
