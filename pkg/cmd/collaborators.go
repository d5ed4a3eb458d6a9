package cmd

import (
	"log/slog"

	"github.com/journeyhq/journey/pkg/clients/chat"
	"github.com/journeyhq/journey/pkg/clients/messenger"
	"github.com/journeyhq/journey/pkg/protocol"
	"github.com/journeyhq/journey/pkg/recency"
)

// NewCollaborators wires the external collaborator clients from their URLs.
// The chat service covers both text generation and automation control.
func NewCollaborators(logger *slog.Logger, messengerURL, chatURL, redisURL string) (protocol.Collaborators, error) {
	chatClient := chat.NewClient(chatURL, logger)

	recencyStore, err := recency.NewRedisStore(redisURL, logger)
	if err != nil {
		return protocol.Collaborators{}, err
	}

	return protocol.Collaborators{
		Messenger:  messenger.NewClient(messengerURL, logger),
		Generator:  chatClient,
		Automation: chatClient,
		Recency:    recencyStore,
	}, nil
}
