package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"sakura-backend/internal/models"
)

// DiscordNotifier posts new orders to a staff channel through a webhook.
type DiscordNotifier struct {
	session   *discordgo.Session
	webhookID string
	token     string
}

func NewDiscordNotifier(webhookURL string) (*DiscordNotifier, error) {
	id, token, err := parseWebhookURL(webhookURL)
	if err != nil {
		return nil, err
	}
	// Webhook execution needs no bot token.
	session, err := discordgo.New("")
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}
	session.Client = &http.Client{Timeout: 10 * time.Second}

	return &DiscordNotifier{session: session, webhookID: id, token: token}, nil
}

func (d *DiscordNotifier) Name() string { return "discord" }

func (d *DiscordNotifier) Notify(ctx context.Context, _ models.OrderRequest, event models.OrderEvent) error {
	_, err := d.session.WebhookExecute(d.webhookID, d.token, false, &discordgo.WebhookParams{
		Username: "Sakura Sushi",
		Embeds:   []*discordgo.MessageEmbed{orderEmbed(event)},
	}, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("webhook execute: %w", err)
	}
	return nil
}

func orderEmbed(event models.OrderEvent) *discordgo.MessageEmbed {
	var lines []string
	for _, it := range event.Items {
		lines = append(lines, fmt.Sprintf("%s × %d — %d ₽", it.Title, it.Quantity, it.Price*it.Quantity))
	}

	fields := []*discordgo.MessageEmbedField{
		{Name: "Сумма", Value: fmt.Sprintf("%d ₽", event.Total), Inline: true},
	}
	if event.DeliveryTime != "" {
		fields = append(fields, &discordgo.MessageEmbedField{Name: "Доставка", Value: event.DeliveryTime, Inline: true})
	}
	if event.PaymentMethod != "" {
		fields = append(fields, &discordgo.MessageEmbedField{Name: "Оплата", Value: event.PaymentMethod, Inline: true})
	}

	return &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("🍣 Новый заказ %s", event.OrderID),
		Description: strings.Join(lines, "\n"),
		Color:       0xE91E63,
		Fields:      fields,
		Timestamp:   event.CreatedAt.UTC().Format(time.RFC3339),
		Footer:      &discordgo.MessageEmbedFooter{Text: "Sakura Sushi"},
	}
}

// parseWebhookURL splits https://discord.com/api/webhooks/{id}/{token}.
func parseWebhookURL(raw string) (id, token string, err error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", fmt.Errorf("invalid discord webhook URL: %w", err)
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i := 0; i+2 < len(parts); i++ {
		if parts[i] == "webhooks" && parts[i+1] != "" && parts[i+2] != "" {
			return parts[i+1], parts[i+2], nil
		}
	}
	return "", "", fmt.Errorf("discord webhook URL %q has no id/token", raw)
}
