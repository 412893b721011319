package notification

import (
	"context"
	"fmt"
	"strings"
	"time"

	"servana/config"
	"servana/database"
	"servana/utils"

	"firebase.google.com/go/v4/messaging"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// template is a push notification blueprint. Placeholders of the form
// {{name}} are substituted from the vars map.
type template struct {
	Title string
	Body  string
}

var templates = map[string]template{
	TemplateBookingRequested: {"New booking request", "You have a new booking for {{date}} at {{time}}. Confirm within {{deadline}}."},
	TemplateBookingConfirmed: {"Booking confirmed", "Your booking on {{date}} at {{time}} is confirmed."},
	TemplateBookingRejected:  {"Booking declined", "Your booking on {{date}} was declined. {{reason}}"},
	TemplateBookingExpired:   {"Booking expired", "Your booking on {{date}} was not confirmed in time and has expired."},
	TemplateBookingCancelled: {"Booking cancelled", "The booking on {{date}} at {{time}} was cancelled by the {{by}}."},
	TemplateBookingMoved:     {"Booking rescheduled", "Your booking moved to {{date}} at {{time}}."},
}

// FCMNotifier sends push notifications through Firebase Cloud
// Messaging. Device tokens are kept in the device_tokens collection,
// keyed by account id.
type FCMNotifier struct {
	tokenColl *mongo.Collection
}

// NewFCMNotifier constructs the production notifier. utils.FirebaseInit
// must have run.
func NewFCMNotifier() *FCMNotifier {
	db := database.MongoClient.Database(config.AppConfig.DatabaseName)
	return &FCMNotifier{
		tokenColl: db.Collection("device_tokens"),
	}
}

func (n *FCMNotifier) lookupToken(ctx context.Context, recipientID string) (string, error) {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var doc struct {
		AccountID string `bson:"account_id"`
		FCMToken  string `bson:"fcm_token"`
	}
	err := n.tokenColl.FindOne(ctxWithTimeout, bson.M{"account_id": recipientID}).Decode(&doc)
	if err != nil {
		return "", fmt.Errorf("could not resolve device token for %s: %w", recipientID, err)
	}
	if doc.FCMToken == "" {
		return "", fmt.Errorf("recipient %s has no device token", recipientID)
	}
	return doc.FCMToken, nil
}

func render(text string, vars map[string]string) string {
	for k, v := range vars {
		text = strings.ReplaceAll(text, "{{"+k+"}}", v)
	}
	return text
}

// Send resolves the recipient's device token and pushes the rendered
// template through FCM.
func (n *FCMNotifier) Send(ctx context.Context, recipientID, templateID string, vars map[string]string) error {
	tpl, ok := templates[templateID]
	if !ok {
		return fmt.Errorf("unknown notification template %q", templateID)
	}

	token, err := n.lookupToken(ctx, recipientID)
	if err != nil {
		return err
	}

	msg := &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title: render(tpl.Title, vars),
			Body:  render(tpl.Body, vars),
		},
		Data: vars,
		Android: &messaging.AndroidConfig{
			Priority: "high",
		},
	}

	response, err := utils.FCMClient.Send(ctx, msg)
	if err != nil {
		return fmt.Errorf("failed to send FCM message to %s: %w", recipientID, err)
	}
	utils.GetLogger().Debug("push sent",
		zap.String("messageId", response), zap.String("template", templateID))
	return nil
}
