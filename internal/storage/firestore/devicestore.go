// Package firestore persists device registrations in Google Cloud Firestore.
package firestore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"github.com/tinywideclouds/go-platform/pkg/net/v1"

	"github.com/tinywideclouds/go-notification-actions/pkg/center"
)

// DeviceStore implements center.DeviceStore using Firestore.
type DeviceStore struct {
	client *firestore.Client
}

func NewDeviceStore(client *firestore.Client) *DeviceStore {
	return &DeviceStore{client: client}
}

// deviceRecord is the internal DB representation. It holds EITHER a plain
// APNs token string OR a web subscription object.
type deviceRecord struct {
	Platform        string                 `firestore:"platform"`
	Token           string                 `firestore:"token,omitempty"`
	WebSubscription *center.WebSubscription `firestore:"web_subscription,omitempty"`
	UpdatedAt       time.Time              `firestore:"updated_at"`
}

func (s *DeviceStore) RegisterAPNS(ctx context.Context, recipient urn.URN, token string) error {
	// Hash of the token as Doc ID prevents duplicates and hot-spotting.
	record := deviceRecord{
		Platform:  "apns",
		Token:     token,
		UpdatedAt: time.Now(),
	}
	_, err := s.deviceRef(recipient, hashKey(token)).Set(ctx, record)
	return err
}

func (s *DeviceStore) UnregisterAPNS(ctx context.Context, recipient urn.URN, token string) error {
	_, err := s.deviceRef(recipient, hashKey(token)).Delete(ctx)
	return err
}

func (s *DeviceStore) RegisterWeb(ctx context.Context, recipient urn.URN, sub center.WebSubscription) error {
	// For web, the endpoint URL is the unique identifier.
	record := deviceRecord{
		Platform:        "web",
		WebSubscription: &sub,
		UpdatedAt:       time.Now(),
	}
	_, err := s.deviceRef(recipient, hashKey(sub.Endpoint)).Set(ctx, record)
	return err
}

func (s *DeviceStore) UnregisterWeb(ctx context.Context, recipient urn.URN, endpoint string) error {
	_, err := s.deviceRef(recipient, hashKey(endpoint)).Delete(ctx)
	return err
}

// Fetch buckets every registered device of the recipient by platform.
func (s *DeviceStore) Fetch(ctx context.Context, recipient urn.URN) (*center.Devices, error) {
	iter := s.devicesCollection(recipient).Documents(ctx)
	defer iter.Stop()

	devices := &center.Devices{
		Recipient:        recipient,
		APNSTokens:       make([]string, 0),
		WebSubscriptions: make([]center.WebSubscription, 0),
	}

	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("firestore iteration failed: %w", err)
		}

		var record deviceRecord
		if err := doc.DataTo(&record); err != nil {
			// Corrupt rows are skipped, not fatal.
			continue
		}

		if record.Platform == "web" && record.WebSubscription != nil {
			devices.WebSubscriptions = append(devices.WebSubscriptions, *record.WebSubscription)
		} else if record.Token != "" {
			devices.APNSTokens = append(devices.APNSTokens, record.Token)
		}
	}

	return devices, nil
}

// deviceRef: recipients/{recipientID}/devices/{deviceHash}
func (s *DeviceStore) deviceRef(recipient urn.URN, docID string) *firestore.DocumentRef {
	return s.devicesCollection(recipient).Doc(docID)
}

func (s *DeviceStore) devicesCollection(recipient urn.URN) *firestore.CollectionRef {
	return s.client.Collection("recipients").Doc(recipient.String()).Collection("devices")
}

func hashKey(k string) string {
	sum := sha256.Sum256([]byte(k))
	return hex.EncodeToString(sum[:])
}
