// RecipeVault Reminder Receiver Example
//
// A minimal endpoint that receives and verifies cooking reminder webhooks.
//
// Usage:
//   export REMINDER_WEBHOOK_SECRET="your_secret_here"
//   go run main.go
//
// Then start the API with REMINDER_WEBHOOK_URL=http://your-server:9000/reminders

package main

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"log"
	"math"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

// ReminderEvent is the webhook body for a due reminder
type ReminderEvent struct {
	EventType string       `json:"event_type"`
	EventID   string       `json:"event_id"`
	Timestamp time.Time    `json:"timestamp"`
	Data      ReminderData `json:"data"`
}

type ReminderData struct {
	ReminderID    string `json:"reminder_id"`
	UserID        string `json:"user_id"`
	RecipeID      string `json:"recipe_id"`
	RecipeTitle   string `json:"recipe_title"`
	Type          string `json:"type"`
	ScheduledTime string `json:"scheduled_time"`
	Title         string `json:"title"`
	Body          string `json:"body"`
}

func main() {
	secret := os.Getenv("REMINDER_WEBHOOK_SECRET")
	if secret == "" {
		log.Fatal("REMINDER_WEBHOOK_SECRET environment variable is required")
	}

	seen := newDeliveryLog()
	http.HandleFunc("/reminders", reminderHandler(secret, seen))
	http.HandleFunc("/health", healthHandler)

	log.Println("Starting reminder receiver on :9000")
	log.Println("Endpoint: http://localhost:9000/reminders")
	log.Fatal(http.ListenAndServe(":9000", nil))
}

func reminderHandler(secret string, seen *deliveryLog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			log.Printf("Error reading body: %v", err)
			http.Error(w, "Bad request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		signature := r.Header.Get("X-RecipeVault-Signature")
		if signature == "" {
			log.Println("Missing X-RecipeVault-Signature header")
			http.Error(w, "Missing signature", http.StatusUnauthorized)
			return
		}

		if !verifySignature(signature, string(body), secret) {
			log.Println("Invalid signature")
			http.Error(w, "Invalid signature", http.StatusUnauthorized)
			return
		}

		// Retries reuse the delivery id; acknowledge duplicates without reprocessing
		deliveryID := r.Header.Get("X-RecipeVault-Delivery-Id")
		if deliveryID != "" && !seen.first(deliveryID) {
			w.WriteHeader(http.StatusOK)
			return
		}

		var event ReminderEvent
		if err := json.Unmarshal(body, &event); err != nil {
			log.Printf("Error parsing JSON: %v", err)
			http.Error(w, "Invalid JSON", http.StatusBadRequest)
			return
		}

		log.Printf("Received %s for %q", event.EventType, event.Data.RecipeTitle)
		log.Printf("  User:      %s", event.Data.UserID)
		log.Printf("  Type:      %s", event.Data.Type)
		log.Printf("  Scheduled: %s", event.Data.ScheduledTime)
		log.Printf("  Message:   %s", event.Data.Body)

		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "received"})
	}
}

// verifySignature checks the HMAC-SHA256 signature.
//
// Header format: t=1705142400,v1=abc123def456...
// Signed payload: {timestamp}.{body}
func verifySignature(header, body, secret string) bool {
	var timestamp, signature string
	for _, part := range strings.Split(header, ",") {
		part = strings.TrimSpace(part)
		if strings.HasPrefix(part, "t=") {
			timestamp = strings.TrimPrefix(part, "t=")
		} else if strings.HasPrefix(part, "v1=") {
			signature = strings.TrimPrefix(part, "v1=")
		}
	}

	if timestamp == "" || signature == "" {
		return false
	}

	// ±5 min tolerance
	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return false
	}
	if math.Abs(float64(time.Now().Unix()-ts)) > 300 {
		log.Println("Signature timestamp too old or in future")
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp + "." + body))
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(signature), []byte(expected))
}

// deliveryLog remembers recent delivery ids.
type deliveryLog struct {
	mu  sync.Mutex
	ids chan string
	set map[string]struct{}
}

func newDeliveryLog() *deliveryLog {
	return &deliveryLog{ids: make(chan string, 1024), set: make(map[string]struct{})}
}

// first reports whether id has not been seen.
func (d *deliveryLog) first(id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.set[id]; ok {
		return false
	}
	if len(d.ids) == cap(d.ids) {
		delete(d.set, <-d.ids)
	}
	d.ids <- id
	d.set[id] = struct{}{}
	return true
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
