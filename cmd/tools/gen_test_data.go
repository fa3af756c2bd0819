// Command gen_test_data seeds a badger database with a scripted
// conversation so the gateway and the inspector have something to show
// on a fresh checkout.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"trekconnect/domain"
	"trekconnect/repositories"
)

func main() {
	dbPath := "./data/badger"
	if len(os.Args) > 1 {
		dbPath = os.Args[1]
	}

	db, err := badger.Open(badger.DefaultOptions(dbPath).WithLoggingLevel(badger.WARNING))
	if err != nil {
		panic(fmt.Sprintf("Cannot open database: %v", err))
	}
	defer db.Close()

	repo := repositories.NewMessageRepository(db, slog.Default(), nil)

	roomID, err := domain.DeriveRoomID("kirk", "spock")
	if err != nil {
		panic(err)
	}

	script := []struct {
		sender, recipient, body string
	}{
		{"kirk", "spock", "Status report, Mr. Spock."},
		{"spock", "kirk", "All systems nominal, Captain."},
		{"kirk", "spock", "Any sign of the anomaly?"},
		{"spock", "kirk", "Sensors detect a subspace distortion at bearing 214."},
		{"kirk", "spock", "Set a course. Warp factor three."},
	}

	base := time.Now().UTC().Add(-time.Duration(len(script)) * time.Minute)
	for i, line := range script {
		msg := domain.Message{
			ID:          uuid.New(),
			RoomID:      roomID,
			SenderID:    domain.ParticipantID(line.sender),
			RecipientID: domain.ParticipantID(line.recipient),
			Body:        line.body,
			SentAt:      base.Add(time.Duration(i) * time.Minute),
		}
		if err := repo.StoreMessage(msg); err != nil {
			panic(fmt.Sprintf("Cannot store message: %v", err))
		}
	}

	fmt.Printf("Seeded %d messages in room %s at %s\n", len(script), roomID, dbPath)
}
