//go:generate go run go.uber.org/mock/mockgen -source=user.go -destination=../mocks/mock_user_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"

	"trekconnect/errors"
)

type IUserRepository interface {
	CreateUser(handle, hashedPassword string) error
	GetUserByHandle(handle string) (User, error)
}

type UserRepository struct {
	db *badger.DB
}

func NewUserRepository(db *badger.DB) IUserRepository {
	return &UserRepository{db: db}
}

// User is the repository-layer representation of a registered participant.
// The handle doubles as the participant identity used in room derivation.
type User struct {
	Handle       string    `json:"handle"`
	PasswordHash string    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
}

// CreateUser persists a new participant keyed by handle.
func (u UserRepository) CreateUser(handle, hashedPassword string) error {
	user := User{
		Handle:       handle,
		PasswordHash: hashedPassword,
		CreatedAt:    time.Now().UTC(),
	}

	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("marshal failed: %w", err)
	}

	return u.db.Update(func(txn *badger.Txn) error {
		key := []byte(userKey(handle))
		if _, err := txn.Get(key); err == nil {
			return errors.ErrUserAlreadyExists
		}
		return txn.Set(key, data)
	})
}

// GetUserByHandle retrieves a participant record from Badger.
func (u UserRepository) GetUserByHandle(handle string) (User, error) {
	var user User

	err := u.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(userKey(handle)))
		if err != nil {
			return err // Callers map this to ErrInvalidCredentials
		}

		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &user)
		})
	})

	if err != nil {
		return User{}, err
	}

	return user, nil
}

func userKey(handle string) string {
	return "user:" + handle
}
