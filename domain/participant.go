// Package domain contains core concepts of the TrekConnect chat system.
// This file defines Participant identifiers and related invariants.
// No runtime, network, or UI logic should be added here.
package domain

// ParticipantID is an opaque identifier for a user account.
// It is stable for the lifetime of the account.
type ParticipantID string
