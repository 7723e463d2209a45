// Package ports holds the contracts the app layer needs from the hosting
// server.
package ports

import "context"

// TableNames assigns the name a player is shown under at the card table.
type TableNames interface {
	// SetTableName stores username and displayName for userID. An error
	// means neither was applied.
	SetTableName(ctx context.Context, userID, username, displayName string) error
}
