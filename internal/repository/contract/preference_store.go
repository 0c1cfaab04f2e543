package contract

import "context"

// PreferenceStore is a flat key-value store for client preferences.
// GetPref reports found=false for a missing key.
type PreferenceStore interface {
	GetPref(ctx context.Context, key string) (value string, found bool, err error)
	SetPref(ctx context.Context, key string, value string) error
}
