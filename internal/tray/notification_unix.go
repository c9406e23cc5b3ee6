//go:build !windows

package tray

import "log"

// ShowNotification logs the notification instead of displaying it; only
// the Windows build has a native toast backend.
func ShowNotification(title, message string) {
	log.Printf("tray: notification (not shown on this platform): %s - %s", title, message)
}
