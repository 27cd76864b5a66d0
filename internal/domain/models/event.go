package models

import "fmt"

// Broadcast channels with a fixed naming convention. Per-user and per-admin
// channels are derived with UserChannel / AdminDashboardChannel.
const (
	ChannelBookings           = "bookings"
	ChannelUsers              = "users"
	ChannelBuses              = "buses"
	ChannelSystem             = "system"
	ChannelAdminNotifications = "admin-notifications"
	ChannelAdminDashboards    = "admin-dashboards"
)

func UserChannel(userID int64) string {
	return fmt.Sprintf("user-%d", userID)
}

func AdminDashboardChannel(adminID int64) string {
	return fmt.Sprintf("admin-dashboard-%d", adminID)
}
